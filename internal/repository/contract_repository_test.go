package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/domain"
)

func seedPair(t *testing.T, db *gorm.DB) (*domain.Client, *domain.Product) {
	t.Helper()

	client := &domain.Client{Name: "Carlos Dias", Role: domain.ClientRoleHolder, IsActive: true}
	require.NoError(t, db.Create(client).Error)

	product := &domain.Product{Name: "Vida Plus", Carrier: domain.CarrierNone, CoverageMonths: 12, IsActive: true}
	require.NoError(t, db.Create(product).Error)

	return client, product
}

func buildContract(client *domain.Client, product *domain.Product, status domain.ContractStatus, endDate time.Time) *domain.Contract {
	return &domain.Contract{
		Token:     uuid.NewString(),
		ClientID:  client.ID,
		ProductID: product.ID,
		Status:    status,
		Premium:   decimal.NewFromInt(100),
		StartDate: endDate.AddDate(-1, 0, 0),
		EndDate:   endDate,
	}
}

func TestCreateUnique(t *testing.T) {
	ctx := context.Background()
	future := time.Now().UTC().AddDate(0, 6, 0)
	past := time.Now().UTC().AddDate(0, -1, 0)

	t.Run("active contract blocks a second one", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewContractRepository(db)
		client, product := seedPair(t, db)

		require.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusApproved, future)))

		err := repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusPending, future))
		assert.ErrorIs(t, err, ErrDuplicateContract)
	})

	t.Run("cancelled contract does not conflict", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewContractRepository(db)
		client, product := seedPair(t, db)

		require.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusCancelled, future)))
		assert.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusPending, future)))
	})

	t.Run("expired coverage does not conflict", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewContractRepository(db)
		client, product := seedPair(t, db)

		require.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusApproved, past)))
		assert.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusPending, future)))
	})

	t.Run("different product does not conflict", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewContractRepository(db)
		client, product := seedPair(t, db)

		other := &domain.Product{Name: "Odonto", Carrier: domain.CarrierNone, CoverageMonths: 12, IsActive: true}
		require.NoError(t, db.Create(other).Error)

		require.NoError(t, repo.CreateUnique(ctx, buildContract(client, product, domain.ContractStatusApproved, future)))
		assert.NoError(t, repo.CreateUnique(ctx, buildContract(client, other, domain.ContractStatusPending, future)))
	})
}

func TestListTrashedFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewContractRepository(db)
	client, product := seedPair(t, db)
	ctx := context.Background()

	future := time.Now().UTC().AddDate(0, 6, 0)
	kept := buildContract(client, product, domain.ContractStatusCancelled, future)
	require.NoError(t, db.Create(kept).Error)

	trashed := buildContract(client, product, domain.ContractStatusCancelled, future)
	require.NoError(t, db.Create(trashed).Error)
	require.NoError(t, repo.MoveToTrash(ctx, trashed.ID))

	live, total, err := repo.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, live, 1)
	assert.Equal(t, kept.ID, live[0].ID)

	binned, total, err := repo.List(ctx, ContractFilter{Trashed: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, binned, 1)
	assert.Equal(t, trashed.ID, binned[0].ID)
}

func TestRestoreClearsDeletedAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewContractRepository(db)
	client, product := seedPair(t, db)
	ctx := context.Background()

	contract := buildContract(client, product, domain.ContractStatusCancelled, time.Now().UTC().AddDate(0, 6, 0))
	require.NoError(t, db.Create(contract).Error)

	require.NoError(t, repo.MoveToTrash(ctx, contract.ID))
	_, err := repo.GetByID(ctx, contract.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Restore(ctx, contract.ID))
	restored, err := repo.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.False(t, restored.DeletedAt.Valid)
}
