package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/grupovitta/backoffice-api/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Client{},
		&domain.Product{},
		&domain.Contract{},
		&domain.ContractEvent{},
	))
	return db
}

func seedContract(t *testing.T, db *gorm.DB) *domain.Contract {
	t.Helper()

	client := &domain.Client{Name: "Ana Lima", Role: domain.ClientRoleHolder, IsActive: true}
	require.NoError(t, db.Create(client).Error)

	product := &domain.Product{Name: "Vida Plus", Carrier: domain.CarrierNone, CoverageMonths: 12, IsActive: true}
	require.NoError(t, db.Create(product).Error)

	contract := &domain.Contract{
		Token:          uuid.NewString(),
		ClientID:       client.ID,
		ProductID:      product.ID,
		Status:         domain.ContractStatusApproved,
		ContractNumber: "POL-1",
		Premium:        decimal.NewFromInt(100),
		StartDate:      time.Now().UTC(),
		EndDate:        time.Now().UTC().AddDate(1, 0, 0),
	}
	require.NoError(t, db.Create(contract).Error)
	return contract
}

func TestListByContractOrdersOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	contract := seedContract(t, db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, eventType := range []string{domain.EventTypeContractCreated, domain.EventTypeIssueIntegration, domain.EventTypeStatusChange} {
		require.NoError(t, repo.Create(ctx, &domain.ContractEvent{
			ContractID: contract.ID,
			EventType:  eventType,
			StatusTag:  domain.EventStatusSuccess,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := repo.ListByContract(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTypeContractCreated, events[0].EventType)
	assert.Equal(t, domain.EventTypeStatusChange, events[2].EventType)
}

func TestListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	contract := seedContract(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &domain.ContractEvent{
		ContractID: contract.ID,
		EventType:  domain.EventTypeIssueIntegration,
		StatusTag:  domain.EventStatusError,
		CreatedAt:  now.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &domain.ContractEvent{
		ContractID: contract.ID,
		EventType:  domain.EventTypeIssueIntegration,
		StatusTag:  domain.EventStatusSuccess,
		CreatedAt:  now.Add(-time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &domain.ContractEvent{
		ContractID: contract.ID,
		EventType:  domain.EventTypeStatusChange,
		StatusTag:  domain.EventStatusSuccess,
		CreatedAt:  now,
	}))

	t.Run("denormalizes contract and client", func(t *testing.T) {
		rows, err := repo.ListRecent(ctx, RecentEventFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)

		// Newest first
		assert.Equal(t, domain.EventTypeStatusChange, rows[0].EventType)
		assert.Equal(t, contract.Token, rows[0].ContractToken)
		assert.Equal(t, "POL-1", rows[0].ContractNumber)
		assert.Equal(t, "Ana Lima", rows[0].ClientName)
	})

	t.Run("filters by event type and status", func(t *testing.T) {
		rows, err := repo.ListRecent(ctx, RecentEventFilter{
			EventType: domain.EventTypeIssueIntegration,
			StatusTag: domain.EventStatusError,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.EventStatusError, rows[0].StatusTag)
	})

	t.Run("filters by carrier", func(t *testing.T) {
		rows, err := repo.ListRecent(ctx, RecentEventFilter{Carrier: domain.CarrierNone})
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		rows, err = repo.ListRecent(ctx, RecentEventFilter{Carrier: domain.CarrierMeridian})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("filters by since", func(t *testing.T) {
		rows, err := repo.ListRecent(ctx, RecentEventFilter{Since: now.Add(-90 * time.Minute)})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("respects limit", func(t *testing.T) {
		rows, err := repo.ListRecent(ctx, RecentEventFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestListRecentSurvivesForceDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	contractRepo := NewContractRepository(db)
	contract := seedContract(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.ContractEvent{
		ContractID: contract.ID,
		EventType:  domain.EventTypeContractDeleted,
		StatusTag:  domain.EventStatusSuccess,
	}))

	require.NoError(t, contractRepo.ForceDelete(ctx, contract.ID))

	// The left join keeps the event row with blank contract identity
	rows, err := repo.ListRecent(ctx, RecentEventFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, contract.ID, rows[0].ContractID)
	assert.Empty(t, rows[0].ContractToken)
	assert.Empty(t, rows[0].ClientName)
}
