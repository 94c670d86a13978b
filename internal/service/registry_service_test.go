package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
)

func newClientService(t *testing.T) *ClientService {
	t.Helper()
	return NewClientService(repository.NewClientRepository(newTestDB(t)), zap.NewNop())
}

func newProductService(t *testing.T) *ProductService {
	t.Helper()
	return NewProductService(repository.NewProductRepository(newTestDB(t)), zap.NewNop())
}

func TestClientCreateDefaults(t *testing.T) {
	svc := newClientService(t)
	ctx := context.Background()

	birth := "1990-12-25"
	client, err := svc.Create(ctx, domain.CreateClientRequest{
		Name:        "Paula Neves",
		TaxDocument: "11122233344",
		BirthDate:   &birth,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ClientRoleHolder, client.Role)
	assert.True(t, client.IsActive)
	require.NotNil(t, client.BirthDate)
	assert.Equal(t, 1990, client.BirthDate.Year())
}

func TestClientCreateInvalidBirthDate(t *testing.T) {
	svc := newClientService(t)

	bad := "25/12/1990"
	_, err := svc.Create(context.Background(), domain.CreateClientRequest{
		Name:      "Paula Neves",
		BirthDate: &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientUpdate(t *testing.T) {
	svc := newClientService(t)
	ctx := context.Background()

	client, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Paula Neves"})
	require.NoError(t, err)

	name := "Paula Neves Silva"
	role := domain.ClientRoleSupplier
	inactive := false
	updated, err := svc.Update(ctx, client.ID, domain.UpdateClientRequest{
		Name:     &name,
		Role:     &role,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Paula Neves Silva", updated.Name)
	assert.Equal(t, domain.ClientRoleSupplier, updated.Role)
	assert.False(t, updated.IsActive)
}

func TestClientNotFound(t *testing.T) {
	svc := newClientService(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	name := "x"
	_, err = svc.Update(context.Background(), uuid.New(), domain.UpdateClientRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductCreateDefaults(t *testing.T) {
	svc := newProductService(t)

	product, err := svc.Create(context.Background(), domain.CreateProductRequest{Name: "Odonto"})
	require.NoError(t, err)

	assert.Equal(t, domain.CarrierNone, product.Carrier)
	assert.Equal(t, 12, product.CoverageMonths)
	assert.True(t, product.IsActive)
	assert.True(t, product.BasePremium.Equal(decimal.Zero))
}

func TestProductCreateIntegratedRequiresProductCode(t *testing.T) {
	svc := newProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProductRequest{
		Name:    "Vida Plus",
		Carrier: domain.CarrierMeridian,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	product, err := svc.Create(ctx, domain.CreateProductRequest{
		Name:        "Vida Plus",
		Carrier:     domain.CarrierMeridian,
		ProductCode: "VIDA01",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CarrierMeridian, product.Carrier)
}

func TestProductUpdateKeepsIntegrationInvariant(t *testing.T) {
	svc := newProductService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, domain.CreateProductRequest{
		Name:        "Vida Plus",
		Carrier:     domain.CarrierMeridian,
		ProductCode: "VIDA01",
	})
	require.NoError(t, err)

	// Clearing the product code of an integrated product is rejected
	empty := ""
	_, err = svc.Update(ctx, product.ID, domain.UpdateProductRequest{ProductCode: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Switching to a non-integrated carrier makes it fine
	none := domain.CarrierNone
	updated, err := svc.Update(ctx, product.ID, domain.UpdateProductRequest{
		Carrier:     &none,
		ProductCode: &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CarrierNone, updated.Carrier)
}
