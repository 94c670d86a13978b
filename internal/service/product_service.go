package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
)

// ProductService handles business logic for the product catalog
type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create registers a new product
func (s *ProductService) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	carrier := req.Carrier
	if carrier == "" {
		carrier = domain.CarrierNone
	}
	if carrier.IsIntegrated() && req.ProductCode == "" {
		return nil, fmt.Errorf("%w: productCode is required for carrier-integrated products", ErrInvalidInput)
	}

	coverageMonths := req.CoverageMonths
	if coverageMonths == 0 {
		coverageMonths = 12
	}

	product := &domain.Product{
		Name:           req.Name,
		Carrier:        carrier,
		ProductCode:    req.ProductCode,
		PlanCode:       req.PlanCode,
		CoverageMonths: coverageMonths,
		IsActive:       true,
	}
	if req.BasePremium != nil {
		product.BasePremium = *req.BasePremium
	} else {
		product.BasePremium = decimal.Zero
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("carrier", string(product.Carrier)),
	)
	return product, nil
}

// GetByID loads one product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

// Update applies partial changes to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Carrier != nil {
		product.Carrier = *req.Carrier
	}
	if req.ProductCode != nil {
		product.ProductCode = *req.ProductCode
	}
	if req.PlanCode != nil {
		product.PlanCode = *req.PlanCode
	}
	if req.BasePremium != nil {
		product.BasePremium = *req.BasePremium
	}
	if req.CoverageMonths != nil {
		product.CoverageMonths = *req.CoverageMonths
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if product.Carrier.IsIntegrated() && product.ProductCode == "" {
		return nil, fmt.Errorf("%w: productCode is required for carrier-integrated products", ErrInvalidInput)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int64, error) {
	return s.productRepo.List(ctx, filter)
}
