package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grupovitta/backoffice-api/internal/domain"
)

// ErrDuplicateContract is returned when an active contract already exists
// for the same client and product.
var ErrDuplicateContract = errors.New("active contract already exists for client and product")

// ContractRepository handles database operations for contracts
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// activeStatuses are the statuses that count against the one-active-contract
// rule. Cancelled contracts never conflict.
var activeStatuses = []domain.ContractStatus{
	domain.ContractStatusDraft,
	domain.ContractStatusPending,
	domain.ContractStatusApproved,
}

// CreateUnique inserts a contract after verifying no other active contract
// exists for the same client and product with unexpired coverage. The check
// and the insert run in one transaction with the candidate rows locked, so
// two concurrent creations cannot both pass.
func (r *ContractRepository) CreateUnique(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		check := tx
		// sqlite has no row locks; its transactions serialize writers anyway
		if tx.Dialector.Name() == "postgres" {
			check = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing domain.Contract
		err := check.
			Where("client_id = ? AND product_id = ? AND status IN ? AND end_date >= ?",
				contract.ClientID, contract.ProductID, activeStatuses, time.Now().UTC()).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateContract, existing.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for existing contract: %w", err)
		}

		if err := tx.Create(contract).Error; err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}
		return nil
	})
}

// FindActiveConflict returns the active contract for the client/product pair
// excluding the given contract, or nil when there is none.
func (r *ContractRepository) FindActiveConflict(ctx context.Context, clientID, productID, excludeID uuid.UUID) (*domain.Contract, error) {
	var existing domain.Contract
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND product_id = ? AND status IN ? AND end_date >= ? AND id <> ?",
			clientID, productID, activeStatuses, time.Now().UTC(), excludeID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for conflicting contract: %w", err)
	}
	return &existing, nil
}

// GetByID retrieves a contract with its client and product preloaded
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Product").
		First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetByIDIncludingTrashed retrieves a contract even when it is in the trash
func (r *ContractRepository) GetByIDIncludingTrashed(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).Unscoped().
		Preload("Client").
		Preload("Product").
		First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetByToken retrieves a contract by its public token
func (r *ContractRepository) GetByToken(ctx context.Context, token string) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Product").
		First(&contract, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// Update persists all contract fields
func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

// ContractFilter narrows contract listings
type ContractFilter struct {
	Status    domain.ContractStatus
	ClientID  uuid.UUID
	ProductID uuid.UUID
	Trashed   bool
	Page      int
	PageSize  int
}

// List returns contracts matching the filter, newest first
func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]domain.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Contract{})

	if filter.Trashed {
		query = query.Unscoped().Where("deleted_at IS NOT NULL")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != uuid.Nil {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.ProductID != uuid.Nil {
		query = query.Where("product_id = ?", filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var contracts []domain.Contract
	err := query.
		Preload("Client").
		Preload("Product").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}

	return contracts, total, nil
}

// MoveToTrash soft deletes a contract
func (r *ContractRepository) MoveToTrash(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contract{}, "id = ?", id).Error
}

// Restore clears the soft delete marker
func (r *ContractRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&domain.Contract{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// ForceDelete permanently removes a trashed contract. Events are kept.
func (r *ContractRepository) ForceDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&domain.Contract{}, "id = ?", id).Error
}

// ListApprovedExpiredBefore returns approved contracts whose coverage ended
// before the cutoff. The expiry sweep skips ones already marked expired.
func (r *ContractRepository) ListApprovedExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Contract, error) {
	if limit <= 0 {
		limit = 200
	}
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", domain.ContractStatusApproved, cutoff).
		Order("end_date ASC").
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired contracts: %w", err)
	}
	return contracts, nil
}
