package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/domain"
)

// EventRepository handles database operations for the contract event trail.
// The trail is append only: there is deliberately no update or delete here.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create appends an event to the trail
func (r *EventRepository) Create(ctx context.Context, event *domain.ContractEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create contract event: %w", err)
	}
	return nil
}

// ListByContract returns the full trail for one contract, oldest first
func (r *EventRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]domain.ContractEvent, error) {
	var events []domain.ContractEvent
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contract events: %w", err)
	}
	return events, nil
}

// RecentEventFilter narrows the denormalized recent-event listing
type RecentEventFilter struct {
	EventType string
	StatusTag domain.EventStatusTag
	Carrier   domain.CarrierCode
	Since     time.Time
	Limit     int
}

// recentEventScan is the raw join row before response shaping
type recentEventScan struct {
	ID             uuid.UUID
	ContractID     uuid.UUID
	ContractToken  string
	ContractNumber string
	ClientName     string
	EventType      string
	StatusTag      domain.EventStatusTag
	Description    string
	CreatedAt      time.Time
}

// ListRecent returns recent events denormalized with contract and client
// identity, newest first. Left joins keep events whose contract was force
// deleted; the trail outlives the contract.
func (r *EventRepository) ListRecent(ctx context.Context, filter RecentEventFilter) ([]domain.RecentEventRow, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.WithContext(ctx).
		Table("contract_events AS e").
		Select(`e.id, e.contract_id, e.event_type, e.status_tag, e.description, e.created_at,
			COALESCE(c.token, '') AS contract_token,
			COALESCE(c.contract_number, '') AS contract_number,
			COALESCE(cl.name, '') AS client_name`).
		Joins("LEFT JOIN contracts c ON c.id = e.contract_id").
		Joins("LEFT JOIN clients cl ON cl.id = c.client_id")

	if filter.Carrier != "" {
		query = query.Joins("LEFT JOIN products p ON p.id = c.product_id").
			Where("p.carrier = ?", filter.Carrier)
	}
	if filter.EventType != "" {
		query = query.Where("e.event_type = ?", filter.EventType)
	}
	if filter.StatusTag != "" {
		query = query.Where("e.status_tag = ?", filter.StatusTag)
	}
	if !filter.Since.IsZero() {
		query = query.Where("e.created_at >= ?", filter.Since)
	}

	var rows []recentEventScan
	err := query.Order("e.created_at DESC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}

	result := make([]domain.RecentEventRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.RecentEventRow{
			ID:             row.ID,
			ContractID:     row.ContractID,
			ContractToken:  row.ContractToken,
			ContractNumber: row.ContractNumber,
			ClientName:     row.ClientName,
			EventType:      row.EventType,
			StatusTag:      row.StatusTag,
			Description:    row.Description,
			CreatedAt:      row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}
