package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
)

// EventService records and reads the append-only contract event trail
type EventService struct {
	eventRepo *repository.EventRepository
	logger    *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(eventRepo *repository.EventRepository, logger *zap.Logger) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// EventEntry is one record to append to the trail
type EventEntry struct {
	ContractID  uuid.UUID
	EventType   string
	StatusTag   domain.EventStatusTag
	Description string
	Metadata    map[string]interface{}
	RawPayload  string
	ActorID     *string
}

// Record appends an event. Recording failures are logged but swallowed so a
// broken trail write never takes down the operation it describes; callers
// that need the trail guarantee pass the same database transaction.
func (s *EventService) Record(ctx context.Context, entry EventEntry) {
	metadataJSON := "null"
	if entry.Metadata != nil {
		if data, err := json.Marshal(entry.Metadata); err == nil {
			metadataJSON = string(data)
		} else {
			s.logger.Warn("Failed to marshal event metadata",
				zap.String("contract_id", entry.ContractID.String()),
				zap.String("event_type", entry.EventType),
				zap.Error(err),
			)
		}
	}

	event := &domain.ContractEvent{
		ContractID:  entry.ContractID,
		EventType:   entry.EventType,
		StatusTag:   entry.StatusTag,
		Description: entry.Description,
		Metadata:    metadataJSON,
		RawPayload:  entry.RawPayload,
		ActorID:     entry.ActorID,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record contract event",
			zap.String("contract_id", entry.ContractID.String()),
			zap.String("event_type", entry.EventType),
			zap.String("status_tag", string(entry.StatusTag)),
			zap.Error(err),
		)
	}
}

// RecordStatusChange appends the status_change event that accompanies every
// contract transition.
func (s *EventService) RecordStatusChange(ctx context.Context, contractID uuid.UUID, from, to domain.ContractStatus, actorID *string) {
	s.Record(ctx, EventEntry{
		ContractID:  contractID,
		EventType:   domain.EventTypeStatusChange,
		StatusTag:   domain.EventStatusSuccess,
		Description: string(from) + " -> " + string(to),
		Metadata: map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		},
		ActorID: actorID,
	})
}

// ListByContract returns the full trail for one contract
func (s *EventService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]domain.ContractEvent, error) {
	return s.eventRepo.ListByContract(ctx, contractID)
}

// ListRecent returns recent events denormalized for back-office views
func (s *EventService) ListRecent(ctx context.Context, filter repository.RecentEventFilter) ([]domain.RecentEventRow, error) {
	return s.eventRepo.ListRecent(ctx, filter)
}
