package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
)

// ClientService handles business logic for the client registry
type ClientService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(clientRepo *repository.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// Create registers a new client
func (s *ClientService) Create(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error) {
	role := req.Role
	if role == "" {
		role = domain.ClientRoleHolder
	}

	client := &domain.Client{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		TaxDocument: req.TaxDocument,
		Sex:         req.Sex,
		StateCode:   req.StateCode,
		City:        req.City,
		Address:     req.Address,
		PostalCode:  req.PostalCode,
		Role:        role,
		IsActive:    true,
	}

	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid birth date", ErrInvalidInput)
		}
		client.BirthDate = &parsed
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("Client created",
		zap.String("client_id", client.ID.String()),
		zap.String("role", string(client.Role)),
	)
	return client, nil
}

// GetByID loads one client
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
		}
		return nil, err
	}
	return client, nil
}

// Update applies partial changes to a client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateClientRequest) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.TaxDocument != nil {
		client.TaxDocument = *req.TaxDocument
	}
	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid birth date", ErrInvalidInput)
		}
		client.BirthDate = &parsed
	}
	if req.Sex != nil {
		client.Sex = *req.Sex
	}
	if req.StateCode != nil {
		client.StateCode = *req.StateCode
	}
	if req.City != nil {
		client.City = *req.City
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.PostalCode != nil {
		client.PostalCode = *req.PostalCode
	}
	if req.Role != nil {
		client.Role = *req.Role
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

// List returns clients matching the filter
func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, int64, error) {
	return s.clientRepo.List(ctx, filter)
}
