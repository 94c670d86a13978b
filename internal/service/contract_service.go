package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/carrier"
	"github.com/grupovitta/backoffice-api/internal/config"
	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/loyalty"
	"github.com/grupovitta/backoffice-api/internal/repository"
	"github.com/grupovitta/backoffice-api/internal/storage"
)

// ContractService owns the contract lifecycle: creation under the
// one-active-contract rule, carrier integration, cancellation, and the
// trash flow. Every integration attempt and every status change lands on
// the event trail.
type ContractService struct {
	contractRepo *repository.ContractRepository
	clientRepo   *repository.ClientRepository
	productRepo  *repository.ProductRepository
	events       *EventService
	gateway      carrier.PolicyGateway
	loyalty      loyalty.Client
	archive      storage.Archive
	carrierCfg   *config.CarrierConfig
	loyaltyCfg   *config.LoyaltyConfig
	logger       *zap.Logger
}

// NewContractService creates a new contract service. The loyalty client and
// payload archive are optional and may be nil.
func NewContractService(
	contractRepo *repository.ContractRepository,
	clientRepo *repository.ClientRepository,
	productRepo *repository.ProductRepository,
	events *EventService,
	gateway carrier.PolicyGateway,
	loyaltyClient loyalty.Client,
	archive storage.Archive,
	carrierCfg *config.CarrierConfig,
	loyaltyCfg *config.LoyaltyConfig,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		clientRepo:   clientRepo,
		productRepo:  productRepo,
		events:       events,
		gateway:      gateway,
		loyalty:      loyaltyClient,
		archive:      archive,
		carrierCfg:   carrierCfg,
		loyaltyCfg:   loyaltyCfg,
		logger:       logger,
	}
}

const invoicePeriodLayout = "01/2006"

// Create registers a contract and, for integrated products, immediately
// attempts carrier approval. A carrier failure does not fail the creation;
// the contract stays pending and the outcome reports the failure.
func (s *ContractService) Create(ctx context.Context, req domain.CreateContractRequest, actorID *string) (*domain.ContractResponse, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, req.ClientID)
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product is inactive", ErrInvalidInput)
	}

	status := req.Status
	if status == "" {
		status = domain.ContractStatusPending
	}

	premium := product.BasePremium
	if req.Premium != nil {
		premium = *req.Premium
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
		}
		startDate = parsed
	}

	contract := &domain.Contract{
		Token:     uuid.NewString(),
		ClientID:  client.ID,
		ProductID: product.ID,
		Status:    status,
		Premium:   premium,
		StartDate: startDate,
		EndDate:   startDate.AddDate(0, product.CoverageMonths, 0),
	}
	if actorID != nil {
		contract.OwnerID = *actorID
	}

	if err := s.contractRepo.CreateUnique(ctx, contract); err != nil {
		if errors.Is(err, repository.ErrDuplicateContract) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateContract, err)
		}
		return nil, err
	}

	contract.Client = client
	contract.Product = product

	s.events.Record(ctx, EventEntry{
		ContractID:  contract.ID,
		EventType:   domain.EventTypeContractCreated,
		StatusTag:   domain.EventStatusSuccess,
		Description: "contract created with status " + string(status),
		ActorID:     actorID,
	})

	outcome := &domain.IntegrationOutcome{Status: domain.IntegrationNotRequired}
	if product.Carrier.IsIntegrated() && contract.Status != domain.ContractStatusApproved {
		outcome = s.tryApprove(ctx, contract, client, product, actorID)
	}

	return &domain.ContractResponse{Contract: contract, Integration: outcome}, nil
}

// Update applies field changes and optional status transitions. When the
// contract is still not approved afterwards and its product is integrated,
// the carrier approval is attempted again; re-invoking update is the manual
// retry path for failed integrations.
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateContractRequest, actorID *string) (*domain.ContractResponse, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	if req.Status != nil && *req.Status == domain.ContractStatusCancelled {
		return nil, ErrCancelViaUpdate
	}
	if contract.Status == domain.ContractStatusCancelled && req.Status != nil {
		return nil, fmt.Errorf("%w: contract is cancelled", ErrInvalidTransition)
	}

	if req.Premium != nil {
		contract.Premium = *req.Premium
	}
	if req.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
		}
		contract.StartDate = parsed
	}
	if req.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
		}
		contract.EndDate = parsed
	}
	if req.OwnerID != nil {
		contract.OwnerID = *req.OwnerID
	}

	outcome := &domain.IntegrationOutcome{Status: domain.IntegrationNotRequired}
	statusChanged := false
	from := contract.Status

	if req.Status != nil && *req.Status != contract.Status {
		target := *req.Status
		if !domain.CanTransition(contract.Status, target) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, contract.Status, target)
		}

		if target == domain.ContractStatusApproved {
			// Re-validate the one-active-contract rule before raising status
			conflict, err := s.contractRepo.FindActiveConflict(ctx, contract.ClientID, contract.ProductID, contract.ID)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				return nil, fmt.Errorf("%w: conflicting contract %s", ErrDuplicateContract, conflict.ID)
			}
		}

		if target == domain.ContractStatusApproved && contract.Product != nil && contract.Product.Carrier.IsIntegrated() {
			// Approval of integrated products only happens through the
			// carrier; fall through to the tryApprove below
		} else {
			contract.Status = target
			statusChanged = true
		}
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	if statusChanged {
		s.events.RecordStatusChange(ctx, contract.ID, from, contract.Status, actorID)
	}

	if contract.Status != domain.ContractStatusApproved &&
		contract.Status != domain.ContractStatusCancelled &&
		contract.Product != nil && contract.Product.Carrier.IsIntegrated() {
		outcome = s.tryApprove(ctx, contract, contract.Client, contract.Product, actorID)
	}

	return &domain.ContractResponse{Contract: contract, Integration: outcome}, nil
}

// tryApprove runs one carrier approval attempt. Exactly one carrier_issue
// event is recorded per call, tagged success, error or skipped; on success
// the contract transitions to approved with the carrier numbers stored.
func (s *ContractService) tryApprove(ctx context.Context, contract *domain.Contract, client *domain.Client, product *domain.Product, actorID *string) *domain.IntegrationOutcome {
	if contract.Status == domain.ContractStatusApproved || contract.Status == domain.ContractStatusCancelled {
		return &domain.IntegrationOutcome{Status: domain.IntegrationNotRequired}
	}

	// Preconditions are checked before any network call
	if client.TaxDocument == "" || client.BirthDate == nil {
		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeIssueIntegration,
			StatusTag:   domain.EventStatusSkipped,
			Description: "carrier issue skipped: client is missing tax document or birth date",
			Metadata:    map[string]interface{}{"reason": domain.SkipReasonInsufficientClientData},
			ActorID:     actorID,
		})
		return &domain.IntegrationOutcome{
			Status: domain.IntegrationSkipped,
			Reason: domain.SkipReasonInsufficientClientData,
		}
	}

	if client.Role == domain.ClientRoleSupplier {
		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeIssueIntegration,
			StatusTag:   domain.EventStatusSkipped,
			Description: "carrier issue skipped: supplier accounts cannot be insured",
			Metadata:    map[string]interface{}{"reason": domain.SkipReasonHolderNotClient},
			ActorID:     actorID,
		})
		return &domain.IntegrationOutcome{
			Status: domain.IntegrationSkipped,
			Reason: domain.SkipReasonHolderNotClient,
		}
	}

	params := carrier.IssueParams{
		ProductCode:        product.ProductCode,
		PlanCode:           product.PlanCode,
		SalesChannel:       s.carrierCfg.SalesChannel,
		PartnerOperationID: partnerOperationID(contract.Token),
		Premium:            contract.Premium,
		InsuredName:        client.Name,
		TaxDocument:        client.TaxDocument,
		BirthDate:          *client.BirthDate,
		Sex:                client.Sex,
		StateCode:          client.StateCode,
		StartDate:          contract.StartDate,
		EndDate:            contract.EndDate,
	}

	res := s.gateway.IssuePolicy(ctx, params)

	metadata := map[string]interface{}{
		"return_code":    res.ReturnCode,
		"return_message": res.ReturnMessage,
	}
	if path := s.archivePayloads(ctx, contract.Token, "issue", res); path != "" {
		metadata["archive_path"] = path
	}

	if !res.Success {
		if contract.Metadata == nil {
			contract.Metadata = domain.MetadataMap{}
		}
		contract.Metadata[domain.MetaKeyLastCarrierResponse] = res.ReturnMessage
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			s.logger.Error("Failed to persist carrier failure on contract",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
		}

		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeIssueIntegration,
			StatusTag:   domain.EventStatusError,
			Description: "carrier refused to issue policy: " + res.ReturnMessage,
			Metadata:    metadata,
			RawPayload:  res.Raw,
			ActorID:     actorID,
		})
		return &domain.IntegrationOutcome{
			Status:  domain.IntegrationError,
			Message: res.ReturnMessage,
		}
	}

	from := contract.Status
	contract.Status = domain.ContractStatusApproved
	contract.ContractNumber = res.PolicyNumber
	contract.CertificateNumber = res.CertificateNumber
	contract.SetApprovalSnapshot(domain.ApprovalSnapshot{
		PolicyNumber:      res.PolicyNumber,
		CertificateNumber: res.CertificateNumber,
		OperationNumber:   res.OperationNumber,
		SalesChannel:      s.carrierCfg.SalesChannel,
		InvoicePeriod:     time.Now().UTC().Format(invoicePeriodLayout),
		ApprovedAt:        time.Now().UTC(),
	})
	if contract.Metadata == nil {
		contract.Metadata = domain.MetadataMap{}
	}
	contract.Metadata[domain.MetaKeyLastCarrierResponse] = res.ReturnMessage

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		s.logger.Error("Failed to persist approved contract",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
		return &domain.IntegrationOutcome{
			Status:  domain.IntegrationError,
			Message: "carrier approved but the contract could not be saved",
		}
	}

	metadata["policy_number"] = res.PolicyNumber
	metadata["certificate_number"] = res.CertificateNumber
	metadata["operation_number"] = res.OperationNumber

	s.events.Record(ctx, EventEntry{
		ContractID:  contract.ID,
		EventType:   domain.EventTypeIssueIntegration,
		StatusTag:   domain.EventStatusSuccess,
		Description: "policy issued by carrier",
		Metadata:    metadata,
		RawPayload:  res.Raw,
		ActorID:     actorID,
	})
	s.events.RecordStatusChange(ctx, contract.ID, from, domain.ContractStatusApproved, actorID)

	s.depositLoyaltyPoints(ctx, contract, client, actorID)

	return &domain.IntegrationOutcome{
		Status:       domain.IntegrationSuccess,
		PolicyNumber: res.PolicyNumber,
	}
}

// Cancel moves an approved contract to cancelled. For integrated products
// the carrier is told first; a carrier refusal keeps the contract approved
// and surfaces as an error. With force=true a contract whose approval left
// no operation number is cancelled locally with a skipped event.
func (s *ContractService) Cancel(ctx context.Context, id uuid.UUID, force bool, actorID *string) (*domain.ContractResponse, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	if contract.Status != domain.ContractStatusApproved {
		return nil, fmt.Errorf("%w: only approved contracts can be cancelled, contract is %s", ErrInvalidTransition, contract.Status)
	}

	if contract.Product == nil || !contract.Product.Carrier.IsIntegrated() {
		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeCancelIntegration,
			StatusTag:   domain.EventStatusSkipped,
			Description: "carrier cancel skipped: product has no carrier integration",
			Metadata:    map[string]interface{}{"reason": domain.SkipReasonCarrierNotIntegrated},
			ActorID:     actorID,
		})
		if err := s.finishCancellation(ctx, contract, actorID); err != nil {
			return nil, err
		}
		return &domain.ContractResponse{
			Contract:    contract,
			Integration: &domain.IntegrationOutcome{Status: domain.IntegrationSkipped, Reason: domain.SkipReasonCarrierNotIntegrated},
		}, nil
	}

	snap, _ := contract.GetApprovalSnapshot()
	if snap.OperationNumber == "" {
		if !force {
			return nil, ErrMissingOperationNumber
		}
		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeCancelIntegration,
			StatusTag:   domain.EventStatusSkipped,
			Description: "carrier cancel skipped: forced cancellation without operation number",
			Metadata: map[string]interface{}{
				"reason": domain.SkipReasonForced,
				"forced": true,
			},
			ActorID: actorID,
		})
		if err := s.finishCancellation(ctx, contract, actorID); err != nil {
			return nil, err
		}
		return &domain.ContractResponse{
			Contract:    contract,
			Integration: &domain.IntegrationOutcome{Status: domain.IntegrationSkipped, Reason: domain.SkipReasonForced},
		}, nil
	}

	res := s.gateway.CancelPolicy(ctx, carrier.CancelParams{
		OperationNumber: snap.OperationNumber,
		SalesChannel:    snap.SalesChannel,
		InvoicePeriod:   snap.InvoicePeriod,
	})

	metadata := map[string]interface{}{
		"return_code":      res.ReturnCode,
		"return_message":   res.ReturnMessage,
		"operation_number": snap.OperationNumber,
	}
	if path := s.archivePayloads(ctx, contract.Token, "cancel", res); path != "" {
		metadata["archive_path"] = path
	}

	if contract.Metadata == nil {
		contract.Metadata = domain.MetadataMap{}
	}
	contract.Metadata[domain.MetaKeyCancellationResponse] = res.ReturnMessage

	if !res.Success {
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			s.logger.Error("Failed to persist carrier cancel failure",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
		}
		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeCancelIntegration,
			StatusTag:   domain.EventStatusError,
			Description: "carrier refused cancellation: " + res.ReturnMessage,
			Metadata:    metadata,
			RawPayload:  res.Raw,
			ActorID:     actorID,
		})
		return nil, fmt.Errorf("%w: %s", ErrCancellationRejected, res.ReturnMessage)
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  contract.ID,
		EventType:   domain.EventTypeCancelIntegration,
		StatusTag:   domain.EventStatusSuccess,
		Description: "policy cancelled by carrier",
		Metadata:    metadata,
		RawPayload:  res.Raw,
		ActorID:     actorID,
	})

	if err := s.finishCancellation(ctx, contract, actorID); err != nil {
		return nil, err
	}

	s.withdrawLoyaltyPoints(ctx, contract, actorID)

	return &domain.ContractResponse{
		Contract:    contract,
		Integration: &domain.IntegrationOutcome{Status: domain.IntegrationSuccess},
	}, nil
}

// finishCancellation performs the local transition to cancelled
func (s *ContractService) finishCancellation(ctx context.Context, contract *domain.Contract, actorID *string) error {
	from := contract.Status
	contract.Status = domain.ContractStatusCancelled
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}
	s.events.RecordStatusChange(ctx, contract.ID, from, domain.ContractStatusCancelled, actorID)
	return nil
}

// GetByID loads one contract
func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return contract, nil
}

// List returns contracts matching the filter
func (s *ContractService) List(ctx context.Context, filter repository.ContractFilter) ([]domain.Contract, int64, error) {
	return s.contractRepo.List(ctx, filter)
}

// GetEvents returns the full trail for one contract, including trashed ones
func (s *ContractService) GetEvents(ctx context.Context, id uuid.UUID) ([]domain.ContractEvent, error) {
	if _, err := s.contractRepo.GetByIDIncludingTrashed(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return s.events.ListByContract(ctx, id)
}

// MoveToTrash soft deletes a cancelled contract
func (s *ContractService) MoveToTrash(ctx context.Context, id uuid.UUID, actorID *string) error {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return err
	}
	if contract.Status != domain.ContractStatusCancelled {
		return ErrNotCancelled
	}

	if err := s.contractRepo.MoveToTrash(ctx, id); err != nil {
		return fmt.Errorf("failed to trash contract: %w", err)
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  id,
		EventType:   domain.EventTypeContractTrashed,
		StatusTag:   domain.EventStatusSuccess,
		Description: "contract moved to trash",
		ActorID:     actorID,
	})
	return nil
}

// Restore brings a trashed contract back
func (s *ContractService) Restore(ctx context.Context, id uuid.UUID, actorID *string) error {
	contract, err := s.contractRepo.GetByIDIncludingTrashed(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return err
	}
	if !contract.DeletedAt.Valid {
		return ErrNotTrashed
	}

	if err := s.contractRepo.Restore(ctx, id); err != nil {
		return fmt.Errorf("failed to restore contract: %w", err)
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  id,
		EventType:   domain.EventTypeContractRestored,
		StatusTag:   domain.EventStatusSuccess,
		Description: "contract restored from trash",
		ActorID:     actorID,
	})
	return nil
}

// ForceDelete permanently removes a trashed contract. The event trail is
// written before the row disappears and is never deleted with it.
func (s *ContractService) ForceDelete(ctx context.Context, id uuid.UUID, actorID *string) error {
	contract, err := s.contractRepo.GetByIDIncludingTrashed(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return err
	}
	if !contract.DeletedAt.Valid {
		return ErrNotTrashed
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  id,
		EventType:   domain.EventTypeContractDeleted,
		StatusTag:   domain.EventStatusSuccess,
		Description: "contract permanently deleted",
		ActorID:     actorID,
	})

	if err := s.contractRepo.ForceDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

// SweepExpiredCoverage marks approved contracts whose coverage has ended.
// Returns how many contracts were marked. Used by the daily sweep job.
func (s *ContractService) SweepExpiredCoverage(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC()
	contracts, err := s.contractRepo.ListApprovedExpiredBefore(ctx, cutoff, 200)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, contract := range contracts {
		if _, done := contract.Metadata[domain.MetaKeyCoverageExpiredAt]; done {
			continue
		}
		if contract.Metadata == nil {
			contract.Metadata = domain.MetadataMap{}
		}
		contract.Metadata[domain.MetaKeyCoverageExpiredAt] = cutoff.Format(time.RFC3339)

		if err := s.contractRepo.Update(ctx, &contract); err != nil {
			s.logger.Error("Failed to mark contract coverage expired",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
			continue
		}

		s.events.Record(ctx, EventEntry{
			ContractID:  contract.ID,
			EventType:   domain.EventTypeCoverageExpired,
			StatusTag:   domain.EventStatusSuccess,
			Description: "coverage period ended on " + contract.EndDate.Format("2006-01-02"),
		})
		marked++
	}

	return marked, nil
}

// archivePayloads stores the raw request and response of a carrier exchange.
// Best effort: archive failures are logged, never propagated.
func (s *ContractService) archivePayloads(ctx context.Context, token, kind string, res carrier.Result) string {
	if s.archive == nil {
		return ""
	}

	payload := res.RawRequest
	if res.Raw != "" {
		payload += "\n" + res.Raw
	}
	if payload == "" {
		return ""
	}

	path, err := s.archive.Save(ctx, token, kind, []byte(payload))
	if err != nil {
		s.logger.Warn("Failed to archive carrier payload",
			zap.String("contract_token", token),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return ""
	}
	return path
}

// depositLoyaltyPoints credits points after an approval. Best effort.
func (s *ContractService) depositLoyaltyPoints(ctx context.Context, contract *domain.Contract, client *domain.Client, actorID *string) {
	if s.loyalty == nil {
		return
	}

	points := loyaltyPoints(contract.Premium, s.loyaltyCfg.PointsPerCurrencyUnit)
	if points <= 0 {
		return
	}

	err := s.loyalty.Deposit(ctx, client.TaxDocument, points, contract.Token)
	tag := domain.EventStatusSuccess
	description := fmt.Sprintf("deposited %d loyalty points", points)
	if err != nil {
		tag = domain.EventStatusError
		description = "loyalty deposit failed: " + err.Error()
		s.logger.Warn("Loyalty deposit failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  contract.ID,
		EventType:   domain.EventTypeLoyalty,
		StatusTag:   tag,
		Description: description,
		Metadata:    map[string]interface{}{"points": points, "direction": "deposit"},
		ActorID:     actorID,
	})
}

// withdrawLoyaltyPoints claws points back after a cancellation. Best effort.
func (s *ContractService) withdrawLoyaltyPoints(ctx context.Context, contract *domain.Contract, actorID *string) {
	if s.loyalty == nil || contract.Client == nil {
		return
	}

	points := loyaltyPoints(contract.Premium, s.loyaltyCfg.PointsPerCurrencyUnit)
	if points <= 0 {
		return
	}

	err := s.loyalty.Withdraw(ctx, contract.Client.TaxDocument, points, contract.Token)
	tag := domain.EventStatusSuccess
	description := fmt.Sprintf("withdrew %d loyalty points", points)
	if err != nil {
		tag = domain.EventStatusError
		description = "loyalty withdrawal failed: " + err.Error()
		s.logger.Warn("Loyalty withdrawal failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}

	s.events.Record(ctx, EventEntry{
		ContractID:  contract.ID,
		EventType:   domain.EventTypeLoyalty,
		StatusTag:   tag,
		Description: description,
		Metadata:    map[string]interface{}{"points": points, "direction": "withdraw"},
		ActorID:     actorID,
	})
}

func loyaltyPoints(premium decimal.Decimal, perUnit int) int {
	if perUnit <= 0 {
		perUnit = 1
	}
	return int(premium.Mul(decimal.NewFromInt(int64(perUnit))).IntPart())
}

// partnerOperationID derives the carrier's 14-character partner reference
// from the contract token.
func partnerOperationID(token string) string {
	id := strings.ToUpper(strings.ReplaceAll(token, "-", ""))
	if len(id) > 14 {
		id = id[:14]
	}
	return id
}
