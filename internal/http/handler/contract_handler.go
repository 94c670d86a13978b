package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
	"github.com/grupovitta/backoffice-api/internal/service"
)

type ContractHandler struct {
	contractService *service.ContractService
	logger          *zap.Logger
}

func NewContractHandler(contractService *service.ContractService, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		logger:          logger,
	}
}

// actorFrom returns the authenticated user's ID for the event trail
func actorFrom(r *http.Request) *string {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		return nil
	}
	id := userCtx.UserID.String()
	return &id
}

// List godoc
// @Summary List contracts
// @Description Get paginated list of contracts with optional filters. Use trashed=true to list the trash bin.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, pending, approved, cancelled)
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param productId query string false "Filter by product ID" format(uuid)
// @Param trashed query bool false "List trashed contracts instead of active ones"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.Contract}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts [get]
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	filter := repository.ContractFilter{
		Status:   domain.ContractStatus(r.URL.Query().Get("status")),
		Trashed:  r.URL.Query().Get("trashed") == "true",
		Page:     page,
		PageSize: pageSize,
	}
	if s := r.URL.Query().Get("clientId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid clientId format")
			return
		}
		filter.ClientID = id
	}
	if s := r.URL.Query().Get("productId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid productId format")
			return
		}
		filter.ProductID = id
	}

	contracts, total, err := h.contractService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list contracts", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list contracts")
		return
	}

	respondJSON(w, http.StatusOK, paginated(contracts, total, page, pageSize))
}

// GetByID godoc
// @Summary Get contract by ID
// @Description Get a contract with its client and product preloaded
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {object} domain.Contract
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id} [get]
func (h *ContractHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	contract, err := h.contractService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Contract not found")
			return
		}
		h.logger.Error("failed to get contract", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get contract")
		return
	}

	respondJSON(w, http.StatusOK, contract)
}

// Create godoc
// @Summary Create contract
// @Description Create a new contract. When the product's carrier is integrated and the contract is created as pending, policy issuance with the carrier is attempted immediately; the outcome is reported in the integration field without failing the request.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body domain.CreateContractRequest true "Contract data"
// @Success 201 {object} domain.ContractResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Client or product not found"
// @Failure 409 {object} domain.ErrorResponse "Client already has an active contract for this product"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts [post]
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.contractService.Create(r.Context(), req, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDuplicateContract):
			respondWithError(w, http.StatusConflict, "Client already has an active contract for this product")
		case errors.Is(err, service.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to create contract")
		}
		return
	}

	w.Header().Set("Location", "/api/v1/contracts/"+result.Contract.ID.String())
	respondJSON(w, http.StatusCreated, result)
}

// Update godoc
// @Summary Update contract
// @Description Update an existing contract. Requesting the approved status on a carrier-integrated product triggers policy issuance; the carrier outcome is reported in the integration field. Updating a contract of an integrated product that is still not approved retries issuance. Cancellation is not possible through this endpoint.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Param request body domain.UpdateContractRequest true "Contract data"
// @Success 200 {object} domain.ContractResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition or duplicate active contract"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id} [put]
func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	var req domain.UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.contractService.Update(r.Context(), id, req, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Contract not found")
		case errors.Is(err, service.ErrCancelViaUpdate):
			respondWithError(w, http.StatusConflict, "Contracts cannot be cancelled through update, use the cancel endpoint")
		case errors.Is(err, service.ErrInvalidTransition):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrDuplicateContract):
			respondWithError(w, http.StatusConflict, "Client already has an active contract for this product")
		case errors.Is(err, service.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to update contract")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel contract
// @Description Cancel an approved contract. Carrier-issued policies are cancelled with the carrier first; a carrier refusal leaves the contract approved. Contracts missing a carrier operation number can only be cancelled with force=true.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Param force query bool false "Cancel locally even when the carrier operation number is missing"
// @Success 200 {object} domain.ContractResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Contract is not approved or is missing its carrier operation number"
// @Failure 502 {object} domain.ErrorResponse "Carrier rejected the cancellation"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/cancel [post]
func (h *ContractHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	result, err := h.contractService.Cancel(r.Context(), id, force, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Contract not found")
		case errors.Is(err, service.ErrInvalidTransition):
			respondWithError(w, http.StatusConflict, "Only approved contracts can be cancelled")
		case errors.Is(err, service.ErrMissingOperationNumber):
			respondWithError(w, http.StatusConflict, "Contract has no carrier operation number, retry with force=true to cancel locally")
		case errors.Is(err, service.ErrCancellationRejected):
			respondWithError(w, http.StatusBadGateway, "Carrier rejected the cancellation, the contract remains approved")
		default:
			h.logger.Error("failed to cancel contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to cancel contract")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Trash godoc
// @Summary Move contract to trash
// @Description Soft delete a cancelled contract. Trashed contracts can be restored or force deleted.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Only cancelled contracts can be trashed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/trash [post]
func (h *ContractHandler) Trash(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	if err := h.contractService.MoveToTrash(r.Context(), id, actorFrom(r)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Contract not found")
		case errors.Is(err, service.ErrNotCancelled):
			respondWithError(w, http.StatusConflict, "Only cancelled contracts can be trashed")
		default:
			h.logger.Error("failed to trash contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to trash contract")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore godoc
// @Summary Restore contract from trash
// @Description Bring a trashed contract back as cancelled
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Contract is not in the trash"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/restore [post]
func (h *ContractHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	if err := h.contractService.Restore(r.Context(), id, actorFrom(r)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Contract not found")
		case errors.Is(err, service.ErrNotTrashed):
			respondWithError(w, http.StatusConflict, "Contract is not in the trash")
		default:
			h.logger.Error("failed to restore contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to restore contract")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForceDelete godoc
// @Summary Permanently delete contract
// @Description Permanently delete a trashed contract. The contract's event trail is kept.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Contract must be trashed first"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id} [delete]
func (h *ContractHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	if err := h.contractService.ForceDelete(r.Context(), id, actorFrom(r)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Contract not found")
		case errors.Is(err, service.ErrNotTrashed):
			respondWithError(w, http.StatusConflict, "Contract must be trashed before it can be permanently deleted")
		default:
			h.logger.Error("failed to delete contract", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to delete contract")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetEvents godoc
// @Summary List contract events
// @Description Get the full event trail of a contract, oldest first
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {array} domain.ContractEvent
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/events [get]
func (h *ContractHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	events, err := h.contractService.GetEvents(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Contract not found")
			return
		}
		h.logger.Error("failed to list contract events", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list contract events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
