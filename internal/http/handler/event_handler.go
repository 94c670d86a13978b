package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/repository"
	"github.com/grupovitta/backoffice-api/internal/service"
)

type EventHandler struct {
	eventService *service.EventService
	logger       *zap.Logger
}

func NewEventHandler(eventService *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// ListRecent godoc
// @Summary List recent events
// @Description Get recent events across all contracts, newest first. Events of deleted contracts are included.
// @Tags Events
// @Accept json
// @Produce json
// @Param type query string false "Filter by event type" Enums(status_change, contract_created, carrier_issue, carrier_cancel, loyalty, coverage_expired, contract_trashed, contract_restored, contract_deleted)
// @Param status query string false "Filter by status tag" Enums(success, error, skipped)
// @Param carrier query string false "Filter by product carrier" Enums(none, meridian)
// @Param since query string false "Only events at or after this time" format(date-time)
// @Param limit query int false "Maximum rows (max 500)" default(100)
// @Success 200 {array} domain.RecentEventRow
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /events [get]
func (h *EventHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	filter := repository.RecentEventFilter{
		EventType: r.URL.Query().Get("type"),
		StatusTag: domain.EventStatusTag(r.URL.Query().Get("status")),
		Carrier:   domain.CarrierCode(r.URL.Query().Get("carrier")),
	}

	if s := r.URL.Query().Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid since timestamp, expected RFC 3339")
			return
		}
		filter.Since = since
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	rows, err := h.eventService.ListRecent(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list recent events", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, rows)
}
