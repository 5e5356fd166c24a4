package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
)

type BidHandler struct {
	bidService *service.BidService
	logger     *zap.Logger
}

func NewBidHandler(bidService *service.BidService, logger *zap.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		logger:     logger,
	}
}

// parseBidID reads the {id} path parameter as a numeric bid ID.
func parseBidID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// @Summary List bids
// @Description List bids with optional filters and pagination
// @Tags Bids
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Filter by status (Open, Submitted, Won, Lost)"
// @Param stage query string false "Filter by stage"
// @Param assignedTo query string false "Filter by assignee"
// @Param clientName query string false "Filter by client name"
// @Param dueBefore query string false "Due before date (YYYY-MM-DD)"
// @Param dueAfter query string false "Due after date (YYYY-MM-DD)"
// @Param minValue query number false "Minimum bid value"
// @Param maxValue query number false "Maximum bid value"
// @Param q query string false "Search in title and client name"
// @Param sort query string false "Sort by (created_desc, created_asc, due_date_asc, due_date_desc, value_desc, value_asc)"
// @Success 200 {object} domain.BidListDTO
// @Security ApiKeyAuth
// @Router /bids [get]
func (h *BidHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &repository.BidFilters{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.BidStatus(s)
		filters.Status = &status
	}
	if st := r.URL.Query().Get("stage"); st != "" {
		filters.Stage = &st
	}
	if a := r.URL.Query().Get("assignedTo"); a != "" {
		filters.AssignedTo = &a
	}
	if c := r.URL.Query().Get("clientName"); c != "" {
		filters.ClientName = &c
	}
	if db := r.URL.Query().Get("dueBefore"); db != "" {
		if t, err := time.Parse("2006-01-02", db); err == nil {
			filters.DueBefore = &t
		}
	}
	if da := r.URL.Query().Get("dueAfter"); da != "" {
		if t, err := time.Parse("2006-01-02", da); err == nil {
			filters.DueAfter = &t
		}
	}
	if minVal := r.URL.Query().Get("minValue"); minVal != "" {
		if v, err := strconv.ParseFloat(minVal, 64); err == nil {
			filters.MinValue = &v
		}
	}
	if maxVal := r.URL.Query().Get("maxValue"); maxVal != "" {
		if v, err := strconv.ParseFloat(maxVal, 64); err == nil {
			filters.MaxValue = &v
		}
	}
	if q := r.URL.Query().Get("q"); q != "" {
		filters.SearchQuery = &q
	}

	sortBy := repository.BidSortByCreatedDesc
	if s := r.URL.Query().Get("sort"); s != "" {
		sortBy = repository.BidSortOption(s)
	}

	result, err := h.bidService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list bids", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list bids")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Create bid
// @Description Create a new bid; it starts in the Proposal Drafting stage
// @Tags Bids
// @Accept json
// @Produce json
// @Param request body domain.CreateBidRequest true "Bid data"
// @Success 201 {object} domain.BidDTO
// @Security ApiKeyAuth
// @Router /bids [post]
func (h *BidHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bid, err := h.bidService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create bid", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create bid")
		return
	}

	respondJSON(w, http.StatusCreated, bid)
}

// @Summary Get bid
// @Description Get a single bid by ID
// @Tags Bids
// @Produce json
// @Param id path int true "Bid ID"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id} [get]
func (h *BidHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	bid, err := h.bidService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bid not found")
			return
		}
		h.logger.Error("failed to get bid", zap.Error(err), zap.Int64("bid_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to get bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// @Summary Update bid
// @Description Update bid details; lifecycle fields are managed via the stage and status endpoints
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path int true "Bid ID"
// @Param request body domain.UpdateBidRequest true "Fields to update"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id} [put]
func (h *BidHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	var req domain.UpdateBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bid, err := h.bidService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Bid not found")
		case errors.Is(err, service.ErrBidClosed):
			respondWithError(w, http.StatusConflict, "Bid is closed and can no longer be edited")
		case errors.Is(err, service.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update bid", zap.Error(err), zap.Int64("bid_id", id))
			respondWithError(w, http.StatusInternalServerError, "Failed to update bid")
		}
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// @Summary Transition bid stage
// @Description Move a bid to another pipeline stage, closing the current stage interval
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path int true "Bid ID"
// @Param request body domain.TransitionStageRequest true "Target stage"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id}/stage [post]
func (h *BidHandler) TransitionStage(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	var req domain.TransitionStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bid, err := h.bidService.TransitionStage(r.Context(), id, &req)
	if err != nil {
		h.respondLifecycleError(w, err, id, "Failed to transition bid stage")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// @Summary Set bid status
// @Description Change bid status; Won and Lost also move the bid into its terminal stage
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path int true "Bid ID"
// @Param request body domain.SetStatusRequest true "Target status"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id}/status [post]
func (h *BidHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	var req domain.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bid, err := h.bidService.SetStatus(r.Context(), id, &req)
	if err != nil {
		h.respondLifecycleError(w, err, id, "Failed to set bid status")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// respondLifecycleError maps lifecycle errors shared between the stage and
// status endpoints to HTTP responses.
func (h *BidHandler) respondLifecycleError(w http.ResponseWriter, err error, id int64, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Bid not found")
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, "Bid was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrBidClosed):
		respondWithError(w, http.StatusConflict, "Bid is closed and can no longer change")
	case errors.Is(err, service.ErrStageAlreadyVisited):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownStage):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReasonRequired):
		respondWithError(w, http.StatusBadRequest, "A reason is required when marking a bid as lost")
	default:
		h.logger.Error(fallback, zap.Error(err), zap.Int64("bid_id", id))
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// @Summary Get bid stage intervals
// @Description Get the stage timeline of a bid, oldest first
// @Tags Bids
// @Produce json
// @Param id path int true "Bid ID"
// @Success 200 {array} domain.StageIntervalDTO
// @Failure 404 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id}/stages [get]
func (h *BidHandler) GetStageIntervals(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	intervals, err := h.bidService.GetStageIntervals(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bid not found")
			return
		}
		h.logger.Error("failed to get stage intervals", zap.Error(err), zap.Int64("bid_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to get stage intervals")
		return
	}

	respondJSON(w, http.StatusOK, intervals)
}

// @Summary Get bid audit trail
// @Description Get the change history of a bid, newest first
// @Tags Bids
// @Produce json
// @Param id path int true "Bid ID"
// @Success 200 {array} domain.HistoryRecordDTO
// @Failure 404 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /bids/{id}/history [get]
func (h *BidHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	records, err := h.bidService.GetAuditTrail(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bid not found")
			return
		}
		h.logger.Error("failed to get audit trail", zap.Error(err), zap.Int64("bid_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to get audit trail")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// @Summary Search bids
// @Description Search open and closed bids by title or client name
// @Tags Bids
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Maximum results" default(25)
// @Success 200 {array} domain.BidDTO
// @Security ApiKeyAuth
// @Router /bids/search [get]
func (h *BidHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bids, err := h.bidService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search bids", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to search bids")
		return
	}

	respondJSON(w, http.StatusOK, bids)
}

// @Summary Bids due soon
// @Description List open bids whose deadline falls inside the reminder window
// @Tags Bids
// @Produce json
// @Success 200 {array} domain.BidDTO
// @Security ApiKeyAuth
// @Router /bids/due-soon [get]
func (h *BidHandler) GetDueSoon(w http.ResponseWriter, r *http.Request) {
	bids, err := h.bidService.GetDueSoon(r.Context())
	if err != nil {
		h.logger.Error("failed to get due soon bids", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get due soon bids")
		return
	}

	respondJSON(w, http.StatusOK, bids)
}

// @Summary Recent activity
// @Description List the most recent history records across all bids
// @Tags Bids
// @Produce json
// @Success 200 {array} domain.HistoryRecordDTO
// @Security ApiKeyAuth
// @Router /bids/activity [get]
func (h *BidHandler) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	records, err := h.bidService.GetRecentActivity(r.Context())
	if err != nil {
		h.logger.Error("failed to get recent activity", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get recent activity")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// @Summary Stage registry
// @Description List the pipeline stages and their responsible owners
// @Tags Bids
// @Produce json
// @Success 200 {array} domain.StageRegistryEntryDTO
// @Security ApiKeyAuth
// @Router /bids/stages [get]
func (h *BidHandler) GetStageRegistry(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.bidService.GetStageRegistry(r.Context()))
}

// @Summary Active stages
// @Description List every bid currently sitting in an open stage with the responsible owner
// @Tags Bids
// @Produce json
// @Success 200 {array} domain.ActiveStageDTO
// @Failure 500 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /bids/active-stages [get]
func (h *BidHandler) GetActiveStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.bidService.GetActiveStages(r.Context())
	if err != nil {
		h.logger.Error("failed to get active stages", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get active stages")
		return
	}

	respondJSON(w, http.StatusOK, stages)
}
