package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard metrics
// @Description Returns portfolio metrics across all bids.
// @Description
// @Description - `winRate`: won / (won + lost) as a percentage; 0 until a bid has been decided
// @Description - `pipelineValue`: summed bid value of every bid that is not Lost
// @Description - `lossReasons`: lost bids grouped by recorded reason, most common first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Security ApiKeyAuth
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.GetMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to get dashboard metrics", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get dashboard metrics")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
