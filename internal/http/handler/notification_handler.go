package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/service"
)

// NotificationHandler handles HTTP requests for stage-owner notifications
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get paginated notifications addressed to a stage-owner role
// @Tags Notifications
// @Produce json
// @Param role query string true "Recipient role, e.g. Legal Team"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param unreadOnly query bool false "Only unread notifications" default(false)
// @Success 200 {object} domain.NotificationListDTO
// @Failure 400 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'role' is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"

	notifications, total, err := h.notificationService.ListByRole(r.Context(), role, page, pageSize, unreadOnly)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err), zap.String("role", role))
		respondWithError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, domain.NotificationListDTO{
		Notifications: notifications,
		Total:         total,
	})
}

// GetUnreadCount godoc
// @Summary Get unread notification count
// @Description Count unread notifications addressed to a stage-owner role
// @Tags Notifications
// @Produce json
// @Param role query string true "Recipient role"
// @Success 200 {object} domain.UnreadCountDTO
// @Failure 400 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /notifications/count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'role' is required")
		return
	}

	count, err := h.notificationService.CountUnread(r.Context(), role)
	if err != nil {
		h.logger.Error("failed to get unread count", zap.Error(err), zap.String("role", role))
		respondWithError(w, http.StatusInternalServerError, "Failed to get unread count")
		return
	}

	respondJSON(w, http.StatusOK, domain.UnreadCountDTO{Count: count})
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification ID: must be a number")
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("failed to mark notification as read", zap.Error(err), zap.Int64("notification_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Description Mark every notification addressed to a stage-owner role as read
// @Tags Notifications
// @Param role query string true "Recipient role"
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'role' is required")
		return
	}

	if err := h.notificationService.MarkAllAsRead(r.Context(), role); err != nil {
		h.logger.Error("failed to mark all notifications as read", zap.Error(err), zap.String("role", role))
		respondWithError(w, http.StatusInternalServerError, "Failed to mark all notifications as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
