package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/events"
	"github.com/bidwatch/bid-api/internal/mapper"
	"github.com/bidwatch/bid-api/internal/repository"
)

// NotificationService produces notifications for stage owner roles and
// serves the role inbox. It subscribes to the event bus so notification
// writes never sit inside the lifecycle transaction.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Subscribe registers this service's handlers on the event bus
func (s *NotificationService) Subscribe(bus *events.Bus) {
	bus.SubscribeStageTransition(s.onStageTransition)
}

// onStageTransition notifies the role that owns the stage a bid just
// entered. Unassigned stages produce no notification.
func (s *NotificationService) onStageTransition(ctx context.Context, event domain.StageTransitioned) {
	if event.StageOwner == domain.UnassignedOwner {
		return
	}

	bidID := event.BidID
	notification := &domain.Notification{
		RecipientRole: event.StageOwner,
		Type:          string(domain.NotificationTypeStageTransition),
		Title:         "Bid entered " + event.ToStage,
		Message:       fmt.Sprintf("Bid '%s' moved from %s to %s", event.BidTitle, event.FromStage, event.ToStage),
		BidID:         &bidID,
		CreatedAt:     event.ChangedAt,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create stage transition notification",
			zap.Int64("bid_id", event.BidID),
			zap.String("recipient_role", event.StageOwner),
			zap.Error(err))
	}
}

func (s *NotificationService) ListByRole(ctx context.Context, role string, page, pageSize int, unreadOnly bool) ([]domain.NotificationDTO, int64, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page < 1 {
		page = 1
	}

	notifications, total, err := s.notificationRepo.ListByRole(ctx, role, page, pageSize, unreadOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return dtos, total, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) error {
	if _, err := s.notificationRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	return s.notificationRepo.MarkAsRead(ctx, id)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, role string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, role)
}

func (s *NotificationService) CountUnread(ctx context.Context, role string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, role)
}

// PruneRead deletes read notifications older than the retention cutoff.
// Called by the scheduled retention job.
func (s *NotificationService) PruneRead(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.notificationRepo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("pruned read notifications",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}
