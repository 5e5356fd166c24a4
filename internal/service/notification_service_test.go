package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/events"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func newNotificationService(t *testing.T, db *gorm.DB) *service.NotificationService {
	t.Helper()
	return service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
}

func TestNotificationService_StageTransitionCreatesNotification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(t, db)
	bus := events.NewBus(zap.NewNop())
	svc.Subscribe(bus)

	bid := testutil.CreateTestBid(t, db, "Notify me")
	bus.PublishStageTransition(context.Background(), domain.StageTransitioned{
		BidID:      bid.ID,
		BidTitle:   bid.Title,
		FromStage:  domain.StageProposalDrafting,
		ToStage:    domain.StageLegalReview,
		StageOwner: "Legal Team",
		ChangedBy:  "alice",
		ChangedAt:  time.Now().UTC(),
	})

	notifications, total, err := svc.ListByRole(context.Background(), "Legal Team", 1, 20, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Bid entered Legal Review", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, "Notify me")
	require.NotNil(t, notifications[0].BidID)
	assert.Equal(t, bid.ID, *notifications[0].BidID)
	assert.False(t, notifications[0].Read)
}

func TestNotificationService_UnassignedOwnerIsSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(t, db)
	bus := events.NewBus(zap.NewNop())
	svc.Subscribe(bus)

	bid := testutil.CreateTestBid(t, db, "Nobody home")
	bus.PublishStageTransition(context.Background(), domain.StageTransitioned{
		BidID:      bid.ID,
		BidTitle:   bid.Title,
		FromStage:  domain.StageProposalDrafting,
		ToStage:    "Custom Stage",
		StageOwner: domain.UnassignedOwner,
		ChangedBy:  "alice",
		ChangedAt:  time.Now().UTC(),
	})

	count, err := svc.CountUnread(context.Background(), domain.UnassignedOwner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(t, db)

	notification := &domain.Notification{
		RecipientRole: "Finance Team",
		Type:          string(domain.NotificationTypeStageTransition),
		Title:         "Bid entered Pricing Review",
		Message:       "Bid 'X' moved from Legal Review to Pricing Review",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(notification).Error)

	require.NoError(t, svc.MarkAsRead(context.Background(), notification.ID))

	count, err := svc.CountUnread(context.Background(), "Finance Team")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_MarkAsRead_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(t, db)

	err := svc.MarkAsRead(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestNotificationService_PruneRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newNotificationService(t, db)

	old := time.Now().UTC().AddDate(0, 0, -60)
	readAt := old.Add(time.Hour)
	stale := &domain.Notification{
		RecipientRole: "Sales Lead",
		Type:          string(domain.NotificationTypeStageTransition),
		Title:         "Bid entered Submission",
		Message:       "old and read",
		CreatedAt:     old,
		Read:          true,
		ReadAt:        &readAt,
	}
	require.NoError(t, db.Create(stale).Error)

	fresh := &domain.Notification{
		RecipientRole: "Sales Lead",
		Type:          string(domain.NotificationTypeStageTransition),
		Title:         "Bid entered Submission",
		Message:       "recent and unread",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(fresh).Error)

	deleted, err := svc.PruneRead(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := svc.ListByRole(context.Background(), "Sales Lead", 1, 20, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
