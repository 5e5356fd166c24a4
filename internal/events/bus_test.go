package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/events"
)

func TestBus_StageTransitionReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus(zap.NewNop())

	var first, second domain.StageTransitioned
	bus.SubscribeStageTransition(func(ctx context.Context, event domain.StageTransitioned) {
		first = event
	})
	bus.SubscribeStageTransition(func(ctx context.Context, event domain.StageTransitioned) {
		second = event
	})

	published := domain.StageTransitioned{
		BidID:      42,
		BidTitle:   "Fiber rollout",
		FromStage:  domain.StageProposalDrafting,
		ToStage:    domain.StageLegalReview,
		StageOwner: "Legal Team",
		ChangedBy:  "alice",
		ChangedAt:  time.Now().UTC(),
	}
	bus.PublishStageTransition(context.Background(), published)

	assert.Equal(t, published, first)
	assert.Equal(t, published, second)
}

func TestBus_StatusChangeReachesSubscriber(t *testing.T) {
	bus := events.NewBus(zap.NewNop())

	var got domain.StatusChanged
	bus.SubscribeStatusChange(func(ctx context.Context, event domain.StatusChanged) {
		got = event
	})

	published := domain.StatusChanged{
		BidID:     7,
		BidTitle:  "Fiber rollout",
		OldStatus: domain.BidStatusOpen,
		NewStatus: domain.BidStatusLost,
		Reason:    "Price too high",
		ChangedBy: "bob",
		ChangedAt: time.Now().UTC(),
	}
	bus.PublishStatusChange(context.Background(), published)

	assert.Equal(t, published, got)
}

func TestBus_PublishWithoutSubscribersIsSafe(t *testing.T) {
	bus := events.NewBus(zap.NewNop())

	assert.NotPanics(t, func() {
		bus.PublishStageTransition(context.Background(), domain.StageTransitioned{BidID: 1})
		bus.PublishStatusChange(context.Background(), domain.StatusChanged{BidID: 1})
	})
}
