package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/domain"
)

// StageTransitionHandler consumes a committed stage transition
type StageTransitionHandler func(ctx context.Context, event domain.StageTransitioned)

// StatusChangeHandler consumes a committed status change
type StatusChangeHandler func(ctx context.Context, event domain.StatusChanged)

// Bus is a synchronous in-process event dispatcher. Publishing happens
// after the database transaction commits, so handlers observe only
// durable state. Handlers must not block; anything slow belongs in a job.
type Bus struct {
	mu             sync.RWMutex
	stageHandlers  []StageTransitionHandler
	statusHandlers []StatusChangeHandler
	log            *zap.Logger
}

// NewBus creates a new event bus
func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: log}
}

// SubscribeStageTransition registers a handler for stage transitions
func (b *Bus) SubscribeStageTransition(handler StageTransitionHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stageHandlers = append(b.stageHandlers, handler)
}

// SubscribeStatusChange registers a handler for status changes
func (b *Bus) SubscribeStatusChange(handler StatusChangeHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusHandlers = append(b.statusHandlers, handler)
}

// PublishStageTransition notifies all stage transition subscribers
func (b *Bus) PublishStageTransition(ctx context.Context, event domain.StageTransitioned) {
	b.mu.RLock()
	handlers := make([]StageTransitionHandler, len(b.stageHandlers))
	copy(handlers, b.stageHandlers)
	b.mu.RUnlock()

	b.log.Debug("publishing stage transition event",
		zap.Int64("bid_id", event.BidID),
		zap.String("from_stage", event.FromStage),
		zap.String("to_stage", event.ToStage))

	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// PublishStatusChange notifies all status change subscribers
func (b *Bus) PublishStatusChange(ctx context.Context, event domain.StatusChanged) {
	b.mu.RLock()
	handlers := make([]StatusChangeHandler, len(b.statusHandlers))
	copy(handlers, b.statusHandlers)
	b.mu.RUnlock()

	b.log.Debug("publishing status change event",
		zap.Int64("bid_id", event.BidID),
		zap.String("old_status", string(event.OldStatus)),
		zap.String("new_status", string(event.NewStatus)))

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
