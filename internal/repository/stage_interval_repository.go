package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
)

type StageIntervalRepository struct {
	db *gorm.DB
}

func NewStageIntervalRepository(db *gorm.DB) *StageIntervalRepository {
	return &StageIntervalRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *StageIntervalRepository) WithTx(tx *gorm.DB) *StageIntervalRepository {
	return &StageIntervalRepository{db: tx}
}

// Create opens a new stage interval
func (r *StageIntervalRepository) Create(ctx context.Context, interval *domain.StageInterval) error {
	return r.db.WithContext(ctx).Create(interval).Error
}

// GetByBidID returns all stage intervals for a bid in chronological order
func (r *StageIntervalRepository) GetByBidID(ctx context.Context, bidID int64) ([]domain.StageInterval, error) {
	var intervals []domain.StageInterval
	err := r.db.WithContext(ctx).
		Where("bid_id = ?", bidID).
		Order("started_at ASC").
		Find(&intervals).Error
	return intervals, err
}

// GetOpenByBidID returns the bid's currently open interval, if any
func (r *StageIntervalRepository) GetOpenByBidID(ctx context.Context, bidID int64) (*domain.StageInterval, error) {
	var interval domain.StageInterval
	err := r.db.WithContext(ctx).
		Where("bid_id = ? AND completed_at IS NULL", bidID).
		First(&interval).Error
	if err != nil {
		return nil, err
	}
	return &interval, nil
}

// GetActiveIntervals returns every open interval across all bids with the
// owning bid preloaded, ordered by how long the stage has been open
func (r *StageIntervalRepository) GetActiveIntervals(ctx context.Context) ([]domain.StageInterval, error) {
	var intervals []domain.StageInterval
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Where("completed_at IS NULL").
		Order("started_at ASC").
		Find(&intervals).Error
	return intervals, err
}

// CountOpenByBidID returns how many intervals are open for a bid. Any value
// other than one for an active bid indicates a broken invariant.
func (r *StageIntervalRepository) CountOpenByBidID(ctx context.Context, bidID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.StageInterval{}).
		Where("bid_id = ? AND completed_at IS NULL", bidID).
		Count(&count).Error
	return count, err
}

// HasVisitedStage reports whether the bid already has an interval for the
// stage. Stages are never entered twice.
func (r *StageIntervalRepository) HasVisitedStage(ctx context.Context, bidID int64, stage string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.StageInterval{}).
		Where("bid_id = ? AND stage = ?", bidID, stage).
		Count(&count).Error
	return count > 0, err
}

// CloseOpen stamps completed_at on the bid's open interval. All open
// intervals match the same predicate, so a duplicate left by a past bug is
// closed along with the legitimate one.
func (r *StageIntervalRepository) CloseOpen(ctx context.Context, bidID int64, completedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.StageInterval{}).
		Where("bid_id = ? AND completed_at IS NULL", bidID).
		Update("completed_at", completedAt).Error
}

// GetByStage returns all intervals for a stage within a date range
func (r *StageIntervalRepository) GetByStage(ctx context.Context, stage string, from, to time.Time) ([]domain.StageInterval, error) {
	var intervals []domain.StageInterval
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Where("stage = ?", stage).
		Where("started_at >= ? AND started_at <= ?", from, to).
		Order("started_at DESC").
		Find(&intervals).Error
	return intervals, err
}

// GetAverageTimeInStage calculates the average duration of completed
// intervals per stage
func (r *StageIntervalRepository) GetAverageTimeInStage(ctx context.Context) (map[string]time.Duration, error) {
	var completed []domain.StageInterval
	err := r.db.WithContext(ctx).
		Where("completed_at IS NOT NULL").
		Find(&completed).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]time.Duration)
	counts := make(map[string]int)
	for i := range completed {
		interval := &completed[i]
		totals[interval.Stage] += interval.CompletedAt.Sub(interval.StartedAt)
		counts[interval.Stage]++
	}

	averages := make(map[string]time.Duration)
	for stage, total := range totals {
		averages[stage] = total / time.Duration(counts[stage])
	}
	return averages, nil
}
