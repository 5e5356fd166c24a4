package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
)

// HistoryRepository persists the append-only audit ledger. There are no
// update or delete methods on purpose.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Create appends a new audit record
func (r *HistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// RecordChange is a convenience method to append one field mutation
func (r *HistoryRepository) RecordChange(ctx context.Context, bidID int64, changedBy, field, oldValue, newValue string) error {
	record := &domain.HistoryRecord{
		BidID:        bidID,
		ChangedAt:    time.Now().UTC(),
		ChangedBy:    changedBy,
		FieldChanged: field,
		OldValue:     oldValue,
		NewValue:     newValue,
	}
	return r.Create(ctx, record)
}

// GetByBidID returns the full audit trail for a bid, newest first
func (r *HistoryRepository) GetByBidID(ctx context.Context, bidID int64) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("bid_id = ?", bidID).
		Order("changed_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

// GetRecent returns the latest audit records across all bids, newest first
func (r *HistoryRepository) GetRecent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := r.db.WithContext(ctx).
		Order("changed_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetByUser returns recent changes made by a specific user
func (r *HistoryRepository) GetByUser(ctx context.Context, changedBy string, limit int) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("changed_by = ?", changedBy).
		Order("changed_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetByField returns recent changes to a specific field across all bids
func (r *HistoryRepository) GetByField(ctx context.Context, field string, limit int) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("field_changed = ?", field).
		Order("changed_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CountByBidID returns the number of audit records for a bid
func (r *HistoryRepository) CountByBidID(ctx context.Context, bidID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.HistoryRecord{}).
		Where("bid_id = ?", bidID).
		Count(&count).Error
	return count, err
}
