package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
)

// BidFilters contains all filter options for listing bids
type BidFilters struct {
	Status      *domain.BidStatus
	Stage       *string
	AssignedTo  *string
	ClientName  *string
	DueBefore   *time.Time
	DueAfter    *time.Time
	MinValue    *float64
	MaxValue    *float64
	SearchQuery *string
}

// BidSortOption represents available sort options
type BidSortOption string

const (
	BidSortByCreatedDesc BidSortOption = "created_desc"
	BidSortByCreatedAsc  BidSortOption = "created_asc"
	BidSortByDueDateAsc  BidSortOption = "due_date_asc"
	BidSortByDueDateDesc BidSortOption = "due_date_desc"
	BidSortByValueDesc   BidSortOption = "value_desc"
	BidSortByValueAsc    BidSortOption = "value_asc"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *BidRepository) WithTx(tx *gorm.DB) *BidRepository {
	return &BidRepository{db: tx}
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *BidRepository) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	var bid domain.Bid
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// UpdateFields applies a partial update to a bid's descriptive fields
func (r *BidRepository) UpdateFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Bid{}).Where("id = ?", id).Updates(updates).Error
}

func (r *BidRepository) List(ctx context.Context, page, pageSize int, filters *BidFilters, sortBy BidSortOption) ([]domain.Bid, int64, error) {
	var bids []domain.Bid
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Bid{})
	query = r.applyFilters(query, filters)

	// Count total matching records
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&bids).Error

	return bids, total, err
}

// GetByStatus returns all bids in a specific status
func (r *BidRepository) GetByStatus(ctx context.Context, status domain.BidStatus) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("due_date ASC").
		Find(&bids).Error
	return bids, err
}

// GetDueSoon returns open bids whose due date falls on or before the cutoff.
// Bids already past due are included.
func (r *BidRepository) GetDueSoon(ctx context.Context, cutoff time.Time) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.BidStatusOpen).
		Where("due_date <= ?", cutoff).
		Order("due_date ASC").
		Find(&bids).Error
	return bids, err
}

// CountDueSoon returns how many open bids are due on or before the cutoff
func (r *BidRepository) CountDueSoon(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("status = ?", domain.BidStatusOpen).
		Where("due_date <= ?", cutoff).
		Count(&count).Error
	return count, err
}

// GetAverageOpenBidAge averages the time since creation across bids that
// have not reached an outcome yet
func (r *BidRepository) GetAverageOpenBidAge(ctx context.Context) (time.Duration, error) {
	var createdAts []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("status NOT IN ?", []domain.BidStatus{domain.BidStatusWon, domain.BidStatusLost}).
		Pluck("created_at", &createdAts).Error
	if err != nil {
		return 0, err
	}
	if len(createdAts) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	var total time.Duration
	for _, createdAt := range createdAts {
		total += now.Sub(createdAt)
	}
	return total / time.Duration(len(createdAts)), nil
}

// Search performs a case-insensitive match on title and client name
func (r *BidRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Bid, error) {
	var bids []domain.Bid
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(client_name) LIKE ?", searchPattern, searchPattern).
		Limit(limit).
		Order("created_at DESC").
		Find(&bids).Error
	return bids, err
}

// UpdateGuarded applies updates only when the stored lock_version matches
// the expected value, bumping the version in the same statement. Returns
// the number of rows affected; zero means another writer got there first.
func (r *BidRepository) UpdateGuarded(ctx context.Context, id int64, expectedVersion int64, updates map[string]interface{}) (int64, error) {
	updates["lock_version"] = expectedVersion + 1
	result := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CountByStatus returns the number of bids in each status
func (r *BidRepository) CountByStatus(ctx context.Context) (map[domain.BidStatus]int64, error) {
	type result struct {
		Status domain.BidStatus
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.BidStatus]int64)
	for _, row := range results {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// GetPipelineValue returns the summed bid value of all bids not yet lost
func (r *BidRepository) GetPipelineValue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("status != ?", domain.BidStatusLost).
		Select("COALESCE(SUM(bid_value), 0)").
		Scan(&total).Error
	return total, err
}

// CountLossReasons aggregates lost bids by their recorded reason
func (r *BidRepository) CountLossReasons(ctx context.Context) ([]domain.LossReasonCountDTO, error) {
	var results []domain.LossReasonCountDTO
	err := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Select("reason, COUNT(*) as count").
		Where("status = ?", domain.BidStatusLost).
		Where("reason != ''").
		Group("reason").
		Order("count DESC").
		Scan(&results).Error
	return results, err
}

// WithTransaction executes operations within a transaction
func (r *BidRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// applyFilters applies all filter criteria to the query
func (r *BidRepository) applyFilters(query *gorm.DB, filters *BidFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}

	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}

	if filters.ClientName != nil {
		query = query.Where("client_name = ?", *filters.ClientName)
	}

	if filters.DueBefore != nil {
		query = query.Where("due_date <= ?", *filters.DueBefore)
	}

	if filters.DueAfter != nil {
		query = query.Where("due_date >= ?", *filters.DueAfter)
	}

	if filters.MinValue != nil {
		query = query.Where("bid_value >= ?", *filters.MinValue)
	}

	if filters.MaxValue != nil {
		query = query.Where("bid_value <= ?", *filters.MaxValue)
	}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(client_name) LIKE ?", searchPattern, searchPattern)
	}

	return query
}

// applySorting applies the sorting option to the query
func (r *BidRepository) applySorting(query *gorm.DB, sortBy BidSortOption) *gorm.DB {
	switch sortBy {
	case BidSortByCreatedAsc:
		return query.Order("created_at ASC")
	case BidSortByDueDateAsc:
		return query.Order("due_date ASC")
	case BidSortByDueDateDesc:
		return query.Order("due_date DESC")
	case BidSortByValueDesc:
		return query.Order("bid_value DESC")
	case BidSortByValueAsc:
		return query.Order("bid_value ASC")
	default: // BidSortByCreatedDesc
		return query.Order("created_at DESC")
	}
}
