package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByBid returns all documents attached to a bid
func (r *DocumentRepository) ListByBid(ctx context.Context, bidID int64) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("bid_id = ?", bidID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	return docs, err
}

// CountByBid returns the count of documents attached to a bid
func (r *DocumentRepository) CountByBid(ctx context.Context, bidID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("bid_id = ?", bidID).
		Count(&count).Error
	return count, err
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Document{}, "id = ?", id).Error
}
