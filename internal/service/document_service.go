package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/auth"
	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/mapper"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/storage"
)

// DocumentService handles bid document uploads. File bodies go to the
// storage backend; metadata and an audit entry go to the database.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	bidRepo      *repository.BidRepository
	histRepo     *repository.HistoryRepository
	storage      storage.Storage
	logger       *zap.Logger
}

func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	bidRepo *repository.BidRepository,
	histRepo *repository.HistoryRepository,
	storage storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		bidRepo:      bidRepo,
		histRepo:     histRepo,
		storage:      storage,
		logger:       logger,
	}
}

// Upload stores a document and attaches it to a bid
func (s *DocumentService) Upload(ctx context.Context, bidID int64, filename, contentType string, data io.Reader) (*domain.DocumentDTO, error) {
	if _, err := s.bidRepo.GetByID(ctx, bidID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	doc := &domain.Document{
		BidID:            bidID,
		DocumentName:     filename,
		ContentType:      contentType,
		Size:             size,
		StorageReference: storagePath,
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Try to delete from storage (best effort cleanup)
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to cleanup document from storage after DB error",
				zap.Error(delErr),
				zap.String("storage_reference", storagePath),
			)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	actor := auth.ActorName(ctx)
	if err := s.histRepo.RecordChange(ctx, bidID, actor, "document", "", filename); err != nil {
		s.logger.Warn("failed to record document audit entry",
			zap.Int64("bid_id", bidID),
			zap.Error(err))
	}

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// ListByBid returns all documents attached to a bid
func (s *DocumentService) ListByBid(ctx context.Context, bidID int64) ([]domain.DocumentDTO, error) {
	if _, err := s.bidRepo.GetByID(ctx, bidID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	docs, err := s.documentRepo.ListByBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = mapper.ToDocumentDTO(&docs[i])
	}
	return dtos, nil
}

// Download retrieves a document's content
// Returns: reader, filename, content-type, error
func (s *DocumentService) Download(ctx context.Context, id int64) (io.ReadCloser, string, string, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrNotFound
		}
		return nil, "", "", fmt.Errorf("failed to get document: %w", err)
	}

	reader, err := s.storage.Download(ctx, doc.StorageReference)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download document: %w", err)
	}

	return reader, doc.DocumentName, doc.ContentType, nil
}

// Delete removes a document from both storage and database
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	// Delete from storage (log warning if fails, continue)
	if err := s.storage.Delete(ctx, doc.StorageReference); err != nil {
		s.logger.Warn("failed to delete document from storage",
			zap.Error(err),
			zap.String("storage_reference", doc.StorageReference),
			zap.Int64("document_id", id),
		)
	}

	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	actor := auth.ActorName(ctx)
	if err := s.histRepo.RecordChange(ctx, doc.BidID, actor, "document", doc.DocumentName, ""); err != nil {
		s.logger.Warn("failed to record document audit entry",
			zap.Int64("bid_id", doc.BidID),
			zap.Error(err))
	}

	return nil
}
