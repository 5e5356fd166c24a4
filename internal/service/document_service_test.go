package service_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/storage"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func newDocumentService(t *testing.T, db *gorm.DB) *service.DocumentService {
	t.Helper()

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewBidRepository(db),
		repository.NewHistoryRepository(db),
		local,
		zap.NewNop(),
	)
}

func TestDocumentService_UploadAndDownload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	bid := testutil.CreateTestBid(t, db, "With attachment")

	content := "proposal body"
	doc, err := svc.Upload(actorContext("alice"), bid.ID, "proposal.pdf", "application/pdf", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "proposal.pdf", doc.DocumentName)
	assert.Equal(t, bid.ID, doc.BidID)
	assert.Equal(t, int64(len(content)), doc.Size)

	reader, filename, contentType, err := svc.Download(context.Background(), doc.ID)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "proposal.pdf", filename)
	assert.Equal(t, "application/pdf", contentType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestDocumentService_Upload_BidNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)

	_, err := svc.Upload(actorContext("alice"), 9999, "proposal.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_ListByBid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	bid := testutil.CreateTestBid(t, db, "Two files")

	_, err := svc.Upload(actorContext("alice"), bid.ID, "a.pdf", "application/pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = svc.Upload(actorContext("alice"), bid.ID, "b.xlsx", "application/vnd.ms-excel", strings.NewReader("b"))
	require.NoError(t, err)

	docs, err := svc.ListByBid(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDocumentService(t, db)
	bid := testutil.CreateTestBid(t, db, "Short lived")

	doc, err := svc.Upload(actorContext("alice"), bid.ID, "draft.docx", "application/msword", strings.NewReader("draft"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(actorContext("alice"), doc.ID))

	_, _, _, err = svc.Download(context.Background(), doc.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
