package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func TestBidRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	value := 250000.0
	bid := &domain.Bid{
		Title:      "Harbor expansion",
		Status:     domain.BidStatusOpen,
		Stage:      domain.InitialStage(),
		DueDate:    time.Now().UTC().AddDate(0, 2, 0),
		AssignedTo: "bob",
		CreatedBy:  "bob",
		CreatedAt:  time.Now().UTC(),
		ClientName: "Port Authority",
		BidValue:   &value,
	}

	err := repo.Create(context.Background(), bid)
	require.NoError(t, err)
	assert.NotZero(t, bid.ID)

	got, err := repo.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor expansion", got.Title)
	assert.Equal(t, domain.BidStatusOpen, got.Status)
	assert.Equal(t, int64(0), got.LockVersion)
}

func TestBidRepository_List_FiltersByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	open := testutil.CreateTestBid(t, db, "Open bid")
	lost := testutil.CreateTestBid(t, db, "Lost bid")
	require.NoError(t, db.Model(lost).Updates(map[string]interface{}{
		"status": domain.BidStatusLost,
		"stage":  domain.StageLost,
		"reason": "Price too high",
	}).Error)

	status := domain.BidStatusOpen
	bids, total, err := repo.List(context.Background(), 1, 20, &repository.BidFilters{Status: &status}, repository.BidSortByCreatedDesc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bids, 1)
	assert.Equal(t, open.ID, bids[0].ID)
}

func TestBidRepository_List_SearchQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	testutil.CreateTestBid(t, db, "Fiber rollout phase 2")
	testutil.CreateTestBid(t, db, "Office refurbishment")

	q := "fiber"
	bids, total, err := repo.List(context.Background(), 1, 20, &repository.BidFilters{SearchQuery: &q}, repository.BidSortByCreatedDesc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bids, 1)
	assert.Equal(t, "Fiber rollout phase 2", bids[0].Title)
}

func TestBidRepository_GetDueSoon(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	soon := testutil.CreateTestBid(t, db, "Due tomorrow")
	require.NoError(t, db.Model(soon).Update("due_date", time.Now().UTC().AddDate(0, 0, 1)).Error)

	// Far in the future, outside any reasonable window
	testutil.CreateTestBid(t, db, "Due next quarter")

	// Closed bids are excluded even when overdue
	won := testutil.CreateTestBid(t, db, "Already won")
	require.NoError(t, db.Model(won).Updates(map[string]interface{}{
		"status":   domain.BidStatusWon,
		"due_date": time.Now().UTC().AddDate(0, 0, 1),
	}).Error)

	bids, err := repo.GetDueSoon(context.Background(), time.Now().UTC().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, soon.ID, bids[0].ID)
}

func TestBidRepository_UpdateGuarded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)
	bid := testutil.CreateTestBid(t, db, "Guarded bid")

	rows, err := repo.UpdateGuarded(context.Background(), bid.ID, 0, map[string]interface{}{
		"stage": domain.StageLegalReview,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := repo.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, got.Stage)
	assert.Equal(t, int64(1), got.LockVersion)
}

func TestBidRepository_UpdateGuarded_StaleVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)
	bid := testutil.CreateTestBid(t, db, "Contended bid")

	// First writer wins
	rows, err := repo.UpdateGuarded(context.Background(), bid.ID, 0, map[string]interface{}{
		"stage": domain.StageLegalReview,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	// Second writer holds the stale version and must lose
	rows, err = repo.UpdateGuarded(context.Background(), bid.ID, 0, map[string]interface{}{
		"stage": domain.StagePricingReview,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	got, err := repo.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, got.Stage)
}

func TestBidRepository_CountByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	testutil.CreateTestBid(t, db, "First")
	testutil.CreateTestBid(t, db, "Second")
	won := testutil.CreateTestBid(t, db, "Third")
	require.NoError(t, db.Model(won).Update("status", domain.BidStatusWon).Error)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.BidStatusOpen])
	assert.Equal(t, int64(1), counts[domain.BidStatusWon])
}

func TestBidRepository_GetPipelineValue_ExcludesLost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	a := testutil.CreateTestBid(t, db, "A")
	require.NoError(t, db.Model(a).Update("bid_value", 100000.0).Error)

	b := testutil.CreateTestBid(t, db, "B")
	require.NoError(t, db.Model(b).Updates(map[string]interface{}{
		"bid_value": 50000.0,
		"status":    domain.BidStatusLost,
	}).Error)

	total, err := repo.GetPipelineValue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, total, 0.01)
}

func TestBidRepository_CountLossReasons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBidRepository(db)

	for _, reason := range []string{"Price too high", "Price too high", "Missed deadline"} {
		bid := testutil.CreateTestBid(t, db, "Lost bid")
		require.NoError(t, db.Model(bid).Updates(map[string]interface{}{
			"status": domain.BidStatusLost,
			"reason": reason,
		}).Error)
	}

	reasons, err := repo.CountLossReasons(context.Background())
	require.NoError(t, err)
	require.Len(t, reasons, 2)
	assert.Equal(t, "Price too high", reasons[0].Reason)
	assert.Equal(t, int64(2), reasons[0].Count)
}
