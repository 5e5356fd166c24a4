package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func createInterval(t *testing.T, db *gorm.DB, repo *repository.StageIntervalRepository, bidID int64, stage string, startedAt time.Time) *domain.StageInterval {
	t.Helper()

	interval := &domain.StageInterval{
		BidID:      bidID,
		Stage:      stage,
		StageOwner: domain.OwnerFor(stage),
		StartedAt:  startedAt,
	}
	require.NoError(t, repo.Create(context.Background(), interval))
	return interval
}

func TestStageIntervalRepository_GetByBidID_Ordered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStageIntervalRepository(db)
	bid := testutil.CreateTestBid(t, db, "Timeline bid")

	now := time.Now().UTC()
	first := createInterval(t, db, repo, bid.ID, domain.StageProposalDrafting, now.Add(-2*time.Hour))
	completed := now.Add(-time.Hour)
	require.NoError(t, repo.CloseOpen(context.Background(), bid.ID, completed))
	createInterval(t, db, repo, bid.ID, domain.StageLegalReview, completed)

	intervals, err := repo.GetByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, first.ID, intervals[0].ID)
	assert.Equal(t, domain.StageProposalDrafting, intervals[0].Stage)
	assert.NotNil(t, intervals[0].CompletedAt)
	assert.Equal(t, domain.StageLegalReview, intervals[1].Stage)
	assert.Nil(t, intervals[1].CompletedAt)
}

func TestStageIntervalRepository_SingleOpenInterval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStageIntervalRepository(db)
	bid := testutil.CreateTestBid(t, db, "Single open")

	now := time.Now().UTC()
	createInterval(t, db, repo, bid.ID, domain.StageProposalDrafting, now.Add(-time.Hour))
	require.NoError(t, repo.CloseOpen(context.Background(), bid.ID, now))
	createInterval(t, db, repo, bid.ID, domain.StageLegalReview, now)

	count, err := repo.CountOpenByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	open, err := repo.GetOpenByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, open.Stage)
}

func TestStageIntervalRepository_CloseOpen_LeavesCompletedAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStageIntervalRepository(db)
	bid := testutil.CreateTestBid(t, db, "Close open")

	now := time.Now().UTC()
	first := createInterval(t, db, repo, bid.ID, domain.StageProposalDrafting, now.Add(-2*time.Hour))
	firstDone := now.Add(-time.Hour)
	require.NoError(t, repo.CloseOpen(context.Background(), bid.ID, firstDone))
	createInterval(t, db, repo, bid.ID, domain.StageLegalReview, firstDone)

	require.NoError(t, repo.CloseOpen(context.Background(), bid.ID, now))

	intervals, err := repo.GetByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)

	// The first interval keeps its original completion time
	assert.Equal(t, first.ID, intervals[0].ID)
	assert.WithinDuration(t, firstDone, *intervals[0].CompletedAt, time.Second)
	assert.WithinDuration(t, now, *intervals[1].CompletedAt, time.Second)
}

func TestStageIntervalRepository_HasVisitedStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStageIntervalRepository(db)
	bid := testutil.CreateTestBid(t, db, "Visited")

	createInterval(t, db, repo, bid.ID, domain.StageProposalDrafting, time.Now().UTC())

	visited, err := repo.HasVisitedStage(context.Background(), bid.ID, domain.StageProposalDrafting)
	require.NoError(t, err)
	assert.True(t, visited)

	visited, err = repo.HasVisitedStage(context.Background(), bid.ID, domain.StageLegalReview)
	require.NoError(t, err)
	assert.False(t, visited)

	// Other bids do not leak visits
	other := testutil.CreateTestBid(t, db, "Other")
	visited, err = repo.HasVisitedStage(context.Background(), other.ID, domain.StageProposalDrafting)
	require.NoError(t, err)
	assert.False(t, visited)
}
