package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func TestHistoryRepository_RecordChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHistoryRepository(db)
	bid := testutil.CreateTestBid(t, db, "Audited bid")

	err := repo.RecordChange(context.Background(), bid.ID, "alice", "title", "Old title", "New title")
	require.NoError(t, err)

	records, err := repo.GetByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].ChangedBy)
	assert.Equal(t, "title", records[0].FieldChanged)
	assert.Equal(t, "Old title", records[0].OldValue)
	assert.Equal(t, "New title", records[0].NewValue)
	assert.False(t, records[0].ChangedAt.IsZero())
}

func TestHistoryRepository_GetByBidID_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHistoryRepository(db)
	bid := testutil.CreateTestBid(t, db, "Ordered history")

	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "created", "", "Ordered history"))
	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "stage", "Proposal Drafting", "Legal Review"))
	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "bob", "status", "Open", "Submitted"))

	records, err := repo.GetByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "status", records[0].FieldChanged)
	assert.Equal(t, "stage", records[1].FieldChanged)
	assert.Equal(t, "created", records[2].FieldChanged)
}

func TestHistoryRepository_GetRecent_RespectsLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHistoryRepository(db)
	bid := testutil.CreateTestBid(t, db, "Busy bid")

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "description", "", "rev"))
	}

	records, err := repo.GetRecent(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryRepository_GetByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHistoryRepository(db)
	bid := testutil.CreateTestBid(t, db, "Shared bid")

	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "title", "a", "b"))
	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "bob", "title", "b", "c"))

	records, err := repo.GetByUser(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].ChangedBy)
}

func TestHistoryRepository_CountByBidID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHistoryRepository(db)
	bid := testutil.CreateTestBid(t, db, "Counted bid")
	other := testutil.CreateTestBid(t, db, "Other bid")

	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "title", "a", "b"))
	require.NoError(t, repo.RecordChange(context.Background(), bid.ID, "alice", "stage", "x", "y"))
	require.NoError(t, repo.RecordChange(context.Background(), other.ID, "alice", "title", "m", "n"))

	count, err := repo.CountByBidID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
