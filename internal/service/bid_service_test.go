package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/auth"
	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/events"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func newBidService(t *testing.T, db *gorm.DB) (*service.BidService, *events.Bus) {
	t.Helper()

	bus := events.NewBus(zap.NewNop())
	reminders := &config.RemindersConfig{
		DueSoonDays:         3,
		RecentActivityLimit: 50,
	}
	svc := service.NewBidService(
		repository.NewBidRepository(db),
		repository.NewStageIntervalRepository(db),
		repository.NewHistoryRepository(db),
		bus,
		reminders,
		zap.NewNop(),
		db,
	)
	return svc, bus
}

func actorContext(username string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   1,
		Username: username,
		Role:     domain.RoleSalesperson,
	})
}

func createBid(t *testing.T, svc *service.BidService, title string) *domain.BidDTO {
	t.Helper()

	dto, err := svc.Create(actorContext("alice"), &domain.CreateBidRequest{
		Title:      title,
		DueDate:    time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		AssignedTo: "alice",
		ClientName: "Acme Corp",
	})
	require.NoError(t, err)
	return dto
}

func TestBidService_Create_InitializesLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)

	dto := createBid(t, svc, "Data center build")

	assert.Equal(t, domain.BidStatusOpen, dto.Status)
	assert.Equal(t, domain.StageProposalDrafting, dto.Stage)
	assert.Equal(t, "Proposal Manager", dto.StageOwner)
	assert.Equal(t, "alice", dto.CreatedBy)
	assert.Equal(t, int64(0), dto.LockVersion)

	// An open interval for the initial stage
	intervals, err := svc.GetStageIntervals(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, domain.StageProposalDrafting, intervals[0].Stage)
	assert.Nil(t, intervals[0].CompletedAt)

	// Creation is not an audited change
	trail, err := svc.GetAuditTrail(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestBidService_Create_RejectsBadDueDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)

	_, err := svc.Create(actorContext("alice"), &domain.CreateBidRequest{
		Title:      "Bad date",
		DueDate:    "31-12-2026",
		AssignedTo: "alice",
		ClientName: "Acme Corp",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestBidService_TransitionStage_ClosesAndOpensIntervals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Transition bid")

	dto, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageLegalReview,
		Notes:       "Contract ready for review",
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, dto.Stage)
	assert.Equal(t, "Legal Team", dto.StageOwner)
	assert.Equal(t, bid.LockVersion+1, dto.LockVersion)

	intervals, err := svc.GetStageIntervals(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.NotNil(t, intervals[0].CompletedAt)
	assert.Equal(t, domain.StageLegalReview, intervals[1].Stage)
	assert.Nil(t, intervals[1].CompletedAt)
	assert.Equal(t, "Contract ready for review", intervals[1].Notes)

	trail, err := svc.GetAuditTrail(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "stage", trail[0].FieldChanged)
	assert.Equal(t, domain.StageProposalDrafting, trail[0].OldValue)
	assert.Equal(t, domain.StageLegalReview, trail[0].NewValue)
	assert.Equal(t, "bob", trail[0].ChangedBy)
}

func TestBidService_TransitionStage_PublishesEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, bus := newBidService(t, db)
	bid := createBid(t, svc, "Event bid")

	var got domain.StageTransitioned
	bus.SubscribeStageTransition(func(ctx context.Context, event domain.StageTransitioned) {
		got = event
	})

	_, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageLegalReview,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)

	assert.Equal(t, bid.ID, got.BidID)
	assert.Equal(t, domain.StageProposalDrafting, got.FromStage)
	assert.Equal(t, domain.StageLegalReview, got.ToStage)
	assert.Equal(t, "Legal Team", got.StageOwner)
	assert.Equal(t, "bob", got.ChangedBy)
}

func TestBidService_TransitionStage_RejectsUnknownStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Unknown stage")

	_, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       "Handover",
		LockVersion: bid.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrUnknownStage)
}

func TestBidService_TransitionStage_RejectsTerminalStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "No shortcut to Awarded")

	_, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageAwarded,
		LockVersion: bid.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}

func TestBidService_TransitionStage_RejectsRevisit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "No going back")

	dto, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageLegalReview,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)

	// Back to a stage the bid already occupied
	_, err = svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageProposalDrafting,
		LockVersion: dto.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrStageAlreadyVisited)

	// The failed transition must roll back: no third interval, version intact
	intervals, err := svc.GetStageIntervals(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Len(t, intervals, 2)

	reloaded, err := svc.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, reloaded.Stage)
}

func TestBidService_TransitionStage_StaleVersionConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Contended")

	_, err := svc.TransitionStage(actorContext("bob"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageLegalReview,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)

	// Second writer still holds version 0
	_, err = svc.TransitionStage(actorContext("carol"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StagePricingReview,
		LockVersion: bid.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrConflict)

	reloaded, err := svc.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageLegalReview, reloaded.Stage)
}

func TestBidService_SetStatus_WonEntersAwarded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Winner")

	dto, err := svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusWon,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusWon, dto.Status)
	assert.Equal(t, domain.StageAwarded, dto.Stage)
	assert.Equal(t, "Account Manager", dto.StageOwner)

	intervals, err := svc.GetStageIntervals(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.NotNil(t, intervals[0].CompletedAt)
	assert.Equal(t, domain.StageAwarded, intervals[1].Stage)
	assert.Equal(t, "Bid won!", intervals[1].Notes)
	assert.Nil(t, intervals[1].CompletedAt)

	trail, err := svc.GetAuditTrail(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "stage", trail[0].FieldChanged)
	assert.Equal(t, "status", trail[1].FieldChanged)
	assert.Equal(t, string(domain.BidStatusOpen), trail[1].OldValue)
	assert.Equal(t, string(domain.BidStatusWon), trail[1].NewValue)
}

func TestBidService_SetStatus_LostRequiresReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Loser")

	_, err := svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusLost,
		LockVersion: bid.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrReasonRequired)
}

func TestBidService_SetStatus_LostRecordsReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Lost deal")

	dto, err := svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusLost,
		Reason:      "Competitor undercut on price",
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusLost, dto.Status)
	assert.Equal(t, domain.StageLost, dto.Stage)
	assert.Equal(t, "Competitor undercut on price", dto.Reason)

	intervals, err := svc.GetStageIntervals(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, "Bid lost: Competitor undercut on price", intervals[1].Notes)

	trail, err := svc.GetAuditTrail(context.Background(), bid.ID)
	require.NoError(t, err)
	fields := make([]string, len(trail))
	for i, r := range trail {
		fields[i] = r.FieldChanged
	}
	assert.Contains(t, fields, "reason")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "stage")
}

func TestBidService_SetStatus_TerminalBidIsClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Done deal")

	dto, err := svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusWon,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusOpen,
		LockVersion: dto.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrBidClosed)

	_, err = svc.TransitionStage(actorContext("alice"), bid.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageEvaluation,
		LockVersion: dto.LockVersion,
	})
	assert.ErrorIs(t, err, service.ErrBidClosed)

	_, err = svc.Update(actorContext("alice"), bid.ID, &domain.UpdateBidRequest{})
	assert.ErrorIs(t, err, service.ErrBidClosed)
}

func TestBidService_SetStatus_SameStatusIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Idempotent")

	dto, err := svc.SetStatus(actorContext("alice"), bid.ID, &domain.SetStatusRequest{
		Status:      domain.BidStatusOpen,
		LockVersion: bid.LockVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, bid.LockVersion, dto.LockVersion)

	trail, err := svc.GetAuditTrail(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestBidService_Update_AuditsEachChangedField(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)
	bid := createBid(t, svc, "Original title")

	newTitle := "Revised title"
	newValue := 500000.0
	dto, err := svc.Update(actorContext("alice"), bid.ID, &domain.UpdateBidRequest{
		Title:    &newTitle,
		BidValue: &newValue,
	})
	require.NoError(t, err)
	assert.Equal(t, "Revised title", dto.Title)
	require.NotNil(t, dto.BidValue)
	assert.InDelta(t, 500000.0, *dto.BidValue, 0.01)

	trail, err := svc.GetAuditTrail(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)

	fields := map[string]bool{}
	for _, r := range trail {
		fields[r.FieldChanged] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["bid_value"])
}

func TestBidService_GetDueSoon_UsesConfiguredWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)

	soon, err := svc.Create(actorContext("alice"), &domain.CreateBidRequest{
		Title:      "Due tomorrow",
		DueDate:    time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"),
		AssignedTo: "alice",
		ClientName: "Acme Corp",
	})
	require.NoError(t, err)

	_, err = svc.Create(actorContext("alice"), &domain.CreateBidRequest{
		Title:      "Due in a month",
		DueDate:    time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		AssignedTo: "alice",
		ClientName: "Acme Corp",
	})
	require.NoError(t, err)

	bids, err := svc.GetDueSoon(context.Background())
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, soon.ID, bids[0].ID)
}

func TestBidService_GetActiveStages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)

	first := createBid(t, svc, "Still drafting")
	second := createBid(t, svc, "In legal")
	_, err := svc.TransitionStage(actorContext("bob"), second.ID, &domain.TransitionStageRequest{
		Stage:       domain.StageLegalReview,
		LockVersion: second.LockVersion,
	})
	require.NoError(t, err)

	active, err := svc.GetActiveStages(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)

	byBid := make(map[int64]domain.ActiveStageDTO, len(active))
	for _, row := range active {
		byBid[row.BidID] = row
	}
	assert.Equal(t, "Still drafting", byBid[first.ID].BidTitle)
	assert.Equal(t, domain.StageProposalDrafting, byBid[first.ID].Stage)
	assert.Equal(t, "Proposal Manager", byBid[first.ID].StageOwner)
	assert.Equal(t, domain.StageLegalReview, byBid[second.ID].Stage)
	assert.Equal(t, "Legal Team", byBid[second.ID].StageOwner)
}

func TestBidService_GetStageRegistry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := newBidService(t, db)

	entries := svc.GetStageRegistry(context.Background())
	require.Len(t, entries, 7)
	assert.Equal(t, domain.StageProposalDrafting, entries[0].Stage)
	assert.False(t, entries[0].Terminal)
	assert.Equal(t, domain.StageLost, entries[6].Stage)
	assert.True(t, entries[6].Terminal)
}
