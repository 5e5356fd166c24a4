package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/testutil"
)

func newDashboardService(t *testing.T, db *gorm.DB) *service.DashboardService {
	t.Helper()
	reminders := &config.RemindersConfig{DueSoonDays: 3}
	return service.NewDashboardService(repository.NewBidRepository(db), reminders, zap.NewNop())
}

func TestDashboardService_GetMetrics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDashboardService(t, db)

	value := 100000.0
	open := testutil.CreateTestBid(t, db, "Open bid")
	require.NoError(t, db.Model(open).Update("bid_value", value).Error)

	won := testutil.CreateTestBid(t, db, "Won bid")
	require.NoError(t, db.Model(won).Updates(map[string]interface{}{
		"status":    domain.BidStatusWon,
		"stage":     domain.StageAwarded,
		"bid_value": 250000.0,
	}).Error)

	lost := testutil.CreateTestBid(t, db, "Lost bid")
	require.NoError(t, db.Model(lost).Updates(map[string]interface{}{
		"status": domain.BidStatusLost,
		"stage":  domain.StageLost,
		"reason": "Price too high",
	}).Error)

	metrics, err := svc.GetMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), metrics.TotalBids)
	assert.Equal(t, int64(1), metrics.OpenBids)
	assert.Equal(t, int64(1), metrics.WonBids)
	assert.Equal(t, int64(1), metrics.LostBids)
	assert.InDelta(t, 50.0, metrics.WinRate, 0.01)
	// Lost bids never count toward pipeline value
	assert.InDelta(t, 350000.0, metrics.PipelineValue, 0.01)

	require.Len(t, metrics.LossReasons, 1)
	assert.Equal(t, "Price too high", metrics.LossReasons[0].Reason)
	assert.Equal(t, int64(1), metrics.LossReasons[0].Count)

	// All fixtures are due a month out, outside the 3-day window
	assert.Zero(t, metrics.UpcomingDeadlines)
	assert.GreaterOrEqual(t, metrics.AvgBidAgeDays, 0.0)
}

func TestDashboardService_GetMetrics_CountsUpcomingDeadlines(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDashboardService(t, db)

	urgent := testutil.CreateTestBid(t, db, "Due tomorrow")
	require.NoError(t, db.Model(urgent).
		Update("due_date", time.Now().UTC().AddDate(0, 0, 1)).Error)
	testutil.CreateTestBid(t, db, "Due next month")

	metrics, err := svc.GetMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.UpcomingDeadlines)
}

func TestDashboardService_GetMetrics_EmptyPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newDashboardService(t, db)

	metrics, err := svc.GetMetrics(context.Background())
	require.NoError(t, err)

	assert.Zero(t, metrics.TotalBids)
	assert.Zero(t, metrics.WinRate)
	assert.Zero(t, metrics.PipelineValue)
	assert.Empty(t, metrics.LossReasons)
}
