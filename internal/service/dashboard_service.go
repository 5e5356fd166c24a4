package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/domain"
	"github.com/bidwatch/bid-api/internal/repository"
)

// DashboardService computes portfolio-level metrics across all bids
type DashboardService struct {
	bidRepo   *repository.BidRepository
	reminders *config.RemindersConfig
	logger    *zap.Logger
}

func NewDashboardService(bidRepo *repository.BidRepository, reminders *config.RemindersConfig, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		bidRepo:   bidRepo,
		reminders: reminders,
		logger:    logger,
	}
}

// GetMetrics aggregates counts, win rate, pipeline value, and loss reasons.
// Win rate counts only decided bids; an undecided portfolio reports zero.
func (s *DashboardService) GetMetrics(ctx context.Context) (*domain.DashboardDTO, error) {
	counts, err := s.bidRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bids by status: %w", err)
	}

	pipelineValue, err := s.bidRepo.GetPipelineValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline value: %w", err)
	}

	lossReasons, err := s.bidRepo.CountLossReasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count loss reasons: %w", err)
	}

	cutoff := time.Now().UTC().Add(s.reminders.DueSoonWindow())
	upcoming, err := s.bidRepo.CountDueSoon(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming deadlines: %w", err)
	}

	avgAge, err := s.bidRepo.GetAverageOpenBidAge(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get average bid age: %w", err)
	}

	metrics := &domain.DashboardDTO{
		OpenBids:          counts[domain.BidStatusOpen],
		WonBids:           counts[domain.BidStatusWon],
		LostBids:          counts[domain.BidStatusLost],
		PipelineValue:     pipelineValue,
		UpcomingDeadlines: upcoming,
		AvgBidAgeDays:     avgAge.Hours() / 24,
		LossReasons:       lossReasons,
	}

	statusCounts := make([]domain.StatusCountDTO, 0, len(counts))
	for _, status := range []domain.BidStatus{
		domain.BidStatusOpen,
		domain.BidStatusSubmitted,
		domain.BidStatusWon,
		domain.BidStatusLost,
	} {
		metrics.TotalBids += counts[status]
		if count, ok := counts[status]; ok {
			statusCounts = append(statusCounts, domain.StatusCountDTO{Status: status, Count: count})
		}
	}
	metrics.StatusCounts = statusCounts

	decided := metrics.WonBids + metrics.LostBids
	if decided > 0 {
		metrics.WinRate = float64(metrics.WonBids) / float64(decided) * 100
	}

	return metrics, nil
}
