package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionJobName is the name of the notification retention job
const RetentionJobName = "notification_retention"

// NotificationPruneService defines the interface for pruning old notifications.
// This interface allows the job to call the service without importing the service package directly.
type NotificationPruneService interface {
	// PruneRead deletes read notifications older than the retention window.
	// Returns the number of deleted rows.
	PruneRead(ctx context.Context, retentionDays int) (int64, error)
}

// RetentionJob deletes read notifications that have aged past the retention
// window. Bid history is append-only and is never touched by this job.
type RetentionJob struct {
	notificationService NotificationPruneService
	retentionDays       int
	logger              *zap.Logger
	timeout             time.Duration
}

// NewRetentionJob creates a new notification retention job.
func NewRetentionJob(notificationService NotificationPruneService, retentionDays int, logger *zap.Logger, timeout time.Duration) *RetentionJob {
	return &RetentionJob{
		notificationService: notificationService,
		retentionDays:       retentionDays,
		logger:              logger,
		timeout:             timeout,
	}
}

// Run executes the retention job.
// This is called by the scheduler according to the cron expression.
func (j *RetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	deleted, err := j.notificationService.PruneRead(ctx, j.retentionDays)
	if err != nil {
		j.logger.Error("notification retention job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("notification retention job completed",
		zap.Int64("deleted", deleted),
		zap.Int("retention_days", j.retentionDays),
		zap.Duration("duration", time.Since(start)))
}

// RegisterRetentionJob registers the notification retention job with the scheduler.
// The cronExpr should be a valid cron expression (e.g., "0 0 3 * * *" for 03:00 daily).
func RegisterRetentionJob(scheduler *Scheduler, notificationService NotificationPruneService, retentionDays int, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewRetentionJob(notificationService, retentionDays, logger, timeout)
	return scheduler.AddJob(RetentionJobName, cronExpr, job.Run)
}
