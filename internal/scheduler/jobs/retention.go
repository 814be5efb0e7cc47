package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/marketpipe/pkg/logger"
)

// RunPruner deletes stored runs older than a cutoff
type RunPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob removes old pipeline runs from the store
type RetentionJob struct {
	store  RunPruner
	keep   time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewRetentionJob creates a new retention job keeping runs younger than keep
func NewRetentionJob(store RunPruner, keep time.Duration, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		store:  store,
		keep:   keep,
		logger: log,
		now:    time.Now,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "run_retention"
}

// Schedule returns the cron schedule (daily at 3 AM)
func (j *RetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the cleanup
func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.keep)

	removed, err := j.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff,
		}).Info("Run retention completed")
	}
	return nil
}
