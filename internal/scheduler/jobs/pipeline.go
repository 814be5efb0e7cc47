package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, cfg contracts.PipelineConfig) *contracts.PipelineContext
}

// RunSaver persists finished runs
type RunSaver interface {
	SaveRun(ctx context.Context, pc *contracts.PipelineContext) error
}

// InsightObserver is told about every finished run's insights
type InsightObserver interface {
	ObserveInsights(pc *contracts.PipelineContext)
}

// PipelineJob runs the analysis pipeline on a schedule
// ⭐ SSOT: 파이프라인 정기 실행은 이 Job에서만
type PipelineJob struct {
	runner   Runner
	cfg      contracts.PipelineConfig
	schedule string
	store    RunSaver
	observer InsightObserver
	logger   *logger.Logger
}

// NewPipelineJob creates a new pipeline job. store and observer may be nil.
func NewPipelineJob(runner Runner, cfg contracts.PipelineConfig, schedule string, store RunSaver, observer InsightObserver, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner:   runner,
		cfg:      cfg.Clone(),
		schedule: schedule,
		store:    store,
		observer: observer,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "market_pipeline"
}

// Schedule returns the cron schedule
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run. A run without success is an error so the scheduler retries it.
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.WithField("tickers", j.cfg.Tickers).Info("Starting scheduled pipeline run")

	pc := j.runner.Run(ctx, j.cfg)

	if j.observer != nil {
		j.observer.ObserveInsights(pc)
	}
	if j.store != nil {
		if err := j.store.SaveRun(ctx, pc); err != nil {
			j.logger.WithError(err).WithField("run_id", pc.RunID).Error("Failed to store pipeline run")
		}
	}

	if !pc.Success() {
		failed := make([]string, 0, len(pc.Errors))
		for _, e := range pc.Errors {
			failed = append(failed, e.Stage)
		}
		return fmt.Errorf("pipeline run %s failed at %v", pc.RunID, failed)
	}

	j.logger.WithField("run_id", pc.RunID).Info("Scheduled pipeline run completed")
	return nil
}
