// Package brain drives the four pipeline stages over a shared context.
package brain

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
)

const (
	PipelineName = "Market Data Processing Pipeline"
	Version      = "1.0"
)

// Recorder receives stage and run timings, e.g. for metrics
type Recorder interface {
	ObserveStage(stage string, status contracts.Status, duration time.Duration)
	ObserveRun(success bool, duration time.Duration)
}

// Orchestrator runs the stages in order over one PipelineContext
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	stages   []contracts.Stage
	recorder Recorder
	logger   *logger.Logger
	now      func() time.Time
	newRunID func() string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRecorder reports stage and run timings to r
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRunIDs overrides run id generation
func WithRunIDs(gen func() string) Option {
	return func(o *Orchestrator) { o.newRunID = gen }
}

// NewOrchestrator creates an orchestrator over an explicit stage list
func NewOrchestrator(stages []contracts.Stage, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages:   stages,
		logger:   log,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stages returns the stage names in execution order
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage in order and always returns the context.
// A failed stage is logged and the next stage still runs on whatever partial
// data exists, unless cfg.StopOnFailure is set or ctx is done; the remaining
// stages are then logged as SKIPPED.
func (o *Orchestrator) Run(ctx context.Context, cfg contracts.PipelineConfig) *contracts.PipelineContext {
	startTime := o.now()
	pc := contracts.NewPipelineContext(o.newRunID(), cfg)

	log := o.logger.WithField("run_id", pc.RunID)
	log.WithFields(logger.Fields{
		"pipeline": PipelineName,
		"version":  Version,
		"tickers":  cfg.Tickers,
		"sources":  cfg.DataSources,
		"period":   cfg.Period,
	}).Info("Starting pipeline run")

	execLog := make([]contracts.ExecutionLogEntry, 0, len(o.stages))
	halted := ""

	for i, stage := range o.stages {
		index := i + 1
		entry := contracts.ExecutionLogEntry{StageIndex: index, Name: stage.Name()}

		if halted == "" && ctx.Err() != nil {
			halted = "context cancelled"
		}
		if halted != "" {
			entry.Status = contracts.StatusSkipped
			entry.Error = halted
			entry.Timestamp = o.now()
			execLog = append(execLog, entry)
			log.WithFields(logger.Fields{"stage": index, "name": stage.Name()}).Warn("Stage skipped")
			o.observeStage(entry)
			continue
		}

		started := o.now()
		outcome := o.runStage(ctx, stage, pc)

		entry.Status = outcome.Status
		entry.Duration = o.now().Sub(started)
		entry.Timestamp = o.now()

		fields := logger.Fields{"stage": index, "name": stage.Name(), "duration": entry.Duration}
		if outcome.OK() {
			log.WithFields(fields).Info("Stage completed")
		} else {
			entry.Error = outcome.Err.Error()
			pc.Errors = append(pc.Errors, contracts.StageError{
				StageIndex: index,
				Stage:      stage.Name(),
				Error:      entry.Error,
				Timestamp:  entry.Timestamp,
			})
			log.WithFields(fields).WithError(outcome.Err).Error("Stage failed")

			if cfg.StopOnFailure {
				halted = fmt.Sprintf("stopped after %s failed", stage.Name())
			}
		}

		execLog = append(execLog, entry)
		o.observeStage(entry)
	}

	success := len(execLog) > 0
	for _, e := range execLog {
		if e.Status != contracts.StatusCompleted {
			success = false
			break
		}
	}

	pc.Execution = &contracts.PipelineExecution{
		PipelineName:  PipelineName,
		Version:       Version,
		RunID:         pc.RunID,
		TotalStages:   len(o.stages),
		ExecutionLog:  execLog,
		StartedAt:     startTime,
		ExecutionTime: o.now(),
		InputConfig:   cfg.Clone(),
		Success:       success,
	}

	duration := o.now().Sub(startTime)
	if o.recorder != nil {
		o.recorder.ObserveRun(success, duration)
	}

	log.WithFields(logger.Fields{
		"success":          success,
		"completed_stages": pc.Execution.CompletedStages(),
		"duration":         duration,
	}).Info("Pipeline run finished")

	return pc
}

// runStage calls Process then Validate. A panic inside either is recovered
// into a Failed outcome; Validate does not run after a failed Process.
func (o *Orchestrator) runStage(ctx context.Context, stage contracts.Stage, pc *contracts.PipelineContext) (outcome contracts.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logger.Fields{
				"name":  stage.Name(),
				"stack": string(debug.Stack()),
			}).Error("Recovered stage panic")
			outcome = contracts.Failedf("panic in %s: %v", stage.Name(), r)
		}
	}()

	if outcome = stage.Process(ctx, pc); !outcome.OK() {
		return outcome
	}
	return stage.Validate(ctx, pc)
}

func (o *Orchestrator) observeStage(e contracts.ExecutionLogEntry) {
	if o.recorder != nil {
		o.recorder.ObserveStage(e.Name, e.Status, e.Duration)
	}
}
