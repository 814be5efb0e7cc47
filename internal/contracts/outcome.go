package contracts

import (
	"fmt"
	"time"
)

// Status of a stage in the execution log
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusSkipped   Status = "SKIPPED"
)

// Outcome is what a stage hands back to the orchestrator.
// Data always lives in the context; a failed outcome may leave partial data behind.
type Outcome struct {
	Status Status
	Err    error
}

// Completed returns a successful outcome
func Completed() Outcome {
	return Outcome{Status: StatusCompleted}
}

// Failed returns a failed outcome carrying err
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Failedf is Failed with fmt.Errorf semantics
func Failedf(format string, args ...interface{}) Outcome {
	return Failed(fmt.Errorf(format, args...))
}

// OK reports whether the outcome is Completed
func (o Outcome) OK() bool {
	return o.Status == StatusCompleted
}

// StageError is the error descriptor attached to the context when a stage fails
type StageError struct {
	StageIndex int       `json:"stage"`
	Stage      string    `json:"failed_stage"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
}

// ExecutionLogEntry records one stage's result
type ExecutionLogEntry struct {
	StageIndex int           `json:"stage"`
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Timestamp  time.Time     `json:"timestamp"`
}

// PipelineExecution is the terminal section of every run
type PipelineExecution struct {
	PipelineName  string              `json:"pipeline_name"`
	Version       string              `json:"version"`
	RunID         string              `json:"run_id"`
	TotalStages   int                 `json:"total_stages"`
	ExecutionLog  []ExecutionLogEntry `json:"execution_log"`
	StartedAt     time.Time           `json:"started_at"`
	ExecutionTime time.Time           `json:"execution_time"`
	InputConfig   PipelineConfig      `json:"input_config"`
	Success       bool                `json:"success"`
}

// CompletedStages counts log entries with status COMPLETED
func (e *PipelineExecution) CompletedStages() int {
	n := 0
	for _, entry := range e.ExecutionLog {
		if entry.Status == StatusCompleted {
			n++
		}
	}
	return n
}
