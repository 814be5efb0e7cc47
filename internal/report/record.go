// Package report persists finished pipeline runs and exports them to Excel.
package report

import (
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
)

// RunRecord is the persisted form of one pipeline run
type RunRecord struct {
	RunID        string                        `json:"run_id"`
	StartedAt    time.Time                     `json:"started_at"`
	FinishedAt   time.Time                     `json:"finished_at"`
	Success      bool                          `json:"success"`
	Tickers      []string                      `json:"tickers"`
	Config       contracts.PipelineConfig      `json:"config"`
	ExecutionLog []contracts.ExecutionLogEntry `json:"execution_log"`
	Errors       []contracts.StageError        `json:"errors"`
	Report       *contracts.FinalReport        `json:"final_report,omitempty"`
}

// RunSummary is a list row of stored runs
type RunSummary struct {
	RunID         string           `json:"run_id"`
	FinishedAt    time.Time        `json:"finished_at"`
	Success       bool             `json:"success"`
	Tickers       []string         `json:"tickers"`
	PrimaryAction contracts.Action `json:"primary_action,omitempty"`
}

// FromContext builds a record from a finished run. The api key never leaves the context.
func FromContext(pc *contracts.PipelineContext) *RunRecord {
	rec := &RunRecord{
		RunID:   pc.RunID,
		Config:  pc.Config.Clone(),
		Tickers: append([]string{}, pc.Config.Tickers...),
		Errors:  append([]contracts.StageError(nil), pc.Errors...),
	}
	rec.Config.APIKey = ""

	if ex := pc.Execution; ex != nil {
		rec.StartedAt = ex.StartedAt
		rec.FinishedAt = ex.ExecutionTime
		rec.Success = ex.Success
		rec.ExecutionLog = append([]contracts.ExecutionLogEntry(nil), ex.ExecutionLog...)
	}
	if pc.Insight != nil {
		rec.Report = pc.Insight.FinalReport
	}
	return rec
}

// Summary returns the list row for the record
func (r *RunRecord) Summary() RunSummary {
	s := RunSummary{
		RunID:      r.RunID,
		FinishedAt: r.FinishedAt,
		Success:    r.Success,
		Tickers:    r.Tickers,
	}
	if r.Report != nil {
		s.PrimaryAction = r.Report.ExecutiveSummary.PrimaryAction
	}
	return s
}
