package brain

import (
	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/s0_acquisition"
	"github.com/wonny/marketpipe/internal/s1_processing"
	"github.com/wonny/marketpipe/internal/s2_analysis"
	"github.com/wonny/marketpipe/internal/s3_insight"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Deps are the collaborators of the default pipeline
type Deps struct {
	Sources  s0_acquisition.SourceLookup
	Observer s0_acquisition.FetchObserver
	Analyzer s2_analysis.TickerAnalyzer
	Recorder Recorder
}

// NewPipeline wires acquisition, processing, analysis and insight in order
func NewPipeline(deps Deps, log *logger.Logger, opts ...Option) *Orchestrator {
	var acqOpts []s0_acquisition.Option
	if deps.Observer != nil {
		acqOpts = append(acqOpts, s0_acquisition.WithObserver(deps.Observer))
	}

	analysis := s2_analysis.NewStage(log)
	if deps.Analyzer != nil {
		analysis = s2_analysis.NewStageWithAnalyzer(deps.Analyzer, log)
	}

	stages := []contracts.Stage{
		s0_acquisition.NewStage(deps.Sources, log, acqOpts...),
		s1_processing.NewStage(log),
		analysis,
		s3_insight.NewStage(log),
	}

	if deps.Recorder != nil {
		opts = append([]Option{WithRecorder(deps.Recorder)}, opts...)
	}
	return NewOrchestrator(stages, log, opts...)
}
