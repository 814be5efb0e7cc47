// Package s2_analysis computes indicators, trading signals and risk metrics
// for every processed ticker.
package s2_analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Stage is the technical analysis stage
type Stage struct {
	analyzer TickerAnalyzer
	logger   *logger.Logger
	now      func() time.Time
}

// NewStage creates the analysis stage with the default technical analyzer
func NewStage(log *logger.Logger) *Stage {
	analyzer := NewTechnicalAnalyzer(risk.NewEngine(), log.WithStage(contracts.StageAnalysis))
	return NewStageWithAnalyzer(analyzer, log)
}

// NewStageWithAnalyzer creates the analysis stage around a custom analyzer
func NewStageWithAnalyzer(analyzer TickerAnalyzer, log *logger.Logger) *Stage {
	return &Stage{
		analyzer: analyzer,
		logger:   log.WithStage(contracts.StageAnalysis),
		now:      time.Now,
	}
}

// Name returns the stage name
func (s *Stage) Name() string {
	return contracts.StageAnalysis
}

// Process analyzes tickers in configured order. An analyzer error stops the
// loop; results for earlier tickers stay in the context.
func (s *Stage) Process(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	proc := pc.Processing
	if proc == nil {
		return contracts.Failed(fmt.Errorf("analysis: %w: processing output", contracts.ErrMissingInput))
	}

	out := &contracts.AnalysisOutput{
		Results:  make(map[string]*contracts.TickerAnalysis),
		Metadata: contracts.AnalysisMetadata{AnalyzedTickers: []string{}},
	}
	pc.Analysis = out

	defer func() {
		out.Metadata.AnalysisTime = s.now()
		if tickers := out.Metadata.AnalyzedTickers; len(tickers) > 0 {
			out.Metadata.IndicatorsCalculated = len(out.Results[tickers[0]].Indicators.Names())
		}
	}()

	s.logger.Info("Starting technical analysis")

	for _, ticker := range contracts.Ordered(pc.Config.Tickers, proc.ProcessedData) {
		if err := ctx.Err(); err != nil {
			return contracts.Failed(fmt.Errorf("analysis interrupted: %w", err))
		}

		result, err := s.analyzer.Analyze(ticker, proc.ProcessedData[ticker])
		if err != nil {
			s.logger.WithField("ticker", ticker).WithError(err).Error("Technical analysis failed")
			return contracts.Failed(fmt.Errorf("ticker %s: %w", ticker, err))
		}

		out.Results[ticker] = result
		out.Metadata.AnalyzedTickers = append(out.Metadata.AnalyzedTickers, ticker)

		s.logger.WithFields(logger.Fields{
			"ticker":     ticker,
			"signals":    result.Summary.TotalSignals,
			"risk_level": result.Summary.RiskLevel,
		}).Info("Technical analysis completed")
	}

	return contracts.Completed()
}

// Validate flags each analyzed ticker; every check stands alone
func (s *Stage) Validate(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	out := pc.Analysis
	if out == nil {
		return contracts.Failed(fmt.Errorf("validate analysis: %w", contracts.ErrMissingInput))
	}

	out.Validation = make(map[string]contracts.AnalysisValidation, len(out.Results))
	for ticker, r := range out.Results {
		out.Validation[ticker] = contracts.AnalysisValidation{
			HasIndicators:    !r.Indicators.Empty(),
			HasSignals:       len(r.Signals) > 0,
			HasRiskMetrics:   r.RiskMetrics != nil,
			AnalysisComplete: r.Summary.RiskLevel != "",
		}
	}

	s.logger.WithField("tickers", len(out.Validation)).Info("Technical analysis validation completed")
	return contracts.Completed()
}
