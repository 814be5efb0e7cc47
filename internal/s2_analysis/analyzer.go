package s2_analysis

import (
	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
	"github.com/wonny/marketpipe/pkg/logger"
)

// TickerAnalyzer analyzes one processed ticker
type TickerAnalyzer interface {
	Analyze(ticker string, data *contracts.ProcessedDataset) (*contracts.TickerAnalysis, error)
}

// TechnicalAnalyzer calculates indicators, signals and risk for one ticker
// ⭐ SSOT: 기술적 지표/시그널 계산은 여기서만
type TechnicalAnalyzer struct {
	risk   *risk.Engine
	logger *logger.Logger
}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer(engine *risk.Engine, log *logger.Logger) *TechnicalAnalyzer {
	if engine == nil {
		engine = risk.NewEngine()
	}
	return &TechnicalAnalyzer{risk: engine, logger: log}
}

// Analyze computes the full analysis for a ticker. Series shorter than
// MinHistory produce no indicators, no signals and no risk metrics.
func (a *TechnicalAnalyzer) Analyze(ticker string, data *contracts.ProcessedDataset) (*contracts.TickerAnalysis, error) {
	closes := data.Closes()

	ind := ComputeIndicators(closes)
	signals := GenerateSignals(closes, &ind)

	var rm *contracts.RiskMetrics
	if len(closes) >= MinHistory {
		rm = a.risk.Compute(data.Dates(), closes)
	}

	result := &contracts.TickerAnalysis{
		Indicators:  ind,
		Signals:     signals,
		RiskMetrics: rm,
		Summary:     Summarize(&ind, signals, rm),
	}

	a.logger.WithFields(logger.Fields{
		"ticker":     ticker,
		"indicators": len(ind.Names()),
		"signals":    len(signals),
		"confidence": result.Summary.AnalysisConfidence,
	}).Debug("Calculated technical analysis")

	return result, nil
}
