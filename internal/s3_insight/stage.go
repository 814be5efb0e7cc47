// Package s3_insight turns analysis results into recommendations, portfolio
// aggregates and the final report.
package s3_insight

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Stage is the insight generation stage
// ⭐ SSOT: 추천/리포트 생성은 여기서만
type Stage struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewStage creates the insight stage
func NewStage(log *logger.Logger) *Stage {
	return &Stage{
		logger: log.WithStage(contracts.StageInsight),
		now:    time.Now,
	}
}

// Name returns the stage name
func (s *Stage) Name() string {
	return contracts.StageInsight
}

// Process builds ticker insights, the portfolio view (more than one ticker only)
// and the final report
func (s *Stage) Process(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	analysis := pc.Analysis
	if analysis == nil {
		return contracts.Failed(fmt.Errorf("insight: %w: analysis output", contracts.ErrMissingInput))
	}

	s.logger.Info("Starting insight generation")

	order := contracts.Ordered(pc.Config.Tickers, analysis.Results)
	insights := make(map[string]*contracts.TickerInsight, len(order))
	out := &contracts.InsightOutput{Insights: insights}
	pc.Insight = out

	for _, ticker := range order {
		if err := ctx.Err(); err != nil {
			return contracts.Failed(fmt.Errorf("insight interrupted: %w", err))
		}
		insights[ticker] = TickerInsight(ticker, analysis.Results[ticker])

		s.logger.WithFields(logger.Fields{
			"ticker":     ticker,
			"action":     insights[ticker].Recommendation.Action,
			"confidence": insights[ticker].Recommendation.Confidence,
		}).Debug("Generated ticker insight")
	}

	ordering := pc.Config.PortfolioRiskOrdering
	out.Portfolio = Portfolio(insights, order, ordering)

	var indicatorsUsed []string
	if len(order) > 0 {
		indicatorsUsed = analysis.Results[order[0]].Indicators.Names()
	}
	out.FinalReport = FinalReport(insights, out.Portfolio, order, indicatorsUsed, ordering)

	out.Metadata = contracts.InsightMetadata{
		GeneratedInsights: len(insights),
		GenerationTime:    s.now(),
		ReportFormat:      ReportFormat,
	}

	s.logger.WithField("insights", len(insights)).Info("Insight generation completed")
	return contracts.Completed()
}

// Validate records presence flags and the insight quality grade
func (s *Stage) Validate(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	out := pc.Insight
	if out == nil {
		return contracts.Failed(fmt.Errorf("validate insight: %w", contracts.ErrMissingInput))
	}

	out.Validation = &contracts.InsightsValidation{
		HasInsights:          len(out.Insights) > 0,
		HasPortfolioInsights: out.Portfolio != nil,
		HasFinalReport:       out.FinalReport != nil,
		InsightQuality:       InsightQuality(out.Insights),
	}

	s.logger.WithField("quality", out.Validation.InsightQuality).Info("Insight validation completed")
	return contracts.Completed()
}
