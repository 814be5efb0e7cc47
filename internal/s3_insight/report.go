package s3_insight

import (
	"fmt"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
)

// Disclaimer closes every final report
const Disclaimer = "This analysis is generated by automated systems and should not be considered as financial advice. " +
	"Please consult with a qualified financial advisor before making investment decisions."

// ReportFormat is recorded in the insight metadata
const ReportFormat = "comprehensive_analysis"

// highPriorityConfidence promotes a ticker recommendation to HIGH priority
const highPriorityConfidence = 0.8

// FinalReport composes the terminal report from ticker and portfolio insights.
// indicatorsUsed lists the indicator names of the first analyzed ticker.
func FinalReport(insights map[string]*contracts.TickerInsight, portfolio *contracts.PortfolioInsights, order []string, indicatorsUsed []string, ordering string) *contracts.FinalReport {
	tickers := contracts.Ordered(order, insights)

	if indicatorsUsed == nil {
		indicatorsUsed = []string{}
	}

	return &contracts.FinalReport{
		ExecutiveSummary:          Executive(insights, portfolio),
		DetailedAnalysis:          insights,
		PortfolioRecommendations:  portfolio,
		RiskSummary:               RiskSummary(insights, tickers, ordering),
		ActionableRecommendations: Actionable(insights, tickers, portfolio),
		Methodology: contracts.Methodology{
			PipelineStages:     contracts.StageNames(),
			IndicatorsUsed:     indicatorsUsed,
			AnalysisConfidence: averageConfidence(insights),
		},
		Disclaimer: Disclaimer,
	}
}

// Executive summarizes counts across all insights. Ties between BUY and SELL
// counts resolve to HOLD.
func Executive(insights map[string]*contracts.TickerInsight, portfolio *contracts.PortfolioInsights) contracts.ExecutiveSummary {
	dist := distribution(insights)
	buys, sells := dist[contracts.ActionBuy], dist[contracts.ActionSell]

	// counts tickers with insights, not configured tickers; a buy/sell tie stays HOLD
	primary := contracts.ActionHold
	switch {
	case buys > sells:
		primary = contracts.ActionBuy
	case sells > buys:
		primary = contracts.ActionSell
	}

	confidence := "LOW"
	if len(insights) > 0 {
		confidence = "HIGH"
	}

	return contracts.ExecutiveSummary{
		TotalAnalyzed:     len(insights),
		PrimaryAction:     primary,
		OverallConfidence: confidence,
		KeyTakeaway:       keyTakeaway(len(insights), buys, sells),
		NextSteps:         nextSteps(portfolio),
	}
}

func keyTakeaway(total, buys, sells int) string {
	switch {
	case total == 0:
		return "No actionable insights generated"
	case float64(buys) > float64(sells)*1.5:
		return fmt.Sprintf("Bullish sentiment detected with %d/%d tickers showing buy signals", buys, total)
	case float64(sells) > float64(buys)*1.5:
		return fmt.Sprintf("Bearish sentiment detected with %d/%d tickers showing sell signals", sells, total)
	default:
		return fmt.Sprintf("Mixed signals suggest balanced approach with %d buy and %d sell recommendations", buys, sells)
	}
}

func nextSteps(portfolio *contracts.PortfolioInsights) []string {
	steps := []string{
		"Review detailed analysis for individual tickers",
		"Consider portfolio rebalancing based on recommendations",
		"Monitor market conditions for confirmation signals",
		"Set up alerts for key price levels and indicators",
	}
	if portfolio == nil {
		return steps
	}

	switch portfolio.Strategy.Strategy {
	case contracts.StrategyAggressiveGrowth:
		steps = append([]string{"Research additional growth opportunities in related sectors"}, steps...)
	case contracts.StrategyConservativeDefense:
		steps = append([]string{"Review stop-loss levels and profit-taking strategies"}, steps...)
	}
	return steps
}

// RiskSummary aggregates per-ticker risk assessments
func RiskSummary(insights map[string]*contracts.TickerInsight, tickers []string, ordering string) contracts.RiskSummary {
	dist := map[contracts.RiskLevel]int{
		contracts.RiskHigh:   0,
		contracts.RiskMedium: 0,
		contracts.RiskLow:    0,
	}

	levels := make([]contracts.RiskLevel, 0, len(tickers))
	vols := make([]float64, 0, len(tickers))
	for _, t := range tickers {
		ra := insights[t].RiskAssessment
		levels = append(levels, ra.Level)
		vols = append(vols, ra.Volatility)
		if _, ok := dist[ra.Level]; ok {
			dist[ra.Level]++
		}
	}

	return contracts.RiskSummary{
		PortfolioRisk:     MaxRisk(levels, ordering),
		RiskDistribution:  dist,
		AverageVolatility: risk.Mean(vols),
	}
}

// Actionable lists portfolio-level items first, then confident per-ticker calls
func Actionable(insights map[string]*contracts.TickerInsight, tickers []string, portfolio *contracts.PortfolioInsights) []contracts.ActionableRecommendation {
	recs := []contracts.ActionableRecommendation{}

	if portfolio != nil {
		switch portfolio.Strategy.Strategy {
		case contracts.StrategyAggressiveGrowth:
			recs = append(recs, contracts.ActionableRecommendation{
				Type:     contracts.RecommendationPortfolio,
				Action:   "Consider increasing equity exposure",
				Priority: "MEDIUM",
				Timeline: "1-3 months",
			})
		case contracts.StrategyConservativeDefense:
			recs = append(recs, contracts.ActionableRecommendation{
				Type:     contracts.RecommendationPortfolio,
				Action:   "Consider reducing risk exposure",
				Priority: "HIGH",
				Timeline: "Immediate",
			})
		}
	}

	for _, t := range tickers {
		rec := insights[t].Recommendation
		if rec.Action == contracts.ActionHold || rec.Confidence <= actionConfidence {
			continue
		}

		priority := "MEDIUM"
		if rec.Confidence > highPriorityConfidence {
			priority = "HIGH"
		}
		recs = append(recs, contracts.ActionableRecommendation{
			Type:      contracts.RecommendationTicker,
			Ticker:    t,
			Action:    fmt.Sprintf("%s %s", rec.Action, t),
			Priority:  priority,
			Timeline:  "Next trading session",
			Reasoning: rec.Reasoning,
		})
	}
	return recs
}

func averageConfidence(insights map[string]*contracts.TickerInsight) float64 {
	if len(insights) == 0 {
		return 0
	}
	sum := 0.0
	for _, in := range insights {
		sum += in.Recommendation.Confidence
	}
	return sum / float64(len(insights))
}

// InsightQuality grades the average confidence: HIGH above 0.8, MEDIUM above 0.6
func InsightQuality(insights map[string]*contracts.TickerInsight) string {
	if len(insights) == 0 {
		return "LOW"
	}
	avg := averageConfidence(insights)
	switch {
	case avg > 0.8:
		return "HIGH"
	case avg > 0.6:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
