package s3_insight

import (
	"fmt"

	"github.com/wonny/marketpipe/internal/contracts"
)

var riskAdjustments = map[contracts.RiskLevel]string{
	contracts.RiskHigh:   "Reduce position sizes and increase cash allocation",
	contracts.RiskMedium: "Maintain balanced risk exposure with diversification",
	contracts.RiskLow:    "Consider increasing exposure to quality opportunities",
}

// MaxRisk aggregates risk levels. Severity ordering ranks HIGH > MEDIUM > LOW;
// lexical ordering compares the labels as strings. No levels yields MEDIUM.
func MaxRisk(levels []contracts.RiskLevel, ordering string) contracts.RiskLevel {
	if len(levels) == 0 {
		return contracts.RiskMedium
	}

	best := levels[0]
	for _, l := range levels[1:] {
		if ordering == contracts.RiskOrderingLexical {
			if l > best {
				best = l
			}
			continue
		}
		if l.Severity() > best.Severity() {
			best = l
		}
	}
	return best
}

// Portfolio aggregates the insights of more than one ticker; it returns nil otherwise.
// order is the ticker order used for iteration.
func Portfolio(insights map[string]*contracts.TickerInsight, order []string, ordering string) *contracts.PortfolioInsights {
	if len(insights) <= 1 {
		return nil
	}

	tickers := contracts.Ordered(order, insights)
	dist := distribution(insights)

	levels := make([]contracts.RiskLevel, 0, len(tickers))
	for _, t := range tickers {
		levels = append(levels, insights[t].RiskAssessment.Level)
	}
	risk := MaxRisk(levels, ordering)

	summary := contracts.PortfolioSummary{
		TotalTickers:        len(insights),
		BuyRecommendations:  dist[contracts.ActionBuy],
		SellRecommendations: dist[contracts.ActionSell],
		HoldRecommendations: dist[contracts.ActionHold],
	}

	return &contracts.PortfolioInsights{
		Summary:         summary,
		PortfolioRisk:   risk,
		Strategy:        Strategy(summary, risk),
		Diversification: Diversify(dist, len(insights)),
		MarketTiming:    Timing(insights),
	}
}

func distribution(insights map[string]*contracts.TickerInsight) map[contracts.Action]int {
	dist := map[contracts.Action]int{
		contracts.ActionBuy:  0,
		contracts.ActionSell: 0,
		contracts.ActionHold: 0,
	}
	for _, in := range insights {
		dist[in.Recommendation.Action]++
	}
	return dist
}

// Strategy labels the portfolio from relative recommendation counts
func Strategy(s contracts.PortfolioSummary, risk contracts.RiskLevel) contracts.PortfolioStrategy {
	out := contracts.PortfolioStrategy{
		Strategy:             contracts.StrategyBalanced,
		Description:          "Mixed signals suggest balanced approach",
		RiskAdjustment:       "Maintain current risk profile",
		RebalancingFrequency: "monthly",
	}

	switch {
	case s.BuyRecommendations > s.SellRecommendations+s.HoldRecommendations:
		out.Strategy = contracts.StrategyAggressiveGrowth
		out.Description = "Multiple buy opportunities suggest bullish market conditions"
	case s.SellRecommendations > s.BuyRecommendations+s.HoldRecommendations:
		out.Strategy = contracts.StrategyConservativeDefense
		out.Description = "Multiple sell signals suggest defensive positioning"
	}

	if adj, ok := riskAdjustments[risk]; ok {
		out.RiskAdjustment = adj
	}
	return out
}

// Diversify grades BUY concentration: HIGH above 70%, MEDIUM above 40%
func Diversify(dist map[contracts.Action]int, total int) contracts.Diversification {
	concentration := 0.0
	if total > 0 {
		concentration = float64(dist[contracts.ActionBuy]) / float64(total)
	}

	level := contracts.RiskLow
	switch {
	case concentration > 0.7:
		level = contracts.RiskHigh
	case concentration > 0.4:
		level = contracts.RiskMedium
	}

	return contracts.Diversification{
		ConcentrationRisk:          level,
		RecommendationDistribution: dist,
		Suggestion:                 "Consider diversifying across different sectors if concentration is high",
	}
}

// Timing scores the share of tickers with a bullish overall sentiment
func Timing(insights map[string]*contracts.TickerInsight) contracts.MarketTiming {
	bullish := 0
	for _, in := range insights {
		if in.TechnicalOutlook.OverallSentiment == contracts.Bullish {
			bullish++
		}
	}

	score := 0.5
	if len(insights) > 0 {
		score = float64(bullish) / float64(len(insights))
	}

	sentiment := contracts.Neutral
	switch {
	case score > 0.6:
		sentiment = contracts.Bullish
	case score < 0.4:
		sentiment = contracts.Bearish
	}

	opportunity := "CAUTION"
	if score >= 0.4 && score <= 0.6 {
		opportunity = "GOOD"
	}

	return contracts.MarketTiming{
		MarketSentimentScore: score,
		Sentiment:            sentiment,
		TimingOpportunity:    opportunity,
		Reasoning:            fmt.Sprintf("%d/%d tickers showing bullish sentiment", bullish, len(insights)),
	}
}
