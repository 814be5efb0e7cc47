package s3_insight

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Thresholds for insight text and outlook
const (
	momentumNotable    = 0.10
	momentumOutlook    = 0.05
	drawdownWarning    = -0.15
	drawdownFactor     = -0.20
	volatilityHigh     = 0.30
	volatilityModerate = 0.20
	actionConfidence   = 0.7
)

var riskAdvice = map[contracts.RiskLevel]string{
	contracts.RiskHigh:   "Consider position sizing and risk management strategies",
	contracts.RiskMedium: "Monitor risk factors and maintain diversified portfolio",
	contracts.RiskLow:    "Maintain current risk management approach",
}

// TickerInsight builds the full insight bundle for one analyzed ticker
func TickerInsight(ticker string, a *contracts.TickerAnalysis) *contracts.TickerInsight {
	rec := Recommend(a)

	return &contracts.TickerInsight{
		Ticker:           ticker,
		Recommendation:   rec,
		KeyInsights:      KeyInsights(a),
		PriceTargets:     PriceTargets(a.Indicators.MovingAverages),
		RiskAssessment:   RiskAssessment(a.RiskMetrics),
		TechnicalOutlook: Outlook(&a.Indicators, a.Signals),
		ActionableItems:  ActionableItems(rec),
	}
}

// KeyInsights produces short commentary on momentum, strong signals and drawdown
func KeyInsights(a *contracts.TickerAnalysis) []string {
	lines := []string{}

	if m := a.Indicators.Momentum; m != nil {
		switch {
		case m.PriceChange20D > momentumNotable:
			lines = append(lines, fmt.Sprintf("Strong positive momentum over 20 days (+%s)", percent(m.PriceChange20D)))
		case m.PriceChange20D < -momentumNotable:
			lines = append(lines, fmt.Sprintf("Negative momentum over 20 days (%s)", percent(m.PriceChange20D)))
		}
	}

	var strong []string
	for _, s := range a.Signals {
		if s.Strength == contracts.StrengthStrong {
			strong = append(strong, string(s.Type))
		}
	}
	if len(strong) > 0 {
		lines = append(lines, fmt.Sprintf("Strong %s signals detected", strings.Join(strong, ", ")))
	}

	if rm := a.RiskMetrics; rm != nil && rm.MaxDrawdown.Value < drawdownWarning {
		lines = append(lines, fmt.Sprintf("High historical volatility detected (max drawdown: %s)", percent(rm.MaxDrawdown.Value)))
	}

	return lines
}

// PriceTargets places ±5% bands around MA20 and ±10% bands around MA50
func PriceTargets(ma *contracts.MovingAverages) contracts.PriceTargets {
	var t contracts.PriceTargets
	if ma == nil {
		return t
	}
	if ma.MA20.Valid && ma.MA20.Float64 != 0 {
		t.Support20D = null.FloatFrom(ma.MA20.Float64 * 0.95)
		t.Resistance20D = null.FloatFrom(ma.MA20.Float64 * 1.05)
	}
	if ma.MA50.Valid && ma.MA50.Float64 != 0 {
		t.Support50D = null.FloatFrom(ma.MA50.Float64 * 0.90)
		t.Resistance50D = null.FloatFrom(ma.MA50.Float64 * 1.10)
	}
	return t
}

// RiskAssessment lists risk factors and advice for the ticker's level
func RiskAssessment(rm *contracts.RiskMetrics) contracts.RiskAssessment {
	level := AssessRisk(rm)
	ra := contracts.RiskAssessment{
		Level:          level,
		Factors:        []string{},
		Recommendation: riskAdvice[level],
	}
	if rm == nil {
		return ra
	}

	ra.Volatility = rm.Volatility.Annualized
	ra.MaxDrawdown = rm.MaxDrawdown.Value

	switch {
	case ra.Volatility > volatilityHigh:
		ra.Factors = append(ra.Factors, "High volatility")
	case ra.Volatility > volatilityModerate:
		ra.Factors = append(ra.Factors, "Moderate volatility")
	}
	if ra.MaxDrawdown < drawdownFactor {
		ra.Factors = append(ra.Factors, "Significant historical drawdowns")
	}
	return ra
}

// Outlook derives trend from MA5 vs MA20, momentum from the 5-day change and
// overall sentiment from the signal balance
func Outlook(ind *contracts.Indicators, signals []contracts.Signal) contracts.TechnicalOutlook {
	o := contracts.TechnicalOutlook{
		Trend:            contracts.Neutral,
		Momentum:         contracts.Neutral,
		OverallSentiment: contracts.Neutral,
		KeyIndicators:    []string{},
	}

	if ma := ind.MovingAverages; ma != nil && ma.MA5.Valid && ma.MA20.Valid && ma.MA5.Float64 != 0 && ma.MA20.Float64 != 0 {
		if ma.MA5.Float64 > ma.MA20.Float64 {
			o.Trend = contracts.Bullish
			o.KeyIndicators = append(o.KeyIndicators, "Price above 20-day MA")
		} else {
			o.Trend = contracts.Bearish
			o.KeyIndicators = append(o.KeyIndicators, "Price below 20-day MA")
		}
	}

	if m := ind.Momentum; m != nil {
		switch {
		case m.PriceChange5D > momentumOutlook:
			o.Momentum = contracts.Bullish
		case m.PriceChange5D < -momentumOutlook:
			o.Momentum = contracts.Bearish
		}
	}

	buys, sells := contracts.CountSignals(signals)
	switch {
	case buys > sells:
		o.OverallSentiment = contracts.Bullish
	case sells > buys:
		o.OverallSentiment = contracts.Bearish
	}
	return o
}

// ActionableItems suggests next actions; BUY and SELL need confidence above 0.7
func ActionableItems(rec contracts.Recommendation) []string {
	confident := rec.Confidence > actionConfidence

	switch {
	case rec.Action == contracts.ActionBuy && confident:
		return []string{
			"Consider establishing position on next trading day",
			"Set stop-loss at 5% below entry price",
			"Monitor for confirmation signals over next 3-5 days",
		}
	case rec.Action == contracts.ActionSell && confident:
		return []string{
			"Consider reducing or exiting position",
			"Take profits on strong positions",
			"Monitor for reversal signals",
		}
	default:
		return []string{
			"Maintain current position",
			"Continue monitoring for new signals",
		}
	}
}

// percent renders a fraction with one decimal, e.g. 0.123 -> 12.3%
func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
