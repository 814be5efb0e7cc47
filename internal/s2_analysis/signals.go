package s2_analysis

import (
	"fmt"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Signal source labels
const (
	SignalRSI  = "RSI"
	SignalMA20 = "MA20"
	SignalMACD = "MACD"
)

// RSI thresholds
const (
	rsiOversold         = 30.0
	rsiStrongOversold   = 20.0
	rsiOverbought       = 70.0
	rsiStrongOverbought = 80.0
)

// GenerateSignals evaluates each rule independently. Rules never run on
// series shorter than MinHistory.
func GenerateSignals(closes []float64, ind *contracts.Indicators) []contracts.Signal {
	signals := []contracts.Signal{}
	if len(closes) < MinHistory || ind == nil {
		return signals
	}

	if s, ok := rsiSignal(ind); ok {
		signals = append(signals, s)
	}
	if s, ok := ma20Signal(closes[len(closes)-1], ind); ok {
		signals = append(signals, s)
	}
	if s, ok := macdCrossSignal(ind); ok {
		signals = append(signals, s)
	}
	return signals
}

func rsiSignal(ind *contracts.Indicators) (contracts.Signal, bool) {
	rsi, ok := ind.LastRSI()
	if !ok {
		return contracts.Signal{}, false
	}

	switch {
	case rsi < rsiOversold:
		strength := contracts.StrengthModerate
		if rsi < rsiStrongOversold {
			strength = contracts.StrengthStrong
		}
		return contracts.Signal{
			Type:      contracts.SignalBuy,
			Indicator: SignalRSI,
			Reason:    fmt.Sprintf("RSI (%.1f) indicates oversold condition", rsi),
			Strength:  strength,
		}, true
	case rsi > rsiOverbought:
		strength := contracts.StrengthModerate
		if rsi > rsiStrongOverbought {
			strength = contracts.StrengthStrong
		}
		return contracts.Signal{
			Type:      contracts.SignalSell,
			Indicator: SignalRSI,
			Reason:    fmt.Sprintf("RSI (%.1f) indicates overbought condition", rsi),
			Strength:  strength,
		}, true
	}
	return contracts.Signal{}, false
}

func ma20Signal(price float64, ind *contracts.Indicators) (contracts.Signal, bool) {
	if ind.MovingAverages == nil || !ind.MovingAverages.MA20.Valid {
		return contracts.Signal{}, false
	}
	ma20 := ind.MovingAverages.MA20.Float64
	if ma20 == 0 {
		return contracts.Signal{}, false
	}

	switch {
	case price > ma20:
		return contracts.Signal{
			Type:      contracts.SignalBuy,
			Indicator: SignalMA20,
			Reason:    fmt.Sprintf("Price ($%.2f) above 20-day MA ($%.2f)", price, ma20),
			Strength:  contracts.StrengthModerate,
		}, true
	case price < ma20:
		return contracts.Signal{
			Type:      contracts.SignalSell,
			Indicator: SignalMA20,
			Reason:    fmt.Sprintf("Price ($%.2f) below 20-day MA ($%.2f)", price, ma20),
			Strength:  contracts.StrengthModerate,
		}, true
	}
	return contracts.Signal{}, false
}

// macdCrossSignal looks for a crossover between the last two points
func macdCrossSignal(ind *contracts.Indicators) (contracts.Signal, bool) {
	m := ind.MACD
	if m == nil || len(m.MACD) < 2 || len(m.Signal) < 2 {
		return contracts.Signal{}, false
	}

	line, sig := m.MACD, m.Signal
	curLine, prevLine := line[len(line)-1], line[len(line)-2]
	curSig, prevSig := sig[len(sig)-1], sig[len(sig)-2]

	switch {
	case curLine > curSig && prevLine <= prevSig:
		return contracts.Signal{
			Type:      contracts.SignalBuy,
			Indicator: SignalMACD,
			Reason:    "MACD line crossed above signal line",
			Strength:  contracts.StrengthStrong,
		}, true
	case curLine < curSig && prevLine >= prevSig:
		return contracts.Signal{
			Type:      contracts.SignalSell,
			Indicator: SignalMACD,
			Reason:    "MACD line crossed below signal line",
			Strength:  contracts.StrengthStrong,
		}, true
	}
	return contracts.Signal{}, false
}

// Summarize condenses signals and risk. The first signal of the highest
// strength wins strongest_signal.
func Summarize(ind *contracts.Indicators, signals []contracts.Signal, rm *contracts.RiskMetrics) contracts.AnalysisSummary {
	buys, sells := contracts.CountSignals(signals)

	summary := contracts.AnalysisSummary{
		TotalSignals:       len(signals),
		BuySignals:         buys,
		SellSignals:        sells,
		RiskLevel:          contracts.RiskUnknown,
		AnalysisConfidence: Confidence(ind, signals),
	}

	for i := range signals {
		if summary.StrongestSignal == nil || signals[i].Strength.Rank() > summary.StrongestSignal.Strength.Rank() {
			s := signals[i]
			summary.StrongestSignal = &s
		}
	}

	if rm != nil {
		summary.RiskLevel = contracts.ClassifyDrawdown(rm.MaxDrawdown.Value)
	}
	return summary
}

// Confidence adds 0.3 for any indicator, 0.2 + 0.3 × strong share for any
// signal and 0.2 for two or more moving averages, capped at 1
func Confidence(ind *contracts.Indicators, signals []contracts.Signal) float64 {
	c := 0.0
	if !ind.Empty() {
		c += 0.3
	}

	if len(signals) > 0 {
		strong := 0
		for _, s := range signals {
			if s.Strength == contracts.StrengthStrong {
				strong++
			}
		}
		c += 0.2 + 0.3*float64(strong)/float64(len(signals))
	}

	if ind != nil && ind.MovingAverages != nil && ind.MovingAverages.Available() >= 2 {
		c += 0.2
	}

	if c > 1 {
		c = 1
	}
	return c
}
