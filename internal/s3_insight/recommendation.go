package s3_insight

import (
	"fmt"

	"github.com/wonny/marketpipe/internal/contracts"
)

const (
	// minConsensus is the number of agreeing signals an action needs
	minConsensus = 2

	// actionBoost is added to the analysis confidence for BUY and SELL calls
	actionBoost = 0.2

	timeHorizon = "short_to_medium_term"
)

// Recommend applies the signal consensus rule: BUY needs strictly more buys
// than sells and at least two buys, SELL the mirror image, HOLD otherwise.
func Recommend(a *contracts.TickerAnalysis) contracts.Recommendation {
	buys, sells := contracts.CountSignals(a.Signals)

	action := contracts.ActionHold
	switch {
	case buys > sells && buys >= minConsensus:
		action = contracts.ActionBuy
	case sells > buys && sells >= minConsensus:
		action = contracts.ActionSell
	}

	confidence := a.Summary.AnalysisConfidence
	if action != contracts.ActionHold {
		confidence += actionBoost
	}
	if confidence > 1 {
		confidence = 1
	}

	return contracts.Recommendation{
		Action:      action,
		Confidence:  confidence,
		Reasoning:   fmt.Sprintf("Based on %d buy signals and %d sell signals", buys, sells),
		TimeHorizon: timeHorizon,
		RiskLevel:   AssessRisk(a.RiskMetrics),
	}
}

// AssessRisk classifies drawdown like the analysis summary but treats
// missing risk metrics as MEDIUM
func AssessRisk(rm *contracts.RiskMetrics) contracts.RiskLevel {
	if rm == nil {
		return contracts.RiskMedium
	}
	return contracts.ClassifyDrawdown(rm.MaxDrawdown.Value)
}
