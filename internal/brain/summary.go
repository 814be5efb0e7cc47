package brain

import (
	"fmt"
	"strings"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Summary renders a human-readable digest of a finished run
func Summary(pc *contracts.PipelineContext) string {
	var b strings.Builder

	exec := pc.Execution
	name, version, status := "Unknown", "Unknown", "FAILED"
	completed, total := 0, 0
	if exec != nil {
		name, version = exec.PipelineName, exec.Version
		completed, total = exec.CompletedStages(), exec.TotalStages
		if exec.Success {
			status = "SUCCESS"
		}
	}

	risk, strategy := "UNKNOWN", "UNKNOWN"
	var insights map[string]*contracts.TickerInsight
	if pc.Insight != nil {
		insights = pc.Insight.Insights
		if p := pc.Insight.Portfolio; p != nil {
			risk, strategy = string(p.PortfolioRisk), p.Strategy.Strategy
		}
	}

	fmt.Fprintln(&b, "=== PIPELINE EXECUTION SUMMARY ===")
	fmt.Fprintf(&b, "Pipeline: %s v%s\n", name, version)
	fmt.Fprintf(&b, "Run: %s\n", pc.RunID)
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Stages Completed: %d/%d\n", completed, total)

	for _, e := range pc.Errors {
		fmt.Fprintf(&b, "  ! Stage %d (%s): %s\n", e.StageIndex, e.Stage, e.Error)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "=== INSIGHTS GENERATED ===")
	fmt.Fprintf(&b, "Analyzed Tickers: %d\n", len(insights))
	fmt.Fprintf(&b, "Portfolio Risk: %s\n", risk)
	fmt.Fprintf(&b, "Strategy: %s\n", strategy)

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "=== KEY RECOMMENDATIONS ===")
	for _, ticker := range contracts.Ordered(pc.Config.Tickers, insights) {
		rec := insights[ticker].Recommendation
		fmt.Fprintf(&b, "- %s: %s (Confidence: %.1f%%)\n", ticker, rec.Action, rec.Confidence*100)
	}

	return b.String()
}
