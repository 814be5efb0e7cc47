package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Sheet names of the exported workbook
const (
	SheetSummary         = "Summary"
	SheetRecommendations = "Recommendations"
	SheetSignals         = "Signals"
	SheetRisk            = "Risk"
	SheetExecution       = "Execution"
)

// WriteExcel renders a finished run as an xlsx workbook
func WriteExcel(w io.Writer, pc *contracts.PipelineContext) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetRecommendations, SheetSignals, SheetRisk, SheetExecution} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	sheets := map[string][][]interface{}{
		SheetSummary:         summaryRows(pc),
		SheetRecommendations: recommendationRows(pc),
		SheetSignals:         signalRows(pc),
		SheetRisk:            riskRows(pc),
		SheetExecution:       executionRows(pc),
	}
	for sheet, rows := range sheets {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func summaryRows(pc *contracts.PipelineContext) [][]interface{} {
	status := "FAILED"
	if pc.Success() {
		status = "SUCCESS"
	}
	rows := [][]interface{}{
		{"Field", "Value"},
		{"Run ID", pc.RunID},
		{"Status", status},
		{"Tickers", strings.Join(pc.Config.Tickers, ", ")},
		{"Period", pc.Config.Period},
		{"Data Sources", strings.Join(pc.Config.DataSources, ", ")},
	}

	if pc.Insight == nil || pc.Insight.FinalReport == nil {
		return rows
	}
	rep := pc.Insight.FinalReport
	rows = append(rows,
		[]interface{}{"Total Analyzed", rep.ExecutiveSummary.TotalAnalyzed},
		[]interface{}{"Primary Action", string(rep.ExecutiveSummary.PrimaryAction)},
		[]interface{}{"Overall Confidence", rep.ExecutiveSummary.OverallConfidence},
		[]interface{}{"Key Takeaway", rep.ExecutiveSummary.KeyTakeaway},
		[]interface{}{"Portfolio Risk", string(rep.RiskSummary.PortfolioRisk)},
		[]interface{}{"Disclaimer", rep.Disclaimer},
	)
	return rows
}

func recommendationRows(pc *contracts.PipelineContext) [][]interface{} {
	rows := [][]interface{}{{"Ticker", "Action", "Confidence", "Risk Level", "Trend", "Reasoning"}}
	if pc.Insight == nil {
		return rows
	}
	for _, ticker := range contracts.Ordered(pc.Config.Tickers, pc.Insight.Insights) {
		in := pc.Insight.Insights[ticker]
		rows = append(rows, []interface{}{
			ticker,
			string(in.Recommendation.Action),
			in.Recommendation.Confidence,
			string(in.Recommendation.RiskLevel),
			string(in.TechnicalOutlook.Trend),
			in.Recommendation.Reasoning,
		})
	}
	return rows
}

func signalRows(pc *contracts.PipelineContext) [][]interface{} {
	rows := [][]interface{}{{"Ticker", "Type", "Indicator", "Strength", "Reason"}}
	if pc.Analysis == nil {
		return rows
	}
	for _, ticker := range contracts.Ordered(pc.Config.Tickers, pc.Analysis.Results) {
		for _, s := range pc.Analysis.Results[ticker].Signals {
			rows = append(rows, []interface{}{ticker, string(s.Type), s.Indicator, string(s.Strength), s.Reason})
		}
	}
	return rows
}

func riskRows(pc *contracts.PipelineContext) [][]interface{} {
	rows := [][]interface{}{{"Ticker", "Daily Volatility", "Annualized Volatility", "Max Drawdown", "VaR 95", "Sharpe Ratio"}}
	if pc.Analysis == nil {
		return rows
	}
	for _, ticker := range contracts.Ordered(pc.Config.Tickers, pc.Analysis.Results) {
		rm := pc.Analysis.Results[ticker].RiskMetrics
		if rm == nil {
			continue
		}
		rows = append(rows, []interface{}{
			ticker, rm.Volatility.Daily, rm.Volatility.Annualized, rm.MaxDrawdown.Value, rm.VaR95, rm.SharpeRatio,
		})
	}
	return rows
}

func executionRows(pc *contracts.PipelineContext) [][]interface{} {
	rows := [][]interface{}{{"Stage", "Name", "Status", "Duration (ms)", "Error"}}
	if pc.Execution == nil {
		return rows
	}
	log := append([]contracts.ExecutionLogEntry(nil), pc.Execution.ExecutionLog...)
	sort.SliceStable(log, func(i, j int) bool { return log[i].StageIndex < log[j].StageIndex })
	for _, e := range log {
		rows = append(rows, []interface{}{e.StageIndex, e.Name, string(e.Status), e.Duration.Milliseconds(), e.Error})
	}
	return rows
}
