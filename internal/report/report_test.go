package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/database"
)

func finishedRun(runID string) *contracts.PipelineContext {
	started := time.Date(2024, 8, 15, 9, 0, 0, 0, time.UTC)
	pc := contracts.NewPipelineContext(runID, contracts.PipelineConfig{
		Tickers:     []string{"AAPL", "MSFT"},
		Period:      "1y",
		DataSources: []string{"yahoo_finance"},
		APIKey:      "secret",
	})

	pc.Analysis = &contracts.AnalysisOutput{Results: map[string]*contracts.TickerAnalysis{
		"MSFT": {
			Signals:     []contracts.Signal{{Type: contracts.SignalSell, Indicator: "RSI", Reason: "overbought", Strength: contracts.StrengthStrong}},
			RiskMetrics: &contracts.RiskMetrics{Volatility: contracts.Volatility{Daily: 0.01, Annualized: 0.16}, VaR95: -0.02},
		},
		"AAPL": {
			Signals: []contracts.Signal{{Type: contracts.SignalBuy, Indicator: "MA20", Reason: "above MA", Strength: contracts.StrengthModerate}},
		},
	}}
	pc.Insight = &contracts.InsightOutput{
		Insights: map[string]*contracts.TickerInsight{
			"AAPL": {Ticker: "AAPL", Recommendation: contracts.Recommendation{Action: contracts.ActionBuy, Confidence: 0.8}},
			"MSFT": {Ticker: "MSFT", Recommendation: contracts.Recommendation{Action: contracts.ActionHold, Confidence: 0.4}},
		},
		FinalReport: &contracts.FinalReport{
			ExecutiveSummary: contracts.ExecutiveSummary{TotalAnalyzed: 2, PrimaryAction: contracts.ActionHold},
			Disclaimer:       "not advice",
		},
	}
	pc.Errors = []contracts.StageError{{StageIndex: 3, Stage: contracts.StageAnalysis, Error: "boom", Timestamp: started}}
	pc.Execution = &contracts.PipelineExecution{
		RunID:     runID,
		StartedAt: started,
		ExecutionLog: []contracts.ExecutionLogEntry{
			{StageIndex: 2, Name: contracts.StageProcessing, Status: contracts.StatusCompleted, Duration: 30 * time.Millisecond},
			{StageIndex: 1, Name: contracts.StageAcquisition, Status: contracts.StatusCompleted, Duration: 2 * time.Second},
		},
		ExecutionTime: started.Add(3 * time.Second),
		Success:       true,
	}
	return pc
}

func TestFromContext(t *testing.T) {
	pc := finishedRun("run-1")
	rec := FromContext(pc)

	assert.Equal(t, "run-1", rec.RunID)
	assert.True(t, rec.Success)
	assert.Empty(t, rec.Config.APIKey, "api key must be stripped")
	assert.Equal(t, "secret", pc.Config.APIKey, "context config is untouched")
	assert.Equal(t, []string{"AAPL", "MSFT"}, rec.Tickers)
	assert.Len(t, rec.ExecutionLog, 2)
	assert.Len(t, rec.Errors, 1)
	assert.Equal(t, contracts.ActionHold, rec.Summary().PrimaryAction)
}

func TestFromContextUnfinished(t *testing.T) {
	rec := FromContext(contracts.NewPipelineContext("run-2", contracts.PipelineConfig{}))
	assert.False(t, rec.Success)
	assert.Nil(t, rec.Report)
	assert.NotNil(t, rec.Tickers)
	assert.Empty(t, rec.Summary().PrimaryAction)
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, finishedRun("run-xlsx")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetRecommendations, SheetSignals, SheetRisk, SheetExecution}, f.GetSheetList())

	recs, err := f.GetRows(SheetRecommendations)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "AAPL", recs[1][0])
	assert.Equal(t, "BUY", recs[1][1])
	assert.Equal(t, "MSFT", recs[2][0])

	risk, err := f.GetRows(SheetRisk)
	require.NoError(t, err)
	require.Len(t, risk, 2, "tickers without risk metrics are left out")
	assert.Equal(t, "MSFT", risk[1][0])

	exec, err := f.GetRows(SheetExecution)
	require.NoError(t, err)
	require.Len(t, exec, 3)
	assert.Equal(t, contracts.StageAcquisition, exec[1][1])
	assert.Equal(t, "2000", exec[1][3])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Status", "SUCCESS"}, summary[2])
}

func TestWriteExcelEmptyContext(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, contracts.NewPipelineContext("empty", contracts.PipelineConfig{})))
	assert.NotZero(t, buf.Len())
}

func TestStoreRoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db.Pool)
	require.NoError(t, store.EnsureSchema(ctx))

	runID := uuid.NewString()
	require.NoError(t, store.SaveRun(ctx, finishedRun(runID)))

	got, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
	require.NotNil(t, got.Report)
	assert.Equal(t, contracts.ActionHold, got.Report.ExecutiveSummary.PrimaryAction)
	assert.Empty(t, got.Config.APIKey)

	recent, err := store.ListRecent(ctx, 50)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)

	removed, err := store.DeleteBefore(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = store.GetRun(ctx, "does-not-exist")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
