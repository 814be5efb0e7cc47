package brain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/s2_analysis"
	"github.com/wonny/marketpipe/internal/sources"
	"github.com/wonny/marketpipe/pkg/logger"
)

func uptrend(n int) []contracts.TimeSeriesRecord {
	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]contracts.TimeSeriesRecord, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = contracts.NewRecord(day0.AddDate(0, 0, i), c-0.5, c+1, c-1, c, 1_000_000)
	}
	return out
}

func registry(tickers ...string) *sources.Registry {
	static := sources.NewStatic("primary")
	for _, t := range tickers {
		static.Add(t, uptrend(60))
	}
	return sources.NewRegistry(static)
}

func fixedIDs() Option {
	return WithRunIDs(func() string { return "run-1" })
}

func TestPipeline_EndToEnd(t *testing.T) {
	o := NewPipeline(Deps{Sources: registry("AAPL")}, logger.NewNop(), fixedIDs())

	pc := o.Run(context.Background(), contracts.PipelineConfig{
		Tickers:     []string{"AAPL"},
		Period:      "3mo",
		DataSources: []string{"primary"},
	})

	require.NotNil(t, pc.Execution)
	assert.True(t, pc.Success(), "errors: %v", pc.Errors)
	assert.Equal(t, "run-1", pc.Execution.RunID)
	assert.Equal(t, 4, pc.Execution.TotalStages)
	assert.Equal(t, 4, pc.Execution.CompletedStages())
	assert.Empty(t, pc.Errors)

	require.Contains(t, pc.Processing.ProcessedData, "AAPL")

	analysis := pc.Analysis.Results["AAPL"]
	names := analysis.Indicators.Names()
	assert.Subset(t, names, []string{"rsi", "moving_averages", "momentum"})

	var maBuy bool
	for _, s := range analysis.Signals {
		if s.Indicator == s2_analysis.SignalMA20 && s.Type == contracts.SignalBuy {
			maBuy = true
		}
	}
	assert.True(t, maBuy)

	action := pc.Insight.Insights["AAPL"].Recommendation.Action
	assert.Contains(t, []contracts.Action{contracts.ActionBuy, contracts.ActionHold}, action)
	assert.NotNil(t, pc.Insight.FinalReport)

	raw, err := json.Marshal(pc)
	require.NoError(t, err)
	for _, key := range []string{"raw_data", "processed_data", "analysis_results", "insights", "final_report", "pipeline_execution"} {
		assert.Contains(t, string(raw), `"`+key+`"`)
	}
}

type failOn struct {
	inner  s2_analysis.TickerAnalyzer
	ticker string
}

func (f failOn) Analyze(ticker string, data *contracts.ProcessedDataset) (*contracts.TickerAnalysis, error) {
	if ticker == f.ticker {
		return nil, errors.New("forced analysis failure")
	}
	return f.inner.Analyze(ticker, data)
}

func TestPipeline_PartialFailureContinues(t *testing.T) {
	log := logger.NewNop()
	analyzer := failOn{inner: s2_analysis.NewTechnicalAnalyzer(nil, log), ticker: "MSFT"}
	o := NewPipeline(Deps{Sources: registry("AAPL", "MSFT"), Analyzer: analyzer}, log, fixedIDs())

	pc := o.Run(context.Background(), contracts.PipelineConfig{
		Tickers:     []string{"AAPL", "MSFT"},
		DataSources: []string{"primary"},
	})

	assert.False(t, pc.Success())

	statuses := map[string]contracts.Status{}
	for _, e := range pc.Execution.ExecutionLog {
		statuses[e.Name] = e.Status
	}
	assert.Equal(t, contracts.StatusCompleted, statuses[contracts.StageProcessing])
	assert.Equal(t, contracts.StatusFailed, statuses[contracts.StageAnalysis])
	assert.Equal(t, contracts.StatusCompleted, statuses[contracts.StageInsight])

	require.Len(t, pc.Errors, 1)
	assert.Equal(t, 3, pc.Errors[0].StageIndex)
	assert.Contains(t, pc.Errors[0].Error, "forced analysis failure")

	// earlier stage output is untouched
	assert.Contains(t, pc.Processing.ProcessedData, "AAPL")
	assert.Contains(t, pc.Processing.ProcessedData, "MSFT")
	assert.Len(t, pc.Processing.ProcessedData["MSFT"].Records, 60)

	// insight ran on the partial analysis
	assert.Contains(t, pc.Insight.Insights, "AAPL")
	assert.NotContains(t, pc.Insight.Insights, "MSFT")
}

type fakeStage struct {
	name    string
	process func(*contracts.PipelineContext) contracts.Outcome
	calls   int
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Process(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	f.calls++
	return f.process(pc)
}

func (f *fakeStage) Validate(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	return contracts.Completed()
}

func ok(name string) *fakeStage {
	return &fakeStage{name: name, process: func(*contracts.PipelineContext) contracts.Outcome { return contracts.Completed() }}
}

func TestRun_RecoversPanic(t *testing.T) {
	boom := &fakeStage{name: "boom", process: func(*contracts.PipelineContext) contracts.Outcome { panic("kaboom") }}
	after := ok("after")

	pc := NewOrchestrator([]contracts.Stage{boom, after}, logger.NewNop()).
		Run(context.Background(), contracts.PipelineConfig{Tickers: []string{"AAPL"}})

	require.Len(t, pc.Execution.ExecutionLog, 2)
	assert.Equal(t, contracts.StatusFailed, pc.Execution.ExecutionLog[0].Status)
	assert.Contains(t, pc.Execution.ExecutionLog[0].Error, "kaboom")
	assert.Equal(t, contracts.StatusCompleted, pc.Execution.ExecutionLog[1].Status)
	assert.Equal(t, 1, after.calls)
	assert.False(t, pc.Success())
	assert.NotEmpty(t, pc.RunID)
}

func TestRun_StopOnFailureSkipsRest(t *testing.T) {
	failing := &fakeStage{name: "failing", process: func(*contracts.PipelineContext) contracts.Outcome {
		return contracts.Failed(errors.New("nope"))
	}}
	after := ok("after")

	pc := NewOrchestrator([]contracts.Stage{ok("first"), failing, after}, logger.NewNop()).
		Run(context.Background(), contracts.PipelineConfig{StopOnFailure: true})

	log := pc.Execution.ExecutionLog
	require.Len(t, log, 3)
	assert.Equal(t, contracts.StatusCompleted, log[0].Status)
	assert.Equal(t, contracts.StatusFailed, log[1].Status)
	assert.Equal(t, contracts.StatusSkipped, log[2].Status)
	assert.Equal(t, 0, after.calls)
	assert.Len(t, pc.Errors, 1)
}

func TestRun_CancelledContextSkipsAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := ok("first")
	pc := NewOrchestrator([]contracts.Stage{first, ok("second")}, logger.NewNop()).
		Run(ctx, contracts.PipelineConfig{})

	assert.Equal(t, 0, first.calls)
	for _, e := range pc.Execution.ExecutionLog {
		assert.Equal(t, contracts.StatusSkipped, e.Status)
	}
	assert.False(t, pc.Success())
}

func TestRun_ConfigIsCopied(t *testing.T) {
	cfg := contracts.PipelineConfig{Tickers: []string{"AAPL"}}
	mutate := &fakeStage{name: "mutate", process: func(pc *contracts.PipelineContext) contracts.Outcome {
		pc.Config.Tickers[0] = "HACK"
		return contracts.Completed()
	}}

	pc := NewOrchestrator([]contracts.Stage{mutate}, logger.NewNop()).Run(context.Background(), cfg)

	assert.Equal(t, "AAPL", cfg.Tickers[0])
	assert.Equal(t, "AAPL", pc.Execution.InputConfig.Tickers[0])
}

type countingRecorder struct {
	stages map[contracts.Status]int
	runs   []bool
}

func (r *countingRecorder) ObserveStage(stage string, status contracts.Status, d time.Duration) {
	r.stages[status]++
}

func (r *countingRecorder) ObserveRun(success bool, d time.Duration) {
	r.runs = append(r.runs, success)
}

func TestRun_Recorder(t *testing.T) {
	rec := &countingRecorder{stages: map[contracts.Status]int{}}
	failing := &fakeStage{name: "failing", process: func(*contracts.PipelineContext) contracts.Outcome {
		return contracts.Failed(errors.New("nope"))
	}}

	NewOrchestrator([]contracts.Stage{ok("a"), failing}, logger.NewNop(), WithRecorder(rec)).
		Run(context.Background(), contracts.PipelineConfig{})

	assert.Equal(t, 1, rec.stages[contracts.StatusCompleted])
	assert.Equal(t, 1, rec.stages[contracts.StatusFailed])
	assert.Equal(t, []bool{false}, rec.runs)
}

func TestSummary(t *testing.T) {
	o := NewPipeline(Deps{Sources: registry("AAPL", "MSFT")}, logger.NewNop(), fixedIDs())
	pc := o.Run(context.Background(), contracts.PipelineConfig{
		Tickers:     []string{"AAPL", "MSFT"},
		DataSources: []string{"primary"},
	})

	s := Summary(pc)
	assert.True(t, strings.HasPrefix(s, "=== PIPELINE EXECUTION SUMMARY ==="))
	assert.Contains(t, s, "Pipeline: Market Data Processing Pipeline v1.0")
	assert.Contains(t, s, "Status: SUCCESS")
	assert.Contains(t, s, "Stages Completed: 4/4")
	assert.Contains(t, s, "Analyzed Tickers: 2")
	assert.Contains(t, s, "- AAPL: ")
	assert.Contains(t, s, "- MSFT: ")
	assert.Less(t, strings.Index(s, "- AAPL"), strings.Index(s, "- MSFT"))
}
