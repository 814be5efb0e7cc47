package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
)

func TestObserveFetch(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.ObserveFetch("yahoo_finance", nil, 120*time.Millisecond)
	r.ObserveFetch("yahoo_finance", errors.New("timeout"), time.Second)
	r.ObserveFetch("alpha_vantage", nil, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("yahoo_finance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("yahoo_finance", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.fetchesTotal))
}

func TestObserveStageAndRun(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.ObserveStage(contracts.StageAnalysis, contracts.StatusFailed, time.Second)
	r.ObserveStage(contracts.StageInsight, contracts.StatusSkipped, 0)
	r.ObserveRun(false, 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.stagesTotal.WithLabelValues(contracts.StageAnalysis, "FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stagesTotal.WithLabelValues(contracts.StageInsight, "SKIPPED")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration), "skipped stages are not timed")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("false")))
}

func TestObserveInsights(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	pc := contracts.NewPipelineContext("run", contracts.PipelineConfig{})
	pc.Insight = &contracts.InsightOutput{Insights: map[string]*contracts.TickerInsight{
		"AAPL": {Recommendation: contracts.Recommendation{Action: contracts.ActionBuy, Confidence: 0.9}},
		"MSFT": {Recommendation: contracts.Recommendation{Action: contracts.ActionHold, Confidence: 0.5}},
		"NVDA": {Recommendation: contracts.Recommendation{Action: contracts.ActionBuy, Confidence: 0.7}},
	}}

	r.ObserveInsights(pc)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.recommendations.WithLabelValues("BUY")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.recommendations.WithLabelValues("SELL")))
	assert.InDelta(t, 0.8, testutil.ToFloat64(r.confidence.WithLabelValues("BUY")), 1e-9)
	assert.InDelta(t, 0.5, testutil.ToFloat64(r.confidence.WithLabelValues("HOLD")), 1e-9)
	assert.Equal(t, 2, testutil.CollectAndCount(r.confidence))

	assert.NotPanics(t, func() { r.ObserveInsights(nil) })
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveRun(true, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketpipe_pipeline_runs_total{success="true"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
