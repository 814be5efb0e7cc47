// Package metrics exposes pipeline runs, stages and source fetches to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/marketpipe/internal/contracts"
)

const namespace = "marketpipe"

// Recorder implements the orchestrator and acquisition observer hooks using Prometheus
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	stagesTotal     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	fetchesTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	recommendations *prometheus.GaugeVec
	confidence      *prometheus.GaugeVec
}

// New creates a recorder on its own registry, with Go runtime and process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a recorder registering into reg
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"success"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Wall time of whole pipeline runs",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		stagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_executions_total",
				Help:      "Stage executions by stage and status",
			},
			[]string{"stage", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Data source fetch attempts by source and result",
			},
			[]string{"source", "result"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Latency of data source fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		recommendations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "recommendations",
				Help:      "Recommendations of the latest run by action",
			},
			[]string{"action"},
		),
		confidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "recommendation_confidence",
				Help:      "Average recommendation confidence of the latest run by action",
			},
			[]string{"action"},
		),
	}
}

// ObserveFetch records one source fetch attempt
func (r *Recorder) ObserveFetch(source string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchesTotal.WithLabelValues(source, result).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveStage records one stage execution
func (r *Recorder) ObserveStage(stage string, status contracts.Status, duration time.Duration) {
	r.stagesTotal.WithLabelValues(stage, string(status)).Inc()
	if status != contracts.StatusSkipped {
		r.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	}
}

// ObserveRun records a finished pipeline run
func (r *Recorder) ObserveRun(success bool, duration time.Duration) {
	label := "false"
	if success {
		label = "true"
	}
	r.runsTotal.WithLabelValues(label).Inc()
	r.runDuration.Observe(duration.Seconds())
}

// ObserveInsights replaces the recommendation gauges with the run's insights
func (r *Recorder) ObserveInsights(pc *contracts.PipelineContext) {
	if pc == nil || pc.Insight == nil {
		return
	}

	r.recommendations.Reset()
	r.confidence.Reset()
	for _, a := range []contracts.Action{contracts.ActionBuy, contracts.ActionSell, contracts.ActionHold} {
		r.recommendations.WithLabelValues(string(a)).Set(0)
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, in := range pc.Insight.Insights {
		if in == nil {
			continue
		}
		action := string(in.Recommendation.Action)
		r.recommendations.WithLabelValues(action).Inc()
		sums[action] += in.Recommendation.Confidence
		counts[action]++
	}
	for action, n := range counts {
		r.confidence.WithLabelValues(action).Set(sums[action] / float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
