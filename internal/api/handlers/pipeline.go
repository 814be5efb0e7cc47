package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/pipelineconfig"
	"github.com/wonny/marketpipe/internal/report"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, cfg contracts.PipelineConfig) *contracts.PipelineContext
}

// RunStore persists and reads back finished runs
type RunStore interface {
	SaveRun(ctx context.Context, pc *contracts.PipelineContext) error
	GetRun(ctx context.Context, runID string) (*report.RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]report.RunSummary, error)
}

// InsightObserver is told about every finished run's insights
type InsightObserver interface {
	ObserveInsights(pc *contracts.PipelineContext)
}

// PipelineHandler handles pipeline API endpoints
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	runner   Runner
	store    RunStore
	observer InsightObserver
	defaults contracts.PipelineConfig
	logger   *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler.
// defaults fill whatever a run request leaves out; store and observer may be nil.
func NewPipelineHandler(runner Runner, store RunStore, observer InsightObserver, defaults contracts.PipelineConfig, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner:   runner,
		store:    store,
		observer: observer,
		defaults: defaults.Clone(),
		logger:   log,
	}
}

// RunRequest represents a pipeline run request
type RunRequest struct {
	Tickers               []string `json:"tickers"`
	Period                string   `json:"period"`
	DataSources           []string `json:"data_sources"`
	APIKey                string   `json:"api_key"`
	PortfolioRiskOrdering string   `json:"portfolio_risk_ordering"`
	StopOnFailure         *bool    `json:"stop_on_failure"`
}

// Run executes the pipeline synchronously and returns the full context
// POST /api/pipeline/run
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	cfg := h.defaults.Clone()
	if req.PortfolioRiskOrdering != "" {
		cfg.PortfolioRiskOrdering = req.PortfolioRiskOrdering
	}
	err := pipelineconfig.Apply(&cfg, pipelineconfig.Overrides{
		Tickers:       req.Tickers,
		Period:        req.Period,
		DataSources:   req.DataSources,
		APIKey:        req.APIKey,
		StopOnFailure: req.StopOnFailure,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pc := h.runner.Run(ctx, cfg)

	if h.observer != nil {
		h.observer.ObserveInsights(pc)
	}
	if h.store != nil {
		if err := h.store.SaveRun(ctx, pc); err != nil {
			h.logger.WithError(err).WithField("run_id", pc.RunID).Error("Failed to store pipeline run")
		}
	}

	respondJSON(w, http.StatusOK, pc)
}

// GetRun returns a stored run
// GET /api/pipeline/runs/{id}
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Run store not configured")
		return
	}

	runID := mux.Vars(r)["id"]
	rec, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, report.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// ListRuns returns the latest stored runs
// GET /api/pipeline/runs?limit=20
func (h *PipelineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Run store not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []report.RunSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
