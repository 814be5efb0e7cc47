// Package s0_acquisition fetches raw daily history for every configured
// (ticker, source) pair and scores it.
package s0_acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/quality"
	"github.com/wonny/marketpipe/pkg/logger"
)

// SourceLookup resolves a configured source id to its client
type SourceLookup interface {
	Get(id string) (contracts.PriceSource, bool)
}

// FetchObserver is notified after every fetch attempt
type FetchObserver interface {
	ObserveFetch(source string, err error, duration time.Duration)
}

// Stage is the data acquisition stage
// ⭐ SSOT: 외부 시세 수집은 여기서만
type Stage struct {
	sources  SourceLookup
	gate     quality.Gate
	observer FetchObserver
	logger   *logger.Logger
	now      func() time.Time
}

// Option configures a Stage
type Option func(*Stage)

// WithObserver reports fetch attempts to obs
func WithObserver(obs FetchObserver) Option {
	return func(s *Stage) { s.observer = obs }
}

// WithGate overrides the quality thresholds
func WithGate(g quality.Gate) Option {
	return func(s *Stage) { s.gate = g }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Stage) { s.now = now }
}

// NewStage creates the acquisition stage
func NewStage(sources SourceLookup, log *logger.Logger, opts ...Option) *Stage {
	s := &Stage{
		sources: sources,
		gate:    quality.DefaultGate(),
		logger:  log.WithStage(contracts.StageAcquisition),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stage name
func (s *Stage) Name() string {
	return contracts.StageAcquisition
}

// Process fetches every (ticker, source) pair in configured order.
// A failing source is logged and skipped; a ticker with no successful source
// is left out of RawData.
func (s *Stage) Process(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	cfg := pc.Config

	out := &contracts.AcquisitionOutput{
		RawData: make(map[string]map[string]*contracts.SourcedDataset),
		Metadata: contracts.AcquisitionMetadata{
			ProcessedTickers: []string{},
			SourcesUsed:      append([]string(nil), cfg.DataSources...),
		},
	}
	pc.Acquisition = out

	s.logger.WithFields(logger.Fields{
		"tickers": cfg.Tickers,
		"sources": cfg.DataSources,
		"period":  cfg.Period,
	}).Info("Starting data acquisition")

	for _, ticker := range cfg.Tickers {
		if err := ctx.Err(); err != nil {
			return contracts.Failed(fmt.Errorf("acquisition interrupted: %w", err))
		}
		if _, done := out.RawData[ticker]; done {
			continue
		}

		tickerData := make(map[string]*contracts.SourcedDataset)
		for _, sourceID := range cfg.DataSources {
			if _, done := tickerData[sourceID]; done {
				continue
			}
			ds, err := s.fetch(ctx, cfg, ticker, sourceID)
			if err != nil {
				s.logger.WithFields(logger.Fields{
					"ticker": ticker,
					"source": sourceID,
				}).WithError(err).Warn("Source unavailable")
				continue
			}
			if ds == nil {
				continue
			}
			tickerData[sourceID] = ds
			out.Metadata.TotalRecords += len(ds.Records)

			s.logger.WithFields(logger.Fields{
				"ticker":        ticker,
				"source":        sourceID,
				"records":       len(ds.Records),
				"quality_score": ds.QualityScore,
			}).Info("Data acquired")
		}

		if len(tickerData) > 0 {
			out.RawData[ticker] = tickerData
			out.Metadata.ProcessedTickers = append(out.Metadata.ProcessedTickers, ticker)
		}
	}

	out.Metadata.AcquisitionTime = s.now()
	return contracts.Completed()
}

// fetch pulls one (ticker, source) pair. It returns (nil, nil) when the source
// is intentionally skipped, e.g. a keyed source without an API key.
func (s *Stage) fetch(ctx context.Context, cfg contracts.PipelineConfig, ticker, sourceID string) (*contracts.SourcedDataset, error) {
	source, ok := s.sources.Get(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownSource, sourceID)
	}

	if keyed, ok := source.(contracts.KeyedSource); ok && keyed.RequiresAPIKey() && !cfg.HasAPIKey() {
		s.logger.WithFields(logger.Fields{"ticker": ticker, "source": sourceID}).
			Debug("Skipping keyed source without API key")
		return nil, nil
	}

	start := time.Now()
	records, err := source.Fetch(ctx, contracts.FetchRequest{
		Ticker: ticker,
		Period: cfg.Period,
		APIKey: cfg.APIKey,
	})
	if err == nil && len(records) == 0 {
		err = errors.New("source returned no records")
	}
	if s.observer != nil {
		s.observer.ObserveFetch(sourceID, err, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	score := quality.RawScore(records)
	if auth, ok := source.(contracts.AuthoritativeSource); ok {
		score = auth.FixedQuality()
	}

	return &contracts.SourcedDataset{
		Records:      records,
		SourceID:     sourceID,
		FetchedAt:    s.now(),
		QualityScore: score,
	}, nil
}

// Validate annotates every (ticker, source) pair. Invalid pairs stay in RawData.
func (s *Stage) Validate(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	out := pc.Acquisition
	if out == nil {
		return contracts.Failed(fmt.Errorf("validate acquisition: %w", contracts.ErrMissingInput))
	}

	out.Validation = make(map[string]map[string]contracts.SourceValidation, len(out.RawData))
	for ticker, tickerData := range out.RawData {
		results := make(map[string]contracts.SourceValidation, len(tickerData))
		for sourceID, ds := range tickerData {
			results[sourceID] = contracts.SourceValidation{
				IsValid:      s.gate.RawValid(ds.QualityScore),
				QualityScore: ds.QualityScore,
				RecordCount:  len(ds.Records),
				Completeness: quality.Completeness(ds.Records),
			}
		}
		out.Validation[ticker] = results
	}

	s.logger.WithField("tickers", len(out.Validation)).Info("Data validation completed")
	return contracts.Completed()
}
