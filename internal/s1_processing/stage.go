// Package s1_processing turns the best raw source per ticker into a cleaned,
// feature-enriched and normalized series.
package s1_processing

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/quality"
	"github.com/wonny/marketpipe/pkg/logger"
)

// Stage is the data processing stage
// ⭐ SSOT: 정제/파생 피처 계산은 여기서만
type Stage struct {
	gate   quality.Gate
	logger *logger.Logger
	now    func() time.Time
}

// NewStage creates the processing stage
func NewStage(log *logger.Logger) *Stage {
	return &Stage{
		gate:   quality.DefaultGate(),
		logger: log.WithStage(contracts.StageProcessing),
		now:    time.Now,
	}
}

// Name returns the stage name
func (s *Stage) Name() string {
	return contracts.StageProcessing
}

// Process cleans and enriches every ticker that has a usable source.
// A ticker whose series is empty after cleaning stops the loop; tickers
// processed before it stay in the context.
func (s *Stage) Process(ctx context.Context, pc *contracts.PipelineContext) (outcome contracts.Outcome) {
	acq := pc.Acquisition
	if acq == nil {
		return contracts.Failed(fmt.Errorf("process: %w: acquisition output", contracts.ErrMissingInput))
	}

	out := &contracts.ProcessingOutput{
		ProcessedData: make(map[string]*contracts.ProcessedDataset),
		Metadata:      contracts.ProcessingMetadata{ProcessedTickers: []string{}},
	}
	pc.Processing = out

	defer func() {
		out.Metadata.ProcessingTime = s.now()
	}()

	s.logger.Info("Starting data processing and enrichment")

	for _, ticker := range contracts.Ordered(pc.Config.Tickers, acq.RawData) {
		if err := ctx.Err(); err != nil {
			return contracts.Failed(fmt.Errorf("processing interrupted: %w", err))
		}

		sourceID, ok := SelectBestSource(acq.RawData[ticker], pc.Config.DataSources)
		if !ok {
			s.logger.WithField("ticker", ticker).WithError(contracts.ErrNoUsableSource).Debug("Skipping ticker")
			continue
		}

		dataset, err := s.processTicker(acq.RawData[ticker][sourceID])
		if err != nil {
			return contracts.Failed(fmt.Errorf("ticker %s: %w", ticker, err))
		}

		out.ProcessedData[ticker] = dataset
		out.Metadata.ProcessedTickers = append(out.Metadata.ProcessedTickers, ticker)
		if len(dataset.Records) > 0 {
			out.Metadata.TotalFeatures += contracts.ProcessedColumnCount
		}

		s.logger.WithFields(logger.Fields{
			"ticker":        ticker,
			"source":        sourceID,
			"records":       dataset.ProcessingStats.ProcessedRecords,
			"quality_score": dataset.ProcessingStats.QualityScore,
		}).Info("Processing completed")
	}

	return contracts.Completed()
}

func (s *Stage) processTicker(raw *contracts.SourcedDataset) (*contracts.ProcessedDataset, error) {
	cleaned := Clean(raw.Records)
	records := Derive(cleaned)
	if err := Normalize(records); err != nil {
		return nil, err
	}

	return &contracts.ProcessedDataset{
		Records:    records,
		SourceUsed: raw.SourceID,
		ProcessingStats: contracts.ProcessingStats{
			OriginalRecords:  len(raw.Records),
			ProcessedRecords: len(records),
			FeaturesAdded:    contracts.FeatureCount,
			QualityScore:     quality.ProcessedScore(records),
		},
	}, nil
}

// Validate scores every processed ticker against the processed-quality gate
func (s *Stage) Validate(ctx context.Context, pc *contracts.PipelineContext) contracts.Outcome {
	out := pc.Processing
	if out == nil {
		return contracts.Failed(fmt.Errorf("validate processing: %w", contracts.ErrMissingInput))
	}

	out.Validation = make(map[string]contracts.ProcessedValidation, len(out.ProcessedData))
	for ticker, ds := range out.ProcessedData {
		stats := ds.ProcessingStats
		out.Validation[ticker] = contracts.ProcessedValidation{
			IsValid:       s.gate.ProcessedValid(stats.QualityScore),
			QualityScore:  stats.QualityScore,
			FeatureCount:  stats.FeaturesAdded,
			DataIntegrity: CheckIntegrity(ds.Records),
		}
	}

	s.logger.WithField("tickers", len(out.Validation)).Info("Processed data validation completed")
	return contracts.Completed()
}

// CheckIntegrity requires a non-empty series with strictly ascending dates and a close on every row
func CheckIntegrity(records []contracts.ProcessedRecord) bool {
	if len(records) == 0 {
		return false
	}
	for i, r := range records {
		if !r.Close.Valid {
			return false
		}
		if i > 0 && !r.Date.After(records[i-1].Date) {
			return false
		}
	}
	return true
}
