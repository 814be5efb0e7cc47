package contracts

import (
	"time"

	"github.com/guregu/null/v6"
)

// TimeSeriesRecord is one trading day for one ticker.
// Cells are nullable because sources occasionally omit values.
type TimeSeriesRecord struct {
	Date   time.Time  `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume null.Int   `json:"volume"`
}

// RawColumnCount is the number of value cells in a raw record
const RawColumnCount = 5

// MissingCells counts null value cells
func (r TimeSeriesRecord) MissingCells() int {
	n := 0
	for _, f := range []null.Float{r.Open, r.High, r.Low, r.Close} {
		if !f.Valid {
			n++
		}
	}
	if !r.Volume.Valid {
		n++
	}
	return n
}

// Complete reports whether the record has a date and every value cell
func (r TimeSeriesRecord) Complete() bool {
	return !r.Date.IsZero() && r.MissingCells() == 0
}

// NewRecord builds a fully populated record
func NewRecord(date time.Time, open, high, low, close float64, volume int64) TimeSeriesRecord {
	return TimeSeriesRecord{
		Date:   date,
		Open:   null.FloatFrom(open),
		High:   null.FloatFrom(high),
		Low:    null.FloatFrom(low),
		Close:  null.FloatFrom(close),
		Volume: null.IntFrom(volume),
	}
}

// Features are the columns derived during processing.
// Rolling values stay null until their window fills.
type Features struct {
	PriceChange     null.Float `json:"price_change"`
	LogReturn       null.Float `json:"log_return"`
	MA5             null.Float `json:"ma_5"`
	MA20            null.Float `json:"ma_20"`
	MA50            null.Float `json:"ma_50"`
	Volatility20    null.Float `json:"volatility_20"`
	DailyRange      null.Float `json:"daily_range"`
	PricePosition   null.Float `json:"price_position"`
	VolumeMA10      null.Float `json:"volume_ma_10"`
	VolumeRatio     null.Float `json:"volume_ratio"`
	NormalizedClose null.Float `json:"normalized_close"`
}

// FeatureCount is the number of derived columns
const FeatureCount = 11

func (f Features) cells() []null.Float {
	return []null.Float{
		f.PriceChange, f.LogReturn, f.MA5, f.MA20, f.MA50, f.Volatility20,
		f.DailyRange, f.PricePosition, f.VolumeMA10, f.VolumeRatio, f.NormalizedClose,
	}
}

// ProcessedRecord is a cleaned record with its derived features
type ProcessedRecord struct {
	TimeSeriesRecord
	Features
}

// ProcessedColumnCount is the number of value cells in a processed record
const ProcessedColumnCount = RawColumnCount + FeatureCount

// MissingCells counts null cells across raw and derived columns
func (r ProcessedRecord) MissingCells() int {
	n := r.TimeSeriesRecord.MissingCells()
	for _, f := range r.Features.cells() {
		if !f.Valid {
			n++
		}
	}
	return n
}

// SourcedDataset is a ticker's raw pull from one source
type SourcedDataset struct {
	Records      []TimeSeriesRecord `json:"records"`
	SourceID     string             `json:"source_id"`
	FetchedAt    time.Time          `json:"fetched_at"`
	QualityScore float64            `json:"quality_score"`
}

// ProcessingStats summarizes what cleaning and enrichment did to a ticker
type ProcessingStats struct {
	OriginalRecords  int     `json:"original_records"`
	ProcessedRecords int     `json:"processed_records"`
	FeaturesAdded    int     `json:"features_added"`
	QualityScore     float64 `json:"quality_score"`
}

// ProcessedDataset is the processing output for one ticker
type ProcessedDataset struct {
	Records         []ProcessedRecord `json:"processed_data"`
	SourceUsed      string            `json:"source_used"`
	ProcessingStats ProcessingStats   `json:"processing_stats"`
}

// Closes returns the close column. Nulls are reported as 0.
func (d *ProcessedDataset) Closes() []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Close.ValueOrZero()
	}
	return out
}

// Dates returns the date column
func (d *ProcessedDataset) Dates() []time.Time {
	out := make([]time.Time, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Date
	}
	return out
}
