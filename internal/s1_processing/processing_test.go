package s1_processing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func flat(closes ...float64) []contracts.TimeSeriesRecord {
	out := make([]contracts.TimeSeriesRecord, len(closes))
	for i, c := range closes {
		out[i] = contracts.NewRecord(day0.AddDate(0, 0, i), c, c, c, c, int64(1000+i))
	}
	return out
}

func trend(n int) []contracts.TimeSeriesRecord {
	out := make([]contracts.TimeSeriesRecord, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = contracts.NewRecord(day0.AddDate(0, 0, i), c-0.5, c+1, c-1, c, 1000)
	}
	return out
}

func TestSelectBestSource(t *testing.T) {
	tests := []struct {
		name     string
		datasets map[string]*contracts.SourcedDataset
		order    []string
		want     string
		wantOK   bool
	}{
		{
			name: "highest wins",
			datasets: map[string]*contracts.SourcedDataset{
				"a": {QualityScore: 0.8},
				"b": {QualityScore: 0.95},
			},
			order:  []string{"a", "b"},
			want:   "b",
			wantOK: true,
		},
		{
			name: "tie goes to first configured",
			datasets: map[string]*contracts.SourcedDataset{
				"a": {QualityScore: 0.9},
				"b": {QualityScore: 0.9},
			},
			order:  []string{"b", "a"},
			want:   "b",
			wantOK: true,
		},
		{
			name: "zero scores are unusable",
			datasets: map[string]*contracts.SourcedDataset{
				"a": {QualityScore: 0},
			},
			order:  []string{"a"},
			wantOK: false,
		},
		{
			name:   "nothing to choose from",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBestSource(tt.datasets, tt.order)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClean_DedupeAndFill(t *testing.T) {
	rows := flat(10, 11, 12, 13)
	rows[1].Close = null.Float{}
	rows[0].Open = null.Float{}
	dup := contracts.NewRecord(rows[2].Date, 99, 99, 99, 99, 1)

	// out of order with a duplicate date that must lose to the first occurrence
	input := []contracts.TimeSeriesRecord{rows[3], rows[0], rows[2], dup, rows[1]}
	cleaned := Clean(input)

	require.Len(t, cleaned, 4)
	for i := 1; i < len(cleaned); i++ {
		assert.True(t, cleaned[i].Date.After(cleaned[i-1].Date))
	}
	assert.Equal(t, 12.0, cleaned[2].Close.Float64)

	// forward fill from row 0, backward fill for the leading gap
	assert.Equal(t, 10.0, cleaned[1].Close.Float64)
	assert.Equal(t, 11.0, cleaned[0].Open.Float64)

	// input untouched
	assert.False(t, input[1].Open.Valid)
}

func TestClean_RemovesSingleOutlier(t *testing.T) {
	closes := []float64{100, 101, 102, 101, 100, 99, 100, 101, 500, 102, 101, 100}
	rows := flat(closes...)

	cleaned := Clean(rows)
	require.Len(t, cleaned, len(rows)-1)

	for _, r := range cleaned {
		assert.NotEqual(t, 500.0, r.Close.Float64)
	}

	// every surviving row is unchanged
	j := 0
	for _, r := range rows {
		if r.Close.Float64 == 500 {
			continue
		}
		assert.Equal(t, r, cleaned[j])
		j++
	}
}

func TestRemoveOutliers_SinglePassBounds(t *testing.T) {
	rows := flat(10, 10, 10, 10, 11, 11, 12, 40)
	once := RemoveOutliers(rows)
	twice := RemoveOutliers(once)

	assert.Len(t, once, 7)
	assert.LessOrEqual(t, len(twice), len(once))
}

func TestDerive(t *testing.T) {
	rows := trend(60)
	out := Derive(rows)
	require.Len(t, out, 60)

	assert.False(t, out[0].PriceChange.Valid)
	assert.False(t, out[0].LogReturn.Valid)
	assert.InDelta(t, 1.0/100, out[1].PriceChange.Float64, 1e-12)
	assert.InDelta(t, math.Log(101.0/100), out[1].LogReturn.Float64, 1e-12)

	assert.False(t, out[3].MA5.Valid)
	assert.InDelta(t, 102.0, out[4].MA5.Float64, 1e-12)
	assert.False(t, out[18].MA20.Valid)
	assert.InDelta(t, 109.5, out[19].MA20.Float64, 1e-12)
	assert.False(t, out[48].MA50.Valid)
	assert.True(t, out[49].MA50.Valid)

	// first log return sits at row 1, so the 20-row window fills at row 20
	assert.False(t, out[19].Volatility20.Valid)
	assert.True(t, out[20].Volatility20.Valid)

	assert.InDelta(t, 2.0/100, out[0].DailyRange.Float64, 1e-12)
	assert.InDelta(t, 0.5, out[0].PricePosition.Float64, 1e-12)
	assert.False(t, out[8].VolumeMA10.Valid)
	assert.InDelta(t, 1.0, out[9].VolumeRatio.Float64, 1e-12)
}

func TestDerive_FlatBarHasNoPosition(t *testing.T) {
	out := Derive(flat(10, 10))
	assert.False(t, out[0].PricePosition.Valid)
	assert.InDelta(t, 0.0, out[0].DailyRange.Float64, 1e-12)
}

func TestNormalize(t *testing.T) {
	out := Derive(trend(5))
	require.NoError(t, Normalize(out))

	assert.Equal(t, 0.0, out[0].NormalizedClose.Float64)
	assert.True(t, out[0].NormalizedClose.Valid)
	assert.InDelta(t, 4.0, out[4].NormalizedClose.Float64, 1e-12)

	assert.ErrorIs(t, Normalize(nil), contracts.ErrEmptySeries)
}

func acquisition(data map[string]map[string]*contracts.SourcedDataset) *contracts.PipelineContext {
	pc := contracts.NewPipelineContext("test", contracts.PipelineConfig{
		Tickers:     []string{"AAPL", "BROKEN", "MSFT"},
		DataSources: []string{"primary", "secondary"},
	})
	pc.Acquisition = &contracts.AcquisitionOutput{RawData: data}
	return pc
}

func TestStage_ProcessAndValidate(t *testing.T) {
	pc := acquisition(map[string]map[string]*contracts.SourcedDataset{
		"AAPL": {
			"primary":   {Records: trend(60), SourceID: "primary", QualityScore: 1},
			"secondary": {Records: trend(30), SourceID: "secondary", QualityScore: 0.95},
		},
		"MSFT": {
			"primary": {Records: trend(10), SourceID: "primary", QualityScore: 0},
		},
	})

	stage := NewStage(logger.NewNop())
	require.True(t, stage.Process(context.Background(), pc).OK())
	require.True(t, stage.Validate(context.Background(), pc).OK())

	out := pc.Processing
	require.Contains(t, out.ProcessedData, "AAPL")
	assert.NotContains(t, out.ProcessedData, "MSFT")

	aapl := out.ProcessedData["AAPL"]
	assert.Equal(t, "primary", aapl.SourceUsed)
	assert.Equal(t, 60, aapl.ProcessingStats.OriginalRecords)
	assert.Equal(t, 60, aapl.ProcessingStats.ProcessedRecords)
	assert.Equal(t, contracts.FeatureCount, aapl.ProcessingStats.FeaturesAdded)
	assert.Equal(t, 0.0, aapl.Records[0].NormalizedClose.Float64)

	score := aapl.ProcessingStats.QualityScore
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)

	v := out.Validation["AAPL"]
	assert.Equal(t, score > 0.8, v.IsValid)
	assert.True(t, v.DataIntegrity)
	assert.Equal(t, contracts.FeatureCount, v.FeatureCount)
	assert.Equal(t, contracts.ProcessedColumnCount, out.Metadata.TotalFeatures)
	assert.Equal(t, []string{"AAPL"}, out.Metadata.ProcessedTickers)
}

func TestStage_EmptySeriesStopsLoop(t *testing.T) {
	pc := acquisition(map[string]map[string]*contracts.SourcedDataset{
		"AAPL":   {"primary": {Records: trend(30), SourceID: "primary", QualityScore: 1}},
		"BROKEN": {"primary": {SourceID: "primary", QualityScore: 0.9}},
		"MSFT":   {"primary": {Records: trend(30), SourceID: "primary", QualityScore: 1}},
	})

	out := NewStage(logger.NewNop()).Process(context.Background(), pc)
	require.False(t, out.OK())
	assert.ErrorIs(t, out.Err, contracts.ErrEmptySeries)

	// partial result is kept, later tickers never ran
	assert.Contains(t, pc.Processing.ProcessedData, "AAPL")
	assert.NotContains(t, pc.Processing.ProcessedData, "MSFT")
	assert.False(t, pc.Processing.Metadata.ProcessingTime.IsZero())
}

func TestStage_MissingInput(t *testing.T) {
	pc := contracts.NewPipelineContext("test", contracts.PipelineConfig{})
	stage := NewStage(logger.NewNop())

	assert.ErrorIs(t, stage.Process(context.Background(), pc).Err, contracts.ErrMissingInput)
	assert.ErrorIs(t, stage.Validate(context.Background(), pc).Err, contracts.ErrMissingInput)
}

func TestCheckIntegrity(t *testing.T) {
	rows := Derive(trend(3))
	assert.True(t, CheckIntegrity(rows))
	assert.False(t, CheckIntegrity(nil))

	rows[2].Date = rows[1].Date
	assert.False(t, CheckIntegrity(rows))
}
