package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}

	assert.InDelta(t, 1.0, Quantile(values, 0), 1e-12)
	assert.InDelta(t, 2.0, Quantile(values, 0.25), 1e-12)
	assert.InDelta(t, 3.0, Quantile(values, 0.5), 1e-12)
	assert.InDelta(t, 1.2, Quantile(values, 0.05), 1e-12)
	assert.InDelta(t, 5.0, Quantile(values, 1), 1e-12)
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))

	// input must not be reordered
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2.5), StdDev([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{1}))
}

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, -0.10, got[1], 1e-12)
	assert.Nil(t, PctChange([]float64{1}))
}

func TestMaxDrawdown(t *testing.T) {
	// 100 -> 120 -> 90 -> 130
	returns := PctChange([]float64{100, 120, 90, 130})
	dd, idx := MaxDrawdown(returns)
	assert.InDelta(t, -0.25, dd, 1e-12)
	assert.Equal(t, 1, idx)

	dd, _ = MaxDrawdown(PctChange([]float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, dd)
}

func TestSharpe(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 0.0, e.Sharpe(nil))
	assert.Equal(t, 0.0, e.Sharpe([]float64{0.01, 0.01, 0.01}))

	returns := []float64{0.01, -0.005, 0.02, 0.0}
	want := (Mean(returns) - 0.02/252) / StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, want, e.Sharpe(returns), 1e-12)
}

func TestCompute(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 120, 90, 130, 125}
	dates := make([]time.Time, len(closes))
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	m := NewEngine().Compute(dates, closes)
	require.NotNil(t, m)

	assert.InDelta(t, -0.25, m.MaxDrawdown.Value, 1e-12)
	assert.Equal(t, dates[2], m.MaxDrawdown.Date)
	assert.InDelta(t, m.Volatility.Daily*math.Sqrt(252), m.Volatility.Annualized, 1e-12)
	assert.Less(t, m.VaR95, 0.0)

	assert.Nil(t, NewEngine().Compute(dates[:1], closes[:1]))
}
