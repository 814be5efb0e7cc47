package s1_processing

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
)

// Rolling windows used for derived features
const (
	shortMAWindow  = 5
	mediumMAWindow = 20
	longMAWindow   = 50
	volWindow      = 20
	volumeMAWindow = 10
)

// Derive adds the derived feature columns to cleaned records
func Derive(rows []contracts.TimeSeriesRecord) []contracts.ProcessedRecord {
	n := len(rows)
	out := make([]contracts.ProcessedRecord, n)

	closes := make([]null.Float, n)
	volumes := make([]null.Float, n)
	for i, r := range rows {
		out[i].TimeSeriesRecord = r
		closes[i] = r.Close
		if r.Volume.Valid {
			volumes[i] = null.FloatFrom(float64(r.Volume.Int64))
		}
	}

	logReturns := make([]null.Float, n)
	for i := 1; i < n; i++ {
		prev, cur := closes[i-1], closes[i]
		if !prev.Valid || !cur.Valid {
			continue
		}
		out[i].PriceChange = ratio(cur.Float64-prev.Float64, prev.Float64)
		if r := ratio(cur.Float64, prev.Float64); r.Valid && r.Float64 > 0 {
			logReturns[i] = null.FloatFrom(math.Log(r.Float64))
		}
	}

	ma5 := rollingMean(closes, shortMAWindow)
	ma20 := rollingMean(closes, mediumMAWindow)
	ma50 := rollingMean(closes, longMAWindow)
	vol20 := rollingStd(logReturns, volWindow)
	volMA10 := rollingMean(volumes, volumeMAWindow)

	for i, r := range rows {
		f := &out[i].Features
		f.LogReturn = logReturns[i]
		f.MA5 = ma5[i]
		f.MA20 = ma20[i]
		f.MA50 = ma50[i]
		f.Volatility20 = vol20[i]
		f.VolumeMA10 = volMA10[i]

		if r.High.Valid && r.Low.Valid && r.Close.Valid {
			f.DailyRange = ratio(r.High.Float64-r.Low.Float64, r.Close.Float64)
			f.PricePosition = ratio(r.Close.Float64-r.Low.Float64, r.High.Float64-r.Low.Float64)
		}
		if volumes[i].Valid && volMA10[i].Valid {
			f.VolumeRatio = ratio(volumes[i].Float64, volMA10[i].Float64)
		}
	}

	return out
}

// Normalize sets normalized_close = (close / first_close - 1) × 100.
// An empty series has no reference row and is reported as ErrEmptySeries.
func Normalize(rows []contracts.ProcessedRecord) error {
	if len(rows) == 0 {
		return contracts.ErrEmptySeries
	}

	first := rows[0].Close
	for i := range rows {
		if !first.Valid || !rows[i].Close.Valid {
			continue
		}
		if r := ratio(rows[i].Close.Float64, first.Float64); r.Valid {
			rows[i].NormalizedClose = null.FloatFrom((r.Float64 - 1) * 100)
		}
	}
	return nil
}

// ratio divides, returning null when the result is not a finite number
func ratio(num, den float64) null.Float {
	if den == 0 {
		return null.Float{}
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// rollingMean is the trailing mean over window cells; null until the window is
// full or when any cell inside it is null
func rollingMean(values []null.Float, window int) []null.Float {
	return rolling(values, window, risk.Mean)
}

// rollingStd is the trailing sample standard deviation over window cells
func rollingStd(values []null.Float, window int) []null.Float {
	return rolling(values, window, risk.StdDev)
}

func rolling(values []null.Float, window int, agg func([]float64) float64) []null.Float {
	out := make([]null.Float, len(values))
	buf := make([]float64, window)

	for i := window - 1; i < len(values); i++ {
		full := true
		for j := 0; j < window; j++ {
			v := values[i-window+1+j]
			if !v.Valid {
				full = false
				break
			}
			buf[j] = v.Float64
		}
		if full {
			out[i] = null.FloatFrom(agg(buf))
		}
	}
	return out
}
