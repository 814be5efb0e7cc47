package s1_processing

import (
	"sort"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
)

// iqrFactor widens the inter-quartile range into outlier bounds
const iqrFactor = 1.5

// Clean sorts by date, drops duplicate dates (keeping the first), forward-fills
// then backward-fills missing cells and removes price outliers by the IQR rule.
// The input slice is not modified.
func Clean(records []contracts.TimeSeriesRecord) []contracts.TimeSeriesRecord {
	rows := append([]contracts.TimeSeriesRecord(nil), records...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	rows = dedupe(rows)
	fill(rows)
	return RemoveOutliers(rows)
}

func dedupe(rows []contracts.TimeSeriesRecord) []contracts.TimeSeriesRecord {
	out := rows[:0]
	for i, r := range rows {
		if i > 0 && r.Date.Equal(out[len(out)-1].Date) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// priceColumns exposes the four price cells of a record for generic passes
func priceColumns(r *contracts.TimeSeriesRecord) [4]*null.Float {
	return [4]*null.Float{&r.Open, &r.High, &r.Low, &r.Close}
}

// fill applies forward fill then backward fill per column, in place
func fill(rows []contracts.TimeSeriesRecord) {
	for col := 0; col < 4; col++ {
		var last null.Float
		for i := range rows {
			cell := priceColumns(&rows[i])[col]
			if cell.Valid {
				last = *cell
			} else if last.Valid {
				*cell = last
			}
		}
		last = null.Float{}
		for i := len(rows) - 1; i >= 0; i-- {
			cell := priceColumns(&rows[i])[col]
			if cell.Valid {
				last = *cell
			} else if last.Valid {
				*cell = last
			}
		}
	}

	var last null.Int
	for i := range rows {
		if rows[i].Volume.Valid {
			last = rows[i].Volume
		} else if last.Valid {
			rows[i].Volume = last
		}
	}
	last = null.Int{}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Volume.Valid {
			last = rows[i].Volume
		} else if last.Valid {
			rows[i].Volume = last
		}
	}
}

type bounds struct {
	lower, upper float64
	ok           bool
}

// RemoveOutliers drops every row with an open, high, low or close outside
// [Q1 - 1.5·IQR, Q3 + 1.5·IQR]. Bounds are computed once per column from the
// input before any row is removed, so a second call can remove more rows.
func RemoveOutliers(rows []contracts.TimeSeriesRecord) []contracts.TimeSeriesRecord {
	var colBounds [4]bounds
	for col := 0; col < 4; col++ {
		values := make([]float64, 0, len(rows))
		for i := range rows {
			if cell := priceColumns(&rows[i])[col]; cell.Valid {
				values = append(values, cell.Float64)
			}
		}
		if len(values) == 0 {
			continue
		}
		q1 := risk.Quantile(values, 0.25)
		q3 := risk.Quantile(values, 0.75)
		iqr := q3 - q1
		colBounds[col] = bounds{lower: q1 - iqrFactor*iqr, upper: q3 + iqrFactor*iqr, ok: true}
	}

	out := make([]contracts.TimeSeriesRecord, 0, len(rows))
	for i := range rows {
		keep := true
		for col, b := range colBounds {
			cell := priceColumns(&rows[i])[col]
			if !b.ok || !cell.Valid {
				continue
			}
			if cell.Float64 < b.lower || cell.Float64 > b.upper {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rows[i])
		}
	}
	return out
}
