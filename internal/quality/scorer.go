// Package quality scores datasets for completeness and consistency.
package quality

import (
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
)

// maxGap is the longest calendar gap between rows that still counts as continuous
const maxGap = 7

// Gate holds the validity thresholds applied to scores
type Gate struct {
	RawThreshold       float64 `yaml:"raw_threshold"`       // 0.7
	ProcessedThreshold float64 `yaml:"processed_threshold"` // 0.8
}

// DefaultGate returns the standard thresholds
func DefaultGate() Gate {
	return Gate{RawThreshold: 0.7, ProcessedThreshold: 0.8}
}

// RawValid reports whether a raw score passes the gate (strictly greater)
func (g Gate) RawValid(score float64) bool {
	return score > g.RawThreshold
}

// ProcessedValid reports whether a processed score passes the gate (strictly greater)
func (g Gate) ProcessedValid(score float64) bool {
	return score > g.ProcessedThreshold
}

// RawScore is (1 - missing_fraction) × (1 - duplicate_fraction), 0 for an empty dataset
func RawScore(records []contracts.TimeSeriesRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	missing := 0
	dates := make([]time.Time, len(records))
	for i, r := range records {
		missing += r.MissingCells()
		dates[i] = r.Date
	}

	missingFrac := float64(missing) / float64(len(records)*contracts.RawColumnCount)
	dupFrac := float64(DuplicateDates(dates)) / float64(len(records))

	return clamp((1 - missingFrac) * (1 - dupFrac))
}

// ProcessedScore is (1 - missing_fraction) × continuity, 0 for an empty dataset.
// Missing cells include derived columns whose rolling window has not filled.
func ProcessedScore(records []contracts.ProcessedRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	missing := 0
	dates := make([]time.Time, len(records))
	for i, r := range records {
		missing += r.MissingCells()
		dates[i] = r.Date
	}

	missingFrac := float64(missing) / float64(len(records)*contracts.ProcessedColumnCount)

	return clamp((1 - missingFrac) * Continuity(dates))
}

// Continuity is 1 - (gaps longer than a week) / rows. Fewer than two rows is fully continuous.
func Continuity(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 1
	}

	gaps := 0
	for i := 1; i < len(dates); i++ {
		days := int(dates[i].Sub(dates[i-1]).Hours() / 24)
		if days > maxGap {
			gaps++
		}
	}

	return 1 - float64(gaps)/float64(len(dates))
}

// DuplicateDates counts rows whose date already appeared earlier
func DuplicateDates(dates []time.Time) int {
	seen := make(map[time.Time]struct{}, len(dates))
	dups := 0
	for _, d := range dates {
		key := d.UTC()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// Completeness is the fraction of rows with every field present
func Completeness(records []contracts.TimeSeriesRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	complete := 0
	for _, r := range records {
		if r.Complete() {
			complete++
		}
	}
	return float64(complete) / float64(len(records))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
