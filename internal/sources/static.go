package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Static serves fixed series from memory, keyed by upper-cased ticker.
// It backs offline runs from a JSON fixture and tests.
type Static struct {
	id     string
	series map[string][]contracts.TimeSeriesRecord
}

// NewStatic creates an empty static source
func NewStatic(id string) *Static {
	return &Static{id: id, series: make(map[string][]contracts.TimeSeriesRecord)}
}

// Add sets the series returned for ticker
func (s *Static) Add(ticker string, records []contracts.TimeSeriesRecord) *Static {
	s.series[strings.ToUpper(ticker)] = records
	return s
}

// ID returns the source id
func (s *Static) ID() string {
	return s.id
}

// Fetch returns a copy of the stored series or an error for unknown tickers
func (s *Static) Fetch(ctx context.Context, req contracts.FetchRequest) ([]contracts.TimeSeriesRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, ok := s.series[strings.ToUpper(req.Ticker)]
	if !ok {
		return nil, fmt.Errorf("%s: no data for %s", s.id, req.Ticker)
	}
	return append([]contracts.TimeSeriesRecord(nil), records...), nil
}

// LoadStaticFile reads a fixture of the form {"AAPL": [{"date": ..., "close": ...}, ...]}
func LoadStaticFile(id, path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var series map[string][]contracts.TimeSeriesRecord
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	s := NewStatic(id)
	for ticker, records := range series {
		s.Add(ticker, records)
	}
	return s, nil
}
