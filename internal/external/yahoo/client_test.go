package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/httputil"
	"github.com/wonny/marketpipe/pkg/logger"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "exchangeTimezoneName": "America/New_York"},
      "timestamp": [1704465000, 1704378600, 1704983400],
      "indicators": {"quote": [{
        "open":   [181.99, 182.15, null],
        "high":   [182.76, 183.09, null],
        "low":    [180.17, 180.88, null],
        "close":  [181.18, 181.91, null],
        "volume": [62303300, 71983600, null]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(url string) *Client {
	h := httputil.New(config.HTTPConfig{Timeout: 5 * time.Second}, logger.NewNop())
	return NewClient(h, url, logger.NewNop())
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "6mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).Fetch(context.Background(), contracts.FetchRequest{Ticker: "AAPL", Period: "6mo"})
	require.NoError(t, err)

	// the all-null bar is dropped, the rest sorted ascending
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), records[1].Date)
	assert.Equal(t, 181.91, records[0].Close.Float64)
	assert.EqualValues(t, 62303300, records[1].Volume.Int64)
	assert.True(t, records[0].Complete())
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), contracts.FetchRequest{Ticker: "NOPE"})
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestParseChart(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"error payload", `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid range"}}}`, 0, true},
		{"empty result", `{"chart":{"result":[],"error":null}}`, 0, true},
		{"no quotes", `{"chart":{"result":[{"timestamp":[1704465000],"indicators":{"quote":[]}}],"error":null}}`, 0, false},
		{"partial cells kept", `{"chart":{"result":[{"timestamp":[1704465000],"indicators":{"quote":[{"open":[1.0],"close":[null]}]}}],"error":null}}`, 1, false},
		{"garbage", `<html>`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChart([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
