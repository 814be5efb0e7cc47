// Package yahoo fetches daily history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/httputil"
	"github.com/wonny/marketpipe/pkg/logger"
)

// SourceID is the id this client registers under
const SourceID = "yahoo_finance"

// ErrTickerNotFound is returned when Yahoo has no chart for the symbol
var ErrTickerNotFound = errors.New("yahoo: ticker not found")

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ID returns the source id
func (c *Client) ID() string {
	return SourceID
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch pulls daily bars for req.Period ("1y" when empty)
func (c *Client) Fetch(ctx context.Context, req contracts.FetchRequest) ([]contracts.TimeSeriesRecord, error) {
	period := req.Period
	if period == "" {
		period = "1y"
	}

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(req.Ticker), params.Encode())

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, req.Ticker)
		}
		return nil, fmt.Errorf("yahoo chart request failed: %w", err)
	}

	records, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Ticker, err)
	}

	c.logger.WithFields(logger.Fields{
		"ticker": req.Ticker,
		"period": period,
		"count":  len(records),
	}).Debug("Fetched prices")
	return records, nil
}

// parseChart maps the chart payload to ascending daily records. Bars without
// any value are dropped; partially missing cells stay null.
func parseChart(body []byte) ([]contracts.TimeSeriesRecord, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, ErrTickerNotFound
		}
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrTickerNotFound
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	loc, err := time.LoadLocation(result.Meta.ExchangeTimezoneName)
	if err != nil || result.Meta.ExchangeTimezoneName == "" {
		loc = time.UTC
	}

	records := make([]contracts.TimeSeriesRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		local := time.Unix(ts, 0).In(loc)
		r := contracts.TimeSeriesRecord{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   floatAt(quote.Open, i),
			High:   floatAt(quote.High, i),
			Low:    floatAt(quote.Low, i),
			Close:  floatAt(quote.Close, i),
			Volume: intAt(quote.Volume, i),
		}
		if r.MissingCells() == contracts.RawColumnCount {
			continue
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func floatAt(values []*float64, i int) null.Float {
	if i >= len(values) || values[i] == nil {
		return null.Float{}
	}
	return null.FloatFrom(*values[i])
}

func intAt(values []*int64, i int) null.Int {
	if i >= len(values) || values[i] == nil {
		return null.Int{}
	}
	return null.IntFrom(*values[i])
}
