// Package alphavantage fetches daily history from the Alpha Vantage API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/httputil"
	"github.com/wonny/marketpipe/pkg/logger"
)

// SourceID is the id this client registers under
const SourceID = "alpha_vantage"

// Quality is the fixed score given to Alpha Vantage datasets
const Quality = 0.95

var (
	// ErrMissingAPIKey is returned when neither the request nor the client carry a key
	ErrMissingAPIKey = errors.New("alpha vantage: api key required")

	// ErrRateLimited is returned when the API answers with a throttling note
	ErrRateLimited = errors.New("alpha vantage: rate limited")
)

// Client handles communication with the Alpha Vantage API
// ⭐ SSOT: Alpha Vantage API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	now        func() time.Time
}

// NewClient creates a new Alpha Vantage client. apiKey is used when a request carries none.
func NewClient(httpClient *httputil.Client, baseURL, apiKey string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		now:        time.Now,
	}
}

// ID returns the source id
func (c *Client) ID() string { return SourceID }

// RequiresAPIKey marks the source as unusable without a key
func (c *Client) RequiresAPIKey() bool { return true }

// FixedQuality is the score used instead of the computed one
func (c *Client) FixedQuality() float64 { return Quality }

type dailyResponse struct {
	Meta         map[string]string             `json:"Meta Data"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
	Note         string                        `json:"Note"`
	Information  string                        `json:"Information"`
	ErrorMessage string                        `json:"Error Message"`
}

// Fetch pulls TIME_SERIES_DAILY and trims it to req.Period
func (c *Client) Fetch(ctx context.Context, req contracts.FetchRequest) ([]contracts.TimeSeriesRecord, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	from, err := contracts.PeriodStart(req.Period, c.now())
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", req.Ticker)
	params.Set("outputsize", outputSize(req.Period))
	params.Set("apikey", apiKey)
	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}

	records, err := parseDaily(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Ticker, err)
	}

	if !from.IsZero() {
		i := sort.Search(len(records), func(i int) bool { return !records[i].Date.Before(from) })
		records = records[i:]
	}

	c.logger.WithFields(logger.Fields{
		"ticker": req.Ticker,
		"period": req.Period,
		"count":  len(records),
	}).Debug("Fetched prices")
	return records, nil
}

// outputSize picks "compact" (last 100 bars) when it covers the period
func outputSize(period string) string {
	switch period {
	case "1d", "5d", "1mo", "3mo":
		return "compact"
	default:
		return "full"
	}
}

func parseDaily(body []byte) ([]contracts.TimeSeriesRecord, error) {
	var resp dailyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode daily series: %w", err)
	}

	switch {
	case resp.ErrorMessage != "":
		return nil, fmt.Errorf("alpha vantage error: %s", resp.ErrorMessage)
	case resp.Note != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Note)
	case resp.Series == nil && resp.Information != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Information)
	}

	records := make([]contracts.TimeSeriesRecord, 0, len(resp.Series))
	for day, bar := range resp.Series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		records = append(records, contracts.TimeSeriesRecord{
			Date:   date,
			Open:   parseFloat(bar["1. open"]),
			High:   parseFloat(bar["2. high"]),
			Low:    parseFloat(bar["3. low"]),
			Close:  parseFloat(bar["4. close"]),
			Volume: parseInt(bar["5. volume"]),
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func parseFloat(s string) null.Float {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func parseInt(s string) null.Int {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(v)
}
