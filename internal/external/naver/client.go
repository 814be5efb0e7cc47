// Package naver fetches daily history for KRX listings from Naver Finance.
package naver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/httputil"
	"github.com/wonny/marketpipe/pkg/logger"
)

// SourceID is the id this client registers under
const SourceID = "naver"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	chartBaseURL string
	maxPages     int
	now          func() time.Time
}

// NewClient creates a new Naver Finance client.
// baseURL serves the HTML pages, chartBaseURL the siseJson endpoint.
func NewClient(httpClient *httputil.Client, baseURL, chartBaseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://finance.naver.com"
	}
	if chartBaseURL == "" {
		chartBaseURL = "https://fchart.stock.naver.com"
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      strings.TrimRight(baseURL, "/"),
		chartBaseURL: strings.TrimRight(chartBaseURL, "/"),
		maxPages:     30,
		now:          time.Now,
	}
}

// ID returns the source id
func (c *Client) ID() string { return SourceID }

// Fetch pulls daily bars for a six digit stock code. The chart endpoint is
// tried first; the daily quote pages are scraped when it yields nothing.
func (c *Client) Fetch(ctx context.Context, req contracts.FetchRequest) ([]contracts.TimeSeriesRecord, error) {
	to := c.now()
	from, err := contracts.PeriodStart(req.Period, to)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	log := c.logger.WithField("stock_code", req.Ticker)

	records, err := c.FetchPrices(ctx, req.Ticker, from, to)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		log.WithError(err).Warn("Chart API failed, falling back to daily pages")
	}

	records, err = c.FetchDailyPages(ctx, req.Ticker, from)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// fetchHTML fetches HTML from Naver Finance
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	return string(body), nil
}
