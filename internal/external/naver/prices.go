package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
)

var priceRowPattern = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// FetchPrices fetches daily price data from the Naver chart API
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]contracts.TimeSeriesRecord, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")
	fullURL := fmt.Sprintf("%s/siseJson.naver?%s", c.chartBaseURL, params.Encode())

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	records := parsePriceResponse(string(body))

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(records),
	}).Debug("Fetched prices")
	return records, nil
}

// parsePriceResponse parses the single-quoted array payload of siseJson.
// Rows are sorted by date ascending.
func parsePriceResponse(body string) []contracts.TimeSeriesRecord {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var records []contracts.TimeSeriesRecord
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		records = parsePriceJSON(rawData)
	} else {
		records = parsePriceRegex(body)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records
}

// parsePriceJSON parses JSON array format. The first row is the header.
func parsePriceJSON(rawData [][]interface{}) []contracts.TimeSeriesRecord {
	var records []contracts.TimeSeriesRecord
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		records = append(records, contracts.NewRecord(
			tradeDate,
			toFloat64(row[1]),
			toFloat64(row[2]),
			toFloat64(row[3]),
			toFloat64(row[4]),
			int64(toFloat64(row[5])),
		))
	}
	return records
}

// parsePriceRegex parses using regex (fallback)
func parsePriceRegex(body string) []contracts.TimeSeriesRecord {
	var records []contracts.TimeSeriesRecord
	for _, match := range priceRowPattern.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		openPrice, _ := strconv.ParseFloat(match[2], 64)
		highPrice, _ := strconv.ParseFloat(match[3], 64)
		lowPrice, _ := strconv.ParseFloat(match[4], 64)
		closePrice, _ := strconv.ParseFloat(match[5], 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		records = append(records, contracts.NewRecord(tradeDate, openPrice, highPrice, lowPrice, closePrice, volume))
	}
	return records
}

// toFloat64 converts various types to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		n, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return n
	default:
		return 0
	}
}
