package naver

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
)

// FetchDailyPages scrapes the paginated daily quote table back to from
// ⭐ SSOT: Naver Finance 일별 시세 페이지 파싱은 이 함수에서만
func (c *Client) FetchDailyPages(ctx context.Context, stockCode string, from time.Time) ([]contracts.TimeSeriesRecord, error) {
	var all []contracts.TimeSeriesRecord

	for page := 1; page <= c.maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("code", stockCode)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/item/sise_day.naver", params)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		rows, err := parseDailyHTML(html)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}

		reached := false
		for _, r := range rows {
			if r.Date.Before(from) {
				reached = true
				continue
			}
			all = append(all, r)
		}
		if reached {
			break
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(all),
	}).Debug("Scraped daily pages")
	return all, nil
}

// parseDailyHTML reads table.type2 rows laid out as
// date | close | diff | open | high | low | volume.
// Spacer rows without a date are skipped.
func parseDailyHTML(html string) ([]contracts.TimeSeriesRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var records []contracts.TimeSeriesRecord
	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		tradeDate, err := time.Parse("2006.01.02", strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return
		}

		records = append(records, contracts.TimeSeriesRecord{
			Date:   tradeDate,
			Close:  parseCell(cells.Eq(1).Text()),
			Open:   parseCell(cells.Eq(3).Text()),
			High:   parseCell(cells.Eq(4).Text()),
			Low:    parseCell(cells.Eq(5).Text()),
			Volume: parseVolume(cells.Eq(6).Text()),
		})
	})

	return records, nil
}

func parseCell(s string) null.Float {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func parseVolume(s string) null.Int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(v)
}
