// Package ingest refreshes the on-disk daily price history: it downloads
// new OHLCV rows per ticker and merges them into the CSV the panel loads
// at startup. The engine never sees partial updates; a restart picks up
// the rewritten file.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

// Client fetches daily adjusted OHLCV series from an Alpha Vantage style
// HTTP API.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
	apiKey string
}

// NewClient builds a Client for the given base URL and API key.
func NewClient(log zerolog.Logger, baseURL, apiKey string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	return &Client{client: client, log: log, apiKey: apiKey}
}

type dailySeriesResponse struct {
	Series      map[string]dailyBar `json:"Time Series (Daily)"`
	Note        string              `json:"Note"`
	Information string              `json:"Information"`
	Error       string              `json:"Error Message"`
}

type dailyBar struct {
	Open     string `json:"1. open"`
	High     string `json:"2. high"`
	Low      string `json:"3. low"`
	Close    string `json:"4. close"`
	AdjClose string `json:"5. adjusted close"`
	Volume   string `json:"6. volume"`
}

// DailyHistory returns one ticker's daily bars strictly after since, sorted
// by date ascending. Rows the provider returns without a parseable close
// are dropped.
func (c *Client) DailyHistory(ctx context.Context, symbol string, since time.Time) ([]market.Bar, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY_ADJUSTED",
			"symbol":     symbol,
			"outputsize": "full",
			"apikey":     c.apiKey,
		}).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	var parsed dailySeriesResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", symbol, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("fetch %s: %s", symbol, parsed.Error)
	}
	if len(parsed.Series) == 0 {
		if parsed.Note != "" || parsed.Information != "" {
			return nil, fmt.Errorf("fetch %s: provider throttled: %s%s", symbol, parsed.Note, parsed.Information)
		}
		return nil, nil
	}

	bars := make([]market.Bar, 0, len(parsed.Series))
	for dateStr, raw := range parsed.Series {
		date, err := time.Parse(panel.DateLayout, dateStr)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", dateStr).Msg("skipping unparseable date")
			continue
		}
		if !date.After(since) {
			continue
		}
		closePx, err := strconv.ParseFloat(raw.Close, 64)
		if err != nil {
			continue
		}
		bars = append(bars, market.Bar{
			Ticker:   symbol,
			Date:     date,
			Open:     parseFloat(raw.Open),
			High:     parseFloat(raw.High),
			Low:      parseFloat(raw.Low),
			Close:    closePx,
			AdjClose: parseFloat(raw.AdjClose),
			Volume:   parseFloat(raw.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
