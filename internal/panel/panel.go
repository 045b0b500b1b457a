// Package panel holds the immutable in-memory price table every analytics
// component reads. It is built once at process start and never mutated.
package panel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketpulse-go/internal/market"
)

// DateLayout is the calendar-date format used across the CSV and the API.
const DateLayout = "2006-01-02"

// Panel is a sorted, read-only table of (ticker, date, OHLCV) rows.
// (ticker, date) pairs are unique and rows are ordered by (ticker, date)
// ascending, so each ticker's series is a contiguous sub-slice.
type Panel struct {
	bars     []market.Bar
	byTicker map[string][]market.Bar
	tickers  []string
	dates    []time.Time
}

// New normalizes, sorts, and dedupes raw bars into a Panel. Tickers are
// uppercased; of duplicate (ticker, date) rows the first wins.
func New(bars []market.Bar) *Panel {
	rows := make([]market.Bar, 0, len(bars))
	for _, b := range bars {
		b.Ticker = strings.ToUpper(strings.TrimSpace(b.Ticker))
		if b.Ticker == "" {
			continue
		}
		rows = append(rows, b)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	deduped := rows[:0]
	for _, b := range rows {
		if n := len(deduped); n > 0 && deduped[n-1].Ticker == b.Ticker && deduped[n-1].Date.Equal(b.Date) {
			continue
		}
		deduped = append(deduped, b)
	}

	p := &Panel{
		bars:     deduped,
		byTicker: make(map[string][]market.Bar),
	}
	start := 0
	for i := 1; i <= len(deduped); i++ {
		if i == len(deduped) || deduped[i].Ticker != deduped[start].Ticker {
			p.byTicker[deduped[start].Ticker] = deduped[start:i:i]
			p.tickers = append(p.tickers, deduped[start].Ticker)
			start = i
		}
	}

	seen := make(map[time.Time]bool)
	for _, b := range deduped {
		if !seen[b.Date] {
			seen[b.Date] = true
			p.dates = append(p.dates, b.Date)
		}
	}
	sort.Slice(p.dates, func(i, j int) bool { return p.dates[i].Before(p.dates[j]) })

	return p
}

// LoadCSV reads the ingestion CSV (date,ticker,open,high,low,close,
// adj_close,volume) and builds a Panel. Rows without a parseable date,
// ticker, or close are dropped.
func LoadCSV(path string) (*Panel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices csv: %w", err)
	}
	defer file.Close()

	bars, err := ReadBars(file)
	if err != nil {
		return nil, err
	}
	return New(bars), nil
}

// ReadBars parses CSV rows into bars without building a Panel. Shared with
// the ingestion job, which merges raw rows before re-writing the file.
func ReadBars(r io.Reader) ([]market.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "ticker", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("prices csv missing %q column", required)
		}
	}

	var bars []market.Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		date, err := time.Parse(DateLayout, field(record, col, "date"))
		if err != nil {
			continue
		}
		closePx, err := strconv.ParseFloat(field(record, col, "close"), 64)
		if err != nil {
			continue
		}
		bars = append(bars, market.Bar{
			Ticker:   field(record, col, "ticker"),
			Date:     date,
			Open:     floatField(record, col, "open"),
			High:     floatField(record, col, "high"),
			Low:      floatField(record, col, "low"),
			Close:    closePx,
			AdjClose: floatField(record, col, "adj_close"),
			Volume:   floatField(record, col, "volume"),
		})
	}
	return bars, nil
}

func field(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func floatField(record []string, col map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(field(record, col, name), 64)
	if err != nil {
		return 0
	}
	return v
}

// Series returns one ticker's bars sorted by date ascending. The symbol is
// case-insensitive. The returned slice is shared and must not be mutated.
func (p *Panel) Series(symbol string) ([]market.Bar, bool) {
	bars, ok := p.byTicker[strings.ToUpper(strings.TrimSpace(symbol))]
	return bars, ok
}

// Closes returns one ticker's close prices sorted by date ascending.
func (p *Panel) Closes(symbol string) ([]float64, bool) {
	bars, ok := p.Series(symbol)
	if !ok {
		return nil, false
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes, true
}

// Tickers returns the sorted universe of symbols.
func (p *Panel) Tickers() []string { return p.tickers }

// Dates returns the distinct date axis sorted ascending.
func (p *Panel) Dates() []time.Time { return p.dates }

// Len reports the total row count.
func (p *Panel) Len() int { return len(p.bars) }

// EachSeries invokes fn once per ticker in sorted order with that ticker's
// date-ascending bars.
func (p *Panel) EachSeries(fn func(ticker string, bars []market.Bar)) {
	for _, t := range p.tickers {
		fn(t, p.byTicker[t])
	}
}
