package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

var csvHeader = []string{"date", "ticker", "open", "high", "low", "close", "adj_close", "volume"}

// Store reads and rewrites the CSV price history. The file on disk stays
// sorted by (date, ticker); the panel re-sorts on load.
type Store struct {
	path string
}

// NewStore points at the CSV path.
func NewStore(path string) *Store { return &Store{path: path} }

// Load returns all existing bars, or nil when the file does not exist yet.
func (s *Store) Load() ([]market.Bar, error) {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open price store: %w", err)
	}
	defer file.Close()
	return panel.ReadBars(file)
}

// Write merges bars, dedupes (date, ticker) keeping the first occurrence,
// sorts by (date, ticker), and atomically replaces the file.
func (s *Store) Write(bars []market.Bar) error {
	sort.SliceStable(bars, func(i, j int) bool {
		if !bars[i].Date.Equal(bars[j].Date) {
			return bars[i].Date.Before(bars[j].Date)
		}
		return bars[i].Ticker < bars[j].Ticker
	})
	seen := make(map[string]bool, len(bars))
	deduped := bars[:0]
	for _, b := range bars {
		key := b.Date.Format(panel.DateLayout) + "|" + b.Ticker
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, b)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "prices-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range deduped {
		record := []string{
			b.Date.Format(panel.DateLayout),
			b.Ticker,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			formatFloat(b.Volume),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace price store: %w", err)
	}
	return nil
}

// LastDate returns the maximum date across bars, or the zero time when
// there are none.
func LastDate(bars []market.Bar) time.Time {
	var max time.Time
	for _, b := range bars {
		if b.Date.After(max) {
			max = b.Date
		}
	}
	return max
}

// ReadTickers loads the universe file, one symbol per line, uppercased.
func ReadTickers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tickers file: %w", err)
	}
	defer file.Close()

	var tickers []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line != "" {
			tickers = append(tickers, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tickers file: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found in %s", path)
	}
	return tickers, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
