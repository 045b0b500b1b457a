// Package analytics hosts the read-only cross-sectional and per-ticker
// queries computed on demand over the shared price panel.
package analytics

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

const (
	lookback1M     = 21
	lookback3M     = 63
	window52W      = 252
	volReturnCount = 20
	tradingDays    = 252
)

// SnapshotBuilder computes one ticker's trailing returns, 52-week range,
// and volatility from the panel.
type SnapshotBuilder struct {
	panel *panel.Panel
}

// NewSnapshotBuilder wraps the shared panel.
func NewSnapshotBuilder(p *panel.Panel) *SnapshotBuilder {
	return &SnapshotBuilder{panel: p}
}

// Build returns the snapshot for one symbol (case-insensitive) or
// market.ErrNotFound when the panel has no rows for it.
func (b *SnapshotBuilder) Build(symbol string) (market.Snapshot, error) {
	bars, ok := b.panel.Series(symbol)
	if !ok || len(bars) == 0 {
		return market.Snapshot{}, fmt.Errorf("symbol %s: %w", symbol, market.ErrNotFound)
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	last := bars[len(bars)-1]

	snap := market.Snapshot{
		Ticker:    last.Ticker,
		LastDate:  last.Date.Format(panel.DateLayout),
		LastPrice: last.Close,
		Ret1M:     trailingReturn(closes, lookback1M),
		Ret3M:     trailingReturn(closes, lookback3M),
	}

	window := tail(closes, window52W)
	if len(window) > 0 {
		snap.High52W = null.FloatFrom(floats.Max(window))
		snap.Low52W = null.FloatFrom(floats.Min(window))
	}
	if vol, ok := annualizedVol(window); ok {
		snap.Vol20D = null.FloatFrom(vol)
	}

	return snap, nil
}

// trailingReturn is close[-1]/close[-1-days] - 1, null when fewer than
// days+1 observations exist. Insufficient history is not a zero return.
func trailingReturn(closes []float64, days int) null.Float {
	if len(closes) <= days {
		return null.Float{}
	}
	ref := closes[len(closes)-1-days]
	return null.FloatFrom(closes[len(closes)-1]/ref - 1)
}

// annualizedVol is the sample standard deviation of the last 20 daily log
// returns within the window, scaled by sqrt(252). The window needs more
// than 20 observations; the estimate is strictly backward-looking.
func annualizedVol(window []float64) (float64, bool) {
	if len(window) <= volReturnCount {
		return 0, false
	}
	logRets := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		logRets = append(logRets, math.Log(window[i]/window[i-1]))
	}
	last := tail(logRets, volReturnCount)
	return stat.StdDev(last, nil) * math.Sqrt(tradingDays), true
}

// tail returns the last n elements, or the whole slice when shorter.
func tail(s []float64, n int) []float64 {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
