package analytics

import (
	"sort"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

const (
	// DefaultLookbackDays is the momentum lookback applied when the caller
	// supplies none.
	DefaultLookbackDays = 21
	// DefaultTopN is the cohort size applied when the caller supplies none.
	DefaultTopN = 10

	minLookbackDays = 5
	maxLookbackDays = 126
	minTopN         = 1
	maxTopN         = 50
)

// MomentumRanker ranks the universe by a lookback return and returns the
// top and bottom cohorts.
type MomentumRanker struct {
	panel *panel.Panel
}

// NewMomentumRanker wraps the shared panel.
func NewMomentumRanker(p *panel.Panel) *MomentumRanker {
	return &MomentumRanker{panel: p}
}

// Rank computes lookback returns for every qualifying ticker and slices the
// cohorts. Out-of-range parameters are clamped, never rejected. When fewer
// than 2*topN tickers qualify the cohorts overlap; that is accepted rather
// than deduplicated. An empty universe yields empty cohorts, not an error.
func (r *MomentumRanker) Rank(lookbackDays, topN int) market.MomentumBoard {
	lookbackDays = clamp(lookbackDays, minLookbackDays, maxLookbackDays)
	topN = clamp(topN, minTopN, maxTopN)

	var records []market.MomentumRecord
	r.panel.EachSeries(func(ticker string, bars []market.Bar) {
		if len(bars) <= lookbackDays {
			return
		}
		last := bars[len(bars)-1].Close
		ref := bars[len(bars)-1-lookbackDays].Close
		if ref <= 0 {
			return
		}
		records = append(records, market.MomentumRecord{Ticker: ticker, Return: last/ref - 1})
	})

	board := market.MomentumBoard{
		LookbackDays: lookbackDays,
		Top:          []market.MomentumRecord{},
		Bottom:       []market.MomentumRecord{},
	}
	if len(records) == 0 {
		return board
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Return > records[j].Return })

	if topN > len(records) {
		board.Top = append(board.Top, records...)
		board.Bottom = append(board.Bottom, records...)
		return board
	}
	board.Top = append(board.Top, records[:topN]...)
	board.Bottom = append(board.Bottom, records[len(records)-topN:]...)
	return board
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
