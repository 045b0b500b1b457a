package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

const (
	minOverviewDates = 70
	breadthWindow    = 260
	maShort          = 50
	maLong           = 200
	minHighLowWindow = 30
	lowVolThreshold  = 0.01
	highVolThreshold = 0.03
	regimeLowVol     = "Low Volatility"
	regimeNormalVol  = "Normal Volatility"
	regimeHighVol    = "High Volatility"
)

// BreadthAnalyzer aggregates per-ticker signals into a market-wide overview.
type BreadthAnalyzer struct {
	panel *panel.Panel
}

// NewBreadthAnalyzer wraps the shared panel.
func NewBreadthAnalyzer(p *panel.Panel) *BreadthAnalyzer {
	return &BreadthAnalyzer{panel: p}
}

// Overview computes the full-universe breadth metrics at the latest date.
// It fails with market.ErrInsufficientData when the panel's date axis has
// fewer than 70 distinct dates.
func (a *BreadthAnalyzer) Overview() (market.Overview, error) {
	index, lastDate := a.equalWeightIndex()
	if len(index) < minOverviewDates {
		return market.Overview{}, fmt.Errorf("overview needs %d dates, have %d: %w",
			minOverviewDates, len(index), market.ErrInsufficientData)
	}

	ov := market.Overview{
		LastDate:      lastDate.Format(panel.DateLayout),
		IndexLevel:    index[len(index)-1],
		Index1MReturn: indexReturn(index, lookback1M),
		Index3MReturn: indexReturn(index, lookback3M),
	}

	var (
		above50, total50   int
		above200, total200 int
		universe           int
		vols               []float64
		returns1M          []float64
	)

	a.panel.EachSeries(func(ticker string, bars []market.Bar) {
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		if len(closes) < 2 {
			return
		}
		universe++

		last := closes[len(closes)-1]
		prev := closes[len(closes)-2]
		switch {
		case last > prev:
			ov.Advancers++
		case last < prev:
			ov.Decliners++
		default:
			ov.Unchanged++
		}

		window := tail(closes, breadthWindow)
		if len(window) >= maShort {
			total50++
			if last > stat.Mean(window[len(window)-maShort:], nil) {
				above50++
			}
		}
		if len(window) >= maLong {
			total200++
			if last > stat.Mean(window[len(window)-maLong:], nil) {
				above200++
			}
		}

		if vol, ok := dailyVol(window); ok {
			vols = append(vols, vol)
		}

		if len(closes) > lookback1M {
			ref := closes[len(closes)-1-lookback1M]
			if ref > 0 {
				if r := last/ref - 1; !math.IsInf(r, 0) && !math.IsNaN(r) {
					returns1M = append(returns1M, r)
				}
			}
		}

		yearWindow := tail(closes, window52W)
		if len(yearWindow) >= minHighLowWindow {
			if last >= floats.Max(yearWindow) {
				ov.NewHighs++
			}
			if last <= floats.Min(yearWindow) {
				ov.NewLows++
			}
		}
	})

	ov.PctAbove50D = ratio(above50, total50)
	ov.PctAbove200D = ratio(above200, total200)
	ov.PctAdvancers = ratio(ov.Advancers, universe)
	ov.PctDecliners = ratio(ov.Decliners, universe)
	ov.PctNewHighs = ratio(ov.NewHighs, universe)
	ov.PctNewLows = ratio(ov.NewLows, universe)

	ov.Median20DVol = median(vols)
	ov.VolRegime = classifyVolRegime(ov.Median20DVol)

	if len(returns1M) > 0 {
		// Cross-sectional dispersion uses the population std, matching the
		// aggregate zero-default policy rather than a nullable estimate.
		ov.Dispersion1M = stat.PopStdDev(returns1M, nil)
	}

	return ov, nil
}

// equalWeightIndex is the per-date cross-sectional mean close across all
// tickers present that date, ordered by date ascending.
func (a *BreadthAnalyzer) equalWeightIndex() ([]float64, time.Time) {
	type acc struct {
		sum   float64
		count int
	}
	byDate := make(map[time.Time]*acc)
	a.panel.EachSeries(func(ticker string, bars []market.Bar) {
		for _, b := range bars {
			entry := byDate[b.Date]
			if entry == nil {
				entry = &acc{}
				byDate[b.Date] = entry
			}
			entry.sum += b.Close
			entry.count++
		}
	})

	dates := a.panel.Dates()
	index := make([]float64, 0, len(dates))
	var lastDate time.Time
	for _, d := range dates {
		if entry := byDate[d]; entry != nil && entry.count > 0 {
			index = append(index, entry.sum/float64(entry.count))
			lastDate = d
		}
	}
	return index, lastDate
}

// indexReturn is the N-day return of the synthetic index; zero when the
// history is too short or the reference level is zero. This aggregate is
// never null, unlike the per-ticker snapshot returns.
func indexReturn(index []float64, days int) float64 {
	if len(index) <= days {
		return 0
	}
	ref := index[len(index)-1-days]
	if ref == 0 {
		return 0
	}
	return index[len(index)-1]/ref - 1
}

// dailyVol is the sample std of the last 20 simple daily returns inside the
// window, non-annualized.
func dailyVol(window []float64) (float64, bool) {
	if len(window) < volReturnCount+1 {
		return 0, false
	}
	rets := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		rets = append(rets, window[i]/window[i-1]-1)
	}
	if len(rets) < volReturnCount {
		return 0, false
	}
	vol := stat.StdDev(tail(rets, volReturnCount), nil)
	if math.IsNaN(vol) {
		return 0, false
	}
	return vol, true
}

func classifyVolRegime(medianVol float64) string {
	switch {
	case medianVol < lowVolThreshold:
		return regimeLowVol
	case medianVol < highVolThreshold:
		return regimeNormalVol
	default:
		return regimeHighVol
	}
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// median averages the middle pair for an even count.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
