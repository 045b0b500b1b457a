// Package market standardizes payloads shared between the price panel and analytics layers.
package market

import (
	"errors"
	"time"

	"github.com/guregu/null/v6"
)

// ErrNotFound indicates the requested ticker has no rows in the panel.
var ErrNotFound = errors.New("ticker not found")

// ErrInsufficientData indicates a series is shorter than the operation's minimum window.
var ErrInsufficientData = errors.New("insufficient history")

// Bar is one daily OHLCV row for one ticker.
type Bar struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// PricePoint is the wire shape of one bar served by the prices endpoint.
type PricePoint struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Snapshot summarizes one ticker's recent price behaviour. Fields that need
// a minimum history are null when the series is too short, never zero.
type Snapshot struct {
	Ticker    string     `json:"ticker"`
	LastDate  string     `json:"last_date"`
	LastPrice float64    `json:"last_price"`
	Ret1M     null.Float `json:"ret_1m"`
	Ret3M     null.Float `json:"ret_3m"`
	High52W   null.Float `json:"high_52w"`
	Low52W    null.Float `json:"low_52w"`
	Vol20D    null.Float `json:"vol_20d_annualized"`
}

// Overview aggregates cross-sectional signals for the whole universe at the
// latest common date. Percentage fields default to 0.0 when their
// denominator is empty; that zero-default policy is what separates these
// universe aggregates from the nullable per-ticker snapshot fields.
type Overview struct {
	LastDate      string  `json:"last_date"`
	IndexLevel    float64 `json:"index_level"`
	Index1MReturn float64 `json:"index_1m_return"`
	Index3MReturn float64 `json:"index_3m_return"`
	PctAbove50D   float64 `json:"pct_above_50d"`
	PctAbove200D  float64 `json:"pct_above_200d"`
	Median20DVol  float64 `json:"median_20d_vol"`
	VolRegime     string  `json:"vol_regime"`
	Advancers     int     `json:"num_advancers"`
	Decliners     int     `json:"num_decliners"`
	Unchanged     int     `json:"num_unchanged"`
	PctAdvancers  float64 `json:"pct_advancers"`
	PctDecliners  float64 `json:"pct_decliners"`
	NewHighs      int     `json:"num_new_highs"`
	NewLows       int     `json:"num_new_lows"`
	PctNewHighs   float64 `json:"pct_new_highs"`
	PctNewLows    float64 `json:"pct_new_lows"`
	Dispersion1M  float64 `json:"dispersion_1m"`
}

// MomentumRecord is one ticker's lookback return used for ranking.
type MomentumRecord struct {
	Ticker string  `json:"ticker"`
	Return float64 `json:"ret"`
}

// MomentumBoard holds the ranked cohorts for one momentum request.
type MomentumBoard struct {
	LookbackDays int              `json:"lookback_days"`
	Top          []MomentumRecord `json:"top"`
	Bottom       []MomentumRecord `json:"bottom"`
}

// ForecastPoint is one predicted close in the forecast horizon.
type ForecastPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}
