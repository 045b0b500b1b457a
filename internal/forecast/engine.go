// Package forecast builds supervised samples from one ticker's log-price
// history, fits a boosted tree model, and extrapolates an N-day-ahead path.
package forecast

import (
	"fmt"
	"math"
	"time"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/metrics"
	"marketpulse-go/internal/panel"
)

// Params groups the tunable knobs of the forecast engine.
type Params struct {
	Estimators      int     `yaml:"estimators"`
	LearningRate    float64 `yaml:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth"`
	Lag             int     `yaml:"lag"`
	MaxHistory      int     `yaml:"max_history"`
	MinObservations int     `yaml:"min_observations"`
	StaleWeight     float64 `yaml:"stale_weight"`
	MaxHorizon      int     `yaml:"max_horizon"`
}

// DefaultParams returns the production model configuration: 300 shallow
// trees over a 20-day log-price window, trained on up to ~3 years of data.
func DefaultParams() Params {
	return Params{
		Estimators:      300,
		LearningRate:    0.05,
		MaxDepth:        3,
		Lag:             20,
		MaxHistory:      756,
		MinObservations: 80,
		StaleWeight:     0.3,
		MaxHorizon:      7,
	}
}

// Engine retrains a fresh model per request over the immutable panel. There
// is no model cache: concurrent requests for the same ticker fit
// independent models, which is accepted over introducing shared state.
type Engine struct {
	panel  *panel.Panel
	params Params
}

// NewEngine wraps the shared panel with the given model parameters.
func NewEngine(p *panel.Panel, params Params) *Engine {
	if params.Estimators <= 0 {
		params = DefaultParams()
	}
	return &Engine{panel: p, params: params}
}

// Forecast predicts the next horizon closes for one symbol. startDate is an
// optional bias date: samples dated before it are down-weighted. horizon is
// clamped to [1, MaxHorizon]. Fails with market.ErrNotFound for unknown
// symbols and market.ErrInsufficientData when fewer than MinObservations
// rows remain after trimming to the trailing MaxHistory observations.
func (e *Engine) Forecast(symbol, startDate string, horizon int) ([]market.ForecastPoint, error) {
	bars, ok := e.panel.Series(symbol)
	if !ok || len(bars) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, market.ErrNotFound)
	}

	if horizon < 1 {
		horizon = 1
	}
	if horizon > e.params.MaxHorizon {
		horizon = e.params.MaxHorizon
	}

	if len(bars) > e.params.MaxHistory {
		bars = bars[len(bars)-e.params.MaxHistory:]
	}
	if len(bars) < e.params.MinObservations {
		return nil, fmt.Errorf("symbol %s has %d observations, need %d: %w",
			symbol, len(bars), e.params.MinObservations, market.ErrInsufficientData)
	}

	logPrice := make([]float64, len(bars))
	for i, b := range bars {
		logPrice[i] = math.Log(b.Close)
	}

	// One sample per index i in [lag, len-1): features are the 20 preceding
	// log prices, target is log price at i+1. The final known price is only
	// ever the terminal point of the live feature window, never a target.
	lag := e.params.Lag
	var (
		features    [][]float64
		targets     []float64
		sampleDates []time.Time
	)
	for i := lag; i < len(logPrice)-1; i++ {
		features = append(features, logPrice[i-lag:i:i])
		targets = append(targets, logPrice[i+1])
		sampleDates = append(sampleDates, bars[i].Date)
	}

	weights, _ := e.sampleWeights(sampleDates, startDate)

	start := time.Now()
	model := fitGBRT(features, targets, weights, gbrtParams{
		estimators:   e.params.Estimators,
		learningRate: e.params.LearningRate,
		maxDepth:     e.params.MaxDepth,
	})
	metrics.ForecastFitSeconds.Observe(time.Since(start).Seconds())

	window := append([]float64(nil), logPrice[len(logPrice)-lag:]...)
	lastDate := bars[len(bars)-1].Date

	points := make([]market.ForecastPoint, 0, horizon)
	for step := 1; step <= horizon; step++ {
		predLog := model.predict(window)
		points = append(points, market.ForecastPoint{
			// Raw calendar-day increments, not trading-day aware.
			Date:  lastDate.AddDate(0, 0, step).Format(panel.DateLayout),
			Close: math.Exp(predLog),
		})
		copy(window, window[1:])
		window[lag-1] = predLog
	}
	return points, nil
}

// sampleWeights returns the training weights and whether biasing applied.
// Samples dated on/after a parseable startDate keep weight 1.0 and older
// samples get StaleWeight; down-weighting only kicks in when at least one
// sample falls in the biased window. An absent or unparseable startDate
// falls back to uniform weights without surfacing an error.
func (e *Engine) sampleWeights(dates []time.Time, startDate string) ([]float64, bool) {
	weights := make([]float64, len(dates))
	for i := range weights {
		weights[i] = 1
	}

	cut, ok := parseBiasDate(startDate)
	if !ok {
		return weights, false
	}
	anyRecent := false
	for _, d := range dates {
		if !d.Before(cut) {
			anyRecent = true
			break
		}
	}
	if !anyRecent {
		return weights, false
	}
	for i, d := range dates {
		if d.Before(cut) {
			weights[i] = e.params.StaleWeight
		}
	}
	return weights, true
}

func parseBiasDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{panel.DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
