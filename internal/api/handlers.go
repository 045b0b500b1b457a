package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketpulse-go/internal/analytics"
	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

const defaultReportHorizonDays = 300

type stockReportRequest struct {
	Ticker      string `json:"ticker" binding:"required"`
	Persona     string `json:"persona"`
	HorizonDays int    `json:"horizon_days"`
}

func (s *Server) getTickers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.panel.Tickers()})
}

func (s *Server) getPrices(c *gin.Context) {
	symbol := c.Param("symbol")
	bars, ok := s.panel.Series(symbol)
	if !ok {
		s.renderError(c, "prices", market.ErrNotFound)
		return
	}
	points := make([]market.PricePoint, len(bars))
	for i, b := range bars {
		points[i] = market.PricePoint{
			Date:  b.Date.Format(panel.DateLayout),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		}
	}
	c.JSON(http.StatusOK, gin.H{"symbol": bars[0].Ticker, "points": points})
}

func (s *Server) getSnapshot(c *gin.Context) {
	snap, err := s.snapshots.Build(c.Param("symbol"))
	if err != nil {
		s.renderError(c, "snapshot", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getForecast(c *gin.Context) {
	symbol := c.Param("symbol")
	horizon := intQuery(c, "horizon", 7)
	points, err := s.forecaster.Forecast(symbol, c.Query("start_date"), horizon)
	if err != nil {
		s.renderError(c, "forecast", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": strings.ToUpper(strings.TrimSpace(symbol)), "points": points})
}

func (s *Server) getOverview(c *gin.Context) {
	overview, err := s.breadth.Overview()
	if err != nil {
		s.renderError(c, "overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) getMomentum(c *gin.Context) {
	lookback := intQuery(c, "lookback_days", analytics.DefaultLookbackDays)
	topN := intQuery(c, "top_n", analytics.DefaultTopN)
	c.JSON(http.StatusOK, s.momentum.Rank(lookback, topN))
}

func (s *Server) postStockReport(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report generation is not configured"})
		return
	}

	var req stockReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = defaultReportHorizonDays
	}

	snap, err := s.snapshots.Build(req.Ticker)
	if err != nil {
		s.renderError(c, "report", err)
		return
	}

	result, err := s.reports.Generate(c.Request.Context(), snap, req.Persona, req.HorizonDays)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", snap.Ticker).Msg("report generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "report generation failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// renderError maps the data-availability sentinels onto status codes; the
// message keeps the offending symbol so callers can identify it.
func (s *Server) renderError(c *gin.Context, endpoint string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrInsufficientData):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// intQuery parses an integer query parameter, quietly falling back to the
// default on absent or malformed values. Range clamping happens in the
// components themselves.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
