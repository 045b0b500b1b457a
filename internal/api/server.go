// Package api maps engine operations onto HTTP routes. It is a thin
// request/response layer: parameter parsing and error translation live
// here, all computation stays in the analytics and forecast packages.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketpulse-go/internal/analytics"
	"marketpulse-go/internal/forecast"
	"marketpulse-go/internal/metrics"
	"marketpulse-go/internal/panel"
	"marketpulse-go/internal/report"
)

// Server bundles the engine components behind the HTTP routes.
type Server struct {
	log        zerolog.Logger
	panel      *panel.Panel
	snapshots  *analytics.SnapshotBuilder
	breadth    *analytics.BreadthAnalyzer
	momentum   *analytics.MomentumRanker
	forecaster *forecast.Engine
	reports    *report.Generator
}

// NewServer wires the shared panel into every component. reports may be nil
// when no text-generation backend is configured; the report route then
// answers 503.
func NewServer(log zerolog.Logger, p *panel.Panel, params forecast.Params, reports *report.Generator) *Server {
	return &Server{
		log:        log,
		panel:      p,
		snapshots:  analytics.NewSnapshotBuilder(p),
		breadth:    analytics.NewBreadthAnalyzer(p),
		momentum:   analytics.NewMomentumRanker(p),
		forecaster: forecast.NewEngine(p, params),
		reports:    reports,
	}
}

// Router builds the gin engine with CORS and the metrics middleware.
func (s *Server) Router(origins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.Use(func(c *gin.Context) {
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	})

	engine.GET("/tickers", s.getTickers)
	engine.GET("/prices/:symbol", s.getPrices)
	engine.GET("/snapshot/:symbol", s.getSnapshot)
	engine.GET("/forecast/:symbol", s.getForecast)
	engine.GET("/trends/overview", s.getOverview)
	engine.GET("/trends/momentum", s.getMomentum)
	engine.POST("/reports/stock", s.postStockReport)

	return engine
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
func (s *Server) HTTPServer(addr string, origins []string) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        s.Router(origins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
}
