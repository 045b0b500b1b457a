package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketpulse-go/internal/api"
	"marketpulse-go/internal/config"
	"marketpulse-go/internal/forecast"
	"marketpulse-go/internal/metrics"
	"marketpulse-go/internal/panel"
	"marketpulse-go/internal/report"
	"marketpulse-go/internal/util"
)

func main() {
	log := util.NewLogger("info")

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded")
	}

	cfg, err := config.Load(util.Env("MARKETPULSE_CONFIG", "internal/config/config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	pnl, err := panel.LoadCSV(cfg.Data.PricesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.PricesPath).Msg("load price panel")
	}
	log.Info().Int("rows", pnl.Len()).Int("tickers", len(pnl.Tickers())).Msg("price panel loaded")

	params := forecast.Params{
		Estimators:      cfg.Forecast.Estimators,
		LearningRate:    cfg.Forecast.LearningRate,
		MaxDepth:        cfg.Forecast.MaxDepth,
		Lag:             cfg.Forecast.Lag,
		MaxHistory:      cfg.Forecast.MaxHistory,
		MinObservations: cfg.Forecast.MinObservations,
		StaleWeight:     cfg.Forecast.StaleWeight,
		MaxHorizon:      cfg.Forecast.MaxHorizon,
	}

	var reports *report.Generator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		reports = report.NewGenerator(log, report.Options{
			BaseURL:   cfg.Report.BaseURL,
			APIKey:    apiKey,
			Model:     cfg.Report.Model,
			MaxTokens: cfg.Report.MaxTokens,
			Timeout:   time.Duration(cfg.Report.TimeoutMs) * time.Millisecond,
		})
	} else {
		log.Warn().Msg("OPENAI_API_KEY unset, report endpoint disabled")
	}

	server := api.NewServer(log, pnl, params, reports)
	httpServer := server.HTTPServer(cfg.App.ListenAddr, cfg.App.CORSOrigins)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info().Str("addr", cfg.App.ListenAddr).Msg("api up")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("api server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api shutdown")
	}
}
