package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketpulse-go/internal/config"
	"marketpulse-go/internal/ingest"
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

	apiKey := os.Getenv("ALPHAVANTAGE_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("ALPHAVANTAGE_API_KEY unset")
	}

	tickers, err := ingest.ReadTickers(cfg.Data.TickersPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load tickers")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := ingest.NewClient(log, cfg.Ingest.BaseURL, apiKey)
	store := ingest.NewStore(cfg.Data.PricesPath)
	updater := ingest.NewUpdater(log, client, store, cfg.Ingest.InitialYears,
		time.Duration(cfg.Ingest.PauseMs)*time.Millisecond)

	if err := updater.Run(ctx, tickers); err != nil {
		log.Fatal().Err(err).Msg("ingest run failed")
	}
	log.Info().Msg("ingest complete")
}
