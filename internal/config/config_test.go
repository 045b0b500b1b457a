package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "marketpulse-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.ListenAddr != ":8080" {
		t.Fatalf("unexpected App.ListenAddr: %s", cfg.App.ListenAddr)
	}
	if len(cfg.App.CORSOrigins) != 1 || cfg.App.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected CORS origins: %+v", cfg.App.CORSOrigins)
	}
	if cfg.Data.PricesPath != "data/sp500_prices.csv" {
		t.Fatalf("unexpected Data.PricesPath: %s", cfg.Data.PricesPath)
	}
	if cfg.Forecast.Estimators != 300 {
		t.Fatalf("unexpected Forecast.Estimators: %d", cfg.Forecast.Estimators)
	}
	if cfg.Forecast.LearningRate != 0.05 {
		t.Fatalf("unexpected Forecast.LearningRate: %.3f", cfg.Forecast.LearningRate)
	}
	if cfg.Forecast.MaxDepth != 3 {
		t.Fatalf("unexpected Forecast.MaxDepth: %d", cfg.Forecast.MaxDepth)
	}
	if cfg.Forecast.StaleWeight != 0.3 {
		t.Fatalf("unexpected Forecast.StaleWeight: %.2f", cfg.Forecast.StaleWeight)
	}
	if cfg.Report.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected Report.Model: %s", cfg.Report.Model)
	}
	if cfg.Report.MaxTokens != 1200 {
		t.Fatalf("unexpected Report.MaxTokens: %d", cfg.Report.MaxTokens)
	}
	if cfg.Ingest.BaseURL != "https://www.alphavantage.co" {
		t.Fatalf("unexpected Ingest.BaseURL: %s", cfg.Ingest.BaseURL)
	}
	if cfg.Ingest.InitialYears != 10 {
		t.Fatalf("unexpected Ingest.InitialYears: %d", cfg.Ingest.InitialYears)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
