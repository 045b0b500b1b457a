// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string   `yaml:"name"`
	Env         string   `yaml:"env"`
	ListenAddr  string   `yaml:"listen_addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Data locates the on-disk price history the panel is built from.
type Data struct {
	PricesPath  string `yaml:"prices_path"`
	TickersPath string `yaml:"tickers_path"`
}

// Forecast groups the model knobs for the per-request forecaster.
type Forecast struct {
	Estimators      int     `yaml:"estimators"`
	LearningRate    float64 `yaml:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth"`
	Lag             int     `yaml:"lag"`
	MaxHistory      int     `yaml:"max_history"`
	MinObservations int     `yaml:"min_observations"`
	StaleWeight     float64 `yaml:"stale_weight"`
	MaxHorizon      int     `yaml:"max_horizon"`
}

// Report configures the outbound text-generation call behind stock reports.
// The API key is taken from the environment, never from this file.
type Report struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Ingest configures the daily price download job.
type Ingest struct {
	BaseURL      string `yaml:"base_url"`
	InitialYears int    `yaml:"initial_years"`
	PauseMs      int    `yaml:"pause_ms"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Data     Data     `yaml:"data"`
	Forecast Forecast `yaml:"forecast"`
	Report   Report   `yaml:"report"`
	Ingest   Ingest   `yaml:"ingest"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
