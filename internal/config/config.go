// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration
type Config struct {
	Host     string `env:"HOST" envDefault:""`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StorageType selects the durable store: memory, redis or sqlite
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"boardblitz.db"`

	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`

	// Abandonment thresholds
	ClaimAfter    time.Duration `env:"CLAIM_AFTER" envDefault:"1m"`
	ForfeitAfter  time.Duration `env:"FORFEIT_AFTER" envDefault:"3m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15s"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.StorageType != "memory" && cfg.StorageType != "redis" && cfg.StorageType != "sqlite" {
		return nil, fmt.Errorf("STORAGE_TYPE must be memory, redis or sqlite, got %q", cfg.StorageType)
	}
	if cfg.StorageType == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when STORAGE_TYPE=redis")
	}
	if cfg.ClaimAfter > cfg.ForfeitAfter {
		return nil, fmt.Errorf("CLAIM_AFTER (%s) must not exceed FORFEIT_AFTER (%s)", cfg.ClaimAfter, cfg.ForfeitAfter)
	}

	return &cfg, nil
}

// SlogLevel maps the configured log level onto slog
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
