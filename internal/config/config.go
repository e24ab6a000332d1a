// Package config loads runtime settings from the environment and an optional .env file
package config

import (
	"fmt"
	"time"

	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// RatesConfig controls the rate provider chain
type RatesConfig struct {
	Sources         []string      `envconfig:"SOURCES" default:"https://api.exchangerate-api.com/v4/latest/USD,https://open.er-api.com/v6/latest/USD,https://api.frankfurter.app/latest?from=USD"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"3"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"5m"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"1m"`
	CacheSizeBytes  int           `envconfig:"CACHE_SIZE" default:"1048576"`
}

// Config is the full application configuration
type Config struct {
	Port     int         `envconfig:"PORT" default:"8080"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"INFO"`
	DataDir  string      `envconfig:"DATA_DIR" default:"./data"`
	Rates    RatesConfig `envconfig:"RATES"`
}

// Prefix namespaces every variable, e.g. CONVERTER_RATES_SOURCES
const Prefix = "CONVERTER"

// Load reads an optional .env file and then the process environment
func Load(log logger.Logger, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug("No .env file loaded, using process environment", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("Configuration loaded", map[string]interface{}{
		"port":             cfg.Port,
		"log_level":        cfg.LogLevel,
		"data_dir":         cfg.DataDir,
		"rate_sources":     len(cfg.Rates.Sources),
		"http_timeout":     cfg.Rates.HTTPTimeout.String(),
		"refresh_interval": cfg.Rates.RefreshInterval.String(),
		"cache_ttl":        cfg.Rates.CacheTTL.String(),
	})

	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Rates.HTTPTimeout <= 0 {
		return fmt.Errorf("rates http timeout must be positive")
	}
	if c.Rates.MaxRetries < 1 {
		return fmt.Errorf("rates max retries must be at least 1")
	}
	if c.Rates.CacheSizeBytes < 512*1024 {
		// freecache refuses anything smaller
		return fmt.Errorf("rates cache size must be at least 524288 bytes")
	}
	return nil
}
