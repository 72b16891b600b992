package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultCategories are the item categories tracked when none are configured.
var DefaultCategories = []string{
	"engine",
	"transmission",
	"suspension",
	"brakes",
	"tires",
	"exhaust",
	"turbo",
	"body",
	"interior",
	"electronics",
}

// Config holds simulator settings. Persistence of market state is handled
// by the internal/db package.
type Config struct {
	Categories       []string      `envconfig:"CATEGORIES"`
	TickInterval     time.Duration `envconfig:"TICK_INTERVAL"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL"`
	HistoryLimit     int           `envconfig:"HISTORY_LIMIT"`
	Seed             int64         `envconfig:"SEED"` // 0 = seed from wall clock
	DBPath           string        `envconfig:"DB_PATH"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	cats := make([]string, len(DefaultCategories))
	copy(cats, DefaultCategories)
	return &Config{
		Categories:       cats,
		TickInterval:     time.Hour,
		SnapshotInterval: 5 * time.Minute,
		HistoryLimit:     30,
		DBPath:           "marketsim.db",
		LogLevel:         "info",
	}
}

// Load returns Default() overlaid with MARKET_* environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := envconfig.Process("market", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("config: at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat == "" {
			return fmt.Errorf("config: empty category name")
		}
		if seen[cat] {
			return fmt.Errorf("config: duplicate category %q", cat)
		}
		seen[cat] = true
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive, got %s", c.TickInterval)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("config: snapshot interval must be positive, got %s", c.SnapshotInterval)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("config: history limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}
