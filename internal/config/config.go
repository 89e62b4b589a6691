// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting cmd/server reads at startup.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"dev"`

	// TemplatesDir holds extra .cue/.yaml templates registered after the
	// built-ins. Empty means none.
	TemplatesDir string `env:"TEMPLATES_DIR"`
	CloneStrict  bool   `env:"CLONE_STRICT" envDefault:"false"`
	ExportedBy   string `env:"EXPORTED_BY" envDefault:"tabforge"`

	// ActivityDBPath is the SQLite file for the activity trail. Empty keeps
	// the trail in memory.
	ActivityDBPath string `env:"ACTIVITY_DB_PATH"`

	// RedisAddr enables Redis-backed drafts. Empty keeps drafts in memory.
	RedisAddr string        `env:"REDIS_ADDR"`
	DraftTTL  time.Duration `env:"DRAFT_TTL" envDefault:"720h"`

	EventBuffer int `env:"EVENT_BUFFER" envDefault:"256"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EventBuffer <= 0 {
		return Config{}, fmt.Errorf("EVENT_BUFFER must be positive, got %d", cfg.EventBuffer)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
