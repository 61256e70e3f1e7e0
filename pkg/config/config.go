// Package config loads runtime settings from the environment.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Command-line flags override individual fields after loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration.
type Config struct {
	// Generative image service
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"    envDefault:"gemini-2.5-flash-image"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`

	AITimeout       time.Duration `env:"PHOTOSTUDIO_AI_TIMEOUT"         envDefault:"120s"`
	AIRatePerMinute int           `env:"PHOTOSTUDIO_AI_RATE_PER_MINUTE" envDefault:"10"`

	// PresetsFile overrides the built-in preset catalog.
	PresetsFile string `env:"PHOTOSTUDIO_PRESETS"`

	// DataDir holds bitmaps and saved sessions. Defaults to the XDG data dir.
	DataDir string `env:"PHOTOSTUDIO_DATA_DIR"`

	// RedisURL switches session storage to Redis when set.
	RedisURL string `env:"PHOTOSTUDIO_REDIS_URL"`

	Listen string `env:"PHOTOSTUDIO_LISTEN" envDefault:":8080"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.AITimeout <= 0 {
		return fmt.Errorf("config: PHOTOSTUDIO_AI_TIMEOUT must be positive")
	}
	if c.AIRatePerMinute < 0 {
		return fmt.Errorf("config: PHOTOSTUDIO_AI_RATE_PER_MINUTE must not be negative")
	}
	return nil
}

// HasAI reports whether the generative image service is configured.
func (c *Config) HasAI() bool {
	return c.GeminiAPIKey != ""
}

// BitmapDir is where uploaded and generated bitmaps are stored.
func (c *Config) BitmapDir() string {
	return filepath.Join(c.DataDir, "bitmaps")
}

// SessionDir is where file-backed sessions are stored.
func (c *Config) SessionDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "photostudio")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "photostudio")
	}
	return filepath.Join(os.TempDir(), "photostudio")
}
