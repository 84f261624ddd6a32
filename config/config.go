package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither a flag nor HREFLANGD_CONFIG names a file.
const DefaultPath = "./config.yaml"

// Config holds all application configuration.
type Config struct {
	GhostURL   string `yaml:"ghost_url"`
	ContentKey string `yaml:"content_key"`
	AdminKey   string `yaml:"admin_key"`

	SiteURL       string `yaml:"site_url"`
	AllowedOrigin string `yaml:"allowed_origin"`
	ListenAddr    string `yaml:"listen_addr"`

	DebounceSecs         int     `yaml:"debounce_secs"`
	BootstrapURL         string  `yaml:"bootstrap_url"`
	BootstrapTimeoutSecs int     `yaml:"bootstrap_timeout_secs"`
	FetchTimeoutSec      int     `yaml:"fetch_timeout_secs"`
	RetryBackoffSecs     int     `yaml:"retry_backoff_secs"`
	RelatedCount         int     `yaml:"related_count"`
	IncludeBody          bool    `yaml:"include_body"`
	CandidateLimit       int     `yaml:"candidate_limit"`
	PairThreshold        float64 `yaml:"pair_threshold"`
	AdminRatePerSec      float64 `yaml:"admin_rate_per_sec"`

	SweepSchedule         string `yaml:"sweep_schedule"`
	SweepLimit            int    `yaml:"sweep_limit"`
	SweepInitialDelaySecs int    `yaml:"sweep_initial_delay_secs"`
	Timezone              string `yaml:"timezone"`

	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		SiteURL:               "https://www.421.news",
		AllowedOrigin:         "https://www.421.news",
		ListenAddr:            ":10000",
		DebounceSecs:          10,
		BootstrapURL:          "https://www.421.news/assets/data/related-posts.json",
		BootstrapTimeoutSecs:  10,
		FetchTimeoutSec:       15,
		RetryBackoffSecs:      2,
		RelatedCount:          4,
		CandidateLimit:        50,
		PairThreshold:         0.3,
		AdminRatePerSec:       5,
		SweepSchedule:         "@every 30m",
		SweepLimit:            10,
		SweepInitialDelaySecs: 60,
		Timezone:              "UTC",
		DBPath:                "./hreflangd.db",
		LogLevel:              "info",
	}
}

// Load reads a YAML config file and returns a validated Config.
// HREFLANGD_CONFIG overrides path. GHOST_URL, GHOST_ADMIN_KEY,
// GHOST_CONTENT_KEY, PORT and HREFLANGD_DB override the file values.
// A missing file at DefaultPath is not an error so env-only deployments
// keep working.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("HREFLANGD_CONFIG"); envPath != "" {
		path = envPath
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GHOST_URL"); v != "" {
		c.GhostURL = v
	}
	if v := os.Getenv("GHOST_ADMIN_KEY"); v != "" {
		c.AdminKey = v
	}
	if v := os.Getenv("GHOST_CONTENT_KEY"); v != "" {
		c.ContentKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := os.Getenv("HREFLANGD_DB"); v != "" {
		c.DBPath = v
	}
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.GhostURL == "" {
		return fmt.Errorf("ghost_url is required")
	}
	if c.ContentKey == "" {
		return fmt.Errorf("content_key is required")
	}
	if c.AdminKey == "" {
		return fmt.Errorf("admin_key is required")
	}
	if id, secret, ok := strings.Cut(c.AdminKey, ":"); !ok || id == "" || secret == "" {
		return fmt.Errorf("admin_key must have the form id:secret")
	}

	if c.PairThreshold < 0 || c.PairThreshold > 1 {
		return fmt.Errorf("pair_threshold %v out of range [0,1]", c.PairThreshold)
	}
	if c.RelatedCount < 1 {
		return fmt.Errorf("related_count must be at least 1, got %d", c.RelatedCount)
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("candidate_limit must be at least 1, got %d", c.CandidateLimit)
	}
	if c.DebounceSecs < 0 {
		return fmt.Errorf("debounce_secs must not be negative, got %d", c.DebounceSecs)
	}
	if c.AdminRatePerSec <= 0 {
		return fmt.Errorf("admin_rate_per_sec must be positive, got %v", c.AdminRatePerSec)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("invalid sweep_schedule %q: %w", c.SweepSchedule, err)
	}

	return nil
}

// Debounce returns the recompute debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceSecs) * time.Second
}

// FetchTimeout returns the per-request timeout for Ghost API calls.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// BootstrapTimeout bounds the wait for the published snapshot at start-up.
func (c *Config) BootstrapTimeout() time.Duration {
	return time.Duration(c.BootstrapTimeoutSecs) * time.Second
}

// RetryBackoff is the fixed delay before the single bulk-fetch retry.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSecs) * time.Second
}
