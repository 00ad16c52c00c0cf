package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken    string `yaml:"telegram_token"`
	ChatID           int64  `yaml:"chat_id"`
	Storage          string `yaml:"storage"`
	DBPath           string `yaml:"db_path"`
	SeedDir          string `yaml:"seed_dir"`
	KeepSeedDates    bool   `yaml:"keep_seed_dates"`
	FakePosts        int    `yaml:"fake_posts"`
	FakeSeed         int64  `yaml:"fake_seed"`
	PageSize         int    `yaml:"page_size"`
	LatencyMS        int    `yaml:"latency_ms"`
	Timezone         string `yaml:"timezone"`
	DigestTime       string `yaml:"digest_time"`
	DigestCount      int    `yaml:"digest_count"`
	TrendingRefresh  string `yaml:"trending_refresh"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs"`
	LinkPreviews     bool   `yaml:"link_previews"`
	MetricsAddr      string `yaml:"metrics_addr"`
	LogLevel         string `yaml:"log_level"`
}

// digestTimeRegex validates HH:MM format with proper ranges.
var digestTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("THREADHUB_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

// Latency returns the simulated per-operation delay.
func (c *Config) Latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

// FetchTimeout returns the link preview timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return logLevels[c.LogLevel]
}

func applyDefaults(cfg *Config) {
	if cfg.Storage == "" {
		cfg.Storage = StorageMemory
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./threadhub.db"
	}
	if cfg.FakeSeed == 0 {
		cfg.FakeSeed = 1
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 10
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}
	if cfg.DigestCount == 0 {
		cfg.DigestCount = 5
	}
	if cfg.TrendingRefresh == "" {
		cfg.TrendingRefresh = "@every 15m"
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if token := os.Getenv("THREADHUB_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if dbPath := os.Getenv("THREADHUB_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr := os.Getenv("THREADHUB_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
}

func validate(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("telegram_token is required")
	}
	if cfg.Storage != StorageMemory && cfg.Storage != StorageSQLite {
		return fmt.Errorf("storage must be %q or %q, got %q", StorageMemory, StorageSQLite, cfg.Storage)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	if cfg.LatencyMS < 0 {
		return fmt.Errorf("latency_ms must not be negative, got %d", cfg.LatencyMS)
	}
	if cfg.FakePosts < 0 {
		return fmt.Errorf("fake_posts must not be negative, got %d", cfg.FakePosts)
	}
	if cfg.DigestCount < 1 || cfg.DigestCount > 50 {
		return fmt.Errorf("digest_count must be between 1 and 50, got %d", cfg.DigestCount)
	}
	if cfg.FetchTimeoutSecs < 0 {
		return fmt.Errorf("fetch_timeout_secs must not be negative, got %d", cfg.FetchTimeoutSecs)
	}
	if !digestTimeRegex.MatchString(cfg.DigestTime) {
		return fmt.Errorf("digest_time must be in HH:MM format (00:00-23:59), got %q", cfg.DigestTime)
	}
	if _, err := cron.ParseStandard(cfg.TrendingRefresh); err != nil {
		return fmt.Errorf("invalid trending_refresh %q: %w", cfg.TrendingRefresh, err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	return nil
}
