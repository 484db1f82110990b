// Package config handles configuration loading for jsdabond.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "JSDABOND"

// Config represents the complete application configuration.
type Config struct {
	JSDA     JSDAConfig     `mapstructure:"jsda"     yaml:"jsda" json:"jsda"`
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar" json:"calendar"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache" json:"cache"`
	History  HistoryConfig  `mapstructure:"history"  yaml:"history" json:"history"`
	Chart    ChartConfig    `mapstructure:"chart"    yaml:"chart" json:"chart"`
	API      APIConfig      `mapstructure:"api"      yaml:"api" json:"api"`
	Notices  NoticesConfig  `mapstructure:"notices"  yaml:"notices" json:"notices"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging" json:"logging"`

	// Source is the config file that was read, empty when running on defaults.
	Source string `mapstructure:"-" yaml:"-" json:"source,omitempty"`
}

// JSDAConfig holds settings for the JSDA reference price download.
type JSDAConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	RateLimit  int    `mapstructure:"rate_limit"  yaml:"rate_limit" json:"rate_limit"` // requests per second
	MinDate    string `mapstructure:"min_date"    yaml:"min_date" json:"min_date"`   // YYYY-MM-DD
	MinColumns int    `mapstructure:"min_columns" yaml:"min_columns" json:"min_columns"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent" json:"user_agent"`
}

// Timeout returns the configured HTTP timeout.
func (c JSDAConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// CalendarConfig controls the business-day calendar.
type CalendarConfig struct {
	SourceURL     string `mapstructure:"source_url"     yaml:"source_url" json:"source_url"`
	FetchHolidays bool   `mapstructure:"fetch_holidays" yaml:"fetch_holidays" json:"fetch_holidays"`
}

// CacheConfig holds in-memory cache settings.
type CacheConfig struct {
	TTL int `mapstructure:"ttl" yaml:"ttl" json:"ttl"` // seconds
}

// HistoryConfig bounds multi-date loads.
type HistoryConfig struct {
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches" json:"concurrent_fetches"`
	MaxDays           int `mapstructure:"max_days"           yaml:"max_days" json:"max_days"`
	MaxLookback       int `mapstructure:"max_lookback"       yaml:"max_lookback" json:"max_lookback"` // business days searched by "latest"
}

// ChartConfig holds SVG chart dimensions.
type ChartConfig struct {
	Width  int `mapstructure:"width"  yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host" json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
	TimeoutSec  int      `mapstructure:"timeout_sec"  yaml:"timeout_sec" json:"timeout_sec"`
}

// NoticesConfig configures the optional announcements feed.
type NoticesConfig struct {
	FeedURL string `mapstructure:"feed_url" yaml:"feed_url" json:"feed_url"` // empty disables notices
	Limit   int    `mapstructure:"limit"    yaml:"limit" json:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level" json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.jsdabond/config.yaml (home directory)
//  3. /etc/jsdabond/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: JSDABOND_<SECTION>_<KEY>, e.g., JSDABOND_JSDA_TIMEOUT_SEC
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".jsdabond"))
	v.AddConfigPath("/etc/jsdabond")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Source = v.ConfigFileUsed()
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.JSDA.BaseURL == "" {
		return fmt.Errorf("config: jsda.base_url must not be empty")
	}
	if _, err := time.Parse("2006-01-02", c.JSDA.MinDate); err != nil {
		return fmt.Errorf("config: jsda.min_date %q: %w", c.JSDA.MinDate, err)
	}
	if c.JSDA.MinColumns < 1 {
		return fmt.Errorf("config: jsda.min_columns must be positive, got %d", c.JSDA.MinColumns)
	}
	if c.History.ConcurrentFetches < 1 {
		return fmt.Errorf("config: history.concurrent_fetches must be positive, got %d", c.History.ConcurrentFetches)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// JSDA defaults
	v.SetDefault("jsda.base_url", "https://market.jsda.or.jp/shijyo/saiken/baibai/baisanchi/files")
	v.SetDefault("jsda.timeout_sec", 30)
	v.SetDefault("jsda.rate_limit", 2)
	v.SetDefault("jsda.min_date", "2000-01-01")
	v.SetDefault("jsda.min_columns", 5)
	v.SetDefault("jsda.user_agent", "jsdabond/1.0")

	// Calendar defaults
	v.SetDefault("calendar.source_url", "https://www8.cao.go.jp/chosei/shukujitsu/syukujitsu.csv")
	v.SetDefault("calendar.fetch_holidays", false)

	v.SetDefault("cache.ttl", 900) // 15 minutes

	// History defaults
	v.SetDefault("history.concurrent_fetches", 4)
	v.SetDefault("history.max_days", 92)
	v.SetDefault("history.max_lookback", 10)

	v.SetDefault("chart.width", 800)
	v.SetDefault("chart.height", 400)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:8080"})
	v.SetDefault("api.timeout_sec", 60)

	v.SetDefault("notices.feed_url", "")
	v.SetDefault("notices.limit", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// loadDotEnv loads ./.env into the process environment without
// overriding variables that are already set.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
