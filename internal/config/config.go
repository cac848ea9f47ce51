// Package config loads the bot configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anisearchapp/anisearch-bot/internal/validation"
)

// Defaults.
const (
	DefaultDatabaseURL   = "sqlite://anisearch.db"
	DefaultTraceMoeURL   = "https://api.trace.moe"
	DefaultImageMaxBytes = 10 << 20
	DefaultPollTimeout   = 60 * time.Second
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	TraceMoe TraceMoeConfig
	Health   HealthConfig
	Image    ImageConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
}

// TelegramConfig holds chat transport configuration.
type TelegramConfig struct {
	Token       string        `env:"BOT_TOKEN" validate:"required"`
	PollTimeout time.Duration `env:"POLL_TIMEOUT" validate:"gte=1s"`
}

// DatabaseConfig holds the user store connection string. The scheme picks
// the backend: postgres:// and postgresql:// select PostgreSQL, everything
// else is a SQLite path.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" validate:"required"`
}

// TraceMoeConfig holds search API configuration.
type TraceMoeConfig struct {
	BaseURL string `env:"TRACEMOE_URL" validate:"required,http_url"`
	APIKey  string `env:"TRACEMOE_API_KEY"` // Optional
}

// HealthConfig holds the health endpoint address. Empty disables it.
type HealthConfig struct {
	Addr string `env:"HEALTH_ADDR" validate:"omitempty,hostname_port"`
}

// ImageConfig holds image normalization limits.
type ImageConfig struct {
	MaxBytes int64 `env:"IMAGE_MAX_BYTES" validate:"gt=0"`
}

// LoadConfig loads configuration from os.Args with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig with explicit arguments.
func Load(args []string) (*Config, error) {
	fset := flag.NewFlagSet("anisearch-bot", flag.ContinueOnError)

	env := fset.String("env", "", "Environment (development, staging, production)")
	logLevel := fset.String("log-level", "", "Log level (debug, info, warn, error)")
	token := fset.String("token", "", "Telegram bot token")
	pollTimeout := fset.String("poll-timeout", "", "Long polling timeout (default: 60s)")
	databaseURL := fset.String("database-url", "", "User store URL (default: sqlite://anisearch.db)")
	traceMoeURL := fset.String("tracemoe-url", "", "Search API base URL")
	traceMoeKey := fset.String("tracemoe-key", "", "Search API key (optional)")
	healthAddr := fset.String("health-addr", "", "Health endpoint address, empty to disable")
	imageMaxBytes := fset.String("image-max-bytes", "", "Upload size ceiling in bytes (default: 10MiB)")
	envFile := fset.String("env-file", ".env", "Path to .env file")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv.Load never overrides variables that are already set, which
	// keeps env above .env in the precedence order.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
		Telegram: TelegramConfig{
			Token: getConfigValue(*token, "BOT_TOKEN", ""),
		},
		Database: DatabaseConfig{
			URL: getConfigValue(*databaseURL, "DATABASE_URL", DefaultDatabaseURL),
		},
		TraceMoe: TraceMoeConfig{
			BaseURL: strings.TrimRight(getConfigValue(*traceMoeURL, "TRACEMOE_URL", DefaultTraceMoeURL), "/"),
			APIKey:  getConfigValue(*traceMoeKey, "TRACEMOE_API_KEY", ""),
		},
		Health: HealthConfig{
			Addr: getConfigValue(*healthAddr, "HEALTH_ADDR", ""),
		},
	}

	var err error
	cfg.Telegram.PollTimeout, err = getDurationConfigValue(*pollTimeout, "POLL_TIMEOUT", DefaultPollTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Image.MaxBytes, err = getInt64ConfigValue(*imageMaxBytes, "IMAGE_MAX_BYTES", DefaultImageMaxBytes)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	return validation.New().Validate(c)
}

// IsPostgres reports whether the database URL selects the PostgreSQL backend.
func (c DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// SQLitePath returns the file path for the SQLite backend, stripping a
// sqlite:// or file: prefix.
func (c DatabaseConfig) SQLitePath() string {
	for _, prefix := range []string{"sqlite://", "sqlite3://", "file:"} {
		if rest, ok := strings.CutPrefix(c.URL, prefix); ok {
			return rest
		}
	}
	return c.URL
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}

func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) (int64, error) {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return n, nil
}
