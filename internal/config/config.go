// Package config loads runtime settings from the environment and business
// rules from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"taxdesk/internal/fetch"
	"taxdesk/internal/logger"
)

type Config struct {
	// Storage
	DBPath string

	// RulesFile points at a YAML file overriding the built-in business rules
	RulesFile string

	// HTTP API
	HTTPAddr string

	// Upstream fetches
	FetchTimeout time.Duration
	FetchRetries uint64

	// Google Sheets export
	GoogleSheetURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string

	Rules Rules
}

// Load reads configuration from the environment. The caller is expected to
// have loaded any .env file beforehand.
func Load() (*Config, error) {
	timeout, err := getDuration("TAXDESK_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	retries, err := getUint("TAXDESK_FETCH_RETRIES", 2)
	if err != nil {
		return nil, err
	}

	config := &Config{
		DBPath:         getEnv("TAXDESK_DB_PATH", "./data/taxdesk.db"),
		RulesFile:      getEnv("TAXDESK_RULES_FILE", ""),
		HTTPAddr:       getEnv("TAXDESK_HTTP_ADDR", ":8080"),
		FetchTimeout:   timeout,
		FetchRetries:   retries,
		GoogleSheetURL: getEnv("GOOGLE_SHEET_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	config.Rules, err = LoadRules(config.RulesFile)
	if err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("TAXDESK_DB_PATH must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("TAXDESK_FETCH_TIMEOUT must be positive")
	}
	return c.Rules.Validate()
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// FetchPolicy returns the retry policy for upstream reads.
func (c *Config) FetchPolicy() fetch.Policy {
	p := fetch.DefaultPolicy()
	p.Timeout = c.FetchTimeout
	p.Retries = c.FetchRetries
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %s", key, value)
	}
	return d, nil
}

func getUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	return n, nil
}
