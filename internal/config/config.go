// Package config loads gateway settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds the settings of the local gateway.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
	// DatabaseDSN enables the postgres invocation log when set.
	DatabaseDSN string
	// RedisAddr enables the result cache when set.
	RedisAddr string
	ResultTTL time.Duration
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through lookup, which returns "" for unset keys.
func LoadFrom(lookup func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if value := strings.TrimSpace(lookup(key)); value != "" {
			return value
		}
		return fallback
	}

	cfg := &Config{
		HTTPAddr:    get("HTTP_ADDR", ":8080"),
		LogLevel:    get("LOG_LEVEL", "info"),
		DatabaseDSN: get("DATABASE_DSN", ""),
		RedisAddr:   get("REDIS_ADDR", ""),
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", get("SHUTDOWN_TIMEOUT", "15s")); err != nil {
		return nil, err
	}
	if cfg.ResultTTL, err = parseDuration("RESULT_TTL", get("RESULT_TTL", "5m")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, value)
	}
	return d, nil
}
