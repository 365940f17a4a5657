// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken  string
	BackendURL     string
	BackendToken   string
	AllowedUserIDs []int64
	LogLevel       slog.Level
	HealthPort     string
	DBPath         string
	SessionTTL     time.Duration

	// Retry policy for backend calls.
	MaxRetries     int
	RetryDelay     time.Duration
	RetryBackoff   float64
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	allowed, err := parseAllowedUsers(os.Getenv("ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_USER_IDS: %w", err)
	}

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		BackendURL:     strings.TrimRight(os.Getenv("BACKEND_API_URL"), "/"),
		BackendToken:   os.Getenv("BACKEND_INTERNAL_TOKEN"),
		AllowedUserIDs: allowed,
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
		HealthPort:     getEnv("HEALTH_PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/bugbot.db"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("RETRY_DELAY", time.Second),
		RetryBackoff:   getEnvFloat("RETRY_BACKOFF", 2.0),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_API_URL is required")
	}
	if c.BackendToken == "" {
		return fmt.Errorf("BACKEND_INTERNAL_TOKEN is required")
	}
	if len(c.AllowedUserIDs) == 0 {
		return fmt.Errorf("ALLOWED_USER_IDS must contain at least one user ID")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("MAX_RETRIES must be > 0")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("RETRY_DELAY must be > 0")
	}
	if c.RetryBackoff < 1 {
		return fmt.Errorf("RETRY_BACKOFF must be >= 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	return nil
}

func parseAllowedUsers(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("user ID %q is not numeric", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go duration strings ("30s", "5m") and falls back
// to plain seconds for bare integers.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
