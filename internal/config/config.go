// Package config loads server settings from the environment, reading a
// .env file first when one exists.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds everything the server reads at startup
type Config struct {
	HTTPPort    string
	LogLevel    slog.Level
	StorageType string
	DatabaseURL string
	RedisURL    string

	SweepInterval       time.Duration
	QueueTimeout        time.Duration
	InactivityThreshold time.Duration
	RoomTTL             time.Duration
	SessionTTL          time.Duration
	OnlineWindow        time.Duration

	MaintenanceToken   string
	CORSAllowedOrigins []string
	RoomCodeHashCost   int
}

// Load reads .env (if present) and the environment. envFiles overrides the
// default .env lookup.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine; the environment alone is enough
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		StorageType:        strings.ToLower(getEnv("STORAGE_TYPE", StorageMemory)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		MaintenanceToken:   getEnv("MAINTENANCE_TOKEN", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dest     *time.Duration
	}{
		{"SWEEP_INTERVAL", time.Minute, &cfg.SweepInterval},
		{"QUEUE_TIMEOUT", 5 * time.Minute, &cfg.QueueTimeout},
		{"INACTIVITY_THRESHOLD", 10 * time.Minute, &cfg.InactivityThreshold},
		{"ROOM_TTL", 10 * time.Minute, &cfg.RoomTTL},
		{"SESSION_TTL", 24 * time.Hour, &cfg.SessionTTL},
		{"ONLINE_WINDOW", 5 * time.Minute, &cfg.OnlineWindow},
	}
	for _, d := range durations {
		if *d.dest, err = getDuration(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	if cfg.RoomCodeHashCost, err = getInt("ROOM_CODE_HASH_COST", 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_TYPE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageMemory, StoragePostgres)
	}
	if c.QueueTimeout <= 0 || c.InactivityThreshold <= 0 || c.RoomTTL <= 0 || c.SessionTTL <= 0 || c.OnlineWindow <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// LogAttrs returns the non-secret settings for a startup log line
func (c *Config) LogAttrs() []any {
	return []any{
		slog.String("http_port", c.HTTPPort),
		slog.String("storage_type", c.StorageType),
		slog.Bool("redis", c.RedisURL != ""),
		slog.Duration("sweep_interval", c.SweepInterval),
		slog.Duration("queue_timeout", c.QueueTimeout),
		slog.Duration("inactivity_threshold", c.InactivityThreshold),
		slog.Duration("room_ttl", c.RoomTTL),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
