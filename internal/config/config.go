// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load to layer file and env on top.
// - Validation failures wrap ErrInvalidConfig, loading failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds pending leaderboard submissions. Values < 1 use the queue default.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers. Values < 1 pick a count from the CPU count.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds remembered submission IDs. Values < 1 disable eviction.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the leaderboard store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// DefaultLeaderboardLimit is used when GET /scores has no limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// MaxLeaderboardLimit caps GET /scores?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SubmitThreshold is the score a drawing must exceed to reach the leaderboard.
	SubmitThreshold float64 `koanf:"submit_threshold"`

	// RecomputeStride runs a live score every n-th appended sample.
	RecomputeStride int `koanf:"recompute_stride"`

	// LiveWarmUp is the number of samples before live scoring starts.
	LiveWarmUp int `koanf:"live_warmup"`

	// SessionTTLSeconds expires idle drawing sessions.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// MaxSessions caps concurrently open drawing sessions.
	MaxSessions int `koanf:"max_sessions"`

	// MaxSamples caps the points accepted in a single request.
	MaxSamples int `koanf:"max_samples"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:              50_000,
		StoreDriver:             StoreMemory,
		SQLitePath:              "data/scores.db",
		DefaultLeaderboardLimit: 5,
		MaxLeaderboardLimit:     100,
		SubmitThreshold:         70,
		RecomputeStride:         5,
		LiveWarmUp:              10,
		SessionTTLSeconds:       900,
		MaxSessions:             10_000,
		MaxSamples:              10_000,
	}
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return invalid("store_driver must be %q or %q, got %q", StoreMemory, StoreSQLite, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && c.SQLitePath == "":
		return invalid("sqlite_path must not be empty for the sqlite driver")
	case c.MaxLeaderboardLimit < 1:
		return invalid("max_leaderboard_limit must be >= 1")
	case c.DefaultLeaderboardLimit < 1 || c.DefaultLeaderboardLimit > c.MaxLeaderboardLimit:
		return invalid("default_leaderboard_limit must be within [1, %d]", c.MaxLeaderboardLimit)
	case c.SubmitThreshold < 0 || c.SubmitThreshold > 99:
		return invalid("submit_threshold must be within [0, 99]")
	case c.RecomputeStride < 1:
		return invalid("recompute_stride must be >= 1")
	case c.LiveWarmUp < 0:
		return invalid("live_warmup must be >= 0")
	case c.SessionTTLSeconds < 1:
		return invalid("session_ttl_seconds must be >= 1")
	case c.MaxSessions < 1:
		return invalid("max_sessions must be >= 1")
	case c.MaxSamples < 1:
		return invalid("max_samples must be >= 1")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
