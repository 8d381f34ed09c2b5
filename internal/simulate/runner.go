package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/perfectcircle/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

func (c *Config) withDefaults() {
	if c.Gestures < 1 {
		c.Gestures = DefaultGestures
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Jitter < 0 {
		c.Jitter = DefaultJitter
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.Limit < 1 {
		c.Limit = DefaultLimit
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
}

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg.withDefaults()
	stats := &Stats{StartTime: time.Now(), ByKind: make(map[Kind]int)}
	log := logger.Get()

	seed := seedOrClock(cfg.Seed)
	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("gestures", cfg.Gestures),
		logger.Int("workers", cfg.Workers),
		logger.Float64("jitter", cfg.Jitter),
		logger.Any("seed", seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gestures, err := NewGenerator(seed, cfg.Width, cfg.Jitter).Generate(ctx, cfg.Gestures, stats)
	if err != nil {
		return stats, fmt.Errorf("gesture generation failed: %w", err)
	}

	scored := scoreAll(ctx, cfg, client, gestures, stats)
	accepted := submitAll(ctx, cfg, client, scored, stats)

	entries, err := settle(ctx, cfg, client, len(accepted))
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)

	if err := Verify(entries, accepted, cfg.Threshold, cfg.Limit); err != nil {
		return stats, err
	}

	if cfg.OutputFile != "" {
		if err := saveScored(cfg.OutputFile, scored); err != nil {
			log.Warn(ctx, "failed to save gestures", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, entries)
	return stats, nil
}

// settle polls the leaderboard until it holds min(expected, limit) entries or
// cfg.Settle elapses, then returns the last read.
func settle(ctx context.Context, cfg *Config, c *Client, expected int) ([]Entry, error) {
	want := min(expected, cfg.Limit)
	deadline := time.Now().Add(cfg.Settle)
	for {
		entries, err := c.Top(ctx, cfg.Limit)
		if err != nil {
			return nil, err
		}
		if len(entries) >= want || time.Now().After(deadline) {
			return entries, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

// saveScored writes the scored gestures to filename as JSON.
func saveScored(filename string, scored []Scored) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(scored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal gestures: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the final run statistics and the top entries.
func displayFinalStats(ctx context.Context, stats *Stats, entries []Entry) {
	var eligibleRate, perSecond float64
	if stats.Scored > 0 {
		eligibleRate = float64(stats.Eligible) / float64(stats.Scored) * percent
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Scored+stats.Submitted) / stats.Duration.Seconds()
	}

	log := logger.Get()
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("scored", stats.Scored),
		logger.Int("scoreFailed", stats.ScoreFailed),
		logger.Int("eligible", stats.Eligible),
		logger.Int("submitted", stats.Submitted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("submitFailed", stats.SubmitFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eligibleRate", eligibleRate),
		logger.Float64("requestsPerSecond", perSecond),
	)
	for _, e := range entries[:min(len(entries), 10)] {
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("name", e.Name),
			logger.Float64("score", e.Score),
		)
	}
}
