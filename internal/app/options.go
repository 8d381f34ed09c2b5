package service

import (
	"time"

	"github.com/okian/perfectcircle/internal/adapters/repository"
	"github.com/okian/perfectcircle/internal/config"
	"github.com/okian/perfectcircle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of submission workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of remembered submission IDs.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreDriver selects the leaderboard store opened by Start.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		s.storeDriver = driver
		s.sqlitePath = path
	}
}

// WithStore uses an already opened store. Stop closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSubmitThreshold sets the score a drawing must exceed to be stored.
func WithSubmitThreshold(v float64) Option {
	return func(s *Service) {
		if v >= 0 {
			s.threshold = v
		}
	}
}

// WithRecomputeStride sets how often live scores are computed while drawing.
func WithRecomputeStride(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.stride = n
		}
	}
}

// WithLiveWarmUp sets how many samples are collected before live scoring starts.
func WithLiveWarmUp(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.warmUp = n
		}
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxSamples caps the samples of a single path.
func WithMaxSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSamples = n
		}
	}
}

// WithLeaderboardLimits sets the default and the maximum leaderboard size.
func WithLeaderboardLimits(def, maxLimit int) Option {
	return func(s *Service) {
		if def > 0 && maxLimit >= def {
			s.defaultLimit = def
			s.maxLimit = maxLimit
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// FromConfig maps loaded configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithStoreDriver(cfg.StoreDriver, cfg.SQLitePath),
		WithSubmitThreshold(cfg.SubmitThreshold),
		WithRecomputeStride(cfg.RecomputeStride),
		WithLiveWarmUp(cfg.LiveWarmUp),
		WithSessionTTL(cfg.SessionTTL()),
		WithMaxSessions(cfg.MaxSessions),
		WithMaxSamples(cfg.MaxSamples),
		WithLeaderboardLimits(cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit),
	}
}
