package repository

import "time"

// settings holds the options shared by every Store implementation.
type settings struct {
	metricsUpdateInterval time.Duration
	busyTimeout           time.Duration
}

func defaultSettings() settings {
	return settings{
		metricsUpdateInterval: 5 * time.Second,
		busyTimeout:           5 * time.Second,
	}
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
