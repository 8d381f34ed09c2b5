package worker

import (
	"github.com/okian/perfectcircle/pkg/logger"
)

// Option applies a configuration option to a worker or a pool.
type Option func(*settings)

type settings struct {
	name      string
	logger    logger.Logger
	scorer    Scorer
	threshold float64
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer replaces the scoring function used to re-score submitted paths.
func WithScorer(sc Scorer) Option {
	return func(s *settings) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithThreshold sets the score a submission must exceed to be stored.
func WithThreshold(v float64) Option {
	return func(s *settings) {
		if v >= 0 {
			s.threshold = v
		}
	}
}
