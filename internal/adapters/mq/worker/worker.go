// Package worker drains the submission queue into the leaderboard store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/perfectcircle/internal/adapters/repository"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/model"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/session"
	"github.com/okian/perfectcircle/pkg/logger"
	"github.com/okian/perfectcircle/pkg/metrics"
)

// ErrUndrained is returned by Pool.Shutdown when workers stopped with
// submissions still queued.
var ErrUndrained = errors.New("queue not drained")

// defaultWorkerMultiplier scales runtime.NumCPU() when no worker count is given.
const defaultWorkerMultiplier = 2

// Submission is what workers read off the queue.
type Submission = model.Submission

// Inserter stores accepted scores.
type Inserter interface {
	Insert(ctx context.Context, rec repository.Record) error
}

// Scorer computes the authoritative score of a submitted path.
type Scorer interface {
	Score(path geometry.Path, frame geometry.Frame) scoring.Result
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(path geometry.Path, frame geometry.Frame) scoring.Result

// Score calls f.
func (f ScorerFunc) Score(path geometry.Path, frame geometry.Frame) scoring.Result {
	return f(path, frame)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue() <-chan Submission
}

func defaults() settings {
	return settings{
		name:      "worker",
		scorer:    ScorerFunc(scoring.Score),
		threshold: session.DefaultSubmitThreshold,
	}
}

// InMemoryWorker processes submissions one at a time.
type InMemoryWorker struct {
	queue  Queue
	store  Inserter
	cfg    settings
	logger logger.Logger
	active *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, store Inserter, opts ...Option) *InMemoryWorker {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named(cfg.name)
	}
	return &InMemoryWorker{
		queue:    q,
		store:    store,
		cfg:      cfg,
		logger:   cfg.logger,
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run processes submissions until the queue is closed and drained, ctx is
// done, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
			metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		}
	}
}

// Shutdown stops the worker after the submission in hand and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() {
		close(w.shutdown)
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process re-scores a submission when it carries a path, drops it when it
// does not beat the threshold, and stores it otherwise.
func (w *InMemoryWorker) process(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	score := s.Score
	if s.HasPath() {
		scoreStart := time.Now()
		res := w.cfg.scorer.Score(s.Path, geometry.NewFrame(s.Width))
		metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
		if !res.Valid {
			metrics.RecordSubmission("dropped")
			w.logger.Debug(ctx, "dropping invalid path", logger.String("submission_id", s.ID))
			return nil
		}
		score = res.Value
	}

	if score <= w.cfg.threshold || score > scoring.MaxScore {
		metrics.RecordSubmission("dropped")
		w.logger.Debug(ctx, "dropping ineligible score",
			logger.String("submission_id", s.ID),
			logger.Float64("score", score),
		)
		return nil
	}

	err := w.store.Insert(ctx, repository.Record{
		ID:          s.ID,
		Name:        s.Name,
		Score:       score,
		SubmittedAt: s.SubmittedAt,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.RecordSubmission("duplicate")
		return nil
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "insert_error")
		return fmt.Errorf("insert submission %s: %w", s.ID, err)
	}
	metrics.RecordSubmission("stored")
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	wg      sync.WaitGroup
}

// NewPool creates a new worker pool. workerCount < 1 picks a count from the CPU count.
func NewPool(workerCount int, q Queue, store Inserter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	base := cfg.logger
	if base == nil {
		base = logger.Get()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  base.Named("worker-pool"),
	}
	active := new(atomic.Int64)
	for i := range p.workers {
		name := "worker-" + strconv.Itoa(i)
		wopts := append(append([]Option{}, opts...), WithName(name), WithLogger(base.Named(name)))
		w := NewInMemoryWorker(q, store, wopts...)
		w.active = active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and lets workers drain it. When ctx expires
// first, workers are stopped after their current submission.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		if l, ok := p.queue.(interface{ Len() int }); ok && l.Len() > 0 {
			p.logger.Warn(ctx, "workers exited before queue drained", logger.Int("pending", l.Len()))
			return fmt.Errorf("%w: %d pending", ErrUndrained, l.Len())
		}
		return nil
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(stopCtx); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Warn(ctx, "worker pool stopped before queue drained")
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return fmt.Errorf("drain queue: %w", ctx.Err())
}
