// Package service wires the scoring engine, the drawing sessions and the
// leaderboard pipeline behind the operations the HTTP API and the MCP tools use.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	queue "github.com/okian/perfectcircle/internal/adapters/mq/queue"
	worker "github.com/okian/perfectcircle/internal/adapters/mq/worker"
	"github.com/okian/perfectcircle/internal/adapters/repository"
	"github.com/okian/perfectcircle/internal/domain/dedupe"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/model"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/session"
	"github.com/okian/perfectcircle/internal/domain/types"
	"github.com/okian/perfectcircle/pkg/logger"
	"github.com/okian/perfectcircle/pkg/metrics"
)

// stopTimeout bounds the queue drain when Stop gets a context without deadline.
const stopTimeout = 10 * time.Second

// Service implements the dependencies of the HTTP API and the MCP tools.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	sessions *registry

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	storeDriver  string
	sqlitePath   string
	threshold    float64
	stride       int
	warmUp       int
	sessionTTL   time.Duration
	maxSessions  int
	maxSamples   int
	defaultLimit int
	maxLimit     int
	now          func() time.Time

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		dedupeSize:   50_000,
		storeDriver:  repository.DriverMemory,
		threshold:    session.DefaultSubmitThreshold,
		stride:       scoring.DefaultStride,
		warmUp:       scoring.DefaultWarmUp,
		sessionTTL:   15 * time.Minute,
		maxSessions:  10_000,
		maxSamples:   10_000,
		defaultLimit: 5,
		maxLimit:     100,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.sessions = newRegistry(s.sessionTTL, s.maxSessions, s.now)
	return s
}

// Start opens the store and starts the worker pool and the session sweeper.
// Cancelling ctx does not stop them; call Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting perfect circle service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeDriver, s.sqlitePath)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.storeDriver, err)
		}
		s.store = store
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithThreshold(s.threshold),
		worker.WithLogger(logger.Get()),
	)
	// Workers and the sweeper outlive ctx; Stop ends them after draining.
	runCtx := context.WithoutCancel(ctx)
	s.pool.Start(runCtx)

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.sweep(runCtx, s.stopCh)

	s.started = true
	s.logger.Info(ctx, "perfect circle service started",
		logger.String("store", s.storeDriver),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains pending submissions, closes the store and stops the sweeper.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping perfect circle service...")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stopTimeout)
		defer cancel()
	}

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	close(s.stopCh)
	s.wg.Wait()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "perfect circle service stopped")
	return errors.Join(errs...)
}

// sweep expires idle sessions until stop is closed.
func (s *Service) sweep(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()
	interval := max(s.sessionTTL/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.expire(); n > 0 {
				s.logger.Debug(ctx, "expired idle sessions", logger.Int("count", n))
			}
		}
	}
}

// frame validates width and builds the canvas frame.
func frame(width float64) (geometry.Frame, error) {
	f := geometry.NewFrame(width)
	if !f.Valid() {
		return geometry.Frame{}, ErrInvalidWidth
	}
	return f, nil
}

// onCanvas rejects samples that lie outside the frame.
func onCanvas(f geometry.Frame, points []geometry.Point) error {
	for i, p := range points {
		if !f.Contains(p) {
			return fmt.Errorf("%w: sample %d at (%g, %g) on a %g canvas", ErrOffCanvas, i, p.X, p.Y, f.Width)
		}
	}
	return nil
}

// Evaluate scores a complete path drawn on a canvas of the given width.
func (s *Service) Evaluate(ctx context.Context, width float64, path geometry.Path) (scoring.Report, error) {
	f, err := frame(width)
	if err != nil {
		return scoring.Report{}, err
	}
	if len(path) > s.maxSamples {
		return scoring.Report{}, fmt.Errorf("%w: %d > %d", ErrTooManySamples, len(path), s.maxSamples)
	}
	if err := onCanvas(f, path); err != nil {
		return scoring.Report{}, err
	}
	start := time.Now()
	rep := scoring.Evaluate(path, f)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordScore(rep.Valid, rep.Value, scoring.Classify(rep.Value).Label, rep.FloorApplied)
	s.logger.Debug(ctx, "path evaluated",
		logger.Int("samples", rep.Samples),
		logger.Float64("score", rep.Value),
		logger.Bool("valid", rep.Valid),
	)
	return rep, nil
}

// Score is Evaluate without the breakdown.
func (s *Service) Score(ctx context.Context, width float64, path geometry.Path) (scoring.Result, error) {
	rep, err := s.Evaluate(ctx, width, path)
	if err != nil {
		return scoring.Result{}, err
	}
	return rep.Result, nil
}

// Eligible reports whether a final result may enter the leaderboard.
func (s *Service) Eligible(r scoring.Result) bool {
	return r.Valid && r.Value > s.threshold && r.Value <= scoring.MaxScore
}

// SubmitRequest is a leaderboard claim. When Path is set the score is
// computed server-side and Score is ignored.
type SubmitRequest struct {
	ID    string
	Name  string
	Score float64
	Width float64
	Path  geometry.Path
}

// SubmitResult reports how a claim was handled.
type SubmitResult struct {
	ID        string  `json:"submission_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Duplicate bool    `json:"duplicate"`
}

// Submit validates a claim and queues it for the leaderboard. Retries with
// the same ID are reported as duplicates and stored once.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return SubmitResult{}, ErrNotStarted
	}

	name, err := model.NormalizeName(req.Name)
	if err != nil {
		metrics.RecordSubmission("rejected")
		return SubmitResult{}, fmt.Errorf("%w: %w", ErrInvalidName, err)
	}

	score := req.Score
	if len(req.Path) > 0 {
		res, err := s.Score(ctx, req.Width, req.Path)
		if err != nil {
			metrics.RecordSubmission("rejected")
			return SubmitResult{}, err
		}
		if !res.Valid {
			metrics.RecordSubmission("rejected")
			return SubmitResult{}, fmt.Errorf("%w: path is not a valid circle", ErrNotEligible)
		}
		score = res.Value
	} else if math.IsNaN(score) || math.IsInf(score, 0) {
		metrics.RecordSubmission("rejected")
		return SubmitResult{}, ErrInvalidScore
	}
	if !s.Eligible(scoring.Result{Value: score, Valid: true}) {
		metrics.RecordSubmission("rejected")
		return SubmitResult{}, fmt.Errorf("%w: %.1f must be above %.1f and at most %.0f",
			ErrNotEligible, score, s.threshold, scoring.MaxScore)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	out := SubmitResult{ID: id, Name: name, Score: score}

	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordSubmission("duplicate")
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", id))
		out.Duplicate = true
		return out, nil
	}

	sub := model.Submission{
		ID:          id,
		Name:        name,
		Score:       score,
		Width:       req.Width,
		Path:        req.Path,
		SubmittedAt: s.now().UTC(),
	}
	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordSubmission("backpressure")
		return SubmitResult{}, ErrBackpressure
	}
	metrics.RecordSubmission("accepted")
	s.logger.Debug(ctx, "submission queued",
		logger.String("submission_id", id),
		logger.Float64("score", score),
	)
	return out, nil
}

// Limit resolves a requested leaderboard size: 0 picks the default and
// values above the maximum are capped.
func (s *Service) Limit(n int) (int, error) {
	switch {
	case n < 0:
		return 0, ErrInvalidLimit
	case n == 0:
		return s.defaultLimit, nil
	case n > s.maxLimit:
		return s.maxLimit, nil
	}
	return n, nil
}

// TopN returns the best leaderboard entries. n follows Limit.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	limit, err := s.Limit(n)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	entries, err := s.store.TopN(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top %d: %w", limit, err)
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{
			Rank:        e.Rank,
			Name:        e.Name,
			Score:       e.Score,
			SubmittedAt: e.SubmittedAt,
		}
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"storeDriver":     s.storeDriver,
		"submitThreshold": s.threshold,
		"recomputeStride": s.stride,
		"liveWarmUp":      s.warmUp,
		"sessions":        s.sessions.len(),
	}
	if s.started {
		queueLen := s.queue.Len()
		records := s.store.Count(context.Background())
		stats["queueLength"] = queueLen
		stats["totalScores"] = records
		stats["seenSubmissions"] = s.deduper.Size()
		stats["workers"] = s.pool.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecordsTotal(records)
	}
	return stats
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Threshold returns the score a drawing must exceed to be submitted.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// MaxSamples returns the longest accepted path.
func (s *Service) MaxSamples() int {
	return s.maxSamples
}
