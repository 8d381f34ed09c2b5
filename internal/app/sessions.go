package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/session"
	"github.com/okian/perfectcircle/pkg/logger"
	"github.com/okian/perfectcircle/pkg/metrics"
)

// tracked is one registered session. mu serialises every call on sess.
type tracked struct {
	mu       sync.Mutex
	sess     *session.Session
	width    float64
	lastSeen time.Time
}

// registry holds open drawing sessions, expiring idle ones.
type registry struct {
	mu    sync.RWMutex
	items map[string]*tracked
	ttl   time.Duration
	limit int
	now   func() time.Time
}

func newRegistry(ttl time.Duration, limit int, now func() time.Time) *registry {
	return &registry{
		items: make(map[string]*tracked),
		ttl:   ttl,
		limit: limit,
		now:   now,
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *registry) add(t *tracked) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) >= r.limit {
		r.expireLocked()
	}
	if len(r.items) >= r.limit {
		return "", ErrTooManySessions
	}
	id := uuid.NewString()
	t.lastSeen = r.now()
	r.items[id] = t
	metrics.UpdateSessionsActive(len(r.items))
	return id, nil
}

// get returns the session for id and refreshes its idle timer.
func (r *registry) get(id string) (*tracked, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if now.Sub(t.lastSeen) > r.ttl {
		delete(r.items, id)
		metrics.RecordSessionsExpired(1)
		metrics.UpdateSessionsActive(len(r.items))
		return nil, ErrSessionNotFound
	}
	t.lastSeen = now
	return t, nil
}

// expire drops idle sessions and returns how many were removed.
func (r *registry) expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expireLocked()
}

func (r *registry) expireLocked() int {
	now := r.now()
	n := 0
	for id, t := range r.items {
		if now.Sub(t.lastSeen) > r.ttl {
			delete(r.items, id)
			n++
		}
	}
	if n > 0 {
		metrics.RecordSessionsExpired(n)
	}
	metrics.UpdateSessionsActive(len(r.items))
	return n
}

// CreateSession opens a drawing session for a canvas of the given width.
func (s *Service) CreateSession(ctx context.Context, width float64) (string, error) {
	if _, err := frame(width); err != nil {
		return "", err
	}
	sess := session.New(
		session.WithCadence(scoring.NewCadence(scoring.WithStride(s.stride), scoring.WithWarmUp(s.warmUp))),
		session.WithSubmitThreshold(s.threshold),
	)
	id, err := s.sessions.add(&tracked{sess: sess, width: width})
	if err != nil {
		return "", err
	}
	s.logger.Debug(ctx, "session created", logger.String("session_id", id), logger.Float64("width", width))
	return id, nil
}

// StartGesture begins a new path. A width of 0 keeps the session's canvas width.
func (s *Service) StartGesture(ctx context.Context, id string, width float64) (session.State, error) {
	t, err := s.sessions.get(id)
	if err != nil {
		return session.State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if width != 0 {
		if _, err := frame(width); err != nil {
			return session.State{}, err
		}
		t.width = width
	}
	t.sess.Begin(geometry.NewFrame(t.width))
	s.logger.Debug(ctx, "gesture started", logger.String("session_id", id))
	return t.sess.Snapshot(), nil
}

// AppendSamples adds pointer samples to the gesture in progress.
func (s *Service) AppendSamples(ctx context.Context, id string, points []geometry.Point) (session.Update, error) {
	t, err := s.sessions.get(id)
	if err != nil {
		return session.Update{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.sess.Drawing() {
		return session.Update{}, ErrNotDrawing
	}
	if n := t.sess.Snapshot().Samples + len(points); n > s.maxSamples {
		return session.Update{}, fmt.Errorf("%w: %d > %d", ErrTooManySamples, n, s.maxSamples)
	}
	if err := onCanvas(geometry.NewFrame(t.width), points); err != nil {
		return session.Update{}, err
	}
	up := t.sess.Append(points...)
	if up.Live != nil {
		metrics.RecordLiveRecompute()
		s.logger.Debug(ctx, "live score",
			logger.String("session_id", id),
			logger.Int("samples", up.Samples),
			logger.Float64("score", up.Live.Value),
		)
	}
	return up, nil
}

// EndGesture finishes the gesture and returns its final score.
func (s *Service) EndGesture(ctx context.Context, id string) (session.Outcome, error) {
	t, err := s.sessions.get(id)
	if err != nil {
		return session.Outcome{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.sess.Drawing() {
		return session.Outcome{}, ErrNotDrawing
	}
	start := time.Now()
	out := t.sess.End()
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordScore(out.Valid, out.Value, scoring.Classify(out.Value).Label, out.Report.FloorApplied)

	switch {
	case out.Eligible:
		metrics.RecordGestureEnded("eligible")
	case out.Valid:
		metrics.RecordGestureEnded("valid")
	default:
		metrics.RecordGestureEnded("invalid")
	}
	s.logger.Debug(ctx, "gesture ended",
		logger.String("session_id", id),
		logger.Float64("score", out.Value),
		logger.Bool("valid", out.Valid),
		logger.Bool("new_best", out.NewBest),
	)
	return out, nil
}

// SessionState returns a snapshot of the session.
func (s *Service) SessionState(_ context.Context, id string) (session.State, error) {
	t, err := s.sessions.get(id)
	if err != nil {
		return session.State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Snapshot(), nil
}

// SessionPath returns a copy of the path in progress, for previews.
func (s *Service) SessionPath(_ context.Context, id string) (geometry.Path, float64, error) {
	t, err := s.sessions.get(id)
	if err != nil {
		return nil, 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Path(), t.width, nil
}
