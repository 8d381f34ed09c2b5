// Package session holds the state of one player's drawing: the path being
// captured, the live cue flags and the best score achieved so far.
//
// A Session is not safe for concurrent use; callers serialise access.
package session

import (
	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
)

// DefaultSubmitThreshold is the score a gesture must exceed to be offered for the leaderboard.
const DefaultSubmitThreshold = 70.0

// Option configures a Session.
type Option func(*Session)

// WithCadence sets the live recompute policy.
func WithCadence(c scoring.Cadence) Option {
	return func(s *Session) {
		s.cadence = c
	}
}

// WithSubmitThreshold sets the eligibility threshold for leaderboard submission.
func WithSubmitThreshold(v float64) Option {
	return func(s *Session) {
		if v >= 0 {
			s.threshold = v
		}
	}
}

// Update is the result of appending samples to an active gesture.
type Update struct {
	// TooClose reflects the most recently appended sample.
	TooClose bool            `json:"too_close"`
	Live     *scoring.Result `json:"live,omitempty"`
	Samples  int             `json:"samples"`
}

// Outcome is the authoritative result of a finished gesture.
type Outcome struct {
	scoring.Result
	Report   scoring.Report `json:"-"`
	Best     float64        `json:"best"`
	NewBest  bool           `json:"new_best"`
	Eligible bool           `json:"eligible"`
}

// Session tracks one player's gestures.
type Session struct {
	cadence   scoring.Cadence
	threshold float64

	frame    geometry.Frame
	path     geometry.Path
	drawing  bool
	tooClose bool
	live     *scoring.Result
	last     *scoring.Result
	best     float64
	hasBest  bool
	attempts int
}

// New creates an idle Session.
func New(opts ...Option) *Session {
	s := &Session{
		cadence:   scoring.NewCadence(),
		threshold: DefaultSubmitThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin starts a new gesture on frame, discarding any path in progress.
func (s *Session) Begin(frame geometry.Frame) {
	s.frame = frame
	s.path = s.path[:0]
	s.drawing = true
	s.tooClose = false
	s.live = nil
}

// Append adds samples to the gesture in progress. Samples inside the exclusion
// zone are kept so the final verdict sees them. Appending while idle is a no-op.
func (s *Session) Append(points ...geometry.Point) Update {
	if !s.drawing {
		return Update{Samples: len(s.path)}
	}
	var live *scoring.Result
	for _, p := range points {
		s.path = append(s.path, p)
		s.tooClose = scoring.TooClose(p, s.frame)
		if s.cadence.Due(len(s.path)) {
			r := scoring.Score(s.path, s.frame)
			live = &r
		}
	}
	if live != nil {
		s.live = live
	}
	return Update{TooClose: s.tooClose, Live: live, Samples: len(s.path)}
}

// End finishes the gesture and computes its final score. Only valid results
// can become the best score. Ending while idle returns the zero Outcome.
func (s *Session) End() Outcome {
	if !s.drawing {
		return Outcome{Best: s.best}
	}
	rep := scoring.Evaluate(s.path, s.frame)
	s.drawing = false
	s.path = nil
	s.live = nil
	s.attempts++

	out := Outcome{Result: rep.Result, Report: rep}
	if rep.Valid && (!s.hasBest || rep.Value > s.best) {
		s.best = rep.Value
		s.hasBest = true
		out.NewBest = true
	}
	out.Best = s.best
	out.Eligible = rep.Valid && rep.Value > s.threshold
	last := rep.Result
	s.last = &last
	return out
}

// State is a read-only snapshot of a Session.
type State struct {
	Drawing  bool            `json:"drawing"`
	Samples  int             `json:"samples"`
	TooClose bool            `json:"too_close"`
	Width    float64         `json:"width"`
	Live     *scoring.Result `json:"live,omitempty"`
	Last     *scoring.Result `json:"last,omitempty"`
	Best     *float64        `json:"best,omitempty"`
	Attempts int             `json:"attempts"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	st := State{
		Drawing:  s.drawing,
		Samples:  len(s.path),
		TooClose: s.tooClose,
		Width:    s.frame.Width,
		Live:     s.live,
		Last:     s.last,
		Attempts: s.attempts,
	}
	if s.hasBest {
		b := s.best
		st.Best = &b
	}
	return st
}

// Path returns a copy of the path in progress.
func (s *Session) Path() geometry.Path {
	return append(geometry.Path(nil), s.path...)
}

// Drawing reports whether a gesture is in progress.
func (s *Session) Drawing() bool {
	return s.drawing
}
