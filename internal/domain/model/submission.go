// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/perfectcircle/internal/domain/geometry"
)

// Submission is a leaderboard claim for one finished gesture.
// When Path is set the score is recomputed server-side and Score is ignored.
type Submission struct {
	ID          string        // unique id for idempotency
	Name        string        // normalised display name
	Score       float64       // claimed or computed score
	Width       float64       // canvas width the path was drawn on
	Path        geometry.Path // optional samples for server-side scoring
	SubmittedAt time.Time
}

// HasPath reports whether the submission carries samples to re-score.
func (s Submission) HasPath() bool {
	return len(s.Path) > 0 && s.Width > 0
}
