// Package simulate drives a running server with synthetic gestures and checks
// the leaderboard it ends up with.
package simulate

import (
	"time"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/types"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Gestures   int           // Number of gestures to generate
	Width      float64       // Canvas side in pixels
	Jitter     float64       // Radial noise as a fraction of the radius
	Seed       uint64        // Generator seed; 0 picks one from the clock
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for submissions to be stored
	Limit      int           // Leaderboard entries to fetch
	Threshold  float64       // Score a submission must exceed
	OutputFile string        // Optional JSON dump of generated gestures
	Verbose    bool          // Log every gesture
}

// Gesture is one synthetic drawing.
type Gesture struct {
	ID     string        `json:"submission_id"`
	Name   string        `json:"name"`
	Kind   Kind          `json:"kind"`
	Width  float64       `json:"width"`
	Points geometry.Path `json:"points"`
}

// Scored is a gesture with the server's verdict.
type Scored struct {
	Gesture
	Score    float64 `json:"score"`
	Valid    bool    `json:"valid"`
	Eligible bool    `json:"eligible"`
}

// Entry is a leaderboard row as served by GET /scores.
type Entry = types.Entry

// AckResponse represents the response from POST /scores.
type AckResponse struct {
	Status       string  `json:"status"`
	SubmissionID string  `json:"submission_id"`
	Score        float64 `json:"score"`
	Duplicate    bool    `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Scored             int
	ScoreFailed        int
	Eligible           int
	Submitted          int
	Duplicate          int
	SubmitFailed       int
	LeaderboardEntries int
	ByKind             map[Kind]int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
