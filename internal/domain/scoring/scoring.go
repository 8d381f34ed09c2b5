// Package scoring turns a captured gesture path into a validity verdict and a
// circularity score. Every function in this package is pure: the same Path and
// Frame always yield the same Result, and no input ever produces an error.
package scoring

import (
	"math"

	"github.com/okian/perfectcircle/internal/domain/geometry"
)

// Tuned constants. The weights and thresholds are empirical and kept as-is.
const (
	// MinSamples is the shortest path that is scored at all.
	MinSamples = 20
	// MaxScore is the ceiling of a final score; 100 is never awarded.
	MaxScore = 99.0
	// FloorScore is the guaranteed minimum for a well closed, fully wound path.
	FloorScore = 80.0

	consistencyScale  = 150.0
	linearityWeight   = 0.3
	squarenessWeight  = 0.3
	enclosureWeight   = 0.4
	floorClosureBonus = 15.0
)

// Result is the outcome of one scoring call.
type Result struct {
	Value float64 `json:"score"`
	Valid bool    `json:"valid"`
}

// Report is a Result plus every intermediate figure that produced it.
type Report struct {
	Result
	Stats        RadiusStats `json:"stats"`
	Consistency  float64     `json:"consistency"`
	Linearity    float64     `json:"linearity_penalty"`
	Squareness   float64     `json:"squareness_penalty"`
	Closure      float64     `json:"closure_bonus"`
	Enclosure    float64     `json:"enclosure_penalty"`
	Raw          float64     `json:"raw"`
	FloorApplied bool        `json:"floor_applied"`
	// TooClose is set when any sample lies inside the exclusion zone.
	TooClose bool `json:"too_close"`
	// InvalidPath is set when a path long enough to judge failed validation.
	InvalidPath bool `json:"invalid_path"`
	Samples     int  `json:"samples"`
}

// Score computes the final score of path drawn on frame.
func Score(path geometry.Path, frame geometry.Frame) Result {
	return Evaluate(path, frame).Result
}

// Evaluate computes the score of path together with its breakdown.
func Evaluate(path geometry.Path, frame geometry.Frame) Report {
	rep := Report{Samples: len(path)}
	for _, p := range path {
		if TooClose(p, frame) {
			rep.TooClose = true
			break
		}
	}

	if len(path) < MinSamples {
		return rep
	}
	if !IsPathValid(path, frame) {
		rep.InvalidPath = true
		return rep
	}

	rep.Stats = ComputeRadiusStats(path)
	rep.Consistency = finite(rep.Stats.Consistency())
	rep.Linearity = finite(LinearityPenalty(path))
	rep.Squareness = finite(SquarenessPenalty(path, rep.Stats.ShapeCenter))
	rep.Closure = finite(ClosureBonus(path))
	rep.Enclosure = EnclosurePenalty(path, frame.Center())
	rep.Stats = rep.Stats.finite()

	raw := rep.Consistency -
		linearityWeight*rep.Linearity -
		squarenessWeight*rep.Squareness +
		rep.Closure -
		enclosureWeight*rep.Enclosure

	if rep.Closure > floorClosureBonus && rep.Enclosure == 0 {
		rep.FloorApplied = true
		raw = math.Max(raw, FloorScore)
	}
	rep.Raw = finite(raw)

	rep.Result = Result{Value: finalize(raw), Valid: true}
	return rep
}

// finalize clamps raw into [0, MaxScore] and rounds it to one decimal place.
func finalize(raw float64) float64 {
	v := finite(raw)
	v = math.Min(v, MaxScore)
	v = math.Max(v, 0)
	return math.Round(v*10) / 10
}

// finite maps NaN and ±Inf to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
