package scoring

import (
	"math"

	"github.com/okian/perfectcircle/internal/domain/geometry"
)

const (
	linearityMinSamples = 10
	linearityMargin     = 3
	linearitySpan       = 2
	straightTolerance   = 0.2
	linearityMax        = 40.0

	squarenessMinSamples = 20
	squarenessMargin     = 8
	squarenessSpan       = 6
	cornerThreshold      = math.Pi / 4
	cornerPenalty        = 15.0
	squarenessMax        = 50.0

	closureMinSamples = 10
	closureStepRatio  = 0.5
	closureMax        = 20.0
)

// enclosureSteps maps a total rotation, in multiples of π, to a penalty.
// Rotations at or beyond the last threshold are not penalised.
var enclosureSteps = []struct {
	below   float64
	penalty float64
}{
	{0.8, 60},
	{1.2, 30},
	{1.5, 15},
	{1.7, 5},
}

// turn returns the raw angular difference between a->b and b->c.
func turn(a, b, c geometry.Point) float64 {
	return geometry.AngleDiff(geometry.Direction(a, b), geometry.Direction(b, c))
}

// LinearityPenalty penalises runs of nearly parallel headings. The result is in [0, 40].
func LinearityPenalty(path geometry.Path) float64 {
	n := len(path)
	if n < linearityMinSamples {
		return 0
	}
	straight := 0
	for i := linearityMargin; i < n-linearityMargin; i++ {
		d := turn(path[i-linearitySpan], path[i], path[i+linearitySpan])
		if d < straightTolerance || d > 2*math.Pi-straightTolerance {
			straight++
		}
	}
	return math.Min(float64(straight)/float64(n)*100, linearityMax)
}

// SquarenessPenalty counts sharp corners along path. The shape center is
// accepted so every evaluator shares the same inputs; corners are detected from
// headings alone. The result is in [0, 50].
func SquarenessPenalty(path geometry.Path, _ geometry.Point) float64 {
	n := len(path)
	if n < squarenessMinSamples {
		return 0
	}
	corners := 0
	for i := squarenessMargin; i < n-squarenessMargin; i++ {
		d := turn(path[i-squarenessSpan], path[i], path[i+squarenessSpan])
		if d > cornerThreshold && d < 2*math.Pi-cornerThreshold {
			corners++
		}
	}
	return math.Min(float64(corners)*cornerPenalty, squarenessMax)
}

// ClosureBonus rewards paths whose end returns to their start, relative to the
// path's own sampling density. The result is in [0, 20].
func ClosureBonus(path geometry.Path) float64 {
	if len(path) < closureMinSamples {
		return 0
	}
	step := geometry.MeanStep(path)
	if step == 0 {
		return 0
	}
	gap := geometry.Distance(path[0], path[len(path)-1])
	quality := 1 - math.Min(gap/(step*closureStepRatio), 1)
	quality = math.Max(0, math.Min(1, quality))
	return quality * closureMax
}

// Rotation returns the absolute total signed angle swept by path around center.
func Rotation(path geometry.Path, center geometry.Point) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		prev := geometry.Direction(center, path[i-1])
		cur := geometry.Direction(center, path[i])
		total += geometry.WrapAngle(cur - prev)
	}
	return math.Abs(total)
}

// EnclosurePenalty penalises paths that do not wind around center. The result
// is one of 60, 30, 15, 5 or 0.
func EnclosurePenalty(path geometry.Path, center geometry.Point) float64 {
	rotation := Rotation(path, center)
	if math.IsNaN(rotation) {
		return enclosureSteps[0].penalty
	}
	for _, step := range enclosureSteps {
		if rotation < step.below*math.Pi {
			return step.penalty
		}
	}
	return 0
}
