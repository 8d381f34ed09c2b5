// Package geometry contains the planar primitives shared by the scoring engine.
// Everything here is a pure value-type helper with no external dependencies.
package geometry

import "math"

// Point is a single captured sample in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns the vector p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns the vector p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Path is the ordered sequence of samples of one drawing gesture.
type Path []Point

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Centroid returns the arithmetic mean of all points. An empty path yields the zero Point.
func Centroid(path Path) Point {
	if len(path) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range path {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(path))
	return Point{X: sx / n, Y: sy / n}
}

// Direction returns the heading of the vector from -> to, in radians (atan2).
func Direction(from, to Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// AngleDiff returns |a2 - a1| for two headings produced by Direction.
// The result lies in [0, 2π]; values close to 2π describe nearly parallel headings
// on opposite sides of the atan2 branch cut.
func AngleDiff(a1, a2 float64) float64 {
	return math.Abs(a2 - a1)
}

// WrapAngle folds an angular step into (-π, π].
func WrapAngle(delta float64) float64 {
	if delta > math.Pi {
		return delta - 2*math.Pi
	}
	if delta < -math.Pi {
		return delta + 2*math.Pi
	}
	return delta
}

// PathLength returns the sum of consecutive sample distances.
func PathLength(path Path) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// MeanStep returns the mean distance between consecutive samples, 0 for fewer than two samples.
func MeanStep(path Path) float64 {
	if len(path) < 2 {
		return 0
	}
	return PathLength(path) / float64(len(path)-1)
}
