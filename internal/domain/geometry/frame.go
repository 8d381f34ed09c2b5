package geometry

// exclusionRatio sizes the forbidden disc relative to the canvas width.
const exclusionRatio = 0.15

// Frame is the immutable per-gesture canvas context. The canvas is always square.
type Frame struct {
	Width float64 `json:"width"`
}

// NewFrame builds a Frame for a square canvas of the given width.
func NewFrame(width float64) Frame {
	return Frame{Width: width}
}

// Center returns the fixed canvas center (width/2, width/2).
func (f Frame) Center() Point {
	return Point{X: f.Width / 2, Y: f.Width / 2}
}

// ExclusionRadius returns the radius of the forbidden region around Center.
func (f Frame) ExclusionRadius() float64 {
	return f.Width * exclusionRatio
}

// Contains reports whether p lies on the canvas.
func (f Frame) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= f.Width && p.Y <= f.Width
}

// Valid reports whether the frame describes a drawable canvas.
func (f Frame) Valid() bool {
	return f.Width > 0 && Point{X: f.Width}.IsFinite()
}
