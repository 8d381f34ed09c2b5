package scoring

import (
	"math"

	"github.com/okian/perfectcircle/internal/domain/geometry"
)

// RadiusStats describes how far the samples sit from the shape's own centroid.
type RadiusStats struct {
	ShapeCenter geometry.Point `json:"shape_center"`
	Radii       []float64      `json:"-"`
	AvgRadius   float64        `json:"avg_radius"`
	StdDev      float64        `json:"std_dev"`
}

// ComputeRadiusStats measures the radii of path around its centroid. StdDev is
// the population standard deviation.
func ComputeRadiusStats(path geometry.Path) RadiusStats {
	if len(path) == 0 {
		return RadiusStats{}
	}
	center := geometry.Centroid(path)
	radii := make([]float64, len(path))
	var sum float64
	for i, p := range path {
		radii[i] = geometry.Distance(p, center)
		sum += radii[i]
	}
	n := float64(len(radii))
	avg := sum / n

	var variance float64
	for _, r := range radii {
		d := r - avg
		variance += d * d
	}

	return RadiusStats{
		ShapeCenter: center,
		Radii:       radii,
		AvgRadius:   avg,
		StdDev:      math.Sqrt(variance / n),
	}
}

// finite returns s with NaN and ±Inf measurements replaced by 0.
func (s RadiusStats) finite() RadiusStats {
	s.ShapeCenter = geometry.Pt(finite(s.ShapeCenter.X), finite(s.ShapeCenter.Y))
	s.AvgRadius = finite(s.AvgRadius)
	s.StdDev = finite(s.StdDev)
	return s
}

// Consistency maps the relative spread of radii to [0, 100]. A zero average
// radius means every sample coincides and yields 0.
func (s RadiusStats) Consistency() float64 {
	if s.AvgRadius == 0 {
		return 0
	}
	return math.Max(0, 100-(s.StdDev/s.AvgRadius)*consistencyScale)
}
