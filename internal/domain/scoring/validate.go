package scoring

import "github.com/okian/perfectcircle/internal/domain/geometry"

// IsPathValid reports whether path stays outside the exclusion zone of frame.
// Paths shorter than MinSamples are vacuously valid.
func IsPathValid(path geometry.Path, frame geometry.Frame) bool {
	if len(path) < MinSamples {
		return true
	}
	for _, p := range path {
		if TooClose(p, frame) {
			return false
		}
	}
	return true
}

// TooClose reports whether a single sample lies inside the exclusion zone.
// Non-finite samples count as too close.
func TooClose(p geometry.Point, frame geometry.Frame) bool {
	if !p.IsFinite() {
		return true
	}
	return geometry.Distance(p, frame.Center()) < frame.ExclusionRadius()
}
