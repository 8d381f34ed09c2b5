package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/pkg/logger"
)

// Generator builds jittered gestures on a square canvas.
type Generator struct {
	rng    *rand.Rand
	width  float64
	jitter float64
}

// NewGenerator creates a Generator. The same seed yields the same shapes.
func NewGenerator(seed uint64, width, jitter float64) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		width:  width,
		jitter: jitter,
	}
}

// Generate creates n gestures cycling through every Kind.
func (g *Generator) Generate(ctx context.Context, n int, stats *Stats) ([]Gesture, error) {
	logger.Get().Info(ctx, "generating gestures", logger.Int("count", n))

	out := make([]Gesture, n)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		kind := kinds[i%len(kinds)]
		id := uuid.New()
		out[i] = Gesture{
			ID:     id.String(),
			Name:   "sim-" + id.String()[:8],
			Kind:   kind,
			Width:  g.width,
			Points: g.Path(kind),
		}
		stats.ByKind[kind]++
	}
	stats.Generated = len(out)
	return out, nil
}

// Path traces one shape of the given kind.
func (g *Generator) Path(kind Kind) geometry.Path {
	switch kind {
	case KindSquare:
		return g.square()
	case KindLine:
		return g.line()
	case KindArc:
		return g.arc(0.3+0.5*g.rng.Float64(), false)
	default:
		return g.arc(1, true)
	}
}

func (g *Generator) center() (float64, float64, float64) {
	return g.width / 2, g.width / 2, g.width * radiusFraction
}

// noise returns a radial offset of up to jitter*r in either direction.
func (g *Generator) noise(r float64) float64 {
	return (2*g.rng.Float64() - 1) * g.jitter * r
}

// arc sweeps turns of a full revolution from a random start angle. A closed
// arc ends exactly where it began.
func (g *Generator) arc(turns float64, closed bool) geometry.Path {
	cx, cy, r := g.center()
	start := g.rng.Float64() * 2 * math.Pi
	sweep := 2 * math.Pi * turns
	if g.rng.IntN(2) == 0 {
		sweep = -sweep
	}
	path := make(geometry.Path, samplesPerGesture)
	for k := range path {
		a := start + sweep*float64(k)/float64(len(path)-1)
		rr := r + g.noise(r)
		path[k] = geometry.Pt(cx+rr*math.Cos(a), cy+rr*math.Sin(a))
	}
	if closed {
		path[len(path)-1] = path[0]
	}
	return path
}

func (g *Generator) square() geometry.Path {
	cx, cy, r := g.center()
	h := r / math.Sqrt2
	corners := []geometry.Point{
		geometry.Pt(cx-h, cy-h), geometry.Pt(cx+h, cy-h),
		geometry.Pt(cx+h, cy+h), geometry.Pt(cx-h, cy+h),
	}
	per := samplesPerGesture / len(corners)
	path := make(geometry.Path, 0, samplesPerGesture+1)
	for c := range corners {
		a, b := corners[c], corners[(c+1)%len(corners)]
		for k := 0; k < per; k++ {
			t := float64(k) / float64(per)
			path = append(path, geometry.Pt(
				a.X+(b.X-a.X)*t+g.noise(r),
				a.Y+(b.Y-a.Y)*t+g.noise(r),
			))
		}
	}
	return append(path, path[0])
}

func (g *Generator) line() geometry.Path {
	m := g.width * 0.1
	path := make(geometry.Path, samplesPerGesture)
	for k := range path {
		t := float64(k) / float64(len(path)-1)
		path[k] = geometry.Pt(m+(g.width-2*m)*t+g.noise(m), m+g.noise(m))
	}
	return path
}

func seedOrClock(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}
