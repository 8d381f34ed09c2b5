package scoring

// Default live recompute policy.
const (
	DefaultStride = 5
	DefaultWarmUp = 10
)

// Cadence decides when a live score is recomputed while a gesture is in progress.
type Cadence struct {
	// Stride is the number of appended samples between recomputes. Lower is
	// more frequent and costlier.
	Stride int
	// WarmUp is the number of samples that must be exceeded before the first recompute.
	WarmUp int
}

// CadenceOption configures a Cadence.
type CadenceOption func(*Cadence)

// WithStride sets the recompute stride; values below 1 are treated as 1.
func WithStride(stride int) CadenceOption {
	return func(c *Cadence) {
		c.Stride = stride
	}
}

// WithWarmUp sets the warm-up sample count; negative values are treated as 0.
func WithWarmUp(n int) CadenceOption {
	return func(c *Cadence) {
		c.WarmUp = n
	}
}

// NewCadence builds a Cadence with the default stride and warm-up.
func NewCadence(opts ...CadenceOption) Cadence {
	c := Cadence{Stride: DefaultStride, WarmUp: DefaultWarmUp}
	for _, opt := range opts {
		opt(&c)
	}
	return c.normalized()
}

func (c Cadence) normalized() Cadence {
	if c.Stride < 1 {
		c.Stride = 1
	}
	if c.WarmUp < 0 {
		c.WarmUp = 0
	}
	return c
}

// Due reports whether a live recompute should run once the path holds n samples.
func (c Cadence) Due(n int) bool {
	c = c.normalized()
	return n > c.WarmUp && n%c.Stride == 0
}
