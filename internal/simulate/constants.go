package simulate

import "time"

// Kind names the shape a gesture traces.
type Kind string

// Gesture kinds, generated round-robin.
const (
	KindCircle Kind = "circle"
	KindSquare Kind = "square"
	KindLine   Kind = "line"
	KindArc    Kind = "arc"
)

var kinds = []Kind{KindCircle, KindSquare, KindLine, KindArc}

// Defaults applied by Config.withDefaults.
const (
	DefaultGestures  = 200
	DefaultWidth     = 600.0
	DefaultJitter    = 0.02
	DefaultTimeout   = 10 * time.Second
	DefaultSettle    = 2 * time.Second
	DefaultLimit     = 50
	DefaultThreshold = 70.0
	maxScore         = 99.0

	samplesPerGesture = 120
	radiusFraction    = 0.35
	settlePoll        = 100 * time.Millisecond
	percent           = 100
)
