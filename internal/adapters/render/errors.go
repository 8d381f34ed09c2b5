package render

import "errors"

// Sentinel errors for rendering.
var (
	ErrInvalidWidth = errors.New("render: canvas width must be positive")
	ErrEncode       = errors.New("render: encode png")
)
