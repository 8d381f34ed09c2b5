package render

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the edge length of the square output image in pixels.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px >= minSize && px <= maxSize {
			r.size = px
		}
	}
}

// WithBackground sets the canvas colour as a hex string.
func WithBackground(hex string) Option {
	return func(r *Renderer) {
		if hex != "" {
			r.background = hex
		}
	}
}

// WithPrompt replaces the text drawn at the canvas center.
func WithPrompt(text string) Option {
	return func(r *Renderer) {
		r.prompt = text
	}
}
