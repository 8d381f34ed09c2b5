// Package render draws a gesture the way the game canvas shows it: a navy
// board, the forbidden ring around the center, the stroke coloured along a
// rainbow and the score in its severity colour. Output is PNG.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/pkg/metrics"
)

const (
	minSize     = 64
	maxSize     = 2048
	defaultSize = 512

	defaultBackground = "#001f3f"
	defaultPrompt     = "Draw a perfect circle"
	warningColor      = "#F44336"

	strokeRatio = 0.01
)

// Scene is everything drawn on one frame.
type Scene struct {
	// Width is the canvas width the path was captured on.
	Width float64
	Path  geometry.Path
	// Result is shown under the prompt when set.
	Result *scoring.Result
	Best   *float64
	// TooClose shows the warning under the score.
	TooClose bool
}

// Renderer produces PNG previews of scenes.
type Renderer struct {
	size       int
	background string
	prompt     string
}

// New returns a Renderer with a 512px output by default.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		size:       defaultSize,
		background: defaultBackground,
		prompt:     defaultPrompt,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the output edge length in pixels.
func (r *Renderer) Size() int {
	return r.size
}

// PNG draws sc and writes it to w.
func (r *Renderer) PNG(w io.Writer, sc Scene) error {
	start := time.Now()
	img, err := r.Draw(sc)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	metrics.RecordRender(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Draw renders sc to an image of Size x Size pixels.
func (r *Renderer) Draw(sc Scene) (image.Image, error) {
	if !geometry.NewFrame(sc.Width).Valid() {
		return nil, ErrInvalidWidth
	}
	size := float64(r.size)
	scale := size / sc.Width

	dc := gg.NewContext(r.size, r.size)
	defer dc.Close()
	dc.ClearWithColor(gg.Hex(r.background))

	// forbidden ring
	frame := geometry.NewFrame(sc.Width)
	c := frame.Center()
	dc.SetRGBA(1, 1, 1, 0.25)
	dc.SetLineWidth(1.5)
	dc.SetDash(6, 6)
	dc.DrawCircle(c.X*scale, c.Y*scale, frame.ExclusionRadius()*scale)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("render: ring: %w", err)
	}
	dc.ClearDash()

	if err := strokeRainbow(dc, sc.Path, scale, size*strokeRatio); err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)

	labelScale := max(1, r.size/256)
	mid := r.size / 2
	label(out, r.prompt, mid, mid, labelScale, color.White)
	if sc.Result != nil {
		sev := scoring.Classify(sc.Result.Value)
		text := fmt.Sprintf("%.1f%%", sc.Result.Value)
		if !sc.Result.Valid {
			text = "Not a circle"
		}
		label(out, text, mid, mid+int(0.15*size), labelScale*2, gg.Hex(sev.Color).Color())
	}
	if sc.Best != nil {
		label(out, fmt.Sprintf("Best: %.1f%%", *sc.Best), mid, mid+int(0.25*size), labelScale, color.White)
	}
	if sc.TooClose {
		label(out, "Too close!", mid, mid+int(0.3*size), labelScale, gg.Hex(warningColor).Color())
	}
	return out, nil
}

// strokeRainbow strokes each segment with a hue that follows its position
// along the path, so the start is red and the end wraps back to red.
func strokeRainbow(dc *gg.Context, path geometry.Path, scale, width float64) error {
	n := len(path)
	if n < 2 {
		return nil
	}
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	for i := 1; i < n; i++ {
		a, b := path[i-1], path[i]
		if !a.IsFinite() || !b.IsFinite() {
			continue
		}
		dc.SetColor(gg.HSL(float64(i)/float64(n)*360, 1, 0.5).Color())
		dc.MoveTo(a.X*scale, a.Y*scale)
		dc.LineTo(b.X*scale, b.Y*scale)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("render: stroke segment %d: %w", i, err)
		}
	}
	return nil
}

// label draws text centred on (cx, cy), magnified k times from the 7x13 bitmap face.
func label(dst *image.RGBA, text string, cx, cy, k int, col color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face, Src: image.NewUniform(col)}
	w := d.MeasureString(text).Ceil()
	h := face.Height
	if w == 0 {
		return
	}

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = src
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(text)

	rect := image.Rect(cx-w*k/2, cy-h*k/2, cx+w*k-w*k/2, cy+h*k-h*k/2)
	xdraw.BiLinear.Scale(dst, rect, src, src.Bounds(), xdraw.Over, nil)
}
