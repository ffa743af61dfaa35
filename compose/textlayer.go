package compose

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/internal/blend"
	ifilter "github.com/gogpu/textbehind/internal/filter"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

// painter draws text in a layer's local frame. The origin is the layer's
// anchor, x runs along the baseline and y = 0 is the middle of the em box.
type painter interface {
	// MeasureText returns the advance width of s.
	MeasureText(s string) (float64, error)

	// FillText draws s horizontally centred on x.
	FillText(s string, x float64) error

	// Outline returns the device-space shape of everything drawn so far.
	Outline() *text.Outline
}

// layoutText draws content through p. With no letter spacing the content
// is one run; otherwise each character is measured and placed with
// spacing pixels between neighbours, the whole line centred on 0.
func layoutText(p painter, content string, spacing float64) error {
	if spacing == 0 {
		return p.FillText(content, 0)
	}

	chars := splitChars(content)
	widths := make([]float64, len(chars))
	total := 0.0
	for i, ch := range chars {
		w, err := p.MeasureText(ch)
		if err != nil {
			return err
		}
		widths[i] = w
		total += w
	}
	if len(chars) > 1 {
		total += float64(len(chars)-1) * spacing
	}

	x := -total / 2
	for i, ch := range chars {
		if err := p.FillText(ch, x+widths[i]/2); err != nil {
			return err
		}
		x += widths[i] + spacing
	}
	return nil
}

// splitChars splits s into characters, keeping combining marks with their
// base.
func splitChars(s string) []string {
	var chars []string
	var it norm.Iter
	it.InitString(norm.NFC, s)
	for !it.Done() {
		chars = append(chars, string(it.Next()))
	}
	return chars
}

// textFrame returns the local frame of a text layer anchored at (x, y):
// the tilt stand-in scales by cos(-tilt) on each axis, then the rotation
// applies. Angles are in degrees.
func textFrame(x, y, rotation, tiltX, tiltY float64) textbehind.Matrix {
	tilt := textbehind.Scale(math.Cos(-radians(tiltY)), math.Cos(-radians(tiltX)))
	return textbehind.Translate(x, y).
		Multiply(tilt).
		Multiply(textbehind.Rotate(radians(rotation)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// drawText rasterises one text layer onto canvas.
func (c *Compositor) drawText(canvas *textbehind.Pixmap, l layer.Layer, frame coord.Rect, fontScale float64) error {
	p, ok := l.Text()
	if !ok || p.Opacity <= 0 {
		return nil
	}
	src, err := c.fonts.Resolve(p.FontFamily, p.FontWeight)
	if err != nil {
		return fmt.Errorf("compose: layer %q: %w: %w", l.ID, ErrFontUnavailable, err)
	}

	size := p.FontSize * fontScale
	x, y := coord.ToPixel(p.Left, p.Top, frame)
	pt := c.newPainter(src, size, textFrame(x, y, p.Rotation, p.TiltX, p.TiltY))
	if err := layoutText(pt, p.Content, p.LetterSpacing*fontScale); err != nil {
		return fmt.Errorf("compose: layer %q: %w", l.ID, err)
	}

	out := pt.Outline()
	if out == nil || out.Empty() {
		return nil
	}

	fill, err := textbehind.ParseColor(p.Color)
	if err != nil {
		textbehind.Logger().Warn("compose: bad text color, using black", "layer", l.ID, "color", p.Color)
		fill = textbehind.Black
	}

	var shadow *ifilter.DropShadow
	if p.ShadowSize > 0 {
		sc, err := textbehind.ParseColor(p.ShadowColor)
		if err != nil {
			textbehind.Logger().Warn("compose: bad shadow color, skipping shadow", "layer", l.ID, "color", p.ShadowColor)
		} else if sc.A > 0 {
			d := p.ShadowSize * fontScale / 2
			shadow = &ifilter.DropShadow{OffsetY: d, Sigma: d, Color: sc}
		}
	}

	pad := 1
	if shadow != nil {
		pad += shadow.Padding()
	}
	bounds := image.Rect(0, 0, canvas.Width(), canvas.Height()).Inset(-pad)
	area := out.Bounds().Inset(-pad).Intersect(bounds)
	if area.Empty() {
		return nil
	}

	tile := textbehind.NewPixmap(area.Dx(), area.Dy())
	out.Fill(tile, area.Min, fill)
	if shadow != nil {
		withShadow := textbehind.NewPixmap(area.Dx(), area.Dy())
		shadow.Apply(tile, withShadow)
		tile = withShadow
	}
	blend.Composite(canvas, tile, area.Min.X, area.Min.Y, blend.SourceOver, p.Opacity)
	return nil
}

// outlinePainter collects the glyph outlines of a layer so the layer can
// be filled, shadowed and blended as one.
type outlinePainter struct {
	shaper   *text.Shaper
	src      *text.FontSource
	size     float64
	frame    textbehind.Matrix
	baseline float64
	out      *text.Outline
}

func newOutlinePainter(sh *text.Shaper, src *text.FontSource, size float64, frame textbehind.Matrix) *outlinePainter {
	m := src.Metrics(size)
	return &outlinePainter{
		shaper:   sh,
		src:      src,
		size:     size,
		frame:    frame,
		baseline: (m.Ascent - m.Descent) / 2,
		out:      text.NewOutline(),
	}
}

func (p *outlinePainter) MeasureText(s string) (float64, error) {
	return p.shaper.Measure(p.src, s, p.size)
}

func (p *outlinePainter) FillText(s string, x float64) error {
	run, err := p.shaper.Shape(p.src, s, p.size)
	if err != nil {
		return err
	}
	return p.out.AddRun(run, p.frame.Multiply(textbehind.Translate(x-run.Advance/2, p.baseline)))
}

func (p *outlinePainter) Outline() *text.Outline {
	return p.out
}
