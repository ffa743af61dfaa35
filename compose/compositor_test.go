package compose

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

// recorder is a painter that records calls and draws nothing.
type recorder struct {
	fills []fillCall
	width float64 // advance of every measured string
}

type fillCall struct {
	s string
	x float64
}

func (r *recorder) MeasureText(string) (float64, error) { return r.width, nil }

func (r *recorder) FillText(s string, x float64) error {
	r.fills = append(r.fills, fillCall{s, x})
	return nil
}

func (r *recorder) Outline() *text.Outline { return nil }

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// stack returns a background/text/subject snapshot with one text layer
// edited by fn.
func stack(t *testing.T, fn func(*layer.TextProps)) layer.Snapshot {
	t.Helper()
	s := layer.NewStore(layer.WithIDFunc(func() string { return "t1" }))
	s.AddBackground()
	s.AddSubject()
	snap, id := s.AddText()
	if fn != nil {
		var err error
		snap, err = s.UpdateText(id, fn)
		require.NoError(t, err)
	}
	return snap
}

func imagesOnly(t *testing.T) layer.Snapshot {
	t.Helper()
	s := layer.NewStore()
	s.AddBackground()
	return s.AddSubject()
}

func TestLayoutTextSingleRun(t *testing.T) {
	r := &recorder{width: 10}
	require.NoError(t, layoutText(r, "HELLO", 0))
	require.Len(t, r.fills, 1)
	assert.Equal(t, fillCall{"HELLO", 0}, r.fills[0])
}

func TestLayoutTextLetterSpacing(t *testing.T) {
	r := &recorder{width: 10}
	require.NoError(t, layoutText(r, "abc", 4))
	// total = 3*10 + 2*4 = 38, first centre at -19 + 5.
	require.Len(t, r.fills, 3)
	assert.Equal(t, []fillCall{{"a", -14}, {"b", 0}, {"c", 14}}, r.fills)
}

func TestLayoutTextKeepsCombiningMarks(t *testing.T) {
	r := &recorder{width: 10}
	require.NoError(t, layoutText(r, "e\u0301a", 2))
	require.Len(t, r.fills, 2)
	assert.Equal(t, "\u00e9", r.fills[0].s)
}

func TestRenderSpacingZeroDrawsOnce(t *testing.T) {
	c := New(text.NewRegistry())
	var rec *recorder
	c.newPainter = func(*text.FontSource, float64, textbehind.Matrix) painter {
		rec = &recorder{width: 10}
		return rec
	}

	_, err := c.Render(context.Background(), Input{
		Layers: stack(t, func(p *layer.TextProps) {
			p.Content = "HELLO"
			p.LetterSpacing = 0
		}),
		Background: solid(40, 30, color.Black),
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.fills, 1)
	assert.Equal(t, fillCall{"HELLO", 0}, rec.fills[0])
}

func TestRenderErrors(t *testing.T) {
	c := New(text.NewRegistry())
	ctx := context.Background()

	pm, err := c.Render(ctx, Input{Layers: imagesOnly(t)})
	assert.ErrorIs(t, err, ErrNoBackground)
	assert.Nil(t, pm)

	pm, err = c.Render(ctx, Input{Layers: imagesOnly(t), Background: image.NewRGBA(image.Rect(0, 0, 0, 10))})
	assert.ErrorIs(t, err, ErrEmptySurface)
	assert.Nil(t, pm)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	pm, err = c.Render(canceled, Input{Layers: imagesOnly(t), Background: solid(4, 4, color.White)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, pm)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(string, int) (*text.FontSource, error) { return nil, f.err }

func TestRenderFontUnavailable(t *testing.T) {
	cause := errors.New("disk on fire")
	c := New(failingResolver{cause})

	pm, err := c.Render(context.Background(), Input{
		Layers:     stack(t, nil),
		Background: solid(10, 10, color.Black),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFontUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, pm)
}

func TestRenderHiddenTextSkipsFonts(t *testing.T) {
	s := layer.NewStore(layer.WithIDFunc(func() string { return "t1" }))
	s.AddBackground()
	s.AddText()
	snap, err := s.ToggleVisibility("t1")
	require.NoError(t, err)

	c := New(failingResolver{errors.New("unused")})
	_, err = c.Render(context.Background(), Input{Layers: snap, Background: solid(4, 4, color.White)})
	assert.NoError(t, err)
}

// subjectPatch is transparent except for an opaque green centre.
func subjectPatch(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}
	return img
}

func isGrey(c textbehind.RGBA) bool {
	const tol = 2.0 / 255
	return abs(c.R-c.G) <= tol && abs(c.G-c.B) <= tol
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRenderFilterOrderings(t *testing.T) {
	c := New(text.NewRegistry())
	bg := solid(20, 20, color.RGBA{200, 40, 40, 255})
	in := Input{
		Layers:     imagesOnly(t),
		Background: bg,
		Subject:    subjectPatch(20, 20),
		Filter:     filter.State{Preset: "mono", Intensity: 100, ApplyToFull: true},
	}

	full, err := c.Render(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, isGrey(full.GetPixel(1, 1)), "background filtered")
	assert.True(t, isGrey(full.GetPixel(10, 10)), "subject filtered")

	in.Filter.ApplyToFull = false
	bgOnly, err := c.Render(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, isGrey(bgOnly.GetPixel(1, 1)), "background filtered")
	assert.Equal(t, textbehind.RGB(0, 1, 0), bgOnly.GetPixel(10, 10), "subject drawn unfiltered")
}

func TestRenderWithoutCutout(t *testing.T) {
	c := New(text.NewRegistry())
	pm, err := c.Render(context.Background(), Input{
		Layers:     imagesOnly(t),
		Background: solid(8, 8, color.White),
	})
	require.NoError(t, err)
	assert.Equal(t, textbehind.White, pm.GetPixel(4, 4))
}

func TestRenderSubjectScaledToCanvas(t *testing.T) {
	c := New(text.NewRegistry())
	pm, err := c.Render(context.Background(), Input{
		Layers:     imagesOnly(t),
		Background: solid(40, 40, color.White),
		Subject:    solid(10, 10, color.RGBA{0, 0, 255, 255}),
	})
	require.NoError(t, err)
	corner := pm.GetPixel(39, 39)
	assert.InDelta(t, 0, corner.R, 0.02)
	assert.InDelta(t, 1, corner.B, 0.02)
}

// inkBounds returns the box of pixels that differ from the corner pixel.
func inkBounds(pm *textbehind.Pixmap) image.Rectangle {
	ref := pm.GetPixel(0, 0)
	var r image.Rectangle
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			if p := pm.GetPixel(x, y); abs(p.R-ref.R) > 0.2 || abs(p.G-ref.G) > 0.2 || abs(p.B-ref.B) > 0.2 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func renderText(t *testing.T, fn func(*layer.TextProps)) *textbehind.Pixmap {
	t.Helper()
	c := New(text.NewRegistry())
	pm, err := c.Render(context.Background(), Input{
		Layers: stack(t, func(p *layer.TextProps) {
			p.Content = "HELLO"
			p.FontFamily = text.FamilyGo
			p.FontSize = 60
			p.ShadowSize = 0
			fn(p)
		}),
		Background: solid(400, 300, color.Black),
		Viewport:   coord.Sz(400, 300),
	})
	require.NoError(t, err)
	return pm
}

func TestRenderTextPlacement(t *testing.T) {
	pm := renderText(t, func(*layer.TextProps) {})
	ink := inkBounds(pm)
	require.False(t, ink.Empty())

	cx := float64(ink.Min.X+ink.Max.X) / 2
	cy := float64(ink.Min.Y+ink.Max.Y) / 2
	assert.InDelta(t, 200, cx, 4, "centred horizontally on the anchor")
	assert.InDelta(t, 150, cy, 12, "centred vertically on the em box")

	moved := inkBounds(renderText(t, func(p *layer.TextProps) { p.Left = 25 }))
	assert.InDelta(t, 100, moved.Min.X-ink.Min.X, 1)
}

func TestRenderTiltApproximation(t *testing.T) {
	flat := inkBounds(renderText(t, func(*layer.TextProps) {}))

	tiltX := inkBounds(renderText(t, func(p *layer.TextProps) { p.TiltX = 60 }))
	assert.InDelta(t, float64(flat.Dy())/2, float64(tiltX.Dy()), 3, "tiltX halves the height")
	assert.InDelta(t, float64(flat.Dx()), float64(tiltX.Dx()), 2, "tiltX keeps the width")

	tiltY := inkBounds(renderText(t, func(p *layer.TextProps) { p.TiltY = 60 }))
	assert.InDelta(t, float64(flat.Dx())/2, float64(tiltY.Dx()), 3, "tiltY halves the width")
	assert.InDelta(t, float64(flat.Dy()), float64(tiltY.Dy()), 2, "tiltY keeps the height")
}

func TestRenderRotation(t *testing.T) {
	flat := inkBounds(renderText(t, func(*layer.TextProps) {}))
	rotated := inkBounds(renderText(t, func(p *layer.TextProps) { p.Rotation = 90 }))
	assert.InDelta(t, float64(flat.Dx()), float64(rotated.Dy()), 3)
	assert.InDelta(t, float64(flat.Dy()), float64(rotated.Dx()), 3)
}

func TestRenderFontScale(t *testing.T) {
	c := New(text.NewRegistry())
	render := func(viewport coord.Size) image.Rectangle {
		pm, err := c.Render(context.Background(), Input{
			Layers: stack(t, func(p *layer.TextProps) {
				p.FontFamily = text.FamilyGo
				p.FontSize = 40
				p.ShadowSize = 0
			}),
			Background: solid(400, 300, color.Black),
			Viewport:   viewport,
		})
		require.NoError(t, err)
		return inkBounds(pm)
	}
	same := render(coord.Sz(400, 300))
	half := render(coord.Sz(200, 150)) // preview at half size: text doubles on export
	assert.InDelta(t, float64(same.Dx())*2, float64(half.Dx()), 4)
}

func TestRenderShadow(t *testing.T) {
	c := New(text.NewRegistry())
	render := func(size float64) *textbehind.Pixmap {
		pm, err := c.Render(context.Background(), Input{
			Layers: stack(t, func(p *layer.TextProps) {
				p.Color = "white"
				p.ShadowColor = "black"
				p.ShadowSize = size
			}),
			Background: solid(300, 200, color.White),
			Viewport:   coord.Sz(300, 200),
		})
		require.NoError(t, err)
		return pm
	}

	none := render(0)
	assert.True(t, inkBounds(none).Empty(), "white on white without a shadow pass leaves the canvas untouched")

	shadowed := render(12)
	assert.False(t, inkBounds(shadowed).Empty(), "shadow darkens the canvas")
}

func TestRenderOpacity(t *testing.T) {
	zero := renderText(t, func(p *layer.TextProps) { p.Opacity = 0 })
	assert.True(t, inkBounds(zero).Empty())

	full := renderText(t, func(p *layer.TextProps) { p.Opacity = 1 })
	half := renderText(t, func(p *layer.TextProps) { p.Opacity = 0.5 })
	ink := inkBounds(full)
	var fullSum, halfSum float64
	for y := ink.Min.Y; y < ink.Max.Y; y++ {
		for x := ink.Min.X; x < ink.Max.X; x++ {
			fullSum += full.GetPixel(x, y).R
			halfSum += half.GetPixel(x, y).R
		}
	}
	assert.InDelta(t, fullSum/2, halfSum, fullSum*0.02)
}

func TestRenderScaled(t *testing.T) {
	c := New(text.NewRegistry())
	in := Input{Layers: imagesOnly(t), Background: solid(100, 60, color.White)}

	pm, err := c.RenderScaled(context.Background(), in, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 50, pm.Width())
	assert.Equal(t, 30, pm.Height())

	_, err = c.RenderScaled(context.Background(), in, 0)
	assert.ErrorIs(t, err, ErrEmptySurface)
}

func TestEncodePNG(t *testing.T) {
	pm := textbehind.NewPixmap(7, 5)
	pm.Clear(textbehind.Red)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, pm))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 7, 5), img.Bounds())

	assert.ErrorIs(t, EncodePNG(&buf, textbehind.NewPixmap(0, 0)), textbehind.ErrEmptyPixmap)
}
