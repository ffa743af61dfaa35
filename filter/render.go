package filter

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/internal/blend"
	ifilter "github.com/gogpu/textbehind/internal/filter"
)

// Overlay colors used to emulate a temperature shift.
var (
	WarmOverlay = textbehind.RGB(1, 165.0/255, 0)
	CoolOverlay = textbehind.RGB(0, 0, 1)
)

// Matrix returns the composed color matrix for the four channel
// adjustments, applied as brightness, contrast, saturate, hue-rotate.
func (s Settings) Matrix() ifilter.ColorMatrix {
	return ifilter.Brightness(float32(s.Brightness)).
		Then(ifilter.Contrast(float32(s.Contrast))).
		Then(ifilter.Saturation(float32(s.Saturate))).
		Then(ifilter.HueRotate(s.HueRotate))
}

// WarmthOverlay returns the overlay fill for s and whether one applies.
// Alpha is |warmth| clamped to 1.
func (s Settings) WarmthOverlay() (textbehind.RGBA, bool) {
	switch {
	case s.Warmth > 0:
		return WarmOverlay.WithAlpha(min(s.Warmth, 1)), true
	case s.Warmth < 0:
		return CoolOverlay.WithAlpha(min(-s.Warmth, 1)), true
	default:
		return textbehind.RGBA{}, false
	}
}

// Apply filters pm in place.
func Apply(pm *textbehind.Pixmap, s Settings) {
	if pm.Empty() || s.IsNeutral() {
		return
	}
	bounds := image.Rect(0, 0, pm.Width(), pm.Height())
	if m := s.Matrix(); !m.IsIdentity() {
		m.Apply(pm, pm, bounds)
	}
	if c, ok := s.WarmthOverlay(); ok {
		blend.Fill(pm, c, blend.Overlay)
	}
	textbehind.Logger().Debug("filter: applied",
		"w", pm.Width(), "h", pm.Height(), "warmth", s.Warmth)
}

// Render replaces dst with src filtered by s. src is first drawn into an
// intermediate buffer the size of dst (scaled if the sizes differ), the
// channel matrix is applied, then the warmth overlay is composited with
// the overlay blend mode. src is never modified.
func Render(dst, src *textbehind.Pixmap, s Settings) {
	if dst.Empty() || src.Empty() {
		return
	}
	var tmp *textbehind.Pixmap
	if src.Width() == dst.Width() && src.Height() == dst.Height() {
		tmp = src.Clone()
	} else {
		tmp = textbehind.NewPixmap(dst.Width(), dst.Height())
		tmp.DrawImage(src)
	}
	Apply(tmp, s)
	copy(dst.Data(), tmp.Data())
}

// Thumbnail downscales src so that its longer side is at most maxDim and
// renders p at full intensity: the per-preset preview tiles of a filter
// picker. Images already small enough are not upscaled.
func Thumbnail(src image.Image, p Preset, maxDim int) *textbehind.Pixmap {
	if src == nil || maxDim <= 0 {
		return textbehind.NewPixmap(0, 0)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return textbehind.NewPixmap(0, 0)
	}
	if longest := max(w, h); longest > maxDim {
		w = max(1, w*maxDim/longest)
		h = max(1, h*maxDim/longest)
	}

	pm := textbehind.NewPixmap(w, h)
	dst := pm.ToImage()
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	copy(pm.Data(), dst.Pix)

	Apply(pm, p.Settings)
	return pm
}
