package filter

import (
	"math"

	"github.com/gogpu/textbehind"
)

// DropShadow places a soft, tinted copy of a pixmap's silhouette behind
// it, like the CSS text-shadow of the export.
type DropShadow struct {
	OffsetX, OffsetY float64 // pixels, y down
	Sigma            float64 // blur standard deviation in pixels
	Color            textbehind.RGBA
}

// Padding is the free border a source needs around its content for the
// shadow to fit.
func (f *DropShadow) Padding() int {
	off := math.Max(math.Abs(f.OffsetX), math.Abs(f.OffsetY))
	return KernelReach(f.Sigma) + int(math.Ceil(off))
}

// Apply writes src over its shadow into dst. The shadow is the alpha of
// src moved by the offset, blurred and tinted with Color. Both pixmaps must
// have the same size; src is left untouched.
func (f *DropShadow) Apply(src, dst *textbehind.Pixmap) {
	if src.Empty() || dst.Empty() || src.Width() != dst.Width() || src.Height() != dst.Height() {
		return
	}

	mask := shiftedAlpha(src, int(math.Round(f.OffsetX)), int(math.Round(f.OffsetY)))
	mask.gaussianBlur(f.Sigma)

	tint := [3]float32{
		float32(min(max(f.Color.R, 0), 1) * 255),
		float32(min(max(f.Color.G, 0), 1) * 255),
		float32(min(max(f.Color.B, 0), 1) * 255),
	}
	opacity := float32(f.Color.A)

	in, out := src.Data(), dst.Data()
	for i, m := range mask.pix {
		px := in[i*4 : i*4+4]
		// Shadow coverage left visible under the source pixel.
		under := m * opacity * (1 - float32(px[3])/255)
		for ch := range 3 {
			out[i*4+ch] = clampUint8(float32(px[ch]) + tint[ch]*under)
		}
		out[i*4+3] = clampUint8(float32(px[3]) + 255*under)
	}
}

// shiftedAlpha returns the alpha of src in [0, 1] moved by (dx, dy).
func shiftedAlpha(src *textbehind.Pixmap, dx, dy int) plane {
	w, h := src.Width(), src.Height()
	p := plane{pix: make([]float32, w*h), w: w, h: h}
	data := src.Data()
	for y := max(dy, 0); y < min(h, h+dy); y++ {
		for x := max(dx, 0); x < min(w, w+dx); x++ {
			p.pix[y*w+x] = float32(data[((y-dy)*w+x-dx)*4+3]) / 255
		}
	}
	return p
}
