// Package blend implements the compositing operators used by the filter
// pipeline and the compositor.
//
// All operations work with premultiplied alpha values in the range 0-255,
// matching the layout of textbehind.Pixmap.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import (
	"image"

	"github.com/gogpu/textbehind"
)

// Mode selects a compositing operation.
type Mode uint8

const (
	// SourceOver is the default: S + D*(1-Sa).
	SourceOver Mode = iota
	// Overlay multiplies or screens depending on the backdrop.
	Overlay
)

// String returns the CSS name of the mode.
func (m Mode) String() string {
	switch m {
	case SourceOver:
		return "source-over"
	case Overlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Func is the signature for per-pixel blend operations.
// All values are premultiplied alpha, 0-255.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// FuncFor returns the blend function for the given mode.
// Unknown modes fall back to source-over.
func FuncFor(mode Mode) Func {
	switch mode {
	case Overlay:
		return blendOverlay
	default:
		return blendSourceOver
	}
}

// blendSourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func blendSourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addClamp(sr, mulDiv255(dr, invSa)),
		addClamp(sg, mulDiv255(dg, invSa)),
		addClamp(sb, mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}

// blendOverlay combines Multiply and Screen.
// Formula: B(Cb, Cs) = HardLight(Cs, Cb) (swapped parameters)
func blendOverlay(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separableBlend(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		// if Cb <= 0.5: 2 * Cb * Cs
		// else: 1 - 2 * (1 - Cb) * (1 - Cs)
		if d <= 127 {
			return byte(div255(2 * uint16(d) * uint16(s)))
		}
		return 255 - byte(div255(2*uint16(255-d)*uint16(255-s)))
	})
}

// separableBlend applies a per-channel blend function.
// It handles the standard formula:
//
//	Result = (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Sc, Dc)
//
// where B(Sc, Dc) operates on unmultiplied channels.
func separableBlend(sr, sg, sb, sa, dr, dg, db, da byte, blendChan func(s, d byte) byte) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	blendR := blendChan(unpremultiply(sr, sa), unpremultiply(dr, da))
	blendG := blendChan(unpremultiply(sg, sa), unpremultiply(dg, da))
	blendB := blendChan(unpremultiply(sb, sa), unpremultiply(db, da))

	invSa := 255 - sa
	invDa := 255 - da
	saDa := mulDiv255(sa, da)

	finalA := addClamp(sa, mulDiv255(da, invSa))
	finalR := addClamp(addClamp(mulDiv255(dr, invSa), mulDiv255(sr, invDa)), mulDiv255(saDa, blendR))
	finalG := addClamp(addClamp(mulDiv255(dg, invSa), mulDiv255(sg, invDa)), mulDiv255(saDa, blendG))
	finalB := addClamp(addClamp(mulDiv255(db, invSa), mulDiv255(sb, invDa)), mulDiv255(saDa, blendB))

	return finalR, finalG, finalB, finalA
}

// Fill blends a solid color over every pixel of dst, like a full-surface
// fillRect under the given composite operation.
func Fill(dst *textbehind.Pixmap, c textbehind.RGBA, mode Mode) {
	if dst.Empty() {
		return
	}
	fn := FuncFor(mode)
	sr, sg, sb, sa := c.Premultiplied()
	if sa == 0 {
		return
	}
	data := dst.Data()
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = fn(sr, sg, sb, sa, data[i], data[i+1], data[i+2], data[i+3])
	}
}

// Composite draws src onto dst with its top-left corner at (x, y), scaling
// src by opacity first (a global alpha). Pixels outside dst are skipped.
func Composite(dst, src *textbehind.Pixmap, x, y int, mode Mode, opacity float64) {
	if dst.Empty() || src.Empty() || opacity <= 0 {
		return
	}
	alpha := byte(255)
	if opacity < 1 {
		alpha = byte(opacity*255 + 0.5)
	}
	fn := FuncFor(mode)

	sd, dd := src.Data(), dst.Data()
	sw, dw := src.Width(), dst.Width()
	for sy := 0; sy < src.Height(); sy++ {
		ty := y + sy
		if ty < 0 || ty >= dst.Height() {
			continue
		}
		for sx := 0; sx < sw; sx++ {
			tx := x + sx
			if tx < 0 || tx >= dw {
				continue
			}
			si := (sy*sw + sx) * 4
			sa := sd[si+3]
			if sa == 0 {
				continue
			}
			sr, sg, sb := sd[si], sd[si+1], sd[si+2]
			if alpha != 255 {
				sr, sg, sb, sa = mulDiv255(sr, alpha), mulDiv255(sg, alpha), mulDiv255(sb, alpha), mulDiv255(sa, alpha)
			}
			di := (ty*dw + tx) * 4
			dd[di], dd[di+1], dd[di+2], dd[di+3] = fn(sr, sg, sb, sa, dd[di], dd[di+1], dd[di+2], dd[di+3])
		}
	}
}

// FillMask composites color c onto dst through a coverage mask using
// source-over. The mask's top-left pixel lands on dst at (at.X, at.Y).
func FillMask(dst *textbehind.Pixmap, mask *image.Alpha, at image.Point, c textbehind.RGBA) {
	if dst.Empty() || mask == nil {
		return
	}
	cr, cg, cb, ca := c.Premultiplied()
	if ca == 0 {
		return
	}

	mb := mask.Bounds()
	dd := dst.Data()
	dw := dst.Width()
	for my := mb.Min.Y; my < mb.Max.Y; my++ {
		ty := at.Y + my - mb.Min.Y
		if ty < 0 || ty >= dst.Height() {
			continue
		}
		for mx := mb.Min.X; mx < mb.Max.X; mx++ {
			tx := at.X + mx - mb.Min.X
			if tx < 0 || tx >= dw {
				continue
			}
			cov := mask.Pix[mask.PixOffset(mx, my)]
			if cov == 0 {
				continue
			}
			sr, sg, sb, sa := cr, cg, cb, ca
			if cov != 255 {
				sr, sg, sb, sa = mulDiv255(cr, cov), mulDiv255(cg, cov), mulDiv255(cb, cov), mulDiv255(ca, cov)
			}
			di := (ty*dw + tx) * 4
			dd[di], dd[di+1], dd[di+2], dd[di+3] = blendSourceOver(sr, sg, sb, sa, dd[di], dd[di+1], dd[di+2], dd[di+3])
		}
	}
}
