package filter

import (
	"image"
	"math"

	"github.com/gogpu/textbehind"
)

// ColorMatrix is a row-major 4x5 matrix mapping straight-alpha RGBA in
// [0, 255] to new RGBA. Row i computes channel i from R, G, B, A and a
// constant term in the last column, as in the CSS feColorMatrix primitive.
type ColorMatrix [20]float32

// Luma weights used by the CSS saturate and hue-rotate filters.
const (
	lumR = 0.213
	lumG = 0.715
	lumB = 0.072
)

// IdentityMatrix returns the matrix that leaves colours unchanged.
func IdentityMatrix() ColorMatrix {
	return diagonal(1, 0)
}

// diagonal scales R, G and B by k and adds bias to each of them.
func diagonal(k, bias float32) ColorMatrix {
	var m ColorMatrix
	for ch := range 3 {
		m[ch*5+ch] = k
		m[ch*5+4] = bias
	}
	m[18] = 1
	return m
}

// Brightness is the CSS brightness() filter. 0 is black, 1 is neutral.
func Brightness(amount float32) ColorMatrix {
	return diagonal(amount, 0)
}

// Contrast is the CSS contrast() filter. 0 is flat mid grey, 1 is neutral.
func Contrast(amount float32) ColorMatrix {
	return diagonal(amount, 127.5*(1-amount))
}

// Saturation is the CSS saturate() filter. 0 is greyscale, 1 is neutral.
func Saturation(amount float32) ColorMatrix {
	inv := 1 - amount
	m := IdentityMatrix()
	weights := [3]float32{lumR, lumG, lumB}
	for row := range 3 {
		for col := range 3 {
			v := weights[col] * inv
			if row == col {
				v += amount
			}
			m[row*5+col] = v
		}
	}
	return m
}

// HueRotate is the CSS hue-rotate() filter for an angle in radians.
func HueRotate(radians float64) ColorMatrix {
	s64, c64 := math.Sincos(radians)
	c, s := float32(c64), float32(s64)

	// Coefficients of cos and sin from the Filter Effects recommendation.
	cosTerm := [9]float32{
		1 - lumR, -lumG, -lumB,
		-lumR, 1 - lumG, -lumB,
		-lumR, -lumG, 1 - lumB,
	}
	sinTerm := [9]float32{
		-lumR, -lumG, 1 - lumB,
		0.143, 0.140, -0.283,
		-(1 - lumR), lumG, lumB,
	}
	base := [3]float32{lumR, lumG, lumB}

	m := IdentityMatrix()
	for row := range 3 {
		for col := range 3 {
			i := row*3 + col
			m[row*5+col] = base[col] + c*cosTerm[i] + s*sinTerm[i]
		}
	}
	return m
}

// IsIdentity reports whether m leaves every colour unchanged.
func (m ColorMatrix) IsIdentity() bool {
	return m == IdentityMatrix()
}

// Then returns the matrix that applies m and then next.
func (m ColorMatrix) Then(next ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := range 4 {
		n := next[row*5 : row*5+5]
		for col := range 5 {
			var sum float32
			for k := range 4 {
				sum += n[k] * m[k*5+col]
			}
			if col == 4 {
				sum += n[4]
			}
			out[row*5+col] = sum
		}
	}
	return out
}

// transform maps one straight-alpha pixel through m.
func (m ColorMatrix) transform(in [4]float32) [4]float32 {
	var out [4]float32
	for row := range 4 {
		r := m[row*5 : row*5+5]
		v := r[0]*in[0] + r[1]*in[1] + r[2]*in[2] + r[3]*in[3] + r[4]
		out[row] = min(max(v, 0), 255)
	}
	return out
}

// Apply writes the pixels of src inside bounds, transformed by m, to dst.
// Premultiplied input is divided by alpha first and the result is
// premultiplied again. src and dst may be the same pixmap.
func (m ColorMatrix) Apply(src, dst *textbehind.Pixmap, bounds image.Rectangle) {
	if src.Empty() || dst.Empty() {
		return
	}
	bounds = clipBounds(bounds, min(src.Width(), dst.Width()), min(src.Height(), dst.Height()))
	if bounds.Empty() {
		return
	}

	in, out := src.Data(), dst.Data()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			si := (y*src.Width() + x) * 4
			di := (y*dst.Width() + x) * 4

			px := [4]float32{0, 0, 0, float32(in[si+3])}
			if a := px[3]; a > 0 {
				for ch := range 3 {
					px[ch] = float32(in[si+ch]) * 255 / a
				}
			}

			px = m.transform(px)
			k := px[3] / 255
			for ch := range 3 {
				out[di+ch] = clampUint8(px[ch] * k)
			}
			out[di+3] = clampUint8(px[3])
		}
	}
}
