package filter

import "github.com/gogpu/textbehind"

// createTestPixmap creates a pixmap filled with the given color.
func createTestPixmap(w, h int, color textbehind.RGBA) *textbehind.Pixmap {
	p := textbehind.NewPixmap(w, h)
	p.Clear(color)
	return p
}

// colorApproxEqual compares two colors with tolerance.
func colorApproxEqual(a, b textbehind.RGBA, tolerance float64) bool {
	return absf(a.R-b.R) < tolerance &&
		absf(a.G-b.G) < tolerance &&
		absf(a.B-b.B) < tolerance &&
		absf(a.A-b.A) < tolerance
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
