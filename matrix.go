package textbehind

import "math"

// Point is a position in raster space (y down).
type Point struct {
	X, Y float64
}

// Pt returns Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Matrix is a 2D affine transform mapping (x, y) to
//
//	(A*x + B*y + C, D*x + E*y + F)
//
// Text layers are placed by composing a translation to the anchor, the
// tilt scale and the rotation; glyph outlines are then mapped through the
// result.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the transform that changes nothing.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate moves by (x, y).
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale stretches by x horizontally and y vertically.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate turns by angle radians, clockwise on screen.
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns m·n: n is applied first, then m.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}

// TransformPoint maps p through m.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}
