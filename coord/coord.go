// Package coord converts between normalized layer space and pixel space.
//
// Normalized space is resolution independent: the origin sits at the centre
// of the viewport and both axes span [-50, 50]. The vertical axis points up,
// so a positive top value places a layer above the centre. The same
// conversions are used by the interactive preview, the gesture controller
// and the export compositor, which is what keeps them in agreement.
package coord

import "math"

// Bounds of normalized space on both axes.
const (
	Min = -50.0
	Max = 50.0
)

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Sz is a convenience function to create a Size.
func Sz(w, h float64) Size {
	return Size{W: w, H: h}
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return !(s.W > 0) || !(s.H > 0)
}

// Rect is an axis-aligned rectangle in pixel space, for example a
// viewport's bounding box in client coordinates.
type Rect struct {
	X, Y, W, H float64
}

// RectOf returns a rectangle anchored at the origin with the given size.
func RectOf(s Size) Rect {
	return Rect{W: s.W, H: s.H}
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Size().Empty()
}

// Contains reports whether the pixel lies inside the rectangle.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// Clamp restricts v to normalized space.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(Min, math.Min(Max, v))
}

// ToPixel maps a normalized position to a pixel inside r.
//
//	x = r.X + r.W * (nx + 50) / 100
//	y = r.Y + r.H * (50 - ny) / 100
func ToPixel(nx, ny float64, r Rect) (x, y float64) {
	x = r.X + r.W*(nx+50)/100
	y = r.Y + r.H*(50-ny)/100
	return x, y
}

// ToNormalized is the inverse of ToPixel with both axes clamped to
// normalized space. An empty rectangle maps everything to the centre.
func ToNormalized(px, py float64, r Rect) (nx, ny float64) {
	if r.Empty() {
		return 0, 0
	}
	nx = (px-r.X)/r.W*100 - 50
	ny = 50 - (py-r.Y)/r.H*100
	return Clamp(nx), Clamp(ny)
}

// FitScale returns the single factor that fits native inside viewport while
// preserving aspect ratio: min(viewport.W/native.W, viewport.H/native.H).
// Degenerate sizes yield 0.
func FitScale(native, viewport Size) float64 {
	if native.Empty() || viewport.Empty() {
		return 0
	}
	return math.Min(viewport.W/native.W, viewport.H/native.H)
}

// FontScale converts preview font units to native export pixels. It is the
// inverse of FitScale, or 1 when no meaningful scale exists.
func FontScale(native, viewport Size) float64 {
	s := FitScale(native, viewport)
	if s == 0 {
		return 1
	}
	return 1 / s
}

// Letterbox returns where an image of size native lands when fitted and
// centred inside viewport, in viewport coordinates.
func Letterbox(native Size, viewport Rect) Rect {
	s := FitScale(native, viewport.Size())
	if s == 0 {
		return Rect{}
	}
	w, h := native.W*s, native.H*s
	return Rect{
		X: viewport.X + (viewport.W-w)/2,
		Y: viewport.Y + (viewport.H-h)/2,
		W: w,
		H: h,
	}
}
