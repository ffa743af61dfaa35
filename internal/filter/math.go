package filter

import "image"

// clampUint8 rounds v to the nearest byte, saturating at 0 and 255.
func clampUint8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// clipBounds limits bounds to a w x h surface.
func clipBounds(bounds image.Rectangle, w, h int) image.Rectangle {
	return bounds.Intersect(image.Rect(0, 0, w, h))
}
