package compose

import "errors"

var (
	// ErrNoBackground is returned when there is no photo to compose onto.
	ErrNoBackground = errors.New("compose: no background image")

	// ErrEmptySurface is returned when the canvas would have no pixels.
	ErrEmptySurface = errors.New("compose: empty surface")

	// ErrFontUnavailable is returned when a text layer's font cannot be
	// resolved. The resolver's error is wrapped alongside it.
	ErrFontUnavailable = errors.New("compose: font unavailable")
)
