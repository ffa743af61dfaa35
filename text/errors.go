package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrFontNotFound is returned when no registered font can serve a
	// family, not even the fallback.
	ErrFontNotFound = errors.New("text: font not found")
)

// FontError describes a font file that could not be used.
type FontError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FontError) Error() string {
	if e.Path != "" {
		return "text: " + e.Path + ": " + e.Reason
	}
	return "text: " + e.Reason
}

func (e *FontError) Unwrap() error {
	return e.Err
}
