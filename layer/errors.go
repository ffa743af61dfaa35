package layer

import "errors"

var (
	// ErrNotFound is returned when no layer has the given id.
	ErrNotFound = errors.New("layer: not found")

	// ErrUnknownAttribute is returned for an attribute name the store
	// does not know.
	ErrUnknownAttribute = errors.New("layer: unknown attribute")

	// ErrInvalidValue is returned when a value has the wrong type for
	// its attribute.
	ErrInvalidValue = errors.New("layer: invalid value")

	// ErrNotText is returned when a text-only operation targets an image
	// layer.
	ErrNotText = errors.New("layer: not a text layer")
)
