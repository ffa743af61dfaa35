package editor

import "errors"

var (
	// ErrNoImage is returned by operations that need an uploaded image.
	ErrNoImage = errors.New("editor: no image uploaded")

	// ErrEmptyImage is returned when an upload decodes to zero pixels.
	ErrEmptyImage = errors.New("editor: image has no pixels")

	// ErrStaleUpload is returned when a background removal finishes for an
	// upload that a newer upload has replaced. The result is discarded.
	ErrStaleUpload = errors.New("editor: stale upload")

	// ErrRemovalFailed wraps the cause of a failed background removal.
	ErrRemovalFailed = errors.New("editor: background removal failed")

	// ErrFeatureDisabled is returned when an attribute needs a feature
	// that is switched off.
	ErrFeatureDisabled = errors.New("editor: feature disabled")

	// ErrUnknownPreset is returned for a filter name with no preset.
	ErrUnknownPreset = errors.New("editor: unknown filter preset")

	// ErrNoCutout is returned by SidecarRemover when it has no file to
	// read.
	ErrNoCutout = errors.New("editor: no cutout file")
)
