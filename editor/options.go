package editor

import (
	"github.com/jonboulle/clockwork"

	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/gesture"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

// Features switches optional text attributes on or off.
type Features struct {
	Tilt          bool // tiltX and tiltY
	LetterSpacing bool
}

// AllFeatures enables everything.
func AllFeatures() Features {
	return Features{Tilt: true, LetterSpacing: true}
}

// Option configures an Editor.
type Option func(*options)

type options struct {
	decoder  Decoder
	clock    clockwork.Clock
	features Features
	shaper   *text.Shaper
	geometry func(gesture.Surface) (coord.Rect, bool)
	store    []layer.Option
	gestures []gesture.Option
}

func defaultOptions() options {
	return options{
		decoder:  StdDecoder,
		clock:    clockwork.NewRealClock(),
		features: AllFeatures(),
	}
}

// WithDecoder sets the upload decoder. The default is StdDecoder.
func WithDecoder(d Decoder) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithClock sets the clock used for timestamps and timings.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFeatures sets the enabled features. The default is AllFeatures.
func WithFeatures(f Features) Option {
	return func(o *options) {
		o.features = f
	}
}

// WithShaper sets the shaper the compositor lays text out with.
func WithShaper(sh *text.Shaper) Option {
	return func(o *options) {
		o.shaper = sh
	}
}

// WithGeometry sets the geometry source for drags on surfaces other than
// the preview, such as a positioning pad. It is consulted before the
// preview rectangle set with SetViewport.
func WithGeometry(fn func(gesture.Surface) (coord.Rect, bool)) Option {
	return func(o *options) {
		o.geometry = fn
	}
}

// WithStoreOptions passes options to the layer store.
func WithStoreOptions(opts ...layer.Option) Option {
	return func(o *options) {
		o.store = append(o.store, opts...)
	}
}

// WithGestureOptions passes options to the gesture controller.
func WithGestureOptions(opts ...gesture.Option) Option {
	return func(o *options) {
		o.gestures = append(o.gestures, opts...)
	}
}
