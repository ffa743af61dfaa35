package gesture

// Defaults of the controller's tuning knobs.
const (
	DefaultSnapThreshold      = 2.0
	DefaultPinchSensitivity   = 3.0
	DefaultScrollSensitivity  = 0.2
	DefaultTrackpadMultiplier = 1.5
	DefaultNudgeStep          = 2.0

	// trackpadDelta is the wheel delta below which a wheel event is taken
	// to come from a trackpad pinch rather than a mouse wheel notch.
	trackpadDelta = 10
)

// Option configures a Controller.
type Option func(*options)

type options struct {
	snapThreshold      float64
	pinchSensitivity   float64
	scrollSensitivity  float64
	trackpadMultiplier float64
	nudgeStep          float64
	listeners          *Listeners
}

func defaultOptions() options {
	return options{
		snapThreshold:      DefaultSnapThreshold,
		pinchSensitivity:   DefaultPinchSensitivity,
		scrollSensitivity:  DefaultScrollSensitivity,
		trackpadMultiplier: DefaultTrackpadMultiplier,
		nudgeStep:          DefaultNudgeStep,
	}
}

// WithSnapThreshold sets the distance from centre, in normalized units,
// within which a dragged axis snaps to 0. Zero disables snapping.
func WithSnapThreshold(v float64) Option {
	return func(o *options) {
		if v >= 0 {
			o.snapThreshold = v
		}
	}
}

// WithPinchSensitivity sets the factor applied to pinch distance changes.
func WithPinchSensitivity(v float64) Option {
	return func(o *options) {
		o.pinchSensitivity = v
	}
}

// WithScrollSensitivity sets the factor applied to wheel deltas.
func WithScrollSensitivity(v float64) Option {
	return func(o *options) {
		o.scrollSensitivity = v
	}
}

// WithTrackpadMultiplier sets the extra factor for small wheel deltas.
func WithTrackpadMultiplier(v float64) Option {
	return func(o *options) {
		o.trackpadMultiplier = v
	}
}

// WithNudgeStep sets the distance, in normalized units, of one nudge.
func WithNudgeStep(v float64) Option {
	return func(o *options) {
		if v > 0 {
			o.nudgeStep = v
		}
	}
}

// WithListeners makes drag sessions subscribe to l instead of a private
// set, so the UI layer can dispatch window-level events into it.
func WithListeners(l *Listeners) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = l
		}
	}
}
