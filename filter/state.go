package filter

// State is the user's filter selection.
type State struct {
	Preset      string
	Intensity   float64 // 0..100
	ApplyToFull bool    // filter the whole composite, or only the background
}

// DefaultState is the selection a fresh editor starts with.
func DefaultState() State {
	return State{Preset: Original, Intensity: 100, ApplyToFull: true}
}

// Settings resolves the state to effective settings. Unknown presets
// resolve to Neutral.
func (s State) Settings() Settings {
	p, ok := Lookup(s.Preset)
	if !ok {
		return Neutral
	}
	return EffectiveSettings(p, s.Intensity)
}

// Active reports whether rendering the state changes any pixel.
func (s State) Active() bool {
	return !s.Settings().IsNeutral()
}

// Descriptor is PreviewDescriptor for the state.
func (s State) Descriptor() string {
	return PreviewDescriptor(s.Preset, s.Intensity)
}
