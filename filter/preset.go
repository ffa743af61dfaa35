// Package filter maps named photo filter presets and an intensity to
// concrete channel adjustments, for both the live preview descriptor and
// raster rendering.
//
// A preset has five parameters: brightness, contrast and saturation are
// multipliers (neutral 1), hue rotation is in radians (neutral 0), and
// warmth is a signed strength for a translucent color overlay (neutral 0).
package filter

import (
	"strconv"
	"strings"
)

// Settings holds the five scalar parameters of a filter.
type Settings struct {
	Brightness float64
	Contrast   float64
	Saturate   float64
	HueRotate  float64 // radians
	Warmth     float64 // >0 warm (orange), <0 cool (blue)
}

// Neutral is the no-op setting.
var Neutral = Settings{Brightness: 1, Contrast: 1, Saturate: 1}

// IsNeutral reports whether s leaves an image unchanged.
func (s Settings) IsNeutral() bool {
	return s == Neutral
}

// Preset is a named, labelled filter.
type Preset struct {
	Name     string
	Label    string
	Settings Settings
}

// Original is the name of the preset that applies nothing.
const Original = "original"

// Approximate ratios of the familiar phone photo filters.
var presets = []Preset{
	{Original, "Original", Neutral},
	{"vivid", "Vivid", Settings{Contrast: 1.25, Saturate: 1.3, Brightness: 1.05}},
	{"vivid-warm", "Vivid Warm", Settings{Contrast: 1.25, Saturate: 1.3, Brightness: 1, HueRotate: 0.03, Warmth: 0.2}},
	{"vivid-cool", "Vivid Cool", Settings{Contrast: 1.25, Saturate: 1.3, Brightness: 1, HueRotate: -0.03, Warmth: -0.2}},
	{"dramatic", "Dramatic", Settings{Contrast: 1.35, Saturate: 0.8, Brightness: 0.9}},
	{"dramaticWarm", "Dramatic Warm", Settings{Contrast: 1.4, Brightness: 0.93, Saturate: 0.85, HueRotate: 5, Warmth: 0.25}},
	{"dramatic-cool", "Dramatic Cool", Settings{Contrast: 1.35, Saturate: 0.8, Brightness: 0.9, Warmth: -0.2}},
	{"mono", "Mono", Settings{Contrast: 1, Saturate: 0, Brightness: 1}},
	{"silvertone", "Silvertone", Settings{Contrast: 1.1, Saturate: 0.1, Brightness: 1.05}},
	{"noir", "Noir", Settings{Contrast: 1.25, Saturate: 0, Brightness: 0.95}},
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Lookup returns the preset with the given name.
func Lookup(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// EffectiveSettings interpolates linearly from Neutral toward the preset's
// settings by intensity/100. Intensity is clamped to [0, 100]; 0 yields
// Neutral and 100 yields the preset's settings exactly.
func EffectiveSettings(p Preset, intensity float64) Settings {
	switch {
	case !(intensity > 0): // also catches NaN
		return Neutral
	case intensity >= 100:
		return p.Settings
	}
	t := intensity / 100
	s := p.Settings
	return Settings{
		Brightness: 1 + (s.Brightness-1)*t,
		Contrast:   1 + (s.Contrast-1)*t,
		Saturate:   1 + (s.Saturate-1)*t,
		HueRotate:  s.HueRotate * t,
		Warmth:     s.Warmth * t,
	}
}

// PreviewDescriptor returns the CSS filter string for the live preview:
// "none" for an unknown preset, the original preset or zero intensity,
// otherwise the four channel functions. Warmth has no CSS equivalent and
// is not part of the descriptor.
func PreviewDescriptor(name string, intensity float64) string {
	p, ok := Lookup(name)
	if !ok || name == Original || !(intensity > 0) {
		return "none"
	}
	return EffectiveSettings(p, intensity).Descriptor()
}

// Descriptor formats s as a CSS filter function list.
func (s Settings) Descriptor() string {
	var b strings.Builder
	b.WriteString("brightness(")
	b.WriteString(formatNumber(s.Brightness))
	b.WriteString(") contrast(")
	b.WriteString(formatNumber(s.Contrast))
	b.WriteString(") saturate(")
	b.WriteString(formatNumber(s.Saturate))
	b.WriteString(") hue-rotate(")
	b.WriteString(formatNumber(s.HueRotate))
	b.WriteString("rad)")
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
