package textbehind

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1] and is not premultiplied.
type RGBA struct {
	R, G, B, A float64
}

// ErrInvalidColor is returned when a CSS color string cannot be parsed.
var ErrInvalidColor = errors.New("textbehind: invalid color")

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R*255 + 0.5)),
		G: uint8(clamp255(c.G*255 + 0.5)),
		B: uint8(clamp255(c.B*255 + 0.5)),
		A: uint8(clamp255(c.A*255 + 0.5)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return RGBA{
		R: float64(n.R) / 65535,
		G: float64(n.G) / 65535,
		B: float64(n.B) / 65535,
		A: float64(n.A) / 65535,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// RGBA2 creates a color from RGBA components.
func RGBA2(r, g, b, a float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: a}
}

// WithAlpha returns the color with its alpha multiplied by f.
func (c RGBA) WithAlpha(f float64) RGBA {
	c.A *= f
	return c
}

// Premultiplied returns the color as premultiplied 8-bit channels.
func (c RGBA) Premultiplied() (r, g, b, a uint8) {
	a8 := clamp255(c.A*255 + 0.5)
	return uint8(clamp255(c.R*a8 + 0.5)),
		uint8(clamp255(c.G*a8 + 0.5)),
		uint8(clamp255(c.B*a8 + 0.5)),
		uint8(a8)
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without '#'.
// Malformed input yields opaque black.
func Hex(hex string) RGBA {
	c, err := parseHex(strings.TrimPrefix(hex, "#"))
	if err != nil {
		return Black
	}
	return c
}

// ParseColor parses the subset of CSS color syntax used for text and shadow
// colors: named colors, #hex forms, rgb() and rgba().
func ParseColor(s string) (RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RGBA{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := parseHex(s[1:])
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return c, nil
	}

	var args string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[len("rgb(") : len(s)-1]
	default:
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	parts := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		v, err := parseComponent(p, i == 3)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		ch[i] = v
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// MustParseColor is like ParseColor but falls back to opaque black.
func MustParseColor(s string) RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return Black
	}
	return c
}

// parseComponent parses one rgb()/rgba() argument into [0,1].
// Color channels are 0-255 or percentages; alpha is 0-1 or a percentage.
func parseComponent(p string, alpha bool) (float64, error) {
	if strings.HasSuffix(p, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clampUnit(v / 100), nil
	}
	v, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	if alpha {
		return clampUnit(v), nil
	}
	return clampUnit(v / 255), nil
}

func parseHex(hex string) (RGBA, error) {
	var r, g, b, a uint64
	a = 255

	var err error
	switch len(hex) {
	case 3, 4:
		var v [4]uint64
		for i := range len(hex) {
			if v[i], err = strconv.ParseUint(hex[i:i+1], 16, 8); err != nil {
				return RGBA{}, err
			}
			v[i] *= 17
		}
		r, g, b = v[0], v[1], v[2]
		if len(hex) == 4 {
			a = v[3]
		}
	case 6, 8:
		var v [4]uint64
		for i := 0; i < len(hex); i += 2 {
			if v[i/2], err = strconv.ParseUint(hex[i:i+2], 16, 8); err != nil {
				return RGBA{}, err
			}
		}
		r, g, b = v[0], v[1], v[2]
		if len(hex) == 8 {
			a = v[3]
		}
	default:
		return RGBA{}, ErrInvalidColor
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

// clamp255 restricts a value to [0, 255] range.
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	Orange      = RGB(1, 165.0/255, 0)
	Transparent = RGBA2(0, 0, 0, 0)
)

var namedColors = map[string]RGBA{
	"black":       Black,
	"white":       White,
	"red":         Red,
	"lime":        Green,
	"green":       RGB(0, 128.0/255, 0),
	"blue":        Blue,
	"yellow":      RGB(1, 1, 0),
	"cyan":        RGB(0, 1, 1),
	"aqua":        RGB(0, 1, 1),
	"magenta":     RGB(1, 0, 1),
	"fuchsia":     RGB(1, 0, 1),
	"orange":      Orange,
	"purple":      RGB(128.0/255, 0, 128.0/255),
	"pink":        RGB(1, 192.0/255, 203.0/255),
	"gray":        RGB(128.0/255, 128.0/255, 128.0/255),
	"grey":        RGB(128.0/255, 128.0/255, 128.0/255),
	"silver":      RGB(192.0/255, 192.0/255, 192.0/255),
	"navy":        RGB(0, 0, 128.0/255),
	"teal":        RGB(0, 128.0/255, 128.0/255),
	"maroon":      RGB(128.0/255, 0, 0),
	"gold":        RGB(1, 215.0/255, 0),
	"transparent": Transparent,
}
