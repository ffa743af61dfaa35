package layer

import (
	"fmt"
	"math"

	"github.com/gogpu/textbehind/coord"
)

// Attr names a layer attribute for SetAttribute.
type Attr string

// Attributes of text layers.
const (
	AttrContent       Attr = "content"
	AttrFontFamily    Attr = "fontFamily"
	AttrLeft          Attr = "left"
	AttrTop           Attr = "top"
	AttrFontSize      Attr = "fontSize"
	AttrFontWeight    Attr = "fontWeight"
	AttrColor         Attr = "color"
	AttrOpacity       Attr = "opacity"
	AttrRotation      Attr = "rotation"
	AttrTiltX         Attr = "tiltX"
	AttrTiltY         Attr = "tiltY"
	AttrLetterSpacing Attr = "letterSpacing"
	AttrShadowColor   Attr = "shadowColor"
	AttrShadowSize    Attr = "shadowSize"
)

// Attributes of every layer kind.
const (
	AttrName    Attr = "name"
	AttrVisible Attr = "visible"
)

// Valid reports whether a names a known attribute.
func (a Attr) Valid() bool {
	switch a {
	case AttrContent, AttrFontFamily, AttrLeft, AttrTop, AttrFontSize,
		AttrFontWeight, AttrColor, AttrOpacity, AttrRotation, AttrTiltX,
		AttrTiltY, AttrLetterSpacing, AttrShadowColor, AttrShadowSize,
		AttrName, AttrVisible:
		return true
	}
	return false
}

// TextOnly reports whether a is only valid on text layers.
func (a Attr) TextOnly() bool {
	return a != AttrName && a != AttrVisible
}

// apply sets a on l and returns the updated layer.
func (a Attr) apply(l Layer, value any) (Layer, error) {
	if !a.Valid() {
		return l, fmt.Errorf("layer: %q: %w", string(a), ErrUnknownAttribute)
	}

	switch a {
	case AttrName:
		s, ok := value.(string)
		if !ok {
			return l, invalid(a, value)
		}
		l.Name = s
		return l, nil
	case AttrVisible:
		b, ok := value.(bool)
		if !ok {
			return l, invalid(a, value)
		}
		l.Visible = b
		return l, nil
	}

	p, ok := l.Text()
	if !ok {
		return l, fmt.Errorf("layer: %s on %s layer %q: %w", a, l.Kind, l.ID, ErrNotText)
	}

	switch a {
	case AttrContent, AttrFontFamily, AttrColor, AttrShadowColor:
		s, ok := value.(string)
		if !ok {
			return l, invalid(a, value)
		}
		switch a {
		case AttrContent:
			p.Content = s
			l.Name = displayName(s)
		case AttrFontFamily:
			p.FontFamily = s
		case AttrColor:
			p.Color = s
		default:
			p.ShadowColor = s
		}
		return l.withText(p), nil

	case AttrFontWeight:
		f, ok := toFloat(value)
		if !ok {
			return l, invalid(a, value)
		}
		p.FontWeight = int(math.Round(f))
		return l.withText(p), nil
	}

	f, ok := toFloat(value)
	if !ok {
		return l, invalid(a, value)
	}
	switch a {
	case AttrLeft:
		p.Left = f
	case AttrTop:
		p.Top = f
	case AttrFontSize:
		p.FontSize = f
	case AttrOpacity:
		p.Opacity = f
	case AttrRotation:
		p.Rotation = f
	case AttrTiltX:
		p.TiltX = f
	case AttrTiltY:
		p.TiltY = f
	case AttrLetterSpacing:
		p.LetterSpacing = f
	case AttrShadowSize:
		p.ShadowSize = f
	default:
		return l, fmt.Errorf("layer: %q: %w", string(a), ErrUnknownAttribute)
	}
	return l.withText(p), nil
}

func invalid(a Attr, value any) error {
	return fmt.Errorf("layer: %s = %v (%T): %w", a, value, value, ErrInvalidValue)
}

// toFloat accepts any Go integer or float kind.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clampPosition(v float64) float64 {
	return coord.Clamp(v)
}
