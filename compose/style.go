package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/layer"
)

// Style is the live-preview presentation of a text layer, in CSS terms.
// A preview surface that lays text out with a browser engine reproduces
// the export by applying these declarations to an absolutely positioned,
// centred element.
type Style struct {
	Top           string // "50%" is the vertical centre
	Left          string
	Transform     string
	Color         string
	FontSize      string
	FontWeight    int
	FontFamily    string
	Opacity       float64
	LetterSpacing string
	TextShadow    string
	Filter        string
}

// TextStyle returns the preview style of text layer l. ok is false for
// image layers. The filter applies to text only when the selection covers
// the whole composite.
func TextStyle(l layer.Layer, st filter.State) (s Style, ok bool) {
	p, ok := l.Text()
	if !ok {
		return Style{}, false
	}

	shadow := "none"
	if p.ShadowSize > 0 {
		shadow = fmt.Sprintf("0 %spx %spx %s", num(p.ShadowSize/2), num(p.ShadowSize), p.ShadowColor)
	}
	flt := "none"
	if st.ApplyToFull {
		flt = st.Descriptor()
	}

	return Style{
		Top:  num(50-p.Top) + "%",
		Left: num(p.Left+50) + "%",
		Transform: fmt.Sprintf("translate(-50%%, -50%%) rotate(%sdeg) perspective(1000px) rotateX(%sdeg) rotateY(%sdeg)",
			num(p.Rotation), num(p.TiltX), num(p.TiltY)),
		Color:         p.Color,
		FontSize:      num(p.FontSize) + "px",
		FontWeight:    p.FontWeight,
		FontFamily:    p.FontFamily + ", sans-serif",
		Opacity:       p.Opacity,
		LetterSpacing: num(p.LetterSpacing) + "px",
		TextShadow:    shadow,
		Filter:        flt,
	}, true
}

// CSS renders s as an inline style declaration list.
func (s Style) CSS() string {
	var b strings.Builder
	decl := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("; ")
	}
	decl("position", "absolute")
	decl("top", s.Top)
	decl("left", s.Left)
	decl("transform", s.Transform)
	decl("color", s.Color)
	decl("text-align", "center")
	decl("font-size", s.FontSize)
	decl("font-weight", strconv.Itoa(s.FontWeight))
	decl("font-family", s.FontFamily)
	decl("opacity", num(s.Opacity))
	decl("letter-spacing", s.LetterSpacing)
	decl("text-shadow", s.TextShadow)
	decl("filter", s.Filter)
	return strings.TrimSuffix(b.String(), " ")
}

// FilterStyle returns the preview filter of the background image. The
// subject shares it only when st.ApplyToFull is set.
func FilterStyle(st filter.State) string {
	return st.Descriptor()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
