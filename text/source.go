package text

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontSource represents a loaded font file.
// FontSource is heavyweight and should be shared across the application.
//
// FontSource is safe for concurrent use.
// FontSource must not be copied after creation (enforced by copyCheck).
type FontSource struct {
	// addr is used for copy protection (Ebitengine pattern).
	// It must point to the FontSource itself.
	addr *FontSource

	data   []byte
	font   *sfnt.Font
	family string
	style  string
	weight int

	// sfnt.Buffer is not safe for concurrent use.
	buffers sync.Pool

	shapeOnce sync.Once
	shapeFont *gtfont.Font
	shapeErr  error
}

// FontMetrics holds vertical metrics at a given size, in pixels.
// Descent is positive below the baseline.
type FontMetrics struct {
	Ascent  float64
	Descent float64
	Height  float64
}

// NewFontSource creates a FontSource from font data (TTF or OTF).
// The data slice is copied internally and can be reused after this call.
func NewFontSource(data []byte) (*FontSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &FontError{Reason: "failed to parse font", Err: err}
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	s := &FontSource{
		data: dataCopy,
		font: f,
	}
	s.addr = s
	s.buffers.New = func() any { return new(sfnt.Buffer) }

	s.family = nameOr(f, sfnt.NameIDTypographicFamily, nameOr(f, sfnt.NameIDFamily, "Unknown Font"))
	s.style = nameOr(f, sfnt.NameIDTypographicSubfamily, nameOr(f, sfnt.NameIDSubfamily, "Regular"))
	s.weight = weightFromStyle(s.style)
	return s, nil
}

// NewFontSourceFromFile loads a FontSource from a font file path.
func NewFontSourceFromFile(path string) (*FontSource, error) {
	// #nosec G304 -- Font file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("text: failed to read font file: %w", err)
	}
	s, err := NewFontSource(data)
	if err != nil {
		if fe, ok := err.(*FontError); ok {
			fe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Family returns the font family name.
func (s *FontSource) Family() string {
	s.copyCheck()
	return s.family
}

// Style returns the subfamily name, such as "Bold" or "Regular".
func (s *FontSource) Style() string {
	s.copyCheck()
	return s.style
}

// Weight returns the CSS weight derived from the style name.
func (s *FontSource) Weight() int {
	s.copyCheck()
	return s.weight
}

// Metrics returns the vertical metrics at size pixels per em.
func (s *FontSource) Metrics(size float64) FontMetrics {
	s.copyCheck()
	buf := s.buffers.Get().(*sfnt.Buffer)
	defer s.buffers.Put(buf)

	m, err := s.font.Metrics(buf, floatToFixed(size), font.HintingNone)
	if err != nil {
		return FontMetrics{}
	}
	return FontMetrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		Height:  fixedToFloat(m.Height),
	}
}

// withGlyph loads the outline of glyph gid at size and passes the
// segments to fn. The segments are only valid during fn.
func (s *FontSource) withGlyph(gid GlyphID, size float64, fn func(sfnt.Segments)) error {
	buf := s.buffers.Get().(*sfnt.Buffer)
	defer s.buffers.Put(buf)

	segs, err := s.font.LoadGlyph(buf, sfnt.GlyphIndex(gid), floatToFixed(size), nil)
	if err != nil {
		return err
	}
	fn(segs)
	return nil
}

// shaping returns the go-text font used by the shaper, parsing it once.
// font.Font is read-only and safe for concurrent use, unlike font.Face.
func (s *FontSource) shaping() (*gtfont.Font, error) {
	s.shapeOnce.Do(func() {
		face, err := gtfont.ParseTTF(bytes.NewReader(s.data))
		if err != nil {
			s.shapeErr = &FontError{Reason: "failed to load font for shaping", Err: err}
			return
		}
		s.shapeFont = face.Font
	})
	return s.shapeFont, s.shapeErr
}

// copyCheck panics if FontSource was copied by value.
func (s *FontSource) copyCheck() {
	if s.addr != s {
		panic("text: FontSource must not be copied by value")
	}
}

func nameOr(f *sfnt.Font, id sfnt.NameID, fallback string) string {
	if name, err := f.Name(nil, id); err == nil && name != "" {
		return name
	}
	return fallback
}

// weightFromStyle maps a subfamily name to a CSS font weight.
func weightFromStyle(style string) int {
	s := strings.ToLower(style)
	s = strings.NewReplacer(" ", "", "-", "", "_", "", "italic", "", "oblique", "").Replace(s)
	switch s {
	case "thin", "hairline":
		return 100
	case "extralight", "ultralight":
		return 200
	case "light":
		return 300
	case "medium":
		return 500
	case "semibold", "demibold":
		return 600
	case "bold":
		return 700
	case "extrabold", "ultrabold":
		return 800
	case "black", "heavy":
		return 900
	default:
		return 400
	}
}

// floatToFixed converts a float64 to fixed.Int26_6.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
