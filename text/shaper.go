package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/textbehind/internal/cache"
)

// runCacheSize bounds the shaped runs a Shaper keeps. Previews re-shape
// the same strings every frame.
const runCacheSize = 1024

// GlyphID is a glyph index within a font.
type GlyphID uint16

// Glyph is a positioned glyph of a shaped run. Positions are in pixels
// relative to the run's pen origin on the baseline, y down.
type Glyph struct {
	ID      GlyphID
	Cluster int // rune index of the first rune this glyph represents
	X, Y    float64
	Advance float64
}

// Run is a shaped, single-line run of text.
type Run struct {
	Source  *FontSource
	Size    float64
	Glyphs  []Glyph
	Advance float64
}

// Empty reports whether the run has no glyphs.
func (r Run) Empty() bool {
	return len(r.Glyphs) == 0
}

// Shaper converts text into positioned glyphs using go-text/typesetting's
// HarfBuzz implementation, so kerning and ligatures match what a browser
// would lay out.
//
// Shaper is safe for concurrent use. HarfbuzzShaper instances hold
// mutable buffers, so they are pooled. Shaped runs are cached; the glyphs
// of a returned run are shared and must not be modified.
type Shaper struct {
	pool sync.Pool
	runs *cache.LRU[runKey, Run]
}

type runKey struct {
	src  *FontSource
	text string
	size float64
}

// NewShaper creates a Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		runs: cache.New[runKey, Run](runCacheSize),
	}
}

var defaultShaper = NewShaper()

// DefaultShaper returns the package-wide shaper.
func DefaultShaper() *Shaper {
	return defaultShaper
}

// Shape lays out s as one left-to-right line at size pixels per em.
// The text is NFC-normalized first.
func (sh *Shaper) Shape(src *FontSource, s string, size float64) (Run, error) {
	run := Run{Source: src, Size: size}
	if s == "" || size <= 0 {
		return run, nil
	}
	src.copyCheck()

	key := runKey{src: src, text: s, size: size}
	if cached, ok := sh.runs.Get(key); ok {
		return cached, nil
	}

	f, err := src.shaping()
	if err != nil {
		return run, err
	}

	runes := []rune(norm.NFC.String(s))
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		// font.Face is NOT safe for concurrent use; NewFace is cheap.
		Face:     gtfont.NewFace(f),
		Size:     floatToFixed(size),
		Script:   detectScript(runes),
		Language: language.NewLanguage("en"),
	}

	hb := sh.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	sh.pool.Put(hb)

	run.Glyphs, run.Advance = convertGlyphs(output.Glyphs)
	sh.runs.Add(key, run)
	return run, nil
}

// Measure returns the advance width of s at size.
func (sh *Shaper) Measure(src *FontSource, s string, size float64) (float64, error) {
	run, err := sh.Shape(src, s, size)
	if err != nil {
		return 0, err
	}
	return run.Advance, nil
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// convertGlyphs converts go-text output glyphs to pen-relative positions.
func convertGlyphs(glyphs []shaping.Glyph) ([]Glyph, float64) {
	if len(glyphs) == 0 {
		return nil, 0
	}

	result := make([]Glyph, len(glyphs))
	var x float64
	for i, g := range glyphs {
		adv := fixedToFloat(g.Advance)
		result[i] = Glyph{
			ID:      GlyphID(uint16(g.GlyphID)), //nolint:gosec // sfnt glyph indices are 16-bit
			Cluster: g.TextIndex(),
			X:       x + fixedToFloat(g.XOffset),
			Y:       -fixedToFloat(g.YOffset), // HarfBuzz offsets are y up
			Advance: adv,
		}
		x += adv
	}
	return result, x
}
