package text

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/textbehind"
)

// Resolver maps a font family and weight to a loaded font.
type Resolver interface {
	Resolve(family string, weight int) (*FontSource, error)
}

// Families of the bundled Go fonts.
const (
	FamilyGo     = "Go"
	FamilyGoMono = "Go Mono"
)

// Registry is a Resolver over registered font files.
//
// Family lookups accept CSS font-family lists ("Inter, sans-serif"); the
// first registered family wins. Generic families map to the bundled Go
// fonts, and unknown families fall back to the fallback family, the way a
// browser substitutes a missing font. Weights match the nearest
// registered weight, preferring the heavier one on ties.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*family
	fallback string
}

type family struct {
	name  string
	faces map[int]*FontSource
}

// NewRegistry returns a registry preloaded with the Go fonts.
func NewRegistry() *Registry {
	r := &Registry{fallback: FamilyGo}
	for _, f := range []struct {
		family string
		weight int
		data   []byte
	}{
		{FamilyGo, 400, goregular.TTF},
		{FamilyGo, 500, gomedium.TTF},
		{FamilyGo, 700, gobold.TTF},
		{FamilyGoMono, 400, gomono.TTF},
		{FamilyGoMono, 700, gomonobold.TTF},
	} {
		src, err := NewFontSource(f.data)
		if err != nil {
			// Bundled fonts always parse.
			panic(err)
		}
		r.Register(f.family, f.weight, src)
	}
	return r
}

// SetFallback sets the family used when nothing in a lookup matches.
func (r *Registry) SetFallback(family string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = family
}

// Register adds src under family and weight, replacing any font
// previously registered there.
func (r *Registry) Register(familyName string, weight int, src *FontSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.families == nil {
		r.families = make(map[string]*family)
	}
	key := familyKey(familyName)
	f, ok := r.families[key]
	if !ok {
		f = &family{name: familyName, faces: make(map[int]*FontSource)}
		r.families[key] = f
	}
	f.faces[weight] = src
}

// RegisterFile loads a font file and registers it under its own family
// name and the weight implied by its style. It returns the family name.
func (r *Registry) RegisterFile(path string) (string, error) {
	src, err := NewFontSourceFromFile(path)
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(src.Style()), "italic") {
		return "", &FontError{Path: path, Reason: "italic faces are not supported"}
	}
	r.Register(src.Family(), src.Weight(), src)
	textbehind.Logger().Debug("text: font registered",
		"family", src.Family(), "weight", src.Weight(), "path", path)
	return src.Family(), nil
}

// RegisterDir registers every .ttf and .otf file below dir. Files that
// cannot be used are skipped and logged. It returns the number of fonts
// registered.
func (r *Registry) RegisterDir(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
		default:
			return nil
		}
		if _, err := r.RegisterFile(path); err != nil {
			var fe *FontError
			if errors.As(err, &fe) || errors.Is(err, ErrEmptyFontData) || errors.Is(err, os.ErrPermission) {
				textbehind.Logger().Warn("text: skipping font", "path", path, "err", err)
				return nil
			}
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("text: register dir %s: %w", dir, err)
	}
	return n, nil
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f.name)
	}
	slices.Sort(out)
	return out
}

// Resolve implements Resolver.
func (r *Registry) Resolve(families string, weight int) (*FontSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range splitFamilies(families) {
		if f, ok := r.families[familyKey(genericFamily(name, r.fallback))]; ok {
			return f.nearest(weight), nil
		}
	}
	if f, ok := r.families[familyKey(r.fallback)]; ok {
		return f.nearest(weight), nil
	}
	return nil, fmt.Errorf("text: resolve %q: %w", families, ErrFontNotFound)
}

// nearest returns the face whose weight is closest to weight.
func (f *family) nearest(weight int) *FontSource {
	var best *FontSource
	bestW, bestD := 0, -1
	for w, src := range f.faces {
		d := w - weight
		if d < 0 {
			d = -d
		}
		if bestD < 0 || d < bestD || (d == bestD && w > bestW) {
			best, bestW, bestD = src, w, d
		}
	}
	return best
}

// splitFamilies splits a CSS font-family list and strips quotes.
func splitFamilies(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// genericFamily maps CSS generic family keywords to registered families.
func genericFamily(name, fallback string) string {
	switch strings.ToLower(name) {
	case "monospace", "ui-monospace":
		return FamilyGoMono
	case "sans-serif", "serif", "system-ui", "ui-sans-serif", "ui-serif", "cursive", "fantasy":
		return fallback
	default:
		return name
	}
}

func familyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
