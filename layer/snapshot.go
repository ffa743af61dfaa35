package layer

import (
	"slices"
)

// Snapshot is an immutable view of the store at one point in time.
// It is safe to share between goroutines.
type Snapshot struct {
	layers  []Layer
	index   map[string]int
	version uint64
}

// Version increases with every mutation of the store.
func (s Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of layers.
func (s Snapshot) Len() int {
	return len(s.layers)
}

// Layers returns the layers in list order.
func (s Snapshot) Layers() []Layer {
	return slices.Clone(s.layers)
}

// Ordered returns all layers bottom to top.
func (s Snapshot) Ordered() []Layer {
	out := slices.Clone(s.layers)
	slices.SortStableFunc(out, func(a, b Layer) int {
		return a.Order - b.Order
	})
	return out
}

// Visible returns the visible layers bottom to top.
func (s Snapshot) Visible() []Layer {
	return slices.DeleteFunc(s.Ordered(), func(l Layer) bool {
		return !l.Visible
	})
}

// Texts returns the text layers bottom to top.
func (s Snapshot) Texts() []Layer {
	return slices.DeleteFunc(s.Ordered(), func(l Layer) bool {
		return l.Kind != KindText
	})
}

// Find returns the layer with the given id.
func (s Snapshot) Find(id string) (Layer, bool) {
	i, ok := s.index[id]
	if !ok {
		return Layer{}, false
	}
	return s.layers[i], true
}

// Subject returns the subject layer, if one has been created.
func (s Snapshot) Subject() (Layer, bool) {
	return s.Find(SubjectID)
}

// Background returns the background layer, if one has been created.
func (s Snapshot) Background() (Layer, bool) {
	return s.Find(BackgroundID)
}

// maxOrder returns the highest order, or -1 for an empty snapshot.
func (s Snapshot) maxOrder() int {
	m := -1
	for _, l := range s.layers {
		m = max(m, l.Order)
	}
	return m
}

func buildIndex(layers []Layer) map[string]int {
	idx := make(map[string]int, len(layers))
	for i, l := range layers {
		idx[l.ID] = i
	}
	return idx
}
