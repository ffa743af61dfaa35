package layer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/textbehind"
)

// Store is the sole mutable owner of layer data. Every operation publishes
// a new Snapshot; snapshots handed out earlier never change.
//
// Store is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	cur  Snapshot
	opts options
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		cur:  Snapshot{index: map[string]int{}},
		opts: o,
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// publish installs layers as the current snapshot. index is reused when
// membership did not change.
func (s *Store) publish(layers []Layer, index map[string]int) Snapshot {
	if index == nil {
		index = buildIndex(layers)
	}
	s.cur = Snapshot{layers: layers, index: index, version: s.cur.version + 1}
	return s.cur
}

// replace swaps in an updated copy of the layer at position i.
func (s *Store) replace(i int, l Layer) Snapshot {
	layers := slices.Clone(s.cur.layers)
	layers[i] = l
	return s.publish(layers, s.cur.index)
}

// AddBackground creates the background layer below everything else.
// It is a no-op when the background already exists.
func (s *Store) AddBackground() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cur.Background(); ok {
		return s.cur
	}

	order := 0
	layers := make([]Layer, 0, len(s.cur.layers)+1)
	layers = append(layers, newImageLayer(KindBackground, order))
	for _, l := range s.cur.layers {
		if l.Order >= order {
			l.Order++
		}
		layers = append(layers, l)
	}
	return s.publish(layers, nil)
}

// AddSubject creates the subject layer on top of everything else.
// It is a no-op when the subject already exists.
func (s *Store) AddSubject() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cur.Subject(); ok {
		return s.cur
	}
	layers := append(slices.Clone(s.cur.layers), newImageLayer(KindSubject, s.cur.maxOrder()+1))
	return s.publish(layers, nil)
}

// AddText adds a text layer with default attributes and returns its id.
func (s *Store) AddText() (Snapshot, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.opts.newID()
	props := DefaultTextProps()
	snap := s.insertText(newTextLayer(id, "Edit", props, 0))
	textbehind.Logger().Debug("layer: text added", "id", id)
	return snap, id
}

// Duplicate copies the text layer id under a fresh id, using the same
// placement rule as AddText.
func (s *Store) Duplicate(id string) (Snapshot, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.cur.Find(id)
	if !ok {
		return s.cur, "", fmt.Errorf("layer: duplicate %q: %w", id, ErrNotFound)
	}
	if src.Kind != KindText {
		return s.cur, "", fmt.Errorf("layer: duplicate %q: %w", id, ErrNotText)
	}

	dup := src
	dup.ID = s.opts.newID()
	snap := s.insertText(dup)
	textbehind.Logger().Debug("layer: text duplicated", "from", id, "id", dup.ID)
	return snap, dup.ID, nil
}

// insertText places l immediately below the subject when there is one,
// otherwise on top, shifting every order at or above the insertion
// point up by one.
func (s *Store) insertText(l Layer) Snapshot {
	subject, hasSubject := s.cur.Subject()

	l.Order = s.cur.maxOrder() + 1
	if hasSubject {
		l.Order = subject.Order
	}

	layers := make([]Layer, 0, len(s.cur.layers)+1)
	for _, existing := range s.cur.layers {
		if existing.Order >= l.Order {
			existing.Order++
		}
		if hasSubject && existing.ID == subject.ID {
			layers = append(layers, l)
		}
		layers = append(layers, existing)
	}
	if !hasSubject {
		layers = append(layers, l)
	}
	return s.publish(layers, nil)
}

// Remove deletes a layer. Remaining orders are not renumbered.
func (s *Store) Remove(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.cur.index[id]
	if !ok {
		return s.cur, fmt.Errorf("layer: remove %q: %w", id, ErrNotFound)
	}
	layers := slices.Delete(slices.Clone(s.cur.layers), i, i+1)
	textbehind.Logger().Debug("layer: removed", "id", id)
	return s.publish(layers, nil), nil
}

// SetAttribute sets one attribute of a layer. Setting content also
// updates the layer name; positions are clamped to [-50, 50].
func (s *Store) SetAttribute(id string, key Attr, value any) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.cur.index[id]
	if !ok {
		return s.cur, fmt.Errorf("layer: set %s on %q: %w", key, id, ErrNotFound)
	}
	l, err := key.apply(s.cur.layers[i], value)
	if err != nil {
		return s.cur, err
	}
	return s.replace(i, l), nil
}

// UpdateText applies fn to a copy of a text layer's attributes and stores
// the result. Positions are clamped; the name follows the content.
func (s *Store) UpdateText(id string, fn func(*TextProps)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.cur.index[id]
	if !ok {
		return s.cur, fmt.Errorf("layer: update %q: %w", id, ErrNotFound)
	}
	l := s.cur.layers[i]
	p, ok := l.Text()
	if !ok {
		return s.cur, fmt.Errorf("layer: update %q: %w", id, ErrNotText)
	}
	before := p.Content
	fn(&p)
	if p.Content != before {
		l.Name = displayName(p.Content)
	}
	return s.replace(i, l.withText(p)), nil
}

// SetPosition moves a text layer in one mutation. Both axes are clamped.
func (s *Store) SetPosition(id string, left, top float64) (Snapshot, error) {
	return s.UpdateText(id, func(p *TextProps) {
		p.Left, p.Top = left, top
	})
}

// ToggleVisibility flips the visibility of a layer.
func (s *Store) ToggleVisibility(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.cur.index[id]
	if !ok {
		return s.cur, fmt.Errorf("layer: toggle %q: %w", id, ErrNotFound)
	}
	l := s.cur.layers[i]
	l.Visible = !l.Visible
	return s.replace(i, l), nil
}

// MoveUp swaps the order of a text layer with the next text layer above
// it. It is a no-op for the topmost text layer or an unknown id.
func (s *Store) MoveUp(id string) Snapshot {
	return s.swapText(id, +1)
}

// MoveDown swaps the order of a text layer with the next text layer below
// it. It is a no-op for the bottom text layer or an unknown id.
func (s *Store) MoveDown(id string) Snapshot {
	return s.swapText(id, -1)
}

func (s *Store) swapText(id string, dir int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	texts := s.cur.Texts()
	at := slices.IndexFunc(texts, func(l Layer) bool { return l.ID == id })
	next := at + dir
	if at < 0 || next < 0 || next >= len(texts) {
		return s.cur
	}

	a, b := texts[at], texts[next]
	layers := slices.Clone(s.cur.layers)
	ia, ib := s.cur.index[a.ID], s.cur.index[b.ID]
	layers[ia].Order, layers[ib].Order = b.Order, a.Order
	return s.publish(layers, s.cur.index)
}
