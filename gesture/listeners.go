package gesture

import (
	"slices"
	"sync"
)

// EventKind is the kind of a global pointer event.
type EventKind uint8

const (
	// EventMove is a pointer or touch move anywhere in the window.
	EventMove EventKind = iota
	// EventUp is a pointer release or touch end anywhere in the window.
	EventUp
)

// Listeners is a set of window-level pointer subscriptions. The UI layer
// forwards every global move and release to Dispatch; a drag session
// subscribes for its lifetime.
//
// Listeners is safe for concurrent use.
type Listeners struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]subscription
}

type subscription struct {
	kind EventKind
	fn   func(Pointer)
}

// NewListeners returns an empty set.
func NewListeners() *Listeners {
	return &Listeners{subs: make(map[uint64]subscription)}
}

// Add subscribes fn to events of kind and returns the function that
// removes it. Calling remove more than once is harmless.
func (l *Listeners) Add(kind EventKind, fn func(Pointer)) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[uint64]subscription)
	}
	id := l.next
	l.next++
	l.subs[id] = subscription{kind: kind, fn: fn}
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Len returns the number of live subscriptions.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Dispatch delivers p to every subscriber of kind in subscription order.
// Subscribers may add or remove subscriptions while being called.
func (l *Listeners) Dispatch(kind EventKind, p Pointer) {
	l.mu.Lock()
	ids := make([]uint64, 0, len(l.subs))
	for id, s := range l.subs {
		if s.kind == kind {
			ids = append(ids, id)
		}
	}
	l.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		l.mu.Lock()
		s, ok := l.subs[id]
		l.mu.Unlock()
		if ok {
			s.fn(p)
		}
	}
}
