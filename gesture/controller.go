// Package gesture turns pointer, touch and wheel input into text layer
// position and size changes.
//
// A Controller never touches layer data. It reports positions in
// normalized space through Handlers and leaves the mutation to its owner.
// Dragging is a session: Begin captures the pointer, takes one snapshot of
// the surface geometry and subscribes to window-level move and release
// events; every exit path releases those subscriptions.
//
// A Controller is not safe for concurrent use. Call it from the goroutine
// that owns the UI.
package gesture

import (
	"fmt"
	"math"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/coord"
)

// Phase is the drag state of a Controller.
type Phase uint8

const (
	// Idle means no drag is in progress.
	Idle Phase = iota
	// Dragging means a layer follows a captured pointer.
	Dragging
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// Surface identifies the element a drag started on. Surfaces may have
// different layouts, so each drag uses the geometry of its own surface.
type Surface uint8

const (
	// Preview is the main preview area.
	Preview Surface = iota
	// Positioner is an auxiliary positioning pad.
	Positioner
)

// String returns the surface name.
func (s Surface) String() string {
	switch s {
	case Preview:
		return "preview"
	case Positioner:
		return "positioner"
	default:
		return fmt.Sprintf("Surface(%d)", s)
	}
}

// Pointer is one pointer or touch sample in window pixels.
type Pointer struct {
	ID   int
	X, Y float64
}

// Snap reports which axes are snapped to centre.
type Snap struct {
	X, Y bool
}

// Direction is a nudge direction.
type Direction uint8

// Nudge directions. Up raises top, since normalized y points up.
const (
	Up Direction = iota
	Down
	Left
	Right
)

// Handlers receive the controller's output. Nil handlers are skipped.
type Handlers struct {
	// Geometry returns the on-screen rectangle of a surface. It is called
	// once when a drag begins; ok false cancels the drag.
	Geometry func(Surface) (r coord.Rect, ok bool)

	// Position receives the new normalized position of the dragged or
	// nudged layer.
	Position func(id string, left, top float64)

	// Resize receives font size changes from pinch and wheel gestures.
	Resize func(delta float64)

	// Snap receives the snap state after each drag move and a cleared
	// state when the drag ends.
	Snap func(Snap)
}

// Controller is the gesture state machine.
type Controller struct {
	h    Handlers
	opts options

	drag   *session
	pinch  pinch
	closed bool
}

// session is one drag, from Begin to its exit.
type session struct {
	id      string
	surface Surface
	pointer int
	rect    coord.Rect
	release []func()
}

// pinch tracks up to two live pointers.
type pinch struct {
	ptrs [2]Pointer
	n    int
	last float64
	ok   bool // last is valid
}

// New creates a Controller reporting to h.
func New(h Handlers, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.listeners == nil {
		o.listeners = NewListeners()
	}
	return &Controller{h: h, opts: o}
}

// Listeners returns the subscription set drag sessions use.
func (c *Controller) Listeners() *Listeners {
	return c.opts.listeners
}

// State returns the current phase.
func (c *Controller) State() Phase {
	if c.drag != nil {
		return Dragging
	}
	return Idle
}

// Dragged returns the id of the layer being dragged.
func (c *Controller) Dragged() (id string, ok bool) {
	if c.drag == nil {
		return "", false
	}
	return c.drag.id, true
}

// Begin starts dragging layer id with pointer p pressed on surface s. It
// reports whether a drag started; without usable geometry nothing
// happens. A drag already in progress ends first.
func (c *Controller) Begin(id string, s Surface, p Pointer) bool {
	if c.closed || c.h.Geometry == nil {
		return false
	}
	r, ok := c.h.Geometry(s)
	if !ok || r.Empty() {
		textbehind.Logger().Debug("gesture: no geometry, drag ignored", "surface", s, "layer", id)
		return false
	}
	if c.drag != nil {
		c.release()
	}

	l := c.opts.listeners
	c.drag = &session{
		id:      id,
		surface: s,
		pointer: p.ID,
		rect:    r,
		release: []func(){
			l.Add(EventMove, c.Move),
			l.Add(EventUp, c.End),
		},
	}
	textbehind.Logger().Debug("gesture: drag begin", "surface", s, "layer", id)
	return true
}

// Move follows the captured pointer. Each axis within the snap threshold
// of centre snaps to exactly 0; both axes are then clamped and reported.
// Samples from other pointers are ignored.
func (c *Controller) Move(p Pointer) {
	d := c.drag
	if d == nil || p.ID != d.pointer {
		return
	}
	r := d.rect
	nx := (p.X-r.X)/r.W*100 - 50
	ny := 50 - (p.Y-r.Y)/r.H*100

	var snap Snap
	if math.Abs(nx) < c.opts.snapThreshold {
		nx, snap.X = 0, true
	}
	if math.Abs(ny) < c.opts.snapThreshold {
		ny, snap.Y = 0, true
	}
	nx, ny = coord.Clamp(nx), coord.Clamp(ny)

	if c.h.Position != nil {
		c.h.Position(d.id, nx, ny)
	}
	if c.h.Snap != nil {
		c.h.Snap(snap)
	}
}

// End finishes the drag when the captured pointer is released.
func (c *Controller) End(p Pointer) {
	if c.drag == nil || p.ID != c.drag.pointer {
		return
	}
	c.release()
}

// Cancel abandons the drag, whatever the pointer.
func (c *Controller) Cancel() {
	if c.drag != nil {
		c.release()
	}
}

// Close ends any drag, forgets pinch pointers and makes later Begin calls
// fail. It is the controller's teardown.
func (c *Controller) Close() {
	c.Cancel()
	c.pinch = pinch{}
	c.closed = true
}

func (c *Controller) release() {
	d := c.drag
	c.drag = nil
	for _, fn := range d.release {
		fn()
	}
	if c.h.Snap != nil {
		c.h.Snap(Snap{})
	}
	textbehind.Logger().Debug("gesture: drag end", "surface", d.surface, "layer", d.id)
}

// PointerDown starts tracking p for pinch detection. At most two pointers
// are tracked.
func (c *Controller) PointerDown(p Pointer) {
	if c.closed || c.pinch.n == len(c.pinch.ptrs) || c.pinch.index(p.ID) >= 0 {
		return
	}
	c.pinch.ptrs[c.pinch.n] = p
	c.pinch.n++
}

// PointerMove updates a tracked pointer. While exactly two are tracked,
// every sample after the first reports the change in their distance times
// the pinch sensitivity.
func (c *Controller) PointerMove(p Pointer) {
	i := c.pinch.index(p.ID)
	if i < 0 {
		return
	}
	c.pinch.ptrs[i] = p
	if c.pinch.n != 2 {
		return
	}

	a, b := c.pinch.ptrs[0], c.pinch.ptrs[1]
	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	if c.pinch.ok && c.h.Resize != nil {
		c.h.Resize((dist - c.pinch.last) * c.opts.pinchSensitivity)
	}
	c.pinch.last, c.pinch.ok = dist, true
}

// PointerUp stops tracking p. The reference distance resets once fewer
// than two pointers remain.
func (c *Controller) PointerUp(p Pointer) {
	i := c.pinch.index(p.ID)
	if i < 0 {
		return
	}
	if i == 0 {
		c.pinch.ptrs[0] = c.pinch.ptrs[1]
	}
	c.pinch.n--
	if c.pinch.n < 2 {
		c.pinch.ok = false
	}
}

func (p *pinch) index(id int) int {
	for i := 0; i < p.n; i++ {
		if p.ptrs[i].ID == id {
			return i
		}
	}
	return -1
}

// Wheel reports a size change for a wheel or trackpad event with vertical
// delta dy. Small deltas come from trackpads and get an extra factor.
func (c *Controller) Wheel(dy float64) {
	if c.closed || c.h.Resize == nil || dy == 0 {
		return
	}
	delta := -dy * c.opts.scrollSensitivity
	if math.Abs(dy) < trackpadDelta {
		delta *= c.opts.trackpadMultiplier
	}
	c.h.Resize(delta)
}

// Nudge moves layer id, currently at (left, top), one step in dir and
// reports the clamped position. Nudges work whatever the drag state.
func (c *Controller) Nudge(id string, dir Direction, left, top float64) {
	if c.h.Position == nil {
		return
	}
	step := c.opts.nudgeStep
	switch dir {
	case Up:
		top += step
	case Down:
		top -= step
	case Left:
		left -= step
	case Right:
		left += step
	default:
		return
	}
	c.h.Position(id, coord.Clamp(left), coord.Clamp(top))
}
