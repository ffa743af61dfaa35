package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/compose"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/gesture"
	"github.com/gogpu/textbehind/internal/parallel"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/metrics"
	"github.com/gogpu/textbehind/text"
)

// Font size limits of pinch and wheel resizing.
const (
	MinFontSize = 10
	MaxFontSize = 800
)

// Ticket identifies one upload. Background removal results are applied
// only while their ticket is current.
type Ticket struct {
	gen uint64
}

// Generation returns the upload generation, starting at 1.
func (t Ticket) Generation() uint64 {
	return t.gen
}

// Status describes the upload and export state.
type Status struct {
	Generation uint64
	HasImage   bool
	HasCutout  bool
	Processing bool
	Progress   float64 // background removal progress in [0, 1]
	Err        error   // last removal failure, cleared by the next upload

	UploadedAt  time.Time
	CutoutAt    time.Time
	ExportedAt  time.Time
	RemovalTook time.Duration
	ExportTook  time.Duration
}

// Editor owns the state of one editing session: the layer store, the
// uploaded photo and its cutout, the filter selection and the gesture
// controller. All methods are safe for concurrent use; mutations apply in
// call order.
type Editor struct {
	mu sync.Mutex

	store    *layer.Store
	comp     *compose.Compositor
	remover  Remover
	gestures *gesture.Controller
	pool     *parallel.Pool
	opts     options

	viewport coord.Rect
	filter   filter.State
	active   string
	snap     gesture.Snap

	gen        uint64
	background image.Image
	subject    image.Image
	processing bool
	progress   float64
	err        error

	uploadedAt  time.Time
	cutoutAt    time.Time
	exportedAt  time.Time
	removalTook time.Duration
	exportTook  time.Duration
}

// New creates an Editor that resolves fonts through fonts and extracts
// subjects with remover.
func New(fonts text.Resolver, remover Remover, opts ...Option) *Editor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var copts []compose.Option
	if o.shaper != nil {
		copts = append(copts, compose.WithShaper(o.shaper))
	}
	e := &Editor{
		store:   layer.NewStore(o.store...),
		comp:    compose.New(fonts, copts...),
		remover: remover,
		pool:    parallel.NewPool(0),
		opts:    o,
		filter:  filter.DefaultState(),
	}
	e.gestures = gesture.New(gesture.Handlers{
		Geometry: e.geometry,
		Position: e.dragTo,
		Resize:   e.resizeActive,
		Snap:     e.setSnap,
	}, o.gestures...)
	return e
}

// Upload decodes an image and makes it the current photo. The previous
// cutout and removal error are dropped; the subject stays empty until
// RemoveBackground succeeds for the returned ticket. The first upload also
// creates the background, subject and a default text layer.
func (e *Editor) Upload(r io.Reader) (Ticket, error) {
	img, err := e.opts.decoder.Decode(r)
	if err != nil {
		return Ticket{}, fmt.Errorf("editor: decode upload: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return Ticket{}, ErrEmptyImage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	e.background = img
	e.subject = nil
	e.processing = true
	e.progress = 0
	e.err = nil
	e.uploadedAt = e.opts.clock.Now()
	e.cutoutAt = time.Time{}

	if _, ok := e.store.Snapshot().Background(); !ok {
		e.setupLayers()
	}

	metrics.UploadsTotal.Inc()
	b := img.Bounds()
	textbehind.Logger().Info("editor: image uploaded",
		"generation", e.gen, "w", b.Dx(), "h", b.Dy())
	return Ticket{gen: e.gen}, nil
}

// setupLayers creates {background, text, subject} with the text active.
func (e *Editor) setupLayers() {
	e.store.AddBackground()
	e.store.AddSubject()
	snap, id := e.store.AddText()
	if s, err := e.store.SetAttribute(id, layer.AttrName, layer.DefaultTextName); err == nil {
		snap = s
	}
	e.active = id
	e.observe(snap)
}

// RemoveBackground runs the remover on the photo of ticket t and installs
// the cutout if t is still current. A stale result is discarded with
// ErrStaleUpload. A failure is recorded in Status and returned wrapped in
// ErrRemovalFailed; only the subject layer is affected by it.
func (e *Editor) RemoveBackground(ctx context.Context, t Ticket) error {
	e.mu.Lock()
	if t.gen == 0 || t.gen != e.gen {
		e.mu.Unlock()
		metrics.RemovalsTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		return ErrStaleUpload
	}
	img := e.background
	e.mu.Unlock()

	if e.remover == nil {
		return e.finishRemoval(t, nil, errors.New("no remover configured"), 0)
	}

	start := e.opts.clock.Now()
	cut, err := e.remover.RemoveBackground(ctx, img, func(p float64) {
		e.mu.Lock()
		if t.gen == e.gen {
			e.progress = math.Max(0, math.Min(1, p))
		}
		e.mu.Unlock()
	})
	if err == nil && (cut == nil || cut.Bounds().Empty()) {
		err = ErrEmptyImage
	}
	return e.finishRemoval(t, cut, err, e.opts.clock.Since(start))
}

func (e *Editor) finishRemoval(t Ticket, cut image.Image, err error, took time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.gen != e.gen {
		metrics.RemovalsTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		textbehind.Logger().Debug("editor: stale cutout discarded",
			"generation", t.gen, "current", e.gen)
		return ErrStaleUpload
	}

	e.processing = false
	e.removalTook = took
	metrics.RemovalDuration.Observe(took.Seconds())
	if err != nil {
		e.err = fmt.Errorf("%w: %w", ErrRemovalFailed, err)
		metrics.RemovalsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		textbehind.Logger().Warn("editor: background removal failed",
			"generation", t.gen, "err", err)
		return e.err
	}

	e.subject = cut
	e.progress = 1
	e.cutoutAt = e.opts.clock.Now()
	metrics.RemovalsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	textbehind.Logger().Debug("editor: cutout installed", "generation", t.gen, "took", took)
	return nil
}

// Load uploads r and waits for its background removal.
func (e *Editor) Load(ctx context.Context, r io.Reader) error {
	t, err := e.Upload(r)
	if err != nil {
		return err
	}
	return e.RemoveBackground(ctx, t)
}

// Status returns the upload and export state.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Generation:  e.gen,
		HasImage:    e.background != nil,
		HasCutout:   e.subject != nil,
		Processing:  e.processing,
		Progress:    e.progress,
		Err:         e.err,
		UploadedAt:  e.uploadedAt,
		CutoutAt:    e.cutoutAt,
		ExportedAt:  e.exportedAt,
		RemovalTook: e.removalTook,
		ExportTook:  e.exportTook,
	}
}

// Image returns the current photo, or nil.
func (e *Editor) Image() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.background
}

// Layers returns the current layer snapshot.
func (e *Editor) Layers() layer.Snapshot {
	return e.store.Snapshot()
}

// observe publishes layer gauges for snap.
func (e *Editor) observe(snap layer.Snapshot) {
	metrics.TextLayers.Set(float64(len(snap.Texts())))
}

// AddText adds a default text layer below the subject and makes it
// active.
func (e *Editor) AddText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, id := e.store.AddText()
	e.active = id
	e.observe(snap)
	return id
}

// Duplicate copies text layer id and makes the copy active.
func (e *Editor) Duplicate(id string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, dup, err := e.store.Duplicate(id)
	if err != nil {
		return "", err
	}
	e.active = dup
	e.observe(snap)
	return dup, nil
}

// Remove deletes a layer. Removing the active layer clears the selection.
func (e *Editor) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := e.store.Remove(id)
	if err != nil {
		return err
	}
	if e.active == id {
		e.active = ""
	}
	e.observe(snap)
	return nil
}

// SetAttribute sets one attribute of a layer. Tilt and letter spacing are
// rejected with ErrFeatureDisabled when their feature is off.
func (e *Editor) SetAttribute(id string, key layer.Attr, value any) error {
	if err := e.allowed(key); err != nil {
		return err
	}
	_, err := e.store.SetAttribute(id, key, value)
	return err
}

func (e *Editor) allowed(key layer.Attr) error {
	f := e.opts.features
	switch key {
	case layer.AttrTiltX, layer.AttrTiltY:
		if !f.Tilt {
			return fmt.Errorf("%w: %s", ErrFeatureDisabled, key)
		}
	case layer.AttrLetterSpacing:
		if !f.LetterSpacing {
			return fmt.Errorf("%w: %s", ErrFeatureDisabled, key)
		}
	}
	return nil
}

// Features returns the enabled features.
func (e *Editor) Features() Features {
	return e.opts.features
}

// SetPosition moves a text layer; both axes are clamped.
func (e *Editor) SetPosition(id string, left, top float64) error {
	_, err := e.store.SetPosition(id, left, top)
	return err
}

// ResetPosition moves a text layer back to the centre.
func (e *Editor) ResetPosition(id string) error {
	return e.SetPosition(id, 0, 0)
}

// Nudge moves a text layer one step in dir.
func (e *Editor) Nudge(id string, dir gesture.Direction) error {
	l, ok := e.store.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("editor: nudge %q: %w", id, layer.ErrNotFound)
	}
	p, ok := l.Text()
	if !ok {
		return fmt.Errorf("editor: nudge %q: %w", id, layer.ErrNotText)
	}
	e.gestures.Nudge(id, dir, p.Left, p.Top)
	return nil
}

// ToggleVisibility shows or hides a layer.
func (e *Editor) ToggleVisibility(id string) error {
	_, err := e.store.ToggleVisibility(id)
	return err
}

// MoveUp raises a text layer above the next text layer.
func (e *Editor) MoveUp(id string) {
	e.store.MoveUp(id)
}

// MoveDown lowers a text layer below the previous text layer.
func (e *Editor) MoveDown(id string) {
	e.store.MoveDown(id)
}

// SetActive selects the layer that pinch and wheel gestures resize.
func (e *Editor) SetActive(id string) error {
	if _, ok := e.store.Snapshot().Find(id); !ok {
		return fmt.Errorf("editor: activate %q: %w", id, layer.ErrNotFound)
	}
	e.mu.Lock()
	e.active = id
	e.mu.Unlock()
	return nil
}

// Active returns the selected layer id.
func (e *Editor) Active() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != ""
}

// SetFilter selects a preset by name.
func (e *Editor) SetFilter(name string) error {
	if _, ok := filter.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	e.mu.Lock()
	e.filter.Preset = name
	e.mu.Unlock()
	return nil
}

// SetIntensity sets the filter intensity, clamped to [0, 100].
func (e *Editor) SetIntensity(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	e.mu.Lock()
	e.filter.Intensity = math.Max(0, math.Min(100, v))
	e.mu.Unlock()
}

// SetApplyToFull chooses between filtering the whole composite and the
// background only.
func (e *Editor) SetApplyToFull(full bool) {
	e.mu.Lock()
	e.filter.ApplyToFull = full
	e.mu.Unlock()
}

// Filter returns the filter selection.
func (e *Editor) Filter() filter.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Thumbnail is a preset rendered over a small copy of the photo.
type Thumbnail struct {
	Preset filter.Preset
	Image  *textbehind.Pixmap
}

// Thumbnails renders every preset over the photo, longest side maxDim.
func (e *Editor) Thumbnails(maxDim int) ([]Thumbnail, error) {
	img := e.Image()
	if img == nil {
		return nil, ErrNoImage
	}
	presets := filter.Presets()
	out := make([]Thumbnail, len(presets))
	jobs := make([]func(), len(presets))
	for i, p := range presets {
		jobs[i] = func() {
			out[i] = Thumbnail{Preset: p, Image: filter.Thumbnail(img, p, maxDim)}
		}
	}
	e.pool.Run(jobs)
	return out, nil
}

// SetViewport sets where the preview shows the whole canvas area, in
// window pixels. Text sizes are authored against its size and drags on
// the preview surface map through the photo's letterboxed rectangle
// inside it.
func (e *Editor) SetViewport(r coord.Rect) {
	e.mu.Lock()
	e.viewport = r
	e.mu.Unlock()
}

// Viewport returns the preview rectangle.
func (e *Editor) Viewport() coord.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Gestures returns the gesture controller. Its position and resize output
// is written to the layer store.
func (e *Editor) Gestures() *gesture.Controller {
	return e.gestures
}

// Snap returns the snap guides of the current drag.
func (e *Editor) Snap() gesture.Snap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

func (e *Editor) geometry(s gesture.Surface) (coord.Rect, bool) {
	if e.opts.geometry != nil {
		if r, ok := e.opts.geometry(s); ok {
			return r, true
		}
	}
	if s != gesture.Preview {
		return coord.Rect{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.background == nil {
		return coord.Rect{}, false
	}
	r := coord.Letterbox(nativeSize(e.background), e.viewport)
	return r, !r.Empty()
}

func (e *Editor) dragTo(id string, left, top float64) {
	if _, err := e.store.SetPosition(id, left, top); err != nil {
		textbehind.Logger().Debug("editor: drag target gone", "layer", id, "err", err)
	}
}

func (e *Editor) resizeActive(delta float64) {
	id, ok := e.Active()
	if !ok {
		return
	}
	_, err := e.store.UpdateText(id, func(p *layer.TextProps) {
		p.FontSize = math.Max(MinFontSize, math.Min(MaxFontSize, p.FontSize+delta))
	})
	if err != nil {
		textbehind.Logger().Debug("editor: resize skipped", "layer", id, "err", err)
	}
}

func (e *Editor) setSnap(s gesture.Snap) {
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
}

func nativeSize(img image.Image) coord.Size {
	b := img.Bounds()
	return coord.Sz(float64(b.Dx()), float64(b.Dy()))
}

// input captures a consistent render input. It must be called with e.mu
// held.
func (e *Editor) input(viewport coord.Size) compose.Input {
	return compose.Input{
		Layers:     e.store.Snapshot(),
		Background: e.background,
		Subject:    e.subject,
		Viewport:   viewport,
		Filter:     e.filter,
	}
}

// Render composes the current state at native resolution.
func (e *Editor) Render(ctx context.Context) (*textbehind.Pixmap, error) {
	e.mu.Lock()
	if e.background == nil {
		e.mu.Unlock()
		return nil, ErrNoImage
	}
	in := e.input(e.viewport.Size())
	e.mu.Unlock()
	return e.comp.Render(ctx, in)
}

// Preview composes the current state fitted into viewport, with the
// layout authored against viewport.
func (e *Editor) Preview(ctx context.Context, viewport coord.Size) (*textbehind.Pixmap, error) {
	e.mu.Lock()
	if e.background == nil {
		e.mu.Unlock()
		return nil, ErrNoImage
	}
	in := e.input(viewport)
	e.mu.Unlock()

	scale := coord.FitScale(nativeSize(in.Background), viewport)
	if scale == 0 {
		scale = 1
	}
	start := e.opts.clock.Now()
	pm, err := e.comp.RenderScaled(ctx, in, scale)
	metrics.RenderDuration.WithLabelValues(metrics.ModePreview).Observe(e.opts.clock.Since(start).Seconds())
	return pm, err
}

// Export renders the composite at native resolution, encodes it as PNG
// and hands it to sink as ExportName. Nothing reaches the sink when
// rendering fails.
func (e *Editor) Export(ctx context.Context, sink Sink) error {
	start := e.opts.clock.Now()
	err := e.export(ctx, sink)
	took := e.opts.clock.Since(start)

	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ExportsTotal.WithLabelValues(result).Inc()
	if err != nil {
		textbehind.Logger().Warn("editor: export failed", "err", err)
		return err
	}

	e.mu.Lock()
	e.exportedAt = e.opts.clock.Now()
	e.exportTook = took
	e.mu.Unlock()
	textbehind.Logger().Info("editor: exported", "name", ExportName, "took", took)
	return nil
}

func (e *Editor) export(ctx context.Context, sink Sink) error {
	start := e.opts.clock.Now()
	pm, err := e.Render(ctx)
	if err != nil {
		return err
	}
	metrics.RenderDuration.WithLabelValues(metrics.ModeExport).Observe(e.opts.clock.Since(start).Seconds())

	var buf bytes.Buffer
	if err := compose.EncodePNG(&buf, pm); err != nil {
		return err
	}
	metrics.ExportBytes.Observe(float64(buf.Len()))

	if err := sink.Save(ctx, ExportName, buf.Bytes()); err != nil {
		return fmt.Errorf("editor: save export: %w", err)
	}
	return nil
}

// Close ends any gesture in progress, releases its subscriptions and
// stops the thumbnail workers.
func (e *Editor) Close() {
	e.gestures.Close()
	e.pool.Close()
}
