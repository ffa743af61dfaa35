package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/gesture"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func seqIDs() layer.Option {
	n := 0
	return layer.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("text-%d", n)
	})
}

// cutoutOf returns a remover producing a transparent image of the photo's
// size.
func cutoutOf() Remover {
	return RemoverFunc(func(_ context.Context, img image.Image, progress func(float64)) (image.Image, error) {
		progress(0.5)
		return image.NewNRGBA(img.Bounds()), nil
	})
}

func newEditor(t *testing.T, remover Remover, opts ...Option) (*Editor, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClock()
	opts = append([]Option{WithClock(clk), WithStoreOptions(seqIDs())}, opts...)
	ed := New(text.NewRegistry(), remover, opts...)
	t.Cleanup(ed.Close)
	return ed, clk
}

func upload(t *testing.T, ed *Editor, w, h int) Ticket {
	t.Helper()
	tk, err := ed.Upload(bytes.NewReader(pngBytes(t, w, h, color.White)))
	require.NoError(t, err)
	return tk
}

func TestFirstUploadCreatesLayers(t *testing.T) {
	ed, clk := newEditor(t, cutoutOf())

	tk := upload(t, ed, 40, 20)
	assert.Equal(t, uint64(1), tk.Generation())

	snap := ed.Layers()
	require.Equal(t, 3, snap.Len())
	ordered := snap.Ordered()
	assert.Equal(t, layer.BackgroundID, ordered[0].ID)
	assert.Equal(t, "text-1", ordered[1].ID)
	assert.Equal(t, layer.DefaultTextName, ordered[1].Name)
	assert.Equal(t, layer.SubjectID, ordered[2].ID)

	active, ok := ed.Active()
	require.True(t, ok)
	assert.Equal(t, "text-1", active)

	st := ed.Status()
	assert.True(t, st.HasImage)
	assert.False(t, st.HasCutout)
	assert.True(t, st.Processing)
	assert.Equal(t, clk.Now(), st.UploadedAt)

	// Later uploads keep the layers.
	tk2 := upload(t, ed, 40, 20)
	assert.Equal(t, uint64(2), tk2.Generation())
	assert.Equal(t, 3, ed.Layers().Len())
}

func TestUploadErrors(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	_, err := ed.Upload(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
	assert.False(t, ed.Status().HasImage)

	blank := DecoderFunc(func(io.Reader) (image.Image, error) {
		return image.NewRGBA(image.Rectangle{}), nil
	})
	ed2, _ := newEditor(t, cutoutOf(), WithDecoder(blank))
	_, err = ed2.Upload(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrEmptyImage)
	assert.Equal(t, 0, ed2.Layers().Len())
}

func TestLoadInstallsCutout(t *testing.T) {
	ed, clk := newEditor(t, cutoutOf())
	require.NoError(t, ed.Load(context.Background(), bytes.NewReader(pngBytes(t, 8, 8, color.White))))

	st := ed.Status()
	assert.True(t, st.HasCutout)
	assert.False(t, st.Processing)
	assert.Equal(t, 1.0, st.Progress)
	assert.Equal(t, clk.Now(), st.CutoutAt)
	assert.NoError(t, st.Err)
}

func TestStaleRemovalIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	remover := RemoverFunc(func(_ context.Context, img image.Image, progress func(float64)) (image.Image, error) {
		close(started)
		<-unblock
		progress(0.9)
		return image.NewNRGBA(img.Bounds()), nil
	})
	ed, _ := newEditor(t, remover)

	first := upload(t, ed, 10, 10)
	done := make(chan error, 1)
	go func() { done <- ed.RemoveBackground(context.Background(), first) }()
	<-started

	second := upload(t, ed, 20, 20)
	close(unblock)

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrStaleUpload)
	case <-time.After(5 * time.Second):
		t.Fatal("removal did not finish")
	}

	st := ed.Status()
	assert.Equal(t, second.Generation(), st.Generation)
	assert.False(t, st.HasCutout)
	assert.True(t, st.Processing, "the newer upload is still waiting for its cutout")
	assert.Zero(t, st.Progress, "stale progress must not leak into the newer upload")

	// A stale ticket is rejected up front.
	require.ErrorIs(t, ed.RemoveBackground(context.Background(), first), ErrStaleUpload)
	require.ErrorIs(t, ed.RemoveBackground(context.Background(), Ticket{}), ErrStaleUpload)
}

func TestRemovalFailureKeepsTextUsable(t *testing.T) {
	boom := errors.New("model unavailable")
	ed, _ := newEditor(t, RemoverFunc(func(context.Context, image.Image, func(float64)) (image.Image, error) {
		return nil, boom
	}))

	err := ed.Load(context.Background(), bytes.NewReader(pngBytes(t, 16, 16, color.White)))
	require.ErrorIs(t, err, ErrRemovalFailed)
	require.ErrorIs(t, err, boom)

	st := ed.Status()
	assert.False(t, st.Processing)
	assert.False(t, st.HasCutout)
	require.ErrorIs(t, st.Err, boom)

	id := ed.AddText()
	require.NoError(t, ed.SetAttribute(id, layer.AttrContent, "HI"))
	pm, err := ed.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, pm.Width())

	// The next upload clears the error.
	upload(t, ed, 16, 16)
	assert.NoError(t, ed.Status().Err)
}

func TestRemovalWithoutRemover(t *testing.T) {
	ed, _ := newEditor(t, nil)
	err := ed.Load(context.Background(), bytes.NewReader(pngBytes(t, 4, 4, color.White)))
	require.ErrorIs(t, err, ErrRemovalFailed)
}

func TestFeatureGate(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf(), WithFeatures(Features{}))
	id := ed.AddText()

	for _, key := range []layer.Attr{layer.AttrTiltX, layer.AttrTiltY, layer.AttrLetterSpacing} {
		err := ed.SetAttribute(id, key, 10.0)
		require.ErrorIs(t, err, ErrFeatureDisabled, key)
	}
	require.NoError(t, ed.SetAttribute(id, layer.AttrRotation, 10.0))

	l, ok := ed.Layers().Find(id)
	require.True(t, ok)
	p, _ := l.Text()
	assert.Zero(t, p.TiltX)
	assert.Equal(t, 10.0, p.Rotation)
	assert.Equal(t, Features{}, ed.Features())
}

func TestLayerProxies(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	upload(t, ed, 10, 10)
	a, _ := ed.Active()

	b, err := ed.Duplicate(a)
	require.NoError(t, err)
	active, _ := ed.Active()
	assert.Equal(t, b, active)

	require.NoError(t, ed.SetPosition(a, 80, -10))
	l, _ := ed.Layers().Find(a)
	p, _ := l.Text()
	assert.Equal(t, 50.0, p.Left)
	assert.Equal(t, -10.0, p.Top)

	require.NoError(t, ed.ResetPosition(a))
	l, _ = ed.Layers().Find(a)
	p, _ = l.Text()
	assert.Zero(t, p.Left)
	assert.Zero(t, p.Top)

	require.NoError(t, ed.ToggleVisibility(a))
	l, _ = ed.Layers().Find(a)
	assert.False(t, l.Visible)

	require.NoError(t, ed.Remove(b))
	_, ok := ed.Active()
	assert.False(t, ok, "removing the active layer clears the selection")

	require.ErrorIs(t, ed.SetActive("missing"), layer.ErrNotFound)
	require.NoError(t, ed.SetActive(a))
	require.ErrorIs(t, ed.Remove("missing"), layer.ErrNotFound)
	_, err = ed.Duplicate(layer.SubjectID)
	require.Error(t, err)
}

func TestNudge(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	id := ed.AddText()

	require.NoError(t, ed.Nudge(id, gesture.Up))
	require.NoError(t, ed.Nudge(id, gesture.Right))
	l, _ := ed.Layers().Find(id)
	p, _ := l.Text()
	assert.Equal(t, gesture.DefaultNudgeStep, p.Top)
	assert.Equal(t, gesture.DefaultNudgeStep, p.Left)

	require.ErrorIs(t, ed.Nudge("missing", gesture.Up), layer.ErrNotFound)
	upload(t, ed, 4, 4)
	require.ErrorIs(t, ed.Nudge(layer.BackgroundID, gesture.Up), layer.ErrNotText)
}

func TestResizeClamps(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	id := ed.AddText()
	g := ed.Gestures()

	size := func() float64 {
		l, _ := ed.Layers().Find(id)
		p, _ := l.Text()
		return p.FontSize
	}

	g.Wheel(-100) // mouse notch: +20
	assert.InDelta(t, 220, size(), 1e-9)
	g.Wheel(5) // trackpad: -1 * 1.5
	assert.InDelta(t, 218.5, size(), 1e-9)

	for i := 0; i < 200; i++ {
		g.Wheel(-1000)
	}
	assert.Equal(t, float64(MaxFontSize), size())
	for i := 0; i < 200; i++ {
		g.Wheel(1000)
	}
	assert.Equal(t, float64(MinFontSize), size())

	// Pinch resizes the active layer too.
	g.PointerDown(gesture.Pointer{ID: 1, X: 0, Y: 0})
	g.PointerDown(gesture.Pointer{ID: 2, X: 10, Y: 0})
	g.PointerMove(gesture.Pointer{ID: 2, X: 10, Y: 0})
	g.PointerMove(gesture.Pointer{ID: 2, X: 20, Y: 0})
	assert.InDelta(t, MinFontSize+10*gesture.DefaultPinchSensitivity, size(), 1e-9)
}

func TestResizeWithoutActiveLayer(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	id := ed.AddText()
	require.NoError(t, ed.Remove(id))
	assert.NotPanics(t, func() { ed.Gestures().Wheel(-50) })
}

func TestDragThroughPreview(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	g := ed.Gestures()

	// No image: no geometry, no drag.
	assert.False(t, g.Begin("text-1", gesture.Preview, gesture.Pointer{ID: 1}))

	upload(t, ed, 200, 100)
	id, _ := ed.Active()

	// The photo is letterboxed into the middle of a 400x400 viewport:
	// it occupies (0,100)-(400,300).
	ed.SetViewport(coord.Rect{W: 400, H: 400})
	require.True(t, g.Begin(id, gesture.Preview, gesture.Pointer{ID: 1, X: 200, Y: 200}))

	g.Listeners().Dispatch(gesture.EventMove, gesture.Pointer{ID: 1, X: 400, Y: 100})
	l, _ := ed.Layers().Find(id)
	p, _ := l.Text()
	assert.Equal(t, 50.0, p.Left)
	assert.Equal(t, 50.0, p.Top)
	assert.Equal(t, gesture.Snap{}, ed.Snap())

	g.Listeners().Dispatch(gesture.EventMove, gesture.Pointer{ID: 1, X: 201, Y: 300})
	l, _ = ed.Layers().Find(id)
	p, _ = l.Text()
	assert.Equal(t, 0.0, p.Left)
	assert.Equal(t, -50.0, p.Top)
	assert.Equal(t, gesture.Snap{X: true}, ed.Snap())

	g.Listeners().Dispatch(gesture.EventUp, gesture.Pointer{ID: 1})
	assert.Equal(t, gesture.Idle, g.State())
	assert.Equal(t, gesture.Snap{}, ed.Snap())
	assert.Zero(t, g.Listeners().Len())
}

func TestDragOnCustomSurface(t *testing.T) {
	pad := coord.Rect{X: 10, Y: 10, W: 100, H: 100}
	ed, _ := newEditor(t, cutoutOf(), WithGeometry(func(s gesture.Surface) (coord.Rect, bool) {
		return pad, s == gesture.Positioner
	}))
	id := ed.AddText()
	g := ed.Gestures()

	require.True(t, g.Begin(id, gesture.Positioner, gesture.Pointer{ID: 3, X: 60, Y: 60}))
	g.Move(gesture.Pointer{ID: 3, X: 85, Y: 35})
	g.End(gesture.Pointer{ID: 3})

	l, _ := ed.Layers().Find(id)
	p, _ := l.Text()
	assert.Equal(t, 25.0, p.Left)
	assert.Equal(t, 25.0, p.Top)
}

func TestFilterSetters(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	assert.Equal(t, filter.DefaultState(), ed.Filter())

	require.NoError(t, ed.SetFilter("mono"))
	require.ErrorIs(t, ed.SetFilter("sepia-deluxe"), ErrUnknownPreset)
	ed.SetIntensity(150)
	ed.SetApplyToFull(false)

	st := ed.Filter()
	assert.Equal(t, "mono", st.Preset)
	assert.Equal(t, 100.0, st.Intensity)
	assert.False(t, st.ApplyToFull)

	ed.SetIntensity(-3)
	assert.Zero(t, ed.Filter().Intensity)
}

func TestThumbnails(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	_, err := ed.Thumbnails(32)
	require.ErrorIs(t, err, ErrNoImage)

	upload(t, ed, 64, 32)
	thumbs, err := ed.Thumbnails(32)
	require.NoError(t, err)
	require.Len(t, thumbs, len(filter.Presets()))
	assert.Equal(t, filter.Original, thumbs[0].Preset.Name)
	assert.Equal(t, 32, thumbs[0].Image.Width())
	assert.Equal(t, 16, thumbs[0].Image.Height())
}

func TestPreview(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	_, err := ed.Preview(context.Background(), coord.Sz(100, 100))
	require.ErrorIs(t, err, ErrNoImage)

	require.NoError(t, ed.Load(context.Background(), bytes.NewReader(pngBytes(t, 400, 200, color.White))))
	pm, err := ed.Preview(context.Background(), coord.Sz(100, 100))
	require.NoError(t, err)
	assert.Equal(t, 100, pm.Width())
	assert.Equal(t, 50, pm.Height())
}

func TestExport(t *testing.T) {
	ed, clk := newEditor(t, cutoutOf())
	dir := t.TempDir()

	require.ErrorIs(t, ed.Export(context.Background(), DirSink{Dir: dir}), ErrNoImage)
	_, err := os.Stat(filepath.Join(dir, ExportName))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, ed.Load(context.Background(), bytes.NewReader(pngBytes(t, 120, 80, color.Black))))
	ed.SetViewport(coord.Rect{W: 600, H: 400})
	clk.Advance(time.Minute)
	require.NoError(t, ed.Export(context.Background(), DirSink{Dir: dir}))

	f, err := os.Open(filepath.Join(dir, ExportName))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())

	st := ed.Status()
	assert.Equal(t, clk.Now(), st.ExportedAt)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestExportSinkFailure(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	upload(t, ed, 10, 10)

	boom := errors.New("disk full")
	err := ed.Export(context.Background(), SinkFunc(func(_ context.Context, name string, data []byte) error {
		assert.Equal(t, ExportName, name)
		assert.NotEmpty(t, data)
		return boom
	}))
	require.ErrorIs(t, err, boom)
	assert.True(t, ed.Status().ExportedAt.IsZero())
}

func TestExportCanceled(t *testing.T) {
	ed, _ := newEditor(t, cutoutOf())
	upload(t, ed, 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := ed.Export(ctx, SinkFunc(func(context.Context, string, []byte) error {
		called = true
		return nil
	}))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
