package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	atotto "github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"

	"github.com/gogpu/textbehind/compose"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/editor"
	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/gesture"
	"github.com/gogpu/textbehind/internal/config"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

const (
	statusBarHeight = 20

	// mouseID is the gesture pointer id of the mouse; touches use their
	// ebiten id plus one.
	mouseID = 0

	// wheelNotch converts ebiten wheel notches to the pixel deltas browsers
	// report, which the gesture thresholds are tuned for.
	wheelNotch = 100
)

var (
	canvasColor = color.RGBA{0x1e, 0x1e, 0x22, 0xff}
	guideColor  = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
)

const helpText = `drag     move text         wheel/pinch  resize
arrows   nudge             tab          next text layer
ctrl+n   add text          ctrl+d       duplicate
delete   remove            h            show/hide
pgup/dn  raise/lower       r            reset position
ctrl+v   paste text        ctrl+c       copy image
ctrl+o   open photo        ctrl+s       export
f        next filter       [ ]          intensity
b        filter scope      f2           preview style`

// previewKey captures everything that changes the preview raster.
type previewKey struct {
	version  uint64
	filter   filter.State
	gen      uint64
	cutout   bool
	viewport coord.Rect
}

// studio is the ebiten game. Update and Draw run on the same goroutine;
// only background removal runs elsewhere, through the editor.
type studio struct {
	ctx context.Context
	cfg *config.Config
	ed  *editor.Editor

	cutout atomic.Pointer[string]

	preview    *ebiten.Image
	previewKey previewKey
	photoRect  coord.Rect

	touchIDs  []ebiten.TouchID
	clipboard bool // image clipboard available

	message  string
	showHelp bool
	showCSS  bool
}

func newStudio(ctx context.Context, cfg *config.Config, fonts *text.Registry) *studio {
	s := &studio{ctx: ctx, cfg: cfg}
	s.ed = editor.New(fonts, editor.RemoverFunc(s.removeBackground),
		editor.WithFeatures(features(cfg)))
	if err := clipboard.Init(); err != nil {
		slog.Warn("image clipboard unavailable", "err", err)
	} else {
		s.clipboard = true
	}
	return s
}

// removeBackground reads the sidecar cutout of the photo opened last.
func (s *studio) removeBackground(ctx context.Context, img image.Image, progress func(float64)) (image.Image, error) {
	var path string
	if p := s.cutout.Load(); p != nil {
		path = *p
	}
	return editor.SidecarRemover{Path: path}.RemoveBackground(ctx, img, progress)
}

// open uploads a photo and starts loading its cutout in the background.
func (s *studio) open(path string) error {
	// #nosec G304 -- the photo path is chosen by the user
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	cutout := editor.SidecarPath(path, s.cfg.CutoutSuffix)
	s.cutout.Store(&cutout)
	ticket, err := s.ed.Upload(f)
	if err != nil {
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RemovalTimeout)
		defer cancel()
		if err := s.ed.RemoveBackground(ctx, ticket); err != nil && !errors.Is(err, editor.ErrStaleUpload) {
			slog.Warn("subject cutout unavailable", "photo", path, "err", err)
		}
	}()
	s.message = "opened " + filepath.Base(path)
	return nil
}

func (s *studio) Update() error {
	s.pointers()
	if _, dy := ebiten.Wheel(); dy != 0 {
		s.ed.Gestures().Wheel(-dy * wheelNotch)
	}
	s.keys()
	return nil
}

func (s *studio) pointers() {
	g := s.ed.Gestures()

	x, y := ebiten.CursorPosition()
	mouse := gesture.Pointer{ID: mouseID, X: float64(x), Y: float64(y)}
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		s.press(mouse)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		s.release(mouse)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		s.move(mouse)
	}

	s.touchIDs = inpututil.AppendJustPressedTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		s.press(touch(id, tx, ty))
	}
	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		s.move(touch(id, tx, ty))
	}
	s.touchIDs = inpututil.AppendJustReleasedTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		tx, ty := inpututil.TouchPositionInPreviousTick(id)
		s.release(touch(id, tx, ty))
	}

	if g.State() == gesture.Dragging && !ebiten.IsFocused() {
		g.Cancel()
	}
}

func touch(id ebiten.TouchID, x, y int) gesture.Pointer {
	return gesture.Pointer{ID: int(id) + 1, X: float64(x), Y: float64(y)}
}

// press starts tracking p and, when it lands on a text layer, drags it.
func (s *studio) press(p gesture.Pointer) {
	g := s.ed.Gestures()
	g.PointerDown(p)
	if g.State() == gesture.Dragging {
		return
	}
	id, ok := hitText(s.ed.Layers(), s.photoRect, p.X, p.Y)
	if !ok {
		return
	}
	if err := s.ed.SetActive(id); err != nil {
		return
	}
	g.Begin(id, gesture.Preview, p)
}

func (s *studio) move(p gesture.Pointer) {
	g := s.ed.Gestures()
	g.PointerMove(p)
	g.Listeners().Dispatch(gesture.EventMove, p)
}

func (s *studio) release(p gesture.Pointer) {
	g := s.ed.Gestures()
	g.PointerUp(p)
	g.Listeners().Dispatch(gesture.EventUp, p)
}

// hitText returns the topmost visible text layer whose approximate box,
// laid out inside r, contains (x, y).
func hitText(snap layer.Snapshot, r coord.Rect, x, y float64) (string, bool) {
	if r.Empty() {
		return "", false
	}
	ordered := snap.Visible()
	for i := len(ordered) - 1; i >= 0; i-- {
		p, ok := ordered[i].Text()
		if !ok {
			continue
		}
		cx, cy := coord.ToPixel(p.Left, p.Top, r)
		halfH := math.Max(p.FontSize/2, 12)
		halfW := math.Max(p.FontSize*0.3*float64(len([]rune(p.Content))), 12)
		if math.Abs(x-cx) <= halfW && math.Abs(y-cy) <= halfH {
			return ordered[i].ID, true
		}
	}
	return "", false
}

func (s *studio) keys() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	pressed := inpututil.IsKeyJustPressed
	active, hasActive := s.ed.Active()

	switch {
	case pressed(ebiten.KeyF1):
		s.showHelp = !s.showHelp
	case pressed(ebiten.KeyF2):
		s.showCSS = !s.showCSS
	case ctrl && pressed(ebiten.KeyO):
		s.openDialog()
	case ctrl && pressed(ebiten.KeyS):
		s.exportDialog()
	case ctrl && pressed(ebiten.KeyC):
		s.copyImage()
	case ctrl && pressed(ebiten.KeyV) && hasActive:
		s.pasteText(active)
	case ctrl && pressed(ebiten.KeyN):
		s.ed.AddText()
	case ctrl && pressed(ebiten.KeyD) && hasActive:
		_, err := s.ed.Duplicate(active)
		s.report(err)
	case pressed(ebiten.KeyDelete) && hasActive:
		s.report(s.ed.Remove(active))
	case pressed(ebiten.KeyTab):
		s.cycleActive(active)
	case pressed(ebiten.KeyH) && hasActive:
		s.report(s.ed.ToggleVisibility(active))
	case pressed(ebiten.KeyR) && hasActive:
		s.report(s.ed.ResetPosition(active))
	case pressed(ebiten.KeyPageUp) && hasActive:
		s.ed.MoveUp(active)
	case pressed(ebiten.KeyPageDown) && hasActive:
		s.ed.MoveDown(active)
	case pressed(ebiten.KeyF):
		s.cycleFilter()
	case pressed(ebiten.KeyBracketLeft):
		s.ed.SetIntensity(s.ed.Filter().Intensity - 10)
	case pressed(ebiten.KeyBracketRight):
		s.ed.SetIntensity(s.ed.Filter().Intensity + 10)
	case pressed(ebiten.KeyB):
		s.ed.SetApplyToFull(!s.ed.Filter().ApplyToFull)
	}

	if !hasActive {
		return
	}
	for key, dir := range nudgeKeys {
		if inpututil.IsKeyJustPressed(key) || repeating(key) {
			s.report(s.ed.Nudge(active, dir))
		}
	}
}

var nudgeKeys = map[ebiten.Key]gesture.Direction{
	ebiten.KeyArrowUp:    gesture.Up,
	ebiten.KeyArrowDown:  gesture.Down,
	ebiten.KeyArrowLeft:  gesture.Left,
	ebiten.KeyArrowRight: gesture.Right,
}

// repeating reports key repeat after a short hold.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d > 20 && d%3 == 0
}

func (s *studio) report(err error) {
	if err != nil {
		s.message = err.Error()
	}
}

func (s *studio) cycleActive(current string) {
	texts := s.ed.Layers().Texts()
	if len(texts) == 0 {
		return
	}
	next := 0
	for i, l := range texts {
		if l.ID == current {
			next = (i + 1) % len(texts)
		}
	}
	s.report(s.ed.SetActive(texts[next].ID))
}

func (s *studio) cycleFilter() {
	presets := filter.Presets()
	cur := s.ed.Filter().Preset
	next := 0
	for i, p := range presets {
		if p.Name == cur {
			next = (i + 1) % len(presets)
		}
	}
	s.report(s.ed.SetFilter(presets[next].Name))
	s.message = "filter: " + presets[next].Label
}

func (s *studio) pasteText(id string) {
	txt, err := atotto.ReadAll()
	if err != nil {
		s.message = "paste: " + err.Error()
		return
	}
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return
	}
	s.report(s.ed.SetAttribute(id, layer.AttrContent, txt))
}

func (s *studio) openDialog() {
	path, err := dialog.File().Filter("Images", "png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp").Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			s.message = "open: " + err.Error()
		}
		return
	}
	if err := s.open(filepath.Clean(path)); err != nil {
		s.message = err.Error()
	}
}

func (s *studio) exportDialog() {
	dir, err := dialog.Directory().Title("Export to").Browse()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			s.message = "export: " + err.Error()
		}
		return
	}
	if err := s.ed.Export(s.ctx, editor.DirSink{Dir: dir}); err != nil {
		s.message = "export: " + err.Error()
		return
	}
	s.message = "saved " + filepath.Join(dir, editor.ExportName)
}

// copyImage exports to the system clipboard.
func (s *studio) copyImage() {
	if !s.clipboard {
		s.message = "image clipboard unavailable"
		return
	}
	sink := editor.SinkFunc(func(_ context.Context, _ string, data []byte) error {
		clipboard.Write(clipboard.FmtImage, data)
		return nil
	})
	if err := s.ed.Export(s.ctx, sink); err != nil {
		s.message = "copy: " + err.Error()
		return
	}
	s.message = "copied to clipboard"
}

// refresh re-renders the preview when anything it depends on changed.
func (s *studio) refresh(viewport coord.Rect) {
	s.ed.SetViewport(viewport)
	st := s.ed.Status()
	if !st.HasImage {
		s.photoRect = coord.Rect{}
		return
	}
	key := previewKey{
		version:  s.ed.Layers().Version(),
		filter:   s.ed.Filter(),
		gen:      st.Generation,
		cutout:   st.HasCutout,
		viewport: viewport,
	}
	if s.preview != nil && key == s.previewKey {
		return
	}

	pm, err := s.ed.Preview(s.ctx, viewport.Size())
	if err != nil {
		s.message = "preview: " + err.Error()
		return
	}
	if pm.Empty() {
		return
	}
	if s.preview == nil || s.preview.Bounds().Dx() != pm.Width() || s.preview.Bounds().Dy() != pm.Height() {
		if s.preview != nil {
			s.preview.Deallocate()
		}
		s.preview = ebiten.NewImage(pm.Width(), pm.Height())
	}
	s.preview.WritePixels(pm.Data())
	s.previewKey = key

	img := s.ed.Image()
	b := img.Bounds()
	s.photoRect = coord.Letterbox(coord.Sz(float64(b.Dx()), float64(b.Dy())), viewport)
}

func (s *studio) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	screen.Fill(canvasColor)
	s.refresh(coord.Rect{W: float64(w), H: float64(h - statusBarHeight)})

	if s.preview != nil && !s.photoRect.Empty() {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(s.photoRect.X, s.photoRect.Y)
		screen.DrawImage(s.preview, op)
		s.drawGuides(screen)
	} else {
		ebitenutil.DebugPrintAt(screen, "ctrl+o to open a photo, f1 for help", 12, 12)
	}

	if s.showHelp {
		ebitenutil.DebugPrintAt(screen, helpText, 12, 32)
	}
	if s.showCSS {
		s.drawStyle(screen)
	}
	ebitenutil.DebugPrintAt(screen, s.statusLine(), 6, h-statusBarHeight+2)
}

// drawGuides shows the centre lines an axis is snapped to.
func (s *studio) drawGuides(screen *ebiten.Image) {
	snap := s.ed.Snap()
	r := s.photoRect
	if snap.X {
		x := float32(r.X + r.W/2)
		vector.StrokeLine(screen, x, float32(r.Y), x, float32(r.Y+r.H), 1, guideColor, false)
	}
	if snap.Y {
		y := float32(r.Y + r.H/2)
		vector.StrokeLine(screen, float32(r.X), y, float32(r.X+r.W), y, 1, guideColor, false)
	}
}

func (s *studio) drawStyle(screen *ebiten.Image) {
	id, ok := s.ed.Active()
	if !ok {
		return
	}
	l, ok := s.ed.Layers().Find(id)
	if !ok {
		return
	}
	st, ok := compose.TextStyle(l, s.ed.Filter())
	if !ok {
		return
	}
	css := strings.ReplaceAll(st.CSS(), "; ", ";\n")
	ebitenutil.DebugPrintAt(screen, css+"\n\nbackground filter: "+compose.FilterStyle(s.ed.Filter()), 12, 32)
}

func (s *studio) statusLine() string {
	st := s.ed.Status()
	f := s.ed.Filter()
	scope := "all"
	if !f.ApplyToFull {
		scope = "background"
	}
	parts := []string{fmt.Sprintf("filter %s %.0f%% (%s)", f.Preset, f.Intensity, scope)}
	switch {
	case st.Processing:
		parts = append(parts, fmt.Sprintf("removing background %.0f%%", st.Progress*100))
	case st.Err != nil:
		parts = append(parts, "no cutout")
	}
	if id, ok := s.ed.Active(); ok {
		if l, ok := s.ed.Layers().Find(id); ok {
			parts = append(parts, "active: "+l.Name)
		}
	}
	if s.message != "" {
		parts = append(parts, s.message)
	}
	return strings.Join(parts, "  |  ")
}

func (s *studio) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
