package compose

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/filter"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/text"
)

// Input is everything a render needs. It is read only.
type Input struct {
	// Layers is the stack to draw.
	Layers layer.Snapshot

	// Background is the uploaded photo. Its size is the export size.
	Background image.Image

	// Subject is the cutout of the photo's subject, or nil while
	// background removal has not produced one.
	Subject image.Image

	// Viewport is the preview area the layout was authored in. Font sizes
	// and letter spacing scale by the ratio between it and the photo.
	Viewport coord.Size

	// Filter is the filter selection.
	Filter filter.State
}

// nativeSize returns the background's size.
func (in *Input) nativeSize() coord.Size {
	b := in.Background.Bounds()
	return coord.Sz(float64(b.Dx()), float64(b.Dy()))
}

// Compositor renders layer stacks. It is safe for concurrent use.
type Compositor struct {
	fonts  text.Resolver
	shaper *text.Shaper

	// newPainter builds the text painter of one layer.
	newPainter func(src *text.FontSource, size float64, frame textbehind.Matrix) painter
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithShaper sets the shaper used for text runs. The default is
// text.DefaultShaper().
func WithShaper(sh *text.Shaper) Option {
	return func(c *Compositor) {
		if sh != nil {
			c.shaper = sh
		}
	}
}

// New creates a Compositor resolving fonts through fonts.
func New(fonts text.Resolver, opts ...Option) *Compositor {
	c := &Compositor{
		fonts:  fonts,
		shaper: text.DefaultShaper(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.newPainter = func(src *text.FontSource, size float64, frame textbehind.Matrix) painter {
		return newOutlinePainter(c.shaper, src, size, frame)
	}
	return c
}

// Render composes in at the background's native resolution.
// On error no pixmap is returned.
func (c *Compositor) Render(ctx context.Context, in Input) (*textbehind.Pixmap, error) {
	if in.Background == nil {
		return nil, ErrNoBackground
	}
	b := in.Background.Bounds()
	return c.render(ctx, &in, b.Dx(), b.Dy())
}

// RenderScaled composes in at scale times the native resolution, for
// previews. The layout is identical to Render's.
func (c *Compositor) RenderScaled(ctx context.Context, in Input, scale float64) (*textbehind.Pixmap, error) {
	if in.Background == nil {
		return nil, ErrNoBackground
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("compose: scale %v: %w", scale, ErrEmptySurface)
	}
	b := in.Background.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if b.Dx() > 0 && b.Dy() > 0 {
		w, h = max(w, 1), max(h, 1)
	}
	return c.render(ctx, &in, w, h)
}

func (c *Compositor) render(ctx context.Context, in *Input, w, h int) (*textbehind.Pixmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	native := in.nativeSize()
	if native.Empty() || w <= 0 || h <= 0 {
		return nil, ErrEmptySurface
	}
	start := time.Now()

	canvas := textbehind.NewPixmap(w, h)
	frame := coord.Rect{W: float64(w), H: float64(h)}
	// Font units are preview pixels; convert them to canvas pixels.
	fontScale := coord.FontScale(native, in.Viewport) * frame.W / native.W

	settings := in.Filter.Settings()
	filtered := !settings.IsNeutral()

	var background *textbehind.Pixmap
	if filtered && !in.Filter.ApplyToFull {
		background = textbehind.NewPixmap(w, h)
		background.DrawImage(in.Background)
		filter.Apply(background, settings)
	}

	visible := in.Layers.Visible()
	for _, l := range visible {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch l.Kind {
		case layer.KindBackground:
			if background != nil {
				canvas.DrawPixmap(background, 0, 0)
			} else {
				canvas.DrawImage(in.Background)
			}
		case layer.KindSubject:
			if in.Subject != nil {
				canvas.DrawImage(in.Subject)
			}
		case layer.KindText:
			if err := c.drawText(canvas, l, frame, fontScale); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("compose: layer %q: unknown kind %v", l.ID, l.Kind)
		}
	}

	if filtered && in.Filter.ApplyToFull {
		filter.Apply(canvas, settings)
	}

	textbehind.Logger().Debug("compose: rendered",
		"w", w, "h", h, "layers", len(visible),
		"filter", in.Filter.Preset, "elapsed", time.Since(start))
	return canvas, nil
}

// EncodePNG writes pm as a lossless PNG.
func EncodePNG(w io.Writer, pm *textbehind.Pixmap) error {
	if err := pm.EncodePNG(w); err != nil {
		return fmt.Errorf("compose: encode png: %w", err)
	}
	return nil
}
