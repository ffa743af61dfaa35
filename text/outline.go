package text

import (
	"image"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/internal/blend"
)

type pathOp uint8

const (
	opMoveTo pathOp = iota
	opLineTo
	opQuadTo
	opCubeTo
)

type segment struct {
	op  pathOp
	pts [3]textbehind.Point
}

// Outline is the filled shape of one or more runs in device space.
type Outline struct {
	segs []segment

	minX, minY, maxX, maxY float64
}

// NewOutline returns an empty outline to which runs can be added.
func NewOutline() *Outline {
	return &Outline{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
}

// Outline returns the glyph outlines of r transformed by m. The run's pen
// origin maps to m's origin; glyph coordinates are y down.
func (r Run) Outline(m textbehind.Matrix) (*Outline, error) {
	o := NewOutline()
	return o, o.AddRun(r, m)
}

// AddRun appends the outlines of r transformed by m.
func (o *Outline) AddRun(r Run, m textbehind.Matrix) error {
	if r.Empty() {
		return nil
	}
	r.Source.copyCheck()

	for _, g := range r.Glyphs {
		gm := m.Multiply(textbehind.Translate(g.X, g.Y))
		err := r.Source.withGlyph(g.ID, r.Size, func(segs sfnt.Segments) {
			for _, s := range segs {
				o.add(gm, s)
			}
		})
		if err != nil {
			return &FontError{Reason: "failed to load glyph outline", Err: err}
		}
	}
	return nil
}

func (o *Outline) add(m textbehind.Matrix, s sfnt.Segment) {
	var seg segment
	var n int
	switch s.Op {
	case sfnt.SegmentOpMoveTo:
		seg.op, n = opMoveTo, 1
	case sfnt.SegmentOpLineTo:
		seg.op, n = opLineTo, 1
	case sfnt.SegmentOpQuadTo:
		seg.op, n = opQuadTo, 2
	case sfnt.SegmentOpCubeTo:
		seg.op, n = opCubeTo, 3
	default:
		return
	}
	for i := 0; i < n; i++ {
		p := m.TransformPoint(textbehind.Pt(fixedToFloat(s.Args[i].X), fixedToFloat(s.Args[i].Y)))
		seg.pts[i] = p
		o.minX, o.maxX = math.Min(o.minX, p.X), math.Max(o.maxX, p.X)
		o.minY, o.maxY = math.Min(o.minY, p.Y), math.Max(o.maxY, p.Y)
	}
	o.segs = append(o.segs, seg)
}

// Empty reports whether the outline covers no area.
func (o *Outline) Empty() bool {
	return len(o.segs) == 0
}

// Bounds returns the smallest integer rectangle containing the outline.
func (o *Outline) Bounds() image.Rectangle {
	if o.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(o.minX)), int(math.Floor(o.minY)),
		int(math.Ceil(o.maxX)), int(math.Ceil(o.maxY)),
	)
}

// Fill composites the outline in color c onto dst. origin is the device
// point that maps to dst's top-left pixel.
func (o *Outline) Fill(dst *textbehind.Pixmap, origin image.Point, c textbehind.RGBA) {
	if o.Empty() || dst.Empty() {
		return
	}
	area := o.Bounds().Sub(origin).Intersect(image.Rect(0, 0, dst.Width(), dst.Height()))
	if area.Empty() {
		return
	}

	// Rasterizer space has area.Min at (0, 0).
	dx := float32(origin.X + area.Min.X)
	dy := float32(origin.Y + area.Min.Y)
	pt := func(p textbehind.Point) (float32, float32) {
		return float32(p.X) - dx, float32(p.Y) - dy
	}

	z := vector.NewRasterizer(area.Dx(), area.Dy())
	open := false
	for _, s := range o.segs {
		switch s.op {
		case opMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(s.pts[0]))
			open = true
		case opLineTo:
			z.LineTo(pt(s.pts[0]))
		case opQuadTo:
			bx, by := pt(s.pts[0])
			cx, cy := pt(s.pts[1])
			z.QuadTo(bx, by, cx, cy)
		case opCubeTo:
			bx, by := pt(s.pts[0])
			cx, cy := pt(s.pts[1])
			ex, ey := pt(s.pts[2])
			z.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}
	if open {
		z.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, area.Dx(), area.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	blend.FillMask(dst, mask, area.Min, c)
}
