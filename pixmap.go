package textbehind

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// ErrEmptyPixmap is returned when a pixmap with no pixels is encoded.
var ErrEmptyPixmap = errors.New("textbehind: empty pixmap")

// Pixmap represents a rectangular pixel buffer.
// Pixels are stored as premultiplied RGBA, 4 bytes per pixel, which is the
// same layout as image.RGBA.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new transparent pixmap with the given dimensions.
// Negative dimensions are treated as zero.
func NewPixmap(width, height int) *Pixmap {
	width = max(width, 0)
	height = max(height, 0)
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Empty reports whether the pixmap has no pixels.
func (p *Pixmap) Empty() bool {
	return p == nil || p.width == 0 || p.height == 0
}

// Data returns the raw premultiplied pixel data.
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel sets the color of a single pixel, replacing what was there.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0], p.data[i+1], p.data[i+2], p.data[i+3] = c.Premultiplied()
}

// GetPixel returns the straight-alpha color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	a := float64(p.data[i+3])
	if a == 0 {
		return Transparent
	}
	return RGBA{
		R: float64(p.data[i+0]) / a,
		G: float64(p.data[i+1]) / a,
		B: float64(p.data[i+2]) / a,
		A: a / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	r, g, b, a := c.Premultiplied()
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{width: p.width, height: p.height, data: make([]uint8, len(p.data))}
	copy(c.data, p.data)
	return c
}

// ToImage converts the pixmap to an image.RGBA.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image at its natural size.
func FromImage(img image.Image) *Pixmap {
	b := img.Bounds()
	pm := NewPixmap(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == b.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		copy(pm.data, rgba.Pix)
		return pm
	}
	draw.Draw(pm.view(), pm.view().Rect, img, b.Min, draw.Src)
	return pm
}

// DrawImage draws img over the pixmap, scaled to fill the whole pixmap.
// Images whose size already matches are drawn without resampling.
func (p *Pixmap) DrawImage(img image.Image) {
	if img == nil || p.Empty() {
		return
	}
	dst := p.view()
	b := img.Bounds()
	if b.Dx() == p.width && b.Dy() == p.height {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Over)
		return
	}
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Over, nil)
}

// DrawPixmap composites src over the pixmap with its top-left corner at
// (x, y). Both buffers are premultiplied, so this is plain source-over.
func (p *Pixmap) DrawPixmap(src *Pixmap, x, y int) {
	if src.Empty() || p.Empty() {
		return
	}
	dst := p.view()
	r := image.Rect(x, y, x+src.width, y+src.height)
	draw.Draw(dst, r, src.view(), image.Point{}, draw.Over)
}

// EncodePNG writes the pixmap as a PNG.
func (p *Pixmap) EncodePNG(w io.Writer) error {
	if p.Empty() {
		return ErrEmptyPixmap
	}
	return png.Encode(w, p.view())
}

// view returns an image.RGBA that shares the pixmap's storage.
func (p *Pixmap) view() *image.RGBA {
	return &image.RGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := (y*p.width + x) * 4
	return color.RGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.RGBAModel
}
