package textbehind

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestSetGetPixel(t *testing.T) {
	pm := NewPixmap(2, 2)
	pm.SetPixel(1, 1, RGBA2(1, 0, 0, 0.5))

	d := pm.Data()
	i := (1*2 + 1) * 4
	if d[i] != 128 || d[i+3] != 128 {
		t.Errorf("stored = %v, want premultiplied red 128/128", d[i:i+4])
	}

	got := pm.GetPixel(1, 1)
	if !colorsClose(got, RGBA2(1, 0, 0, 128.0/255), 1e-9) {
		t.Errorf("GetPixel = %+v, want straight red", got)
	}
	if got := pm.GetPixel(5, 5); got != Transparent {
		t.Errorf("GetPixel(out of bounds) = %+v, want transparent", got)
	}
}

func TestFromImageAndDrawImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}

	pm := FromImage(src)
	if pm.Width() != 4 || pm.Height() != 2 {
		t.Fatalf("FromImage size = %dx%d, want 4x2", pm.Width(), pm.Height())
	}
	if got := pm.GetPixel(3, 1); !colorsClose(got, Red, 1e-9) {
		t.Errorf("FromImage pixel = %+v, want red", got)
	}

	// Drawing a 4x2 image onto an 8x4 pixmap scales it to cover everything.
	big := NewPixmap(8, 4)
	big.DrawImage(src)
	if got := big.GetPixel(7, 3); got.A < 0.99 || got.R < 0.99 {
		t.Errorf("scaled pixel = %+v, want opaque red", got)
	}
}

func TestDrawPixmapSourceOver(t *testing.T) {
	dst := NewPixmap(2, 1)
	dst.Clear(Blue)
	src := NewPixmap(1, 1)
	src.SetPixel(0, 0, RGBA2(1, 0, 0, 0.5))

	dst.DrawPixmap(src, 1, 0)

	got := dst.GetPixel(1, 0)
	if !colorsClose(got, RGBA2(0.5, 0, 0.5, 1), 2.0/255) {
		t.Errorf("composited = %+v, want purple", got)
	}
	if got := dst.GetPixel(0, 0); got != Blue {
		t.Errorf("untouched pixel = %+v, want blue", got)
	}
}

func TestEncodePNG(t *testing.T) {
	pm := NewPixmap(3, 3)
	pm.Clear(White)

	var buf bytes.Buffer
	if err := pm.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG() = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA); got.R != 255 || got.A != 255 {
		t.Errorf("decoded pixel = %+v, want white", got)
	}

	if err := NewPixmap(0, 5).EncodePNG(&buf); !errors.Is(err, ErrEmptyPixmap) {
		t.Errorf("EncodePNG(empty) = %v, want ErrEmptyPixmap", err)
	}
}
