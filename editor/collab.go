package editor

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ExportName is the file name exports are saved under.
const ExportName = "text-behind-image.png"

// Decoder turns an uploaded file into a raster.
type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader) (image.Image, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.Reader) (image.Image, error) {
	return f(r)
}

// StdDecoder decodes every format registered with the image package:
// PNG, JPEG, GIF, BMP, TIFF and WebP.
var StdDecoder Decoder = DecoderFunc(func(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
})

// Remover extracts the subject of a photo. The result has the subject
// opaque and everything else transparent. progress, when called, receives
// values in [0, 1].
type Remover interface {
	RemoveBackground(ctx context.Context, img image.Image, progress func(float64)) (image.Image, error)
}

// RemoverFunc adapts a function to Remover.
type RemoverFunc func(ctx context.Context, img image.Image, progress func(float64)) (image.Image, error)

// RemoveBackground calls f.
func (f RemoverFunc) RemoveBackground(ctx context.Context, img image.Image, progress func(float64)) (image.Image, error) {
	return f(ctx, img, progress)
}

// SidecarRemover serves a cutout prepared ahead of time by an external
// segmentation tool, read from Path.
type SidecarRemover struct {
	// Path is the cutout file. Empty means there is none.
	Path string

	// Decoder reads the file; nil means StdDecoder.
	Decoder Decoder
}

// SidecarPath returns the conventional cutout path of an image:
// "photo.jpg" with suffix ".cutout.png" is "photo.cutout.png".
func SidecarPath(imagePath, suffix string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + suffix
}

// RemoveBackground loads the cutout. The photo itself is not inspected.
func (s SidecarRemover) RemoveBackground(ctx context.Context, _ image.Image, progress func(float64)) (image.Image, error) {
	if s.Path == "" {
		return nil, ErrNoCutout
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// #nosec G304 -- the cutout path is chosen by the user
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("editor: open cutout: %w", err)
	}
	defer f.Close()

	dec := s.Decoder
	if dec == nil {
		dec = StdDecoder
	}
	img, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("editor: decode cutout %s: %w", s.Path, err)
	}
	if progress != nil {
		progress(1)
	}
	return img, nil
}

// Sink receives an exported file.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, name string, data []byte) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSink writes exports into a directory. Files appear atomically: a
// failed save leaves no partial file behind.
type DirSink struct {
	Dir string
}

// Save writes data to Dir/name.
func (s DirSink) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("editor: save %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("editor: save %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("editor: save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("editor: save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("editor: save %s: %w", name, err)
	}
	return nil
}
