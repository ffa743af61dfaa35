// Command textbehind places text behind the subject of a photo and writes
// the composite as PNG.
//
// The subject cutout is read from a sidecar file produced by an external
// segmentation tool; by default "photo.jpg" uses "photo.cutout.png".
//
//	textbehind -text "HELLO" -font-size 180 -top 20 -filter vivid photo.jpg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/textbehind"
	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/editor"
	"github.com/gogpu/textbehind/internal/config"
	"github.com/gogpu/textbehind/internal/logging"
	"github.com/gogpu/textbehind/layer"
	"github.com/gogpu/textbehind/metrics"
	"github.com/gogpu/textbehind/text"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("textbehind failed", "err", err)
		os.Exit(1)
	}
}

// textFlags are the attributes of the text layer set on the command line.
type textFlags struct {
	content       string
	family        string
	size          float64
	weight        int
	color         string
	opacity       float64
	left, top     float64
	rotation      float64
	tiltX, tiltY  float64
	letterSpacing float64
	shadowColor   string
	shadowSize    float64
}

func (f *textFlags) register(fs *flag.FlagSet) {
	d := layer.DefaultTextProps()
	fs.StringVar(&f.content, "text", d.Content, "text content")
	fs.StringVar(&f.family, "font", d.FontFamily, "font family list")
	fs.Float64Var(&f.size, "font-size", d.FontSize, "font size in preview pixels")
	fs.IntVar(&f.weight, "font-weight", d.FontWeight, "font weight")
	fs.StringVar(&f.color, "color", d.Color, "text color")
	fs.Float64Var(&f.opacity, "opacity", d.Opacity, "text opacity, 0..1")
	fs.Float64Var(&f.left, "left", d.Left, "horizontal position, -50..50")
	fs.Float64Var(&f.top, "top", d.Top, "vertical position, -50..50, positive is up")
	fs.Float64Var(&f.rotation, "rotation", d.Rotation, "rotation in degrees")
	fs.Float64Var(&f.tiltX, "tilt-x", d.TiltX, "tilt around the x axis in degrees")
	fs.Float64Var(&f.tiltY, "tilt-y", d.TiltY, "tilt around the y axis in degrees")
	fs.Float64Var(&f.letterSpacing, "letter-spacing", d.LetterSpacing, "letter spacing in preview pixels")
	fs.StringVar(&f.shadowColor, "shadow-color", d.ShadowColor, "shadow color")
	fs.Float64Var(&f.shadowSize, "shadow-size", d.ShadowSize, "shadow size, 0 disables")
}

// apply writes the flags to layer id. Attributes left at their defaults
// are skipped so that disabled features are only rejected when used.
func (f *textFlags) apply(ed *editor.Editor, id string) error {
	d := layer.DefaultTextProps()
	set := []struct {
		key     layer.Attr
		value   any
		changed bool
	}{
		{layer.AttrContent, f.content, true},
		{layer.AttrFontFamily, f.family, f.family != d.FontFamily},
		{layer.AttrFontSize, f.size, f.size != d.FontSize},
		{layer.AttrFontWeight, f.weight, f.weight != d.FontWeight},
		{layer.AttrColor, f.color, f.color != d.Color},
		{layer.AttrOpacity, f.opacity, f.opacity != d.Opacity},
		{layer.AttrRotation, f.rotation, f.rotation != d.Rotation},
		{layer.AttrTiltX, f.tiltX, f.tiltX != d.TiltX},
		{layer.AttrTiltY, f.tiltY, f.tiltY != d.TiltY},
		{layer.AttrLetterSpacing, f.letterSpacing, f.letterSpacing != d.LetterSpacing},
		{layer.AttrShadowColor, f.shadowColor, f.shadowColor != d.ShadowColor},
		{layer.AttrShadowSize, f.shadowSize, f.shadowSize != d.ShadowSize},
	}
	for _, s := range set {
		if !s.changed {
			continue
		}
		if err := ed.SetAttribute(id, s.key, s.value); err != nil {
			return fmt.Errorf("-%s: %w", s.key, err)
		}
	}
	return ed.SetPosition(id, f.left, f.top)
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("textbehind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		envFile     = fs.String("env", "", "load settings from this .env file")
		cutout      = fs.String("cutout", "", "subject cutout (default: sidecar of the photo)")
		out         = fs.String("out", "", "output directory (default: TEXTBEHIND_OUTPUT_DIR)")
		preset      = fs.String("filter", "original", "filter preset")
		intensity   = fs.Float64("intensity", 100, "filter intensity, 0..100")
		bgOnly      = fs.Bool("background-only", false, "filter only the background")
		metricsFile = fs.String("metrics-file", "", "write Prometheus metrics to this file")
		version     = fs.Bool("version", false, "print the version and exit")
		tf          textFlags
	)
	tf.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: textbehind [flags] photo")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(fs.Output(), "textbehind", textbehind.Version)
		return nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	photo := fs.Arg(0)

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	logging.Init(stderr, cfg.LogLevel, cfg.LogFormat)

	fonts := text.NewRegistry()
	fonts.SetFallback(cfg.FallbackFont)
	if cfg.FontDir != "" {
		n, err := fonts.RegisterDir(cfg.FontDir)
		if err != nil {
			return fmt.Errorf("load fonts: %w", err)
		}
		slog.Debug("fonts loaded", "dir", cfg.FontDir, "count", n)
	}

	if *cutout == "" {
		*cutout = editor.SidecarPath(photo, cfg.CutoutSuffix)
	}
	if *out == "" {
		*out = cfg.OutputDir
	}

	ed := editor.New(fonts, editor.SidecarRemover{Path: *cutout},
		editor.WithFeatures(editor.Features{Tilt: cfg.Tilt, LetterSpacing: cfg.LetterSpacing}))
	defer ed.Close()
	ed.SetViewport(coord.RectOf(coord.Sz(float64(cfg.PreviewWidth), float64(cfg.PreviewHeight))))

	if err := load(ctx, ed, photo, cfg); err != nil {
		return err
	}

	id, ok := ed.Active()
	if !ok {
		id = ed.AddText()
	}
	if err := tf.apply(ed, id); err != nil {
		return err
	}

	if err := ed.SetFilter(*preset); err != nil {
		return err
	}
	ed.SetIntensity(*intensity)
	ed.SetApplyToFull(!*bgOnly)

	if err := os.MkdirAll(*out, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	exportErr := ed.Export(ctx, editor.DirSink{Dir: *out})
	if *metricsFile != "" {
		if err := metrics.WriteFile(*metricsFile, metrics.Gatherer()); err != nil {
			slog.Warn("metrics file not written", "path", *metricsFile, "err", err)
		}
	}
	if exportErr != nil {
		return exportErr
	}
	slog.Info("composite written", "dir", *out, "name", editor.ExportName)
	return nil
}

// load uploads the photo and installs its cutout. A missing or broken
// cutout is not fatal: the composite is written without a subject.
func load(ctx context.Context, ed *editor.Editor, photo string, cfg *config.Config) error {
	// #nosec G304 -- the photo path is chosen by the user
	f, err := os.Open(photo)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	ticket, err := ed.Upload(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RemovalTimeout)
	defer cancel()
	if err := ed.RemoveBackground(ctx, ticket); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		slog.Warn("no subject cutout, text is drawn on top", "err", err)
	}
	return nil
}
