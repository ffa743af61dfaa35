// Command textbehind-studio is an interactive editor for text-behind-subject
// composites.
//
// Drag text with the mouse or a finger, pinch or scroll to resize it and
// use the keyboard for everything else (F1 lists the keys). Subject
// cutouts are read from sidecar files next to the opened photo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/textbehind/editor"
	"github.com/gogpu/textbehind/internal/config"
	"github.com/gogpu/textbehind/internal/logging"
	"github.com/gogpu/textbehind/metrics"
	"github.com/gogpu/textbehind/text"
)

func main() {
	envFile := flag.String("env", "", "load settings from this .env file")
	flag.Parse()

	if err := run(*envFile, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "textbehind-studio failed: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, photo string) error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	logging.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	fonts := text.NewRegistry()
	fonts.SetFallback(cfg.FallbackFont)
	if cfg.FontDir != "" {
		if _, err := fonts.RegisterDir(cfg.FontDir); err != nil {
			return fmt.Errorf("load fonts: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	s := newStudio(ctx, cfg, fonts)
	defer s.ed.Close()
	if photo != "" {
		if err := s.open(photo); err != nil {
			return err
		}
	}

	ebiten.SetWindowTitle("textbehind studio")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(s); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(metrics.Gatherer()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	return srv
}

// features maps the config switches to editor features.
func features(cfg *config.Config) editor.Features {
	return editor.Features{Tilt: cfg.Tilt, LetterSpacing: cfg.LetterSpacing}
}
