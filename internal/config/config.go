// Package config loads the commands' settings from the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config holds the settings shared by the commands.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// FontDir is scanned for additional font families.
	FontDir      string `env:"TEXTBEHIND_FONT_DIR"`
	FallbackFont string `env:"TEXTBEHIND_FALLBACK_FONT" default:"Go"`

	OutputDir    string `env:"TEXTBEHIND_OUTPUT_DIR" default:"."`
	CutoutSuffix string `env:"TEXTBEHIND_CUTOUT_SUFFIX" default:".cutout.png"`

	// PreviewWidth and PreviewHeight are the viewport text sizes are
	// authored against when no interactive preview exists.
	PreviewWidth  int `env:"TEXTBEHIND_PREVIEW_WIDTH" default:"800"`
	PreviewHeight int `env:"TEXTBEHIND_PREVIEW_HEIGHT" default:"600"`

	WindowWidth  int `env:"TEXTBEHIND_WINDOW_WIDTH" default:"1280"`
	WindowHeight int `env:"TEXTBEHIND_WINDOW_HEIGHT" default:"800"`

	Tilt          bool `env:"TEXTBEHIND_TILT" default:"true"`
	LetterSpacing bool `env:"TEXTBEHIND_LETTER_SPACING" default:"true"`

	RemovalTimeout time.Duration `env:"TEXTBEHIND_REMOVAL_TIMEOUT" default:"60s"`
	MetricsAddr    string        `env:"TEXTBEHIND_METRICS_ADDR"`
}

// Load reads files (".env" when none are given) into the environment and
// then the environment into a Config. A missing default .env is not an
// error; a missing explicit file is.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.PreviewWidth <= 0 || cfg.PreviewHeight <= 0 {
		return errors.New("TEXTBEHIND_PREVIEW_WIDTH and TEXTBEHIND_PREVIEW_HEIGHT must be positive")
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		return errors.New("TEXTBEHIND_WINDOW_WIDTH and TEXTBEHIND_WINDOW_HEIGHT must be positive")
	}
	if cfg.CutoutSuffix == "" {
		return errors.New("TEXTBEHIND_CUTOUT_SUFFIX must not be empty")
	}
	if cfg.RemovalTimeout <= 0 {
		return errors.New("TEXTBEHIND_REMOVAL_TIMEOUT must be positive")
	}
	return nil
}
