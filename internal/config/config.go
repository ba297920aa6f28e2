// Package config holds the presentation settings. Values come from built-in
// defaults, then PULSEDECK_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ivlev/pulsedeck/internal/animator"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	ReportPath      string        `env:"PULSEDECK_REPORT"`
	ReportDir       string        `env:"PULSEDECK_REPORT_DIR" envDefault:"input/reports"`
	Duration        time.Duration `env:"PULSEDECK_DURATION" envDefault:"2s"`
	Steps           int           `env:"PULSEDECK_STEPS" envDefault:"60"`
	Easing          string        `env:"PULSEDECK_EASING" envDefault:"linear"`
	ScrollThreshold float64       `env:"PULSEDECK_SCROLL_THRESHOLD" envDefault:"50"`
	RowPixels       int           `env:"PULSEDECK_ROW_PIXELS" envDefault:"16"` // scroll units per terminal row
	Visibility      float64       `env:"PULSEDECK_VISIBILITY" envDefault:"0.1"`
	FPS             int           `env:"PULSEDECK_FPS" envDefault:"30"`
	PageWidth       int           `env:"PULSEDECK_PAGE_WIDTH"` // 0 follows the terminal

	TourDuration float64 `env:"PULSEDECK_TOUR"` // seconds, 0 disables the tour
	TourPath     string  `env:"PULSEDECK_TOUR_FILE"`
	SaveTour     string  `env:"PULSEDECK_SAVE_TOUR"`

	Export      string `env:"PULSEDECK_EXPORT"` // region id to export as PNG frames
	OutputDir   string `env:"PULSEDECK_OUTPUT" envDefault:"output"`
	Workers     int    `env:"PULSEDECK_WORKERS"`
	FrameWidth  int    `env:"PULSEDECK_FRAME_WIDTH" envDefault:"640"`
	FrameHeight int    `env:"PULSEDECK_FRAME_HEIGHT" envDefault:"360"`
	Video       string `env:"PULSEDECK_VIDEO"` // mp4 path for the exported frames, "auto" names it
	Encoder     string `env:"PULSEDECK_ENCODER" envDefault:"libx264"`
	Quality     int    `env:"PULSEDECK_QUALITY" envDefault:"23"`

	DumpReport   string `env:"PULSEDECK_DUMP_REPORT"`
	ShowStats    bool   `env:"PULSEDECK_STATS"`
	StatsLog     string `env:"PULSEDECK_STATS_LOG" envDefault:"session.log"`
	BuildVersion string
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns defaults overridden by the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &cfg, nil
}

// Validate checks ranges after flags have been applied.
func (c *Config) Validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfig, c.Duration)
	case c.Steps <= 0:
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, c.Steps)
	case c.ScrollThreshold < 0:
		return fmt.Errorf("%w: scroll threshold must not be negative", ErrInvalidConfig)
	case c.RowPixels <= 0:
		return fmt.Errorf("%w: row pixels must be positive", ErrInvalidConfig)
	case c.Visibility < 0 || c.Visibility > 1:
		return fmt.Errorf("%w: visibility must be within [0, 1], got %g", ErrInvalidConfig, c.Visibility)
	case c.FPS <= 0 || c.FPS > 240:
		return fmt.Errorf("%w: fps must be within 1..240, got %d", ErrInvalidConfig, c.FPS)
	case c.PageWidth < 0:
		return fmt.Errorf("%w: page width must not be negative", ErrInvalidConfig)
	case c.TourDuration < 0:
		return fmt.Errorf("%w: tour duration must not be negative", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalidConfig, c.FrameWidth, c.FrameHeight)
	case c.Quality < 0:
		return fmt.Errorf("%w: quality must not be negative", ErrInvalidConfig)
	}
	if _, err := animator.ParseEasing(c.Easing); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// FramePeriod is the redraw interval.
func (c *Config) FramePeriod() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
