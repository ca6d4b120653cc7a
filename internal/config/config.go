package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/mandelzoom/internal/anim"
	"github.com/san-kum/mandelzoom/internal/explorer"
	"github.com/san-kum/mandelzoom/internal/palette"
	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/viewport"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultPalette   = "hue"
	DefaultOutputDir = "output"
	DefaultFPS       = 30
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Zoom       float64       `yaml:"zoom"`
	ZoomFactor float64       `yaml:"zoom_factor"`
	Center     *CenterConfig `yaml:"center,omitempty"`
	Preset     string        `yaml:"preset,omitempty"`
	Palette    string        `yaml:"palette"`
	Workers    int           `yaml:"workers"`
	OutputDir  string        `yaml:"output_dir"`
	FPS        int           `yaml:"fps"`
	Nav        NavConfig     `yaml:"nav"`
	Sweep      SweepConfig   `yaml:"sweep"`
	GIF        GIFConfig     `yaml:"gif"`
}

type CenterConfig struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

type NavConfig struct {
	PanStep       float64 `yaml:"pan_step"`
	FollowDamping float64 `yaml:"follow_damping"`
}

type SweepConfig struct {
	MinZoom float64 `yaml:"min_zoom"`
}

type GIFConfig struct {
	Delay  int     `yaml:"delay"`
	Scale  float64 `yaml:"scale"`
	Dither bool    `yaml:"dither"`
}

// DefaultConfig reproduces the classic 800x600 session. A zero Zoom means
// the preset's zoom, or viewport.DefaultZoom without a preset.
func DefaultConfig() *Config {
	return &Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		ZoomFactor: viewport.DefaultZoomFactor,
		Palette:    DefaultPalette,
		OutputDir:  DefaultOutputDir,
		FPS:        DefaultFPS,
		Nav: NavConfig{
			PanStep:       explorer.DefaultPanStep,
			FollowDamping: explorer.DefaultFollowDamping,
		},
		Sweep: SweepConfig{
			MinZoom: sequencer.DefaultMinZoom,
		},
		GIF: GIFConfig{
			Delay: anim.DefaultDelay,
			Scale: 1,
		},
	}
}

// Load overlays the YAML file at path onto DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalid, c.Width, c.Height)
	case c.Zoom < 0:
		return fmt.Errorf("%w: zoom %v must not be negative", ErrInvalid, c.Zoom)
	case c.ZoomFactor <= 1:
		return fmt.Errorf("%w: zoom_factor %v must be greater than 1", ErrInvalid, c.ZoomFactor)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalid, c.Workers)
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalid, c.FPS)
	case c.Sweep.MinZoom <= 0:
		return fmt.Errorf("%w: sweep.min_zoom %v must be positive", ErrInvalid, c.Sweep.MinZoom)
	case c.GIF.Delay < 0:
		return fmt.Errorf("%w: gif.delay %d must not be negative", ErrInvalid, c.GIF.Delay)
	case c.GIF.Scale < 0 || c.GIF.Scale > 1:
		return fmt.Errorf("%w: gif.scale %v must be in [0, 1]", ErrInvalid, c.GIF.Scale)
	}
	if _, err := palette.ByName(c.Palette); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Preset != "" {
		if _, ok := GetPreset(c.Preset); !ok {
			return fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalid, c.Preset, ListPresets())
		}
	}
	return nil
}

// ViewportOptions resolves zoom, preset and center into viewport options.
// An explicit center wins over the preset's.
func (c *Config) ViewportOptions() []viewport.Option {
	opts := []viewport.Option{viewport.WithZoomFactor(c.ZoomFactor)}

	zoom := c.Zoom
	var center *CenterConfig
	if r, ok := GetPreset(c.Preset); ok {
		if zoom == 0 {
			zoom = r.ZoomFor(c.Width)
		}
		re, im := r.Center()
		center = &CenterConfig{Re: re, Im: im}
	}
	if c.Center != nil {
		center = c.Center
	}

	if zoom > 0 {
		opts = append(opts, viewport.WithInitialZoom(zoom))
	}
	if center != nil {
		opts = append(opts, viewport.WithCenter(center.Re, center.Im))
	}
	return opts
}

func (c *Config) NewViewport() *viewport.Viewport {
	return viewport.New(c.Width, c.Height, c.ViewportOptions()...)
}

func (c *Config) Encoder() *anim.Encoder {
	enc := anim.DefaultEncoder()
	if c.GIF.Delay > 0 {
		enc.Delay = c.GIF.Delay
	}
	if c.GIF.Scale > 0 {
		enc.Scale = c.GIF.Scale
	}
	enc.Dither = c.GIF.Dither
	return enc
}
