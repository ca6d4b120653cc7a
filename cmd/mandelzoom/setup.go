package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/mandelzoom/internal/config"
	"github.com/san-kum/mandelzoom/internal/explorer"
	"github.com/san-kum/mandelzoom/internal/framestore"
	"github.com/san-kum/mandelzoom/internal/palette"
	"github.com/san-kum/mandelzoom/internal/render"
	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/viewport"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file, if any, and lets explicitly set flags
// override it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("palette") {
		cfg.Palette = paletteArg
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("zoom") {
		cfg.Zoom = zoom
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if flags.Changed("min-zoom") {
		cfg.Sweep.MinZoom = minZoom
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text logs to stderr, or to <output>/mandelzoom.log for
// full-screen surfaces.
func newLogger(cfg *config.Config, toFile bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	var w io.Writer = os.Stderr
	cleanup := func() {}
	if toFile {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(filepath.Join(cfg.OutputDir, "mandelzoom.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		cleanup = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

type session struct {
	cfg      *config.Config
	log      *slog.Logger
	view     *viewport.Viewport
	store    *framestore.Store
	renderer *render.Renderer
	seq      *sequencer.Sequencer
	ex       *explorer.Explorer
}

func newSession(cfg *config.Config, log *slog.Logger) (*session, error) {
	policy, err := palette.ByName(cfg.Palette)
	if err != nil {
		return nil, err
	}

	store := framestore.New(cfg.OutputDir)
	if err := store.Init(); err != nil {
		return nil, err
	}

	view := cfg.NewViewport()
	r := render.New(policy, cfg.Workers)
	seq := sequencer.New(view, r, store, cfg.Encoder(), sequencer.Options{
		MinZoom: cfg.Sweep.MinZoom,
		Logger:  log,
	})
	ex := explorer.New(view, r, seq, explorer.Options{
		PanStep:       cfg.Nav.PanStep,
		FollowDamping: cfg.Nav.FollowDamping,
		Logger:        log,
	})

	log.Debug("session ready",
		"width", cfg.Width,
		"height", cfg.Height,
		"zoom", view.Zoom(),
		"preset", cfg.Preset,
		"palette", cfg.Palette,
		"workers", r.Workers(),
		"output", cfg.OutputDir)

	return &session{cfg: cfg, log: log, view: view, store: store, renderer: r, seq: seq, ex: ex}, nil
}
