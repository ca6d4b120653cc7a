package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mandelzoom/internal/anim"
	"github.com/san-kum/mandelzoom/internal/config"
	"github.com/san-kum/mandelzoom/internal/fractal"
	"github.com/san-kum/mandelzoom/internal/framestore"
	"github.com/san-kum/mandelzoom/internal/gui"
	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := tui.Run(ctx, s.ex, tui.Options{FPS: cfg.FPS, Logger: log}); err != nil {
		return err
	}
	return finish(ctx, s)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := gui.Run(ctx, s.ex, gui.Options{FPS: cfg.FPS, Title: "mandelzoom", Logger: log}); err != nil {
		return err
	}
	return finish(ctx, s)
}

// finish lets an animation that was still encoding when the surface closed
// reach disk. An unfinished recording is dropped.
func finish(ctx context.Context, s *session) error {
	switch s.seq.Phase() {
	case sequencer.Recording:
		s.seq.Cancel()
		fmt.Println("recording canceled")
	case sequencer.Encoding:
		st := s.seq.Status()
		fmt.Printf("finishing %s...\n", st.MediaPath)
		if err := s.seq.Wait(ctx); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", st.MediaPath)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if outFile == "" {
		path, err := s.seq.Capture(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", path)
		return nil
	}

	img, err := s.renderer.Render(ctx, s.view.Snapshot())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", outFile)
	return nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	fmt.Printf("recording sweep %.0f -> %.0f\n", cfg.Sweep.MinZoom, s.view.Zoom())
	var last sequencer.Status
	err = s.seq.Run(cmd.Context(), func(st sequencer.Status) {
		if st.Phase == last.Phase && st.FrameIndex == last.FrameIndex && st.EncodedFrames == last.EncodedFrames {
			return
		}
		last = st
		switch st.Phase {
		case sequencer.Recording:
			fmt.Fprintf(os.Stderr, "\rframes   %4d/%-4d %5.1f%%", st.FrameIndex, st.PlannedFrames, st.Progress()*100)
		case sequencer.Encoding:
			fmt.Fprintf(os.Stderr, "\rencoding %4d/%-4d %5.1f%%", st.EncodedFrames, st.TotalFrames, st.Progress()*100)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if last.MediaPath != "" {
		fmt.Printf("saved %s (%d frames)\n", last.MediaPath, last.TotalFrames)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	store := framestore.New(cfg.OutputDir)
	if err := store.Init(); err != nil {
		return err
	}
	frames, err := store.List()
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%s: %w", store.FramesDir(), anim.ErrEmptyFrameSet)
	}

	w, path, err := store.CreateMedia()
	if err != nil {
		return err
	}
	log.Info("encoding", "frames", len(frames), "path", path)

	err = cfg.Encoder().Encode(cmd.Context(), w, frames, store, func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rencoding %4d/%-4d", done, total)
	})
	fmt.Fprintln(os.Stderr)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if derr := store.Discard(path); derr != nil {
			log.Warn("failed to remove partial animation", "path", path, "error", derr)
		}
		return err
	}

	fmt.Printf("saved %s\n", path)
	return nil
}

func listFrames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := framestore.New(cfg.OutputDir)

	meta, err := store.LoadSession()
	switch {
	case errors.Is(err, framestore.ErrNoFrames):
		fmt.Println("no recorded session")
	case err != nil:
		return err
	default:
		fmt.Printf("session %s: zoom %.0f -> %.0f (factor %.2f), %dx%d, %d frames\n",
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.MinZoom, meta.TargetZoom, meta.ZoomFactor,
			meta.Width, meta.Height, meta.Frames)
		fmt.Printf("center %.10f %+.10fi\n", meta.CenterRe, meta.CenterIm)
	}

	frames, err := store.List()
	if err != nil {
		return err
	}
	if len(frames) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\nINDEX\tPATH")
		for _, f := range frames {
			fmt.Fprintf(w, "%d\t%s\n", f.Index, f.Path)
		}
		w.Flush()
	}

	media, err := store.ListMedia()
	if err != nil {
		return err
	}
	if len(media) > 0 {
		fmt.Println("\nanimations:")
		for _, m := range media {
			fmt.Printf("  %s\n", m)
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCENTER\tZOOM\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		r, _ := config.GetPreset(name)
		re, im := r.Center()
		fmt.Fprintf(w, "%s\t%.6f %+.6fi\t%.0f\t%s\n", name, re, im, r.ZoomFor(config.DefaultWidth), r.Description)
	}
	w.Flush()
	return nil
}

func planSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	target := cfg.NewViewport().Zoom()
	if len(args) == 1 {
		target, err = strconv.ParseFloat(args[0], 64)
		if err != nil || target <= 0 {
			return fmt.Errorf("invalid target zoom %q", args[0])
		}
	}

	frames, steps := sequencer.EstimateSteps(cfg.Sweep.MinZoom, target, cfg.ZoomFactor)
	fmt.Printf("sweep %.0f -> %.0f (factor %.2f)\n", cfg.Sweep.MinZoom, target, cfg.ZoomFactor)
	fmt.Printf("estimated frames: %d\n", frames)
	fmt.Printf("estimated iterations per pixel: %d\n", steps)

	var budgets []float64
	for z := cfg.Sweep.MinZoom; ; z *= cfg.ZoomFactor {
		budgets = append(budgets, float64(fractal.Budget(z)))
		if z*cfg.ZoomFactor >= target {
			break
		}
	}
	if len(budgets) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(budgets,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("iteration budget per frame")))
	}
	return nil
}
