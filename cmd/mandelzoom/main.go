package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configFile string
	outputDir  string
	logLevel   string
	width      int
	height     int
	paletteArg string
	workers    int
	preset     string
	zoom       float64
	frameRate  int
	// record
	minZoom float64
	// render
	outFile string
)

// main registers the commands and runs the terminal explorer when no
// subcommand is given. It exits with status 1 on error.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "mandelzoom",
		Short:         "interactive mandelbrot explorer and zoom recorder",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&outputDir, "output", "output", "output directory for frames, images and media")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.IntVar(&width, "width", 800, "frame width in pixels")
	pf.IntVar(&height, "height", 600, "frame height in pixels")
	pf.StringVar(&paletteArg, "palette", "hue", "color policy (hue, gradient)")
	pf.IntVar(&workers, "workers", 0, "render workers (0 = one per cpu)")
	pf.StringVar(&preset, "preset", "", "start at a landmark region")
	pf.Float64Var(&zoom, "zoom", 0, "initial zoom (0 = preset or default)")
	pf.IntVar(&frameRate, "fps", 30, "display frame rate")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "explore in the terminal",
		RunE:  runTUI,
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "explore in a desktop window",
		RunE:  runGUI,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render one frame to a png",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "", "png path (default: a timestamped capture under output/images)")

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "record a zoom sweep up to the initial zoom and encode it",
		RunE:  runRecord,
	}
	recordCmd.Flags().Float64Var(&minZoom, "min-zoom", 93, "zoom the sweep starts from")

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "encode the recorded frames into a new gif",
		RunE:  runEncode,
	}

	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "list recorded frames and animations",
		RunE:  listFrames,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list landmark presets",
		RunE:  listPresets,
	}

	planCmd := &cobra.Command{
		Use:   "plan [target-zoom]",
		Short: "estimate the frames and iterations of a sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE:  planSweep,
	}
	planCmd.Flags().Float64Var(&minZoom, "min-zoom", 93, "zoom the sweep starts from")

	rootCmd.AddCommand(tuiCmd, guiCmd, renderCmd, recordCmd, encodeCmd, framesCmd, presetsCmd, planCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
