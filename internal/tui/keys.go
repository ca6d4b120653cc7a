package tui

import "github.com/san-kum/mandelzoom/internal/explorer"

var keyCommands = map[string]explorer.Command{
	"up":   explorer.ZoomIn,
	"down": explorer.ZoomOut,
	"a":    explorer.PanLeft,
	"d":    explorer.PanRight,
	"w":    explorer.PanUp,
	"s":    explorer.PanDown,
	"r":    explorer.Reset,
	"z":    explorer.ToggleZoomLabel,
	"f":    explorer.ToggleCursorFollow,
	"c":    explorer.CaptureSingleFrame,
	"g":    explorer.StartRecording,
	"x":    explorer.CancelRecording,
	"esc":  explorer.CancelRecording,
}

// CommandForKey maps a bubbletea key name to a navigation command.
func CommandForKey(key string) (explorer.Command, bool) {
	cmd, ok := keyCommands[key]
	return cmd, ok
}

const helpText = `↑/↓ zoom    w/a/s/d pan
r reset     z zoom label
f follow    c capture
g record    x/esc cancel
? help      q quit`
