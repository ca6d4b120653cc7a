package explorer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommand for unrecognized names.
var ErrUnknownCommand = errors.New("explorer: unknown command")

// Command is a navigation or session request from a display surface.
type Command int

const (
	ZoomIn Command = iota
	ZoomOut
	PanLeft
	PanRight
	PanUp
	PanDown
	Reset
	ToggleZoomLabel
	ToggleCursorFollow
	CaptureSingleFrame
	StartRecording
	CancelRecording
)

var commandNames = [...]string{
	ZoomIn:             "zoom-in",
	ZoomOut:            "zoom-out",
	PanLeft:            "pan-left",
	PanRight:           "pan-right",
	PanUp:              "pan-up",
	PanDown:            "pan-down",
	Reset:              "reset",
	ToggleZoomLabel:    "toggle-zoom-label",
	ToggleCursorFollow: "toggle-cursor-follow",
	CaptureSingleFrame: "capture",
	StartRecording:     "record",
	CancelRecording:    "cancel",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return commandNames[c]
}

// ParseCommand accepts the names printed by Command.String, case-insensitively.
func ParseCommand(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range commandNames {
		if n == name {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Commands lists every command in declaration order.
func Commands() []Command {
	out := make([]Command, len(commandNames))
	for i := range out {
		out[i] = Command(i)
	}
	return out
}

// navigates reports whether c moves the viewport.
func (c Command) navigates() bool {
	switch c {
	case ZoomIn, ZoomOut, PanLeft, PanRight, PanUp, PanDown, Reset, StartRecording:
		return true
	}
	return false
}
