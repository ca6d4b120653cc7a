// Package explorer turns navigation commands into viewport changes and
// produces the frame a display surface should show on each tick.
package explorer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/viewport"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultPanStep       = 10.0
	DefaultFollowDamping = 20.0
)

type Options struct {
	// PanStep is the pan distance in viewport pixels.
	PanStep float64
	// FollowDamping divides the cursor's distance from center on each
	// follow step.
	FollowDamping float64
	Logger        *slog.Logger
}

// Frame is what a surface draws for one tick.
type Frame struct {
	Image     *image.RGBA
	View      viewport.View
	Status    sequencer.Status
	ZoomLabel string
	Following bool
	// Fresh is set when Image changed since the previous tick.
	Fresh bool
}

type Explorer struct {
	view     *viewport.Viewport
	renderer sequencer.Renderer
	seq      *sequencer.Sequencer
	panStep  float64
	damping  float64
	log      *slog.Logger

	showZoom  bool
	follow    bool
	hasCursor bool
	cursorX   float64
	cursorY   float64

	displayW, displayH int
	scale              float64
	dirty              bool
	last               *image.RGBA
	lastCapture        string
}

func New(view *viewport.Viewport, r sequencer.Renderer, seq *sequencer.Sequencer, opts Options) *Explorer {
	if !(opts.PanStep > 0) {
		opts.PanStep = DefaultPanStep
	}
	if !(opts.FollowDamping >= 1) {
		opts.FollowDamping = DefaultFollowDamping
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Explorer{
		view:     view,
		renderer: r,
		seq:      seq,
		panStep:  opts.PanStep,
		damping:  opts.FollowDamping,
		log:      opts.Logger.With("component", "explorer"),
		scale:    1,
		dirty:    true,
	}
}

func (e *Explorer) Viewport() *viewport.Viewport { return e.view }

func (e *Explorer) Sequencer() *sequencer.Sequencer { return e.seq }

func (e *Explorer) ShowZoom() bool { return e.showZoom }

func (e *Explorer) Following() bool { return e.follow }

// LastCapture is the path of the most recent screenshot.
func (e *Explorer) LastCapture() string { return e.lastCapture }

// Handle applies cmd. While a session is active only CancelRecording,
// CaptureSingleFrame and the toggles take effect.
func (e *Explorer) Handle(ctx context.Context, cmd Command) error {
	if e.seq.Active() && cmd.navigates() {
		e.log.Debug("command ignored during session", "command", cmd.String())
		return nil
	}

	switch cmd {
	case ZoomIn:
		e.view.ZoomIn()
	case ZoomOut:
		e.view.ZoomOut()
	case PanLeft:
		e.view.PanBy(-e.panStep, 0)
	case PanRight:
		e.view.PanBy(e.panStep, 0)
	case PanUp:
		e.view.PanBy(0, -e.panStep)
	case PanDown:
		e.view.PanBy(0, e.panStep)
	case Reset:
		e.view.Reset()
	case ToggleZoomLabel:
		e.showZoom = !e.showZoom
		return nil
	case ToggleCursorFollow:
		e.follow = !e.follow
		return nil
	case CaptureSingleFrame:
		path, err := e.seq.Capture(ctx)
		if err != nil {
			return err
		}
		e.lastCapture = path
		return nil
	case StartRecording:
		if err := e.seq.Start(); err != nil {
			return err
		}
	case CancelRecording:
		if !e.seq.Active() {
			return nil
		}
		e.seq.Cancel()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCommand, cmd)
	}

	e.dirty = true
	return nil
}

// MoveCursor records the pointer position in the coordinates of the last
// frame returned by Tick.
func (e *Explorer) MoveCursor(x, y float64) {
	e.cursorX, e.cursorY = x/e.scale, y/e.scale
	e.hasCursor = true
}

// ClearCursor forgets the pointer, for example when it leaves the surface.
func (e *Explorer) ClearCursor() { e.hasCursor = false }

// SetDisplaySize limits frames to width×height. Zero in either dimension
// shows frames at full viewport resolution.
func (e *Explorer) SetDisplaySize(width, height int) {
	if width == e.displayW && height == e.displayH {
		return
	}
	e.displayW, e.displayH = width, height
	e.dirty = true
}

// Invalidate forces the next idle tick to render.
func (e *Explorer) Invalidate() { e.dirty = true }

// Tick advances an active session or re-renders the view when it changed.
func (e *Explorer) Tick(ctx context.Context) (Frame, error) {
	var (
		fresh bool
		err   error
	)

	if e.seq.Active() {
		var img *image.RGBA
		img, err = e.seq.Tick(ctx)
		if img != nil {
			e.setLast(e.fit(img))
			fresh = true
		}
		if !e.seq.Active() {
			e.dirty = true
		}
	} else {
		if e.follow && e.hasCursor {
			e.followCursor()
		}
		if e.dirty {
			view := e.displayView()
			var img *image.RGBA
			img, err = e.renderer.Render(ctx, view)
			if err == nil {
				e.setLast(img)
				e.dirty = false
				fresh = true
			}
		}
	}

	return Frame{
		Image:     e.last,
		View:      e.view.Snapshot(),
		Status:    e.seq.Status(),
		ZoomLabel: e.zoomLabel(),
		Following: e.follow,
		Fresh:     fresh,
	}, err
}

func (e *Explorer) followCursor() {
	hw, hh := float64(e.view.Width())/2, float64(e.view.Height())/2
	if math.Abs(e.cursorX-hw) < 0.5 && math.Abs(e.cursorY-hh) < 0.5 {
		return
	}
	e.view.RecenterOn(e.cursorX, e.cursorY, e.damping)
	e.dirty = true
}

func (e *Explorer) displayView() viewport.View {
	view := e.view.Snapshot()
	if e.displayW > 0 && e.displayH > 0 {
		view = view.Scaled(e.displayW, e.displayH)
	}
	return view
}

// fit shrinks a full-resolution sweep frame to the display size.
func (e *Explorer) fit(img *image.RGBA) *image.RGBA {
	target := e.displayView()
	b := img.Bounds()
	if target.Width == b.Dx() && target.Height == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func (e *Explorer) setLast(img *image.RGBA) {
	e.last = img
	if w := e.view.Width(); w > 0 {
		e.scale = float64(img.Bounds().Dx()) / float64(w)
	}
}

func (e *Explorer) zoomLabel() string {
	if !e.showZoom {
		return ""
	}
	return ZoomLabel(e.view.Zoom())
}

// ZoomLabel formats zoom the way the overlay shows it: half the zoom,
// rounded, in hundreds.
func ZoomLabel(zoom float64) string {
	return fmt.Sprintf("Zoom = %d", int64(math.Floor(zoom/2+0.5))/100)
}
