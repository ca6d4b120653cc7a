// Package viewport maps screen pixels onto the complex plane and holds the
// zoom/pan navigation state.
package viewport

import (
	"math"

	"github.com/san-kum/mandelzoom/internal/fractal"
)

const (
	DefaultZoom       = 150.0
	DefaultZoomFactor = 1.1
)

// State is the navigable part of a viewport.
type State struct {
	Zoom    float64
	OffsetX float64
	OffsetY float64
}

// InitialState is the default framing for a width×height surface: the main
// cardioid slightly right of center.
func InitialState(width, height int) State {
	return State{
		Zoom:    DefaultZoom,
		OffsetX: -float64(width) / 1.5,
		OffsetY: -float64(height) / 2,
	}
}

// Viewport is the mutable mapping between pixels and plane coordinates.
// It is not safe for concurrent use; renderers work on a View snapshot.
type Viewport struct {
	width, height int
	factor        float64
	initial       State
	state         State
	budget        int
}

type Option func(*Viewport)

// WithZoomFactor sets the per-step zoom multiplier. Values <= 1 are ignored.
func WithZoomFactor(f float64) Option {
	return func(v *Viewport) {
		if f > 1 && !math.IsInf(f, 0) {
			v.factor = f
		}
	}
}

// WithInitialZoom changes the zoom of the initial state, keeping the
// initial center in place.
func WithInitialZoom(z float64) Option {
	return func(v *Viewport) {
		if !validZoom(z) {
			return
		}
		v.state = v.initial
		v.applyZoom(func(float64) float64 { return z })
		v.initial = v.state
	}
}

// WithCenter moves the initial center to the plane point re + im·i.
func WithCenter(re, im float64) Option {
	return func(v *Viewport) {
		v.state = v.initial
		v.CenterOn(re, im)
		v.initial = v.state
	}
}

// New creates a viewport for a width×height pixel surface.
func New(width, height int, opts ...Option) *Viewport {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	v := &Viewport{
		width:   width,
		height:  height,
		factor:  DefaultZoomFactor,
		initial: InitialState(width, height),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.Reset()
	return v
}

func (v *Viewport) Width() int          { return v.width }
func (v *Viewport) Height() int         { return v.height }
func (v *Viewport) Zoom() float64       { return v.state.Zoom }
func (v *Viewport) Budget() int         { return v.budget }
func (v *Viewport) ZoomFactor() float64 { return v.factor }
func (v *Viewport) State() State        { return v.state }
func (v *Viewport) InitialState() State { return v.initial }

// Offsets returns the pixel offsets added before dividing by zoom.
func (v *Viewport) Offsets() (x, y float64) {
	return v.state.OffsetX, v.state.OffsetY
}

// ToPlane translates a pixel position into plane coordinates.
func (v *Viewport) ToPlane(px, py float64) (re, im float64) {
	return (px + v.state.OffsetX) / v.state.Zoom, (py + v.state.OffsetY) / v.state.Zoom
}

// Center returns the plane coordinate under the middle of the surface.
func (v *Viewport) Center() (re, im float64) {
	return v.ToPlane(v.halfWidth(), v.halfHeight())
}

func (v *Viewport) ZoomIn() {
	v.applyZoom(func(z float64) float64 { return z * v.factor })
}

func (v *Viewport) ZoomOut() {
	v.applyZoom(func(z float64) float64 { return z / v.factor })
}

// JumpToZoom sets the zoom directly, keeping the center fixed. Non-positive
// or non-finite targets are ignored.
func (v *Viewport) JumpToZoom(target float64) {
	if !validZoom(target) {
		return
	}
	v.applyZoom(func(float64) float64 { return target })
}

// PanBy shifts the offsets by raw pixel deltas.
func (v *Viewport) PanBy(dx, dy float64) {
	v.state.OffsetX += dx
	v.state.OffsetY += dy
}

// RecenterOn nudges the view toward centering on a pixel. The step is the
// pixel's distance from center divided by damping, so repeated calls follow
// the target smoothly instead of jumping.
func (v *Viewport) RecenterOn(px, py, damping float64) {
	if !(damping >= 1) {
		damping = 1
	}
	v.PanBy((px-v.halfWidth())/damping, (py-v.halfHeight())/damping)
}

// CenterOn places the plane point re + im·i at the middle of the surface.
func (v *Viewport) CenterOn(re, im float64) {
	v.state.OffsetX = re*v.state.Zoom - v.halfWidth()
	v.state.OffsetY = im*v.state.Zoom - v.halfHeight()
}

// Reset restores the initial zoom and offsets.
func (v *Viewport) Reset() {
	v.state = v.initial
	v.budget = fractal.Budget(v.state.Zoom)
}

// Snapshot returns an immutable copy of the current mapping.
func (v *Viewport) Snapshot() View {
	return View{
		Width:   v.width,
		Height:  v.height,
		Zoom:    v.state.Zoom,
		OffsetX: v.state.OffsetX,
		OffsetY: v.state.OffsetY,
		Budget:  v.budget,
	}
}

// applyZoom is the single zoom path: capture the centered plane point,
// transform the zoom, then solve the offsets so that point stays centered.
func (v *Viewport) applyZoom(transform func(float64) float64) {
	cx, cy := v.Center()
	z := transform(v.state.Zoom)
	if !validZoom(z) {
		return
	}
	v.state.Zoom = z
	v.CenterOn(cx, cy)
	v.budget = fractal.Budget(z)
}

func (v *Viewport) halfWidth() float64  { return float64(v.width) / 2 }
func (v *Viewport) halfHeight() float64 { return float64(v.height) / 2 }

func validZoom(z float64) bool {
	return z > 0 && !math.IsInf(z, 0)
}
