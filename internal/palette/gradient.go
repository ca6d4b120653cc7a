package palette

import (
	"image/color"
	"math"

	"github.com/san-kum/mandelzoom/internal/fractal"
)

// Gradient interpolates between ordered color stops spread evenly over
// [0, MaxIterations]. A zero MaxIterations uses the sample's budget.
type Gradient struct {
	Stops         []color.RGBA
	Overflow      color.RGBA
	MaxIterations int
}

// DefaultGradient is a deep-blue to gold ramp.
var DefaultGradient = Gradient{
	Stops: []color.RGBA{
		{R: 0x00, G: 0x07, B: 0x64, A: 0xff},
		{R: 0x20, G: 0x6b, B: 0xcb, A: 0xff},
		{R: 0xed, G: 0xff, B: 0xff, A: 0xff},
		{R: 0xff, G: 0xaa, B: 0x00, A: 0xff},
		{R: 0x00, G: 0x02, B: 0x00, A: 0xff},
	},
	Overflow: Background,
}

// Color implements Policy.
func (g Gradient) Color(sample float64, budget int) color.RGBA {
	limit := g.MaxIterations
	if limit <= 0 {
		limit = budget
	}
	if !fractal.Escaped(sample) || limit <= 0 || len(g.Stops) == 0 {
		return g.Overflow
	}
	if len(g.Stops) == 1 {
		return g.Stops[0]
	}

	v := math.Max(sample, 0)
	if v >= float64(limit) {
		return g.Overflow
	}

	segLen := float64(limit) / float64(len(g.Stops)-1)
	pos := v / segLen
	idx := int(pos)
	if idx >= len(g.Stops)-1 {
		return g.Overflow
	}
	t := pos - float64(idx)
	if t == 0 {
		return g.Stops[idx]
	}

	from, to := fromRGBA(g.Stops[idx]), fromRGBA(g.Stops[idx+1])
	return toRGBA(from.BlendRgb(to, t))
}
