// Package palette maps divergence samples to colors.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/mandelzoom/internal/fractal"
)

// ErrUnknownPolicy is returned by ByName for an unregistered policy name.
var ErrUnknownPolicy = errors.New("palette: unknown policy")

// Policy maps a divergence sample and the iteration budget it was computed
// with to an opaque color.
type Policy func(sample float64, budget int) color.RGBA

// Background is the color of interior points.
var Background = color.RGBA{A: 0xff}

const (
	hueStart = 192.0
	hueEnd   = 0.0
)

// HueRamp maps [0, budget] linearly onto hues 192°..0° at full saturation
// and brightness. Interior samples are black.
func HueRamp(sample float64, budget int) color.RGBA {
	if !fractal.Escaped(sample) {
		return Background
	}
	if budget < 1 {
		budget = 1
	}
	t := clamp01(sample / float64(budget))
	hue := hueStart + t*(hueEnd-hueStart)
	return toRGBA(colorful.Hsv(hue, 1, 1))
}

var policies = map[string]Policy{
	"hue":      HueRamp,
	"gradient": DefaultGradient.Color,
}

// ByName returns the policy registered under name.
func ByName(name string) (Policy, error) {
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPolicy, name, Names())
	}
	return p, nil
}

// Names lists the registered policies in sorted order.
func Names() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func fromRGBA(c color.RGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
