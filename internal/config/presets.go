package config

import "sort"

// Region is a rectangle of the complex plane.
type Region struct {
	Description string
	Xmin, Xmax  float64
	Ymin, Ymax  float64
}

// Center returns the midpoint of r.
func (r Region) Center() (re, im float64) {
	return (r.Xmin + r.Xmax) / 2, (r.Ymin + r.Ymax) / 2
}

// ZoomFor is the zoom at which r spans width pixels horizontally.
func (r Region) ZoomFor(width int) float64 {
	span := r.Xmax - r.Xmin
	if span <= 0 || width <= 0 {
		return 0
	}
	return float64(width) / span
}

// Classic landmarks of the Mandelbrot set.
var Presets = map[string]Region{
	"seahorse-valley": {
		Description: "dense filaments and repeating seahorse curls",
		Xmin:        -0.8,
		Xmax:        -0.7,
		Ymin:        0.05,
		Ymax:        0.15,
	},
	"elephant-valley": {
		Description: "large bulb with trunk-like tendrils",
		Xmin:        -1.85,
		Xmax:        -1.75,
		Ymin:        -0.10,
		Ymax:        -0.02,
	},
	"spiral-minibrot": {
		Description: "small copy of the set with tight spiral arms",
		Xmin:        -0.7435,
		Xmax:        -0.7420,
		Ymin:        0.1310,
		Ymax:        0.1325,
	},
	"triple-spiral": {
		Description: "threefold symmetric spiral structure",
		Xmin:        -0.7480,
		Xmax:        -0.7450,
		Ymin:        0.0950,
		Ymax:        0.0980,
	},
	"dragon-valley": {
		Description: "deep, highly detailed spiral filaments",
		Xmin:        -0.7400,
		Xmax:        -0.7350,
		Ymin:        0.1800,
		Ymax:        0.1850,
	},
	"mini-spiral-minibrot": {
		Description: "self-similar copy inside a spiral arm",
		Xmin:        -1.7390,
		Xmax:        -1.7375,
		Ymin:        -0.0235,
		Ymax:        -0.0220,
	},
}

func GetPreset(name string) (Region, bool) {
	r, ok := Presets[name]
	return r, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
