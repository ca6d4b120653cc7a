// Package fractal evaluates points of the Mandelbrot set.
//
// The package provides the escape-time evaluator and the iteration budget
// derivation shared by the viewport and the renderer:
//
//   - [Evaluate]: smoothed escape value for one plane coordinate
//   - [Budget]: iteration budget for a zoom factor
//   - [Interior]: sentinel for orbits that stayed bounded
//
// # Example
//
//	budget := fractal.Budget(150)
//	v := fractal.Evaluate(-0.75, 0.1, budget)
//	if fractal.Escaped(v) {
//		// shade by v
//	}
//
// # Thread Safety
//
// Every function in this package is pure and may be called from any number
// of goroutines.
package fractal
