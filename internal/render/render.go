// Package render produces full-frame pixel buffers for a viewport snapshot.
package render

import (
	"context"
	"image"
	"runtime"

	"github.com/san-kum/mandelzoom/internal/fractal"
	"github.com/san-kum/mandelzoom/internal/palette"
	"github.com/san-kum/mandelzoom/internal/viewport"
	"golang.org/x/sync/errgroup"
)

// minRowsPerBand keeps small frames on a single goroutine.
const minRowsPerBand = 8

type Renderer struct {
	policy  palette.Policy
	workers int
}

// New returns a renderer coloring samples with policy. A workers value of
// zero or less uses one worker per CPU.
func New(policy palette.Policy, workers int) *Renderer {
	if policy == nil {
		policy = palette.HueRamp
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Renderer{policy: policy, workers: workers}
}

func (r *Renderer) Workers() int { return r.workers }

// Render evaluates every pixel of view into a fresh buffer. Rows are split
// into contiguous bands rendered in parallel; the only error is ctx's.
func (r *Renderer) Render(ctx context.Context, view viewport.View) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, view.Width, view.Height))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, band := range bands(view.Height, r.workers, minRowsPerBand) {
		g.Go(func() error {
			for y := band[0]; y < band[1]; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.renderRow(img, view, y)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Renderer) renderRow(img *image.RGBA, view viewport.View, y int) {
	off := img.PixOffset(0, y)
	row := img.Pix[off : off+4*view.Width]
	for x := 0; x < view.Width; x++ {
		re, im := view.ToPlane(float64(x), float64(y))
		c := r.policy(fractal.Evaluate(re, im, view.Budget), view.Budget)
		px := row[4*x : 4*x+4 : 4*x+4]
		px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
	}
}

// bands splits [0, n) into at most workers contiguous half-open ranges of
// at least minChunk rows.
func bands(n, workers, minChunk int) [][2]int {
	if n <= 0 {
		return nil
	}
	if n <= minChunk || workers <= 1 {
		return [][2]int{{0, n}}
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	workers = max(workers, 1)
	chunk := (n + workers - 1) / workers

	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += chunk {
		out = append(out, [2]int{start, min(start+chunk, n)})
	}
	return out
}
