// Package anim assembles persisted frames into a looping animated GIF.
package anim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"math"
	"slices"

	"github.com/san-kum/mandelzoom/internal/framestore"
	xdraw "golang.org/x/image/draw"
)

var (
	// ErrEmptyFrameSet is returned when there is nothing to encode.
	ErrEmptyFrameSet = errors.New("anim: no frames to encode")

	// ErrFrameSize indicates a frame whose bounds differ from the first frame.
	ErrFrameSize = errors.New("anim: frame size differs from first frame")
)

// DefaultDelay is the per-frame delay in hundredths of a second.
const DefaultDelay = 5

// Loader reads a persisted frame back into memory.
type Loader interface {
	Load(path string) (image.Image, error)
}

// ProgressFunc is called after each frame is added with the number of frames
// encoded so far and the total.
type ProgressFunc func(done, total int)

// Encoder converts frame records into an infinitely looping GIF.
type Encoder struct {
	// Delay is the per-frame delay in hundredths of a second.
	Delay int
	// Scale shrinks each frame by this factor when in (0, 1).
	Scale float64
	// Palette every frame is quantized onto. Defaults to Plan9.
	Palette color.Palette
	// Dither enables Floyd-Steinberg error diffusion during quantization.
	Dither bool
}

func DefaultEncoder() *Encoder {
	return &Encoder{Delay: DefaultDelay, Scale: 1, Palette: palette.Plan9}
}

// Encode writes frames to w in index order. It fails with ErrEmptyFrameSet
// before writing anything when frames is empty.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, frames []framestore.Record, l Loader, progress ProgressFunc) error {
	if len(frames) == 0 {
		return ErrEmptyFrameSet
	}

	ordered := slices.Clone(frames)
	slices.SortStableFunc(ordered, func(a, b framestore.Record) int { return cmp.Compare(a.Index, b.Index) })

	pal := e.Palette
	if len(pal) == 0 {
		pal = palette.Plan9
	}
	delay := e.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(ordered)),
		Delay:     make([]int, 0, len(ordered)),
		Disposal:  make([]byte, 0, len(ordered)),
		LoopCount: 0,
	}

	var bounds image.Rectangle
	for i, rec := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := l.Load(rec.Path)
		if err != nil {
			return fmt.Errorf("anim: load frame %d: %w", rec.Index, err)
		}
		if i == 0 {
			bounds = src.Bounds()
		} else if src.Bounds().Size() != bounds.Size() {
			return fmt.Errorf("%w: frame %d is %v, want %v", ErrFrameSize, rec.Index, src.Bounds().Size(), bounds.Size())
		}

		out.Image = append(out.Image, e.quantize(e.scale(src), pal))
		out.Delay = append(out.Delay, delay)
		out.Disposal = append(out.Disposal, gif.DisposalNone)

		if progress != nil {
			progress(i+1, len(ordered))
		}
	}

	first := out.Image[0]
	out.Config = image.Config{
		ColorModel: first.Palette,
		Width:      first.Rect.Dx(),
		Height:     first.Rect.Dy(),
	}

	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("anim: encode: %w", err)
	}
	return nil
}

// OutputSize reports the dimensions of a frame of size w x h after scaling.
func (e *Encoder) OutputSize(w, h int) (int, int) {
	if e.Scale <= 0 || e.Scale >= 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*e.Scale))), max(1, int(math.Round(float64(h)*e.Scale)))
}

func (e *Encoder) scale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := e.OutputSize(b.Dx(), b.Dy())
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func (e *Encoder) quantize(src image.Image, pal color.Palette) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	if e.Dither {
		xdraw.FloydSteinberg.Draw(dst, dst.Bounds(), src, b.Min)
	} else {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	}
	return dst
}
