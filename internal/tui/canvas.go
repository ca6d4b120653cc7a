package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const halfBlock = "▀"

// Cells returns the terminal cells needed to show a width×height image with
// two pixels per cell vertically.
func Cells(width, height int) (cols, rows int) {
	return width, (height + 1) / 2
}

// RenderHalfBlocks draws img with one upper-half block per cell: the top
// pixel is the foreground and the bottom pixel the background. Runs of
// identical cells share one style.
func RenderHalfBlocks(img *image.RGBA) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	var sb strings.Builder

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}

		runStart := b.Min.X
		var runTop, runBottom color.RGBA
		for x := b.Min.X; x <= b.Max.X; x++ {
			var top, bottom color.RGBA
			if x < b.Max.X {
				top = img.RGBAAt(x, y)
				if y+1 < b.Max.Y {
					bottom = img.RGBAAt(x, y+1)
				} else {
					bottom = color.RGBA{A: 0xff}
				}
			}

			if x == b.Min.X {
				runTop, runBottom = top, bottom
				continue
			}
			if x < b.Max.X && top == runTop && bottom == runBottom {
				continue
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(runTop))).
				Background(lipgloss.Color(hex(runBottom)))
			sb.WriteString(style.Render(strings.Repeat(halfBlock, x-runStart)))

			runStart, runTop, runBottom = x, top, bottom
		}
	}
	return sb.String()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
