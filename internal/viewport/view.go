package viewport

// View is a read-only snapshot of a viewport, safe to share between render
// workers.
type View struct {
	Width, Height int
	Zoom          float64
	OffsetX       float64
	OffsetY       float64
	Budget        int
}

func (v View) ToPlane(px, py float64) (re, im float64) {
	return (px + v.OffsetX) / v.Zoom, (py + v.OffsetY) / v.Zoom
}

// Scaled returns a view of the same plane region fitted inside width×height
// pixels. The aspect ratio is preserved, so one of the resulting dimensions
// may be smaller than requested.
func (v View) Scaled(width, height int) View {
	if width < 1 || height < 1 || v.Width < 1 || v.Height < 1 {
		return v
	}
	s := min(float64(width)/float64(v.Width), float64(height)/float64(v.Height))
	w := max(1, int(float64(v.Width)*s))
	h := max(1, int(float64(v.Height)*s))
	// keep the plane center under the new center
	cx, cy := v.ToPlane(float64(v.Width)/2, float64(v.Height)/2)
	zoom := v.Zoom * s
	return View{
		Width:   w,
		Height:  h,
		Zoom:    zoom,
		OffsetX: cx*zoom - float64(w)/2,
		OffsetY: cy*zoom - float64(h)/2,
		Budget:  v.Budget,
	}
}
