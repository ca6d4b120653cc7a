// Package gui is the desktop window surface, drawn with raylib.
package gui

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/mandelzoom/internal/explorer"
	"github.com/san-kum/mandelzoom/internal/sequencer"
)

var (
	colText   = rl.NewColor(255, 255, 255, 255)
	colShade  = rl.NewColor(0, 0, 0, 160)
	colBarBg  = rl.NewColor(255, 255, 255, 255)
	colBarFg  = rl.NewColor(0, 0, 0, 255)
	colNotice = rl.NewColor(180, 180, 180, 255)
)

// keyBindings is checked in order every frame. Zoom and pan repeat while held.
var keyBindings = []struct {
	key    int32
	repeat bool
	cmd    explorer.Command
}{
	{rl.KeyUp, true, explorer.ZoomIn},
	{rl.KeyDown, true, explorer.ZoomOut},
	{rl.KeyA, true, explorer.PanLeft},
	{rl.KeyD, true, explorer.PanRight},
	{rl.KeyW, true, explorer.PanUp},
	{rl.KeyS, true, explorer.PanDown},
	{rl.KeyR, false, explorer.Reset},
	{rl.KeyZ, false, explorer.ToggleZoomLabel},
	{rl.KeyF, false, explorer.ToggleCursorFollow},
	{rl.KeyC, false, explorer.CaptureSingleFrame},
	{rl.KeyG, false, explorer.StartRecording},
	{rl.KeyX, false, explorer.CancelRecording},
	{rl.KeyEscape, false, explorer.CancelRecording},
}

type Options struct {
	FPS    int
	Title  string
	Logger *slog.Logger
}

type App struct {
	ex      *explorer.Explorer
	log     *slog.Logger
	width   int
	height  int
	tex     rl.Texture2D
	pixels  []color.RGBA
	frame   explorer.Frame
	notice  string
	lastErr error
}

// Run opens a window the size of the explorer's viewport and blocks until
// it is closed, q is pressed, or ctx is done.
func Run(ctx context.Context, ex *explorer.Explorer, opts Options) error {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Title == "" {
		opts.Title = "mandelzoom"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w, h := ex.Viewport().Width(), ex.Viewport().Height()
	rl.InitWindow(int32(w), int32(h), opts.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(opts.FPS))
	rl.SetExitKey(0)

	blank := rl.GenImageColor(w, h, rl.Black)
	app := &App{
		ex:     ex,
		log:    opts.Logger.With("component", "gui"),
		width:  w,
		height: h,
		tex:    rl.LoadTextureFromImage(blank),
		pixels: make([]color.RGBA, w*h),
	}
	rl.UnloadImage(blank)
	defer rl.UnloadTexture(app.tex)

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		if rl.IsKeyPressed(rl.KeyQ) {
			break
		}
		app.Update(ctx)
		app.Draw()
	}
	return nil
}

func (a *App) Update(ctx context.Context) {
	for _, b := range keyBindings {
		if !rl.IsKeyPressed(b.key) && !(b.repeat && rl.IsKeyPressedRepeat(b.key)) {
			continue
		}
		a.handle(ctx, b.cmd)
	}

	if rl.IsCursorOnScreen() {
		pos := rl.GetMousePosition()
		a.ex.MoveCursor(float64(pos.X), float64(pos.Y))
	} else {
		a.ex.ClearCursor()
	}

	frame, err := a.ex.Tick(ctx)
	if err != nil {
		a.lastErr = err
		a.log.Error("tick failed", "err", err)
	}
	if frame.Fresh {
		a.upload(frame.Image)
	}
	a.frame = frame
}

func (a *App) handle(ctx context.Context, cmd explorer.Command) {
	a.lastErr = nil
	if err := a.ex.Handle(ctx, cmd); err != nil {
		a.lastErr = err
		a.log.Warn("command failed", "command", cmd.String(), "err", err)
		return
	}
	if cmd == explorer.CaptureSingleFrame {
		a.notice = "captured " + filepath.Base(a.ex.LastCapture())
	}
}

// upload copies img into the window texture. Frames of another size are
// skipped.
func (a *App) upload(img *image.RGBA) {
	if img == nil || img.Bounds().Dx() != a.width || img.Bounds().Dy() != a.height {
		return
	}
	for y := 0; y < a.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+4*a.width]
		for x := 0; x < a.width; x++ {
			a.pixels[y*a.width+x] = color.RGBA{R: row[4*x], G: row[4*x+1], B: row[4*x+2], A: row[4*x+3]}
		}
	}
	rl.UpdateTexture(a.tex, a.pixels)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(rl.Black)
	rl.DrawTexture(a.tex, 0, 0, rl.White)

	if a.frame.ZoomLabel != "" {
		rl.DrawText(a.frame.ZoomLabel, 20, 20, 25, colText)
	}

	st := a.frame.Status
	switch st.Phase {
	case sequencer.Recording:
		a.drawProgress("Generating Frames", st.Progress())
	case sequencer.Encoding:
		a.drawProgress("Generating Gif", st.Progress())
	}

	msg := a.notice
	if a.lastErr != nil {
		msg = a.lastErr.Error()
	}
	if msg != "" {
		rl.DrawText(msg, 20, int32(a.height-30), 18, colNotice)
	}
}

func (a *App) drawProgress(title string, progress float64) {
	g := progressLayout(a.width, a.height, progress)

	rl.DrawRectangle(0, 0, int32(a.width), int32(a.height), colShade)
	tw := rl.MeasureText(title, 30)
	rl.DrawText(title, int32(a.width/2)-tw/2, g.TitleY, 30, colText)
	rl.DrawRectangle(g.X, g.Y, g.W, g.H, colBarBg)
	rl.DrawRectangle(g.X+4, g.Y+4, g.Fill, g.H-8, colBarFg)
}

type barGeometry struct {
	TitleY     int32
	X, Y, W, H int32
	Fill       int32
}

// progressLayout places the bar at the classic 800x600 spot (100, 360,
// 600x20) and scales it with the window.
func progressLayout(width, height int, progress float64) barGeometry {
	sx, sy := float64(width)/800, float64(height)/600
	g := barGeometry{
		TitleY: int32(240 * sy),
		X:      int32(100 * sx),
		Y:      int32(360 * sy),
		W:      int32(600 * sx),
		H:      20,
	}
	inner := float64(g.W - 8)
	progress = min(max(progress, 0), 1)
	g.Fill = int32(inner * progress)
	return g
}
