// Package tui is the terminal surface: a bubbletea program that shows the
// fractal as truecolor half-block cells next to a status panel.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mandelzoom/internal/explorer"
	"github.com/san-kum/mandelzoom/internal/sequencer"
)

const (
	panelWidth = 34
	barWidth   = 26
	// cells taken by the canvas padding and the panel border
	chromeCols = 2 + panelWidth + 1
)

type TickMsg time.Time

type Options struct {
	FPS    int
	Logger *slog.Logger
}

// Model drives an Explorer from terminal events.
type Model struct {
	ctx      context.Context
	ex       *explorer.Explorer
	log      *slog.Logger
	interval time.Duration

	width, height int
	frame         explorer.Frame
	canvas        string
	message       string
	err           error
	showHelp      bool
	ticks         int
}

func NewModel(ctx context.Context, ex *explorer.Explorer, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		ctx:      ctx,
		ex:       ex,
		log:      opts.Logger.With("component", "tui"),
		interval: time.Second / time.Duration(opts.FPS),
	}
}

// Run starts a full-screen program and blocks until the user quits.
func Run(ctx context.Context, ex *explorer.Explorer, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, ex, opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
		default:
			if cmd, ok := CommandForKey(key); ok {
				m.handle(cmd)
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionMotion || msg.Action == tea.MouseActionPress {
			// canvas starts after one column of padding; each cell holds two pixel rows
			if row := msg.Y - m.canvasTop(); row >= 0 {
				m.ex.MoveCursor(float64(msg.X-1), float64(row*2))
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cols := max(1, m.width-chromeCols)
		rows := max(1, m.height-1)
		m.ex.SetDisplaySize(cols, rows*2)

	case TickMsg:
		m.ticks++
		frame, err := m.ex.Tick(m.ctx)
		if err != nil {
			m.err = err
			m.log.Error("tick failed", "err", err)
		}
		if frame.Fresh {
			m.canvas = RenderHalfBlocks(frame.Image)
		}
		if m.frame.Status.Phase == sequencer.Encoding && frame.Status.Phase == sequencer.Idle && err == nil {
			m.message = "saved " + filepath.Base(frame.Status.MediaPath)
		}
		m.frame = frame
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handle(cmd explorer.Command) {
	m.err = nil
	if err := m.ex.Handle(m.ctx, cmd); err != nil {
		m.err = err
		m.log.Warn("command failed", "command", cmd.String(), "err", err)
		return
	}
	switch cmd {
	case explorer.CaptureSingleFrame:
		m.message = "captured " + filepath.Base(m.ex.LastCapture())
	case explorer.StartRecording:
		m.message = "recording"
	case explorer.CancelRecording:
		m.message = "canceled"
	}
}

func (m Model) View() string {
	canvas := m.canvas
	if m.frame.ZoomLabel != "" {
		canvas = zoomStyle.Render(m.frame.ZoomLabel) + "\n" + canvas
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(canvas), panelStyle.Render(m.panel()))
	if m.showHelp {
		return helpStyle.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

// canvasTop is the number of terminal rows View puts above the first canvas row.
func (m Model) canvasTop() int {
	top := 0
	if m.showHelp {
		top += lipgloss.Height(helpStyle.Render(helpText)) + 1
	}
	if m.frame.ZoomLabel != "" {
		top++
	}
	return top
}

func (m Model) panel() string {
	var s strings.Builder
	st := m.frame.Status
	view := m.frame.View

	s.WriteString(headerStyle.Render("MANDELZOOM") + "\n")
	s.WriteString(phaseLine(st, m.ticks) + "\n\n")

	s.WriteString(labelStyle.Render("Zoom") + valueStyle.Render(fmt.Sprintf("%.4g", view.Zoom)) + "\n")
	s.WriteString(labelStyle.Render("Budget") + valueStyle.Render(fmt.Sprintf("%d", view.Budget)) + "\n")
	re, im := view.ToPlane(float64(view.Width)/2, float64(view.Height)/2)
	s.WriteString(labelStyle.Render("Center") + valueStyle.Render(fmt.Sprintf("%.6f", re)) + "\n")
	s.WriteString(labelStyle.Render("") + valueStyle.Render(fmt.Sprintf("%+.6fi", im)) + "\n")
	if m.frame.Following {
		s.WriteString(labelStyle.Render("Follow") + valueStyle.Render("on") + "\n")
	}

	switch st.Phase {
	case sequencer.Recording:
		s.WriteString("\n" + labelStyle.Render("Frame") +
			valueStyle.Render(fmt.Sprintf("%d / ~%d", st.FrameIndex, st.PlannedFrames)) + "\n")
		s.WriteString(ProgressBar(st.Progress(), barWidth) + "\n")
		if budgets := m.ex.Sequencer().Budgets(); len(budgets) > 1 {
			data := make([]float64, len(budgets))
			for i, b := range budgets {
				data[i] = float64(b)
			}
			chart := asciigraph.Plot(data, asciigraph.Height(4), asciigraph.Width(barWidth-6), asciigraph.Caption("budget"))
			s.WriteString(graphStyle.Render(chart) + "\n")
		}
	case sequencer.Encoding:
		s.WriteString("\n" + labelStyle.Render("GIF") +
			valueStyle.Render(fmt.Sprintf("%d / %d", st.EncodedFrames, st.TotalFrames)) + "\n")
		s.WriteString(ProgressBar(st.Progress(), barWidth) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.message != "" {
		s.WriteString("\n" + valueStyle.Render(m.message) + "\n")
	}

	s.WriteString(helpStyle.Render("─────────────────────\n↑↓:Zoom WASD:Pan R:Reset\nG:Record C:Capture ?:Help"))
	return s.String()
}

func phaseLine(st sequencer.Status, ticks int) string {
	switch st.Phase {
	case sequencer.Recording:
		return statusRecording.Render("● RECORDING")
	case sequencer.Encoding:
		return statusEncoding.Render(Spinner(ticks) + " ENCODING")
	default:
		return statusIdle.Render("EXPLORING")
	}
}
