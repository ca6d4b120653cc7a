package sequencer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/san-kum/mandelzoom/internal/anim"
	"github.com/san-kum/mandelzoom/internal/framestore"
	"github.com/san-kum/mandelzoom/internal/viewport"
)

// DefaultMinZoom is the zoom every sweep starts from.
const DefaultMinZoom = 93.0

var (
	// ErrBusy is returned by Start while a session is active.
	ErrBusy = errors.New("sequencer: session already active")

	// ErrEncodeRunning is returned by Start while an earlier encode still
	// reads the frame set.
	ErrEncodeRunning = errors.New("sequencer: previous encode still running")
)

type Phase int

const (
	Idle Phase = iota
	Recording
	Encoding
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Encoding:
		return "encoding"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Renderer interface {
	Render(ctx context.Context, view viewport.View) (*image.RGBA, error)
}

// Store is the persistence the sequencer needs. *framestore.Store
// satisfies it.
type Store interface {
	anim.Loader
	Save(index int, img image.Image) (framestore.Record, error)
	List() ([]framestore.Record, error)
	Clear() error
	Capture(img image.Image) (string, error)
	CreateMedia() (io.WriteCloser, string, error)
	Discard(path string) error
	SaveSession(meta framestore.Session) error
}

type Encoder interface {
	Encode(ctx context.Context, w io.Writer, frames []framestore.Record, l anim.Loader, progress anim.ProgressFunc) error
}

type Options struct {
	// MinZoom is where the sweep starts. Defaults to DefaultMinZoom.
	MinZoom float64
	Logger  *slog.Logger
}

// Status is a snapshot of the session.
type Status struct {
	Phase          Phase
	FrameIndex     int
	PlannedFrames  int
	PlannedSteps   int
	CompletedSteps int
	TargetZoom     float64
	EncodedFrames  int
	TotalFrames    int
	MediaPath      string
}

// Progress returns the fraction of the current phase that is done, in [0, 1].
func (s Status) Progress() float64 {
	var done, total int
	switch s.Phase {
	case Recording:
		done, total = s.CompletedSteps, s.PlannedSteps
	case Encoding:
		done, total = s.EncodedFrames, s.TotalFrames
	default:
		return 0
	}
	if total <= 0 {
		return 0
	}
	return math.Min(float64(done)/float64(total), 1)
}

type encodeTask struct {
	path    string
	done    chan struct{}
	encoded atomic.Int64
	total   atomic.Int64
	err     error
}

func (t *encodeTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

type Sequencer struct {
	view     *viewport.Viewport
	renderer Renderer
	store    Store
	encoder  Encoder
	minZoom  float64
	log      *slog.Logger

	phase      Phase
	target     float64
	frameIndex int
	planned    int
	plannedN   int
	completed  int
	budgets    []int
	task       *encodeTask
}

func New(view *viewport.Viewport, r Renderer, st Store, enc Encoder, opts Options) *Sequencer {
	if opts.MinZoom <= 0 || math.IsInf(opts.MinZoom, 0) || math.IsNaN(opts.MinZoom) {
		opts.MinZoom = DefaultMinZoom
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Sequencer{
		view:     view,
		renderer: r,
		store:    st,
		encoder:  enc,
		minZoom:  opts.MinZoom,
		log:      opts.Logger.With("component", "sequencer"),
	}
}

func (s *Sequencer) Phase() Phase { return s.phase }

func (s *Sequencer) Active() bool { return s.phase != Idle }

// Budgets returns the iteration budget of every frame recorded this session.
func (s *Sequencer) Budgets() []int {
	out := make([]int, len(s.budgets))
	copy(out, s.budgets)
	return out
}

// Start begins a session that sweeps from MinZoom up to the current zoom.
func (s *Sequencer) Start() error {
	if s.phase != Idle {
		return ErrBusy
	}
	if s.task != nil && !s.task.finished() {
		return ErrEncodeRunning
	}

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("sequencer: clear frames: %w", err)
	}

	s.target = s.view.Zoom()
	s.view.JumpToZoom(s.minZoom)
	s.plannedN, s.planned = EstimateSteps(s.minZoom, s.target, s.view.ZoomFactor())
	s.completed = 0
	s.frameIndex = 0
	s.budgets = s.budgets[:0]
	s.task = nil
	s.phase = Recording

	s.log.Info("recording started",
		"target_zoom", s.target,
		"min_zoom", s.minZoom,
		"planned_frames", s.plannedN,
		"planned_steps", s.planned)
	return nil
}

// Tick advances the session by one step. While recording it returns the
// frame it rendered; otherwise the image is nil.
func (s *Sequencer) Tick(ctx context.Context) (*image.RGBA, error) {
	switch s.phase {
	case Recording:
		return s.recordFrame(ctx)
	case Encoding:
		return nil, s.pollEncode(ctx)
	default:
		return nil, nil
	}
}

func (s *Sequencer) recordFrame(ctx context.Context) (*image.RGBA, error) {
	img, err := s.renderer.Render(ctx, s.view.Snapshot())
	if err != nil {
		s.abort("render failed", err)
		return nil, fmt.Errorf("sequencer: render frame %d: %w", s.frameIndex, err)
	}
	if _, err := s.store.Save(s.frameIndex, img); err != nil {
		s.abort("save failed", err)
		return nil, fmt.Errorf("sequencer: save frame %d: %w", s.frameIndex, err)
	}

	s.budgets = append(s.budgets, s.view.Budget())
	s.frameIndex++
	s.view.ZoomIn()
	s.completed += s.view.Budget()

	if s.view.Zoom() < s.target {
		return img, nil
	}

	cx, cy := s.view.Center()
	meta := framestore.Session{
		TargetZoom: s.target,
		MinZoom:    s.minZoom,
		ZoomFactor: s.view.ZoomFactor(),
		CenterRe:   cx,
		CenterIm:   cy,
		Width:      s.view.Width(),
		Height:     s.view.Height(),
		Frames:     s.frameIndex,
	}
	if err := s.store.SaveSession(meta); err != nil {
		s.abort("save session failed", err)
		return nil, fmt.Errorf("sequencer: save session: %w", err)
	}

	s.phase = Encoding
	s.log.Info("recording finished", "frames", s.frameIndex, "zoom", s.view.Zoom())
	return img, nil
}

func (s *Sequencer) pollEncode(ctx context.Context) error {
	if s.task == nil {
		if err := s.dispatch(ctx); err != nil {
			s.abort("encode dispatch failed", err)
			return fmt.Errorf("sequencer: encode: %w", err)
		}
		return nil
	}
	if !s.task.finished() {
		return nil
	}

	s.phase = Idle
	if s.task.err != nil {
		s.log.Error("encode failed", "path", s.task.path, "err", s.task.err)
		return fmt.Errorf("sequencer: encode %s: %w", s.task.path, s.task.err)
	}
	s.log.Info("animation written", "path", s.task.path, "frames", s.task.total.Load())
	return nil
}

func (s *Sequencer) dispatch(ctx context.Context) error {
	records, err := s.store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return anim.ErrEmptyFrameSet
	}

	w, path, err := s.store.CreateMedia()
	if err != nil {
		return err
	}

	task := &encodeTask{path: path, done: make(chan struct{})}
	task.total.Store(int64(len(records)))
	s.task = task

	enc, st, log := s.encoder, s.store, s.log
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(task.done)
		err := enc.Encode(ctx, w, records, st, func(done, total int) {
			task.encoded.Store(int64(done))
		})
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			if derr := st.Discard(path); derr != nil {
				log.Warn("could not remove partial animation", "path", path, "err", derr)
			}
			task.err = err
		}
	}()

	s.log.Info("encode dispatched", "path", path, "frames", len(records))
	return nil
}

// Cancel ends the session immediately. An encode that is already running
// finishes in the background.
func (s *Sequencer) Cancel() {
	if s.phase == Idle {
		return
	}
	s.log.Info("session canceled", "phase", s.phase.String(), "frames", s.frameIndex)
	s.phase = Idle
}

func (s *Sequencer) abort(msg string, err error) {
	s.log.Error(msg, "frame", s.frameIndex, "err", err)
	s.phase = Idle
}

// Capture renders the current view and persists it as a screenshot.
func (s *Sequencer) Capture(ctx context.Context) (string, error) {
	img, err := s.renderer.Render(ctx, s.view.Snapshot())
	if err != nil {
		return "", fmt.Errorf("sequencer: capture: %w", err)
	}
	path, err := s.store.Capture(img)
	if err != nil {
		return "", fmt.Errorf("sequencer: capture: %w", err)
	}
	s.log.Info("frame captured", "path", path)
	return path, nil
}

func (s *Sequencer) Status() Status {
	st := Status{
		Phase:          s.phase,
		FrameIndex:     s.frameIndex,
		PlannedFrames:  s.plannedN,
		PlannedSteps:   s.planned,
		CompletedSteps: s.completed,
		TargetZoom:     s.target,
	}
	if s.task != nil {
		st.EncodedFrames = int(s.task.encoded.Load())
		st.TotalFrames = int(s.task.total.Load())
		st.MediaPath = s.task.path
	}
	return st
}

// Wait blocks until a dispatched encode finishes or ctx is done.
func (s *Sequencer) Wait(ctx context.Context) error {
	if s.task == nil {
		return nil
	}
	select {
	case <-s.task.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts a session and drives it to completion, calling onTick after
// every step and periodically while the encode runs. When ctx is canceled
// the session ends, but a dispatched encode is still allowed to finish
// before Run returns.
func (s *Sequencer) Run(ctx context.Context, onTick func(Status)) error {
	if err := s.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			s.Cancel()
			if s.task != nil {
				<-s.task.done
			}
			return err
		}

		_, err := s.Tick(ctx)
		if onTick != nil {
			onTick(s.Status())
		}
		if err != nil {
			return err
		}
		if s.phase == Idle {
			return nil
		}

		if s.phase == Encoding && s.task != nil {
			select {
			case <-s.task.done:
			case <-ticker.C:
			case <-ctx.Done():
			}
		}
	}
}

// EstimateSteps predicts the frame count and the summed iteration budget of
// a sweep from minZoom to target zoom. Both are at least 1.
func EstimateSteps(minZoom, target, factor float64) (frames, steps int) {
	if minZoom <= 0 || target <= 0 || factor <= 1 {
		return 1, 1
	}
	n := int(math.Log(target/minZoom) / math.Log(factor))
	n = max(n, 1)

	fn := float64(n)
	steps = int(25*fn*math.Log10(minZoom) + 12.5*fn*(fn-1)*math.Log10(factor) + 50*fn)
	return n, max(steps, 1)
}
