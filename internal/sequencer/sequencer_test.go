package sequencer_test

import (
	"context"
	"errors"
	"image"
	"image/gif"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mandelzoom/internal/anim"
	"github.com/san-kum/mandelzoom/internal/framestore"
	"github.com/san-kum/mandelzoom/internal/palette"
	"github.com/san-kum/mandelzoom/internal/render"
	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/viewport"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// faultyStore wraps a real store and injects failures.
type faultyStore struct {
	*framestore.Store
	saveErr   error
	emptyList bool
}

func (f *faultyStore) Save(index int, img image.Image) (framestore.Record, error) {
	if f.saveErr != nil {
		return framestore.Record{}, &framestore.PersistenceError{Op: "save", Path: "frame", Err: f.saveErr}
	}
	return f.Store.Save(index, img)
}

func (f *faultyStore) List() ([]framestore.Record, error) {
	if f.emptyList {
		return nil, nil
	}
	return f.Store.List()
}

// gatedEncoder blocks until released, then writes a few bytes and returns err.
type gatedEncoder struct {
	release chan struct{}
	err     error
}

func (g *gatedEncoder) Encode(ctx context.Context, w io.Writer, frames []framestore.Record, l anim.Loader, progress anim.ProgressFunc) error {
	<-g.release
	if _, err := w.Write([]byte("GIF89a")); err != nil {
		return err
	}
	for i := range frames {
		progress(i+1, len(frames))
	}
	return g.err
}

func sweepLength(minZoom, target, factor float64) int {
	n := 0
	for z := minZoom; z < target; z *= factor {
		n++
	}
	return n
}

var _ = Describe("Sequencer", func() {
	var (
		ctx   context.Context
		view  *viewport.Viewport
		store *framestore.Store
		seq   *sequencer.Sequencer
	)

	BeforeEach(func() {
		ctx = context.Background()
		view = viewport.New(24, 18)
		store = framestore.New(GinkgoT().TempDir())
		Expect(store.Init()).To(Succeed())
		seq = sequencer.New(view, render.New(palette.HueRamp, 2), store, anim.DefaultEncoder(), sequencer.Options{Logger: quiet})
	})

	drainRecording := func() []float64 {
		var zooms []float64
		for seq.Phase() == sequencer.Recording {
			zooms = append(zooms, view.Zoom())
			img, err := seq.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(img).NotTo(BeNil())
		}
		return zooms
	}

	finishEncoding := func() {
		Eventually(func() (sequencer.Phase, error) {
			_, err := seq.Tick(ctx)
			return seq.Phase(), err
		}).Should(Equal(sequencer.Idle))
	}

	It("starts idle", func() {
		st := seq.Status()
		Expect(st.Phase).To(Equal(sequencer.Idle))
		Expect(st.Progress()).To(BeZero())
		Expect(seq.Active()).To(BeFalse())
	})

	It("ignores ticks while idle", func() {
		img, err := seq.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(img).To(BeNil())
		Expect(view.Zoom()).To(Equal(viewport.DefaultZoom))
	})

	Describe("a full recording from zoom 1000", func() {
		BeforeEach(func() {
			view.JumpToZoom(1000)
		})

		It("jumps to the minimum zoom and plans the sweep", func() {
			Expect(seq.Start()).To(Succeed())

			st := seq.Status()
			Expect(st.Phase).To(Equal(sequencer.Recording))
			Expect(st.TargetZoom).To(Equal(1000.0))
			Expect(view.Zoom()).To(Equal(sequencer.DefaultMinZoom))

			frames, steps := sequencer.EstimateSteps(sequencer.DefaultMinZoom, 1000, viewport.DefaultZoomFactor)
			Expect(st.PlannedFrames).To(Equal(frames))
			Expect(st.PlannedSteps).To(Equal(steps))
		})

		It("persists one frame per sweep step before encoding", func() {
			Expect(seq.Start()).To(Succeed())
			zooms := drainRecording()

			want := sweepLength(sequencer.DefaultMinZoom, 1000, viewport.DefaultZoomFactor)
			Expect(zooms).To(HaveLen(want))
			for _, z := range zooms {
				Expect(z).To(BeNumerically("<", 1000))
			}
			Expect(view.Zoom()).To(BeNumerically(">=", 1000))
			Expect(seq.Phase()).To(Equal(sequencer.Encoding))

			records, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(want))
			for i, r := range records {
				Expect(r.Index).To(Equal(i))
			}

			meta, err := store.LoadSession()
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Frames).To(Equal(want))
			Expect(meta.TargetZoom).To(Equal(1000.0))
			Expect(seq.Budgets()).To(HaveLen(want))
		})

		It("encodes the frames into a looping animation", func() {
			Expect(seq.Start()).To(Succeed())
			drainRecording()
			finishEncoding()

			media, err := store.ListMedia()
			Expect(err).NotTo(HaveOccurred())
			Expect(media).To(HaveLen(1))
			Expect(seq.Status().MediaPath).To(Equal(media[0]))

			f, err := os.Open(media[0])
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			g, err := gif.DecodeAll(f)
			Expect(err).NotTo(HaveOccurred())

			want := sweepLength(sequencer.DefaultMinZoom, 1000, viewport.DefaultZoomFactor)
			Expect(g.Image).To(HaveLen(want))
			Expect(g.LoopCount).To(Equal(0))
			Expect(g.Config.Width).To(Equal(24))
			Expect(g.Config.Height).To(Equal(18))

			st := seq.Status()
			Expect(st.EncodedFrames).To(Equal(want))
			Expect(st.TotalFrames).To(Equal(want))
		})

		It("reports monotonic recording progress", func() {
			Expect(seq.Start()).To(Succeed())
			last := 0.0
			for seq.Phase() == sequencer.Recording {
				_, err := seq.Tick(ctx)
				Expect(err).NotTo(HaveOccurred())
				if seq.Phase() != sequencer.Recording {
					break
				}
				p := seq.Status().Progress()
				Expect(p).To(BeNumerically(">=", last))
				Expect(p).To(BeNumerically("<=", 1))
				last = p
			}
			Expect(last).To(BeNumerically(">", 0))
		})
	})

	It("always records at least one frame when already below the minimum zoom", func() {
		view.JumpToZoom(50)
		Expect(seq.Start()).To(Succeed())
		Expect(drainRecording()).To(HaveLen(1))
	})

	It("refuses to start twice", func() {
		Expect(seq.Start()).To(Succeed())
		Expect(seq.Start()).To(MatchError(sequencer.ErrBusy))
	})

	It("clears frames from an earlier session", func() {
		_, err := store.Save(99, image.NewRGBA(image.Rect(0, 0, 24, 18)))
		Expect(err).NotTo(HaveOccurred())

		Expect(seq.Start()).To(Succeed())
		records, err := store.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("cancels recording and leaves the viewport where it is", func() {
		view.JumpToZoom(1000)
		Expect(seq.Start()).To(Succeed())
		for i := 0; i < 3; i++ {
			_, err := seq.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())
		}
		zoom := view.Zoom()

		seq.Cancel()
		Expect(seq.Phase()).To(Equal(sequencer.Idle))
		Expect(view.Zoom()).To(Equal(zoom))

		img, err := seq.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(img).To(BeNil())
		Expect(view.Zoom()).To(Equal(zoom))
	})

	Describe("background encoding", func() {
		var enc *gatedEncoder

		BeforeEach(func() {
			enc = &gatedEncoder{release: make(chan struct{})}
			seq = sequencer.New(view, render.New(palette.HueRamp, 1), store, enc, sequencer.Options{Logger: quiet})
			view.JumpToZoom(120)
			Expect(seq.Start()).To(Succeed())
			drainRecording()
		})

		It("dispatches exactly one encode and polls it", func() {
			for i := 0; i < 5; i++ {
				_, err := seq.Tick(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(seq.Phase()).To(Equal(sequencer.Encoding))
			}
			media, err := store.ListMedia()
			Expect(err).NotTo(HaveOccurred())
			Expect(media).To(HaveLen(1))

			close(enc.release)
			finishEncoding()
		})

		It("refuses a new session while a canceled encode is still running", func() {
			_, err := seq.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())

			seq.Cancel()
			Expect(seq.Phase()).To(Equal(sequencer.Idle))
			Expect(seq.Start()).To(MatchError(sequencer.ErrEncodeRunning))

			records, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).NotTo(BeEmpty())

			close(enc.release)
			Expect(seq.Wait(ctx)).To(Succeed())
			Expect(seq.Start()).To(Succeed())
		})

		It("removes the partial animation when the encode fails", func() {
			enc.err = errors.New("disk full")
			close(enc.release)

			var tickErr error
			Eventually(func() sequencer.Phase {
				_, tickErr = seq.Tick(ctx)
				return seq.Phase()
			}).Should(Equal(sequencer.Idle))
			Expect(tickErr).To(MatchError(ContainSubstring("disk full")))

			media, err := store.ListMedia()
			Expect(err).NotTo(HaveOccurred())
			Expect(media).To(BeEmpty())
		})
	})

	It("aborts to idle when a frame cannot be persisted", func() {
		faulty := &faultyStore{Store: store, saveErr: fs.ErrPermission}
		seq = sequencer.New(view, render.New(palette.HueRamp, 1), faulty, anim.DefaultEncoder(), sequencer.Options{Logger: quiet})

		Expect(seq.Start()).To(Succeed())
		_, err := seq.Tick(ctx)

		var perr *framestore.PersistenceError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(err).To(MatchError(fs.ErrPermission))
		Expect(seq.Phase()).To(Equal(sequencer.Idle))
	})

	It("fails with an empty frame set before creating any media", func() {
		faulty := &faultyStore{Store: store, emptyList: true}
		seq = sequencer.New(view, render.New(palette.HueRamp, 1), faulty, anim.DefaultEncoder(), sequencer.Options{Logger: quiet})
		view.JumpToZoom(100)

		Expect(seq.Start()).To(Succeed())
		drainRecording()
		Expect(seq.Phase()).To(Equal(sequencer.Encoding))

		_, err := seq.Tick(ctx)
		Expect(err).To(MatchError(anim.ErrEmptyFrameSet))
		Expect(seq.Phase()).To(Equal(sequencer.Idle))

		media, err := store.ListMedia()
		Expect(err).NotTo(HaveOccurred())
		Expect(media).To(BeEmpty())
	})

	It("captures a screenshot without touching session state", func() {
		path, err := seq.Capture(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(BeAnExistingFile())
		Expect(seq.Phase()).To(Equal(sequencer.Idle))
		Expect(view.Zoom()).To(Equal(viewport.DefaultZoom))
	})

	It("runs a whole session headlessly", func() {
		view.JumpToZoom(200)

		var phases []sequencer.Phase
		err := seq.Run(ctx, func(st sequencer.Status) {
			phases = append(phases, st.Phase)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(phases).To(ContainElement(sequencer.Recording))
		Expect(phases).To(ContainElement(sequencer.Encoding))
		Expect(phases[len(phases)-1]).To(Equal(sequencer.Idle))

		media, err := store.ListMedia()
		Expect(err).NotTo(HaveOccurred())
		Expect(media).To(HaveLen(1))
	})

	It("stops a headless run when the context is canceled", func() {
		cctx, cancel := context.WithCancel(ctx)
		view.JumpToZoom(5000)

		err := seq.Run(cctx, func(st sequencer.Status) {
			if st.FrameIndex == 2 {
				cancel()
			}
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(seq.Phase()).To(Equal(sequencer.Idle))
	})

	It("lets a dispatched encode finish when a headless run is canceled", func() {
		enc := &gatedEncoder{release: make(chan struct{})}
		seq = sequencer.New(view, render.New(palette.HueRamp, 1), store, enc, sequencer.Options{Logger: quiet})
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		view.JumpToZoom(120)

		var once sync.Once
		err := seq.Run(cctx, func(st sequencer.Status) {
			if st.Phase == sequencer.Encoding && st.MediaPath != "" {
				once.Do(func() {
					cancel()
					go func() {
						time.Sleep(20 * time.Millisecond)
						close(enc.release)
					}()
				})
			}
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(seq.Phase()).To(Equal(sequencer.Idle))

		st := seq.Status()
		Expect(st.EncodedFrames).To(Equal(st.TotalFrames))
		data, err := os.ReadFile(st.MediaPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("GIF89a"))
	})
})

var _ = DescribeTable("EstimateSteps",
	func(minZoom, target, factor float64, wantFrames, wantSteps int) {
		frames, steps := sequencer.EstimateSteps(minZoom, target, factor)
		Expect(frames).To(Equal(wantFrames))
		Expect(steps).To(Equal(wantSteps))
	},
	Entry("default sweep to 1000", 93.0, 1000.0, 1.1, 24, 2666),
	Entry("deep sweep", 93.0, 1e6, 1.1, 97, 14441),
	Entry("doubling factor", 93.0, 1000.0, 2.0, 3, 320),
	Entry("target below minimum", 93.0, 50.0, 1.1, 1, 99),
	Entry("invalid factor", 93.0, 1000.0, 1.0, 1, 1),
	Entry("invalid zoom", 0.0, 1000.0, 1.1, 1, 1),
)

var _ = Describe("Status.Progress", func() {
	It("clamps at one", func() {
		st := sequencer.Status{Phase: sequencer.Recording, CompletedSteps: 300, PlannedSteps: 100}
		Expect(st.Progress()).To(Equal(1.0))
	})

	It("uses encoded frames while encoding", func() {
		st := sequencer.Status{Phase: sequencer.Encoding, EncodedFrames: 3, TotalFrames: 12}
		Expect(st.Progress()).To(Equal(0.25))
	})

	It("is zero without a plan", func() {
		Expect(sequencer.Status{Phase: sequencer.Recording}.Progress()).To(BeZero())
	})
})

var _ = Describe("Phase", func() {
	It("names each phase", func() {
		Expect(sequencer.Idle.String()).To(Equal("idle"))
		Expect(sequencer.Recording.String()).To(Equal("recording"))
		Expect(sequencer.Encoding.String()).To(Equal("encoding"))
		Expect(sequencer.Phase(9).String()).To(Equal("phase(9)"))
	})
})
