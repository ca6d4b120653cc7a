package explorer_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mandelzoom/internal/anim"
	"github.com/san-kum/mandelzoom/internal/explorer"
	"github.com/san-kum/mandelzoom/internal/framestore"
	"github.com/san-kum/mandelzoom/internal/palette"
	"github.com/san-kum/mandelzoom/internal/render"
	"github.com/san-kum/mandelzoom/internal/sequencer"
	"github.com/san-kum/mandelzoom/internal/viewport"
)

var _ = Describe("Explorer", func() {
	var (
		ctx   context.Context
		view  *viewport.Viewport
		store *framestore.Store
		ex    *explorer.Explorer
	)

	BeforeEach(func() {
		ctx = context.Background()
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		view = viewport.New(40, 30)
		store = framestore.New(GinkgoT().TempDir())
		Expect(store.Init()).To(Succeed())

		r := render.New(palette.HueRamp, 2)
		seq := sequencer.New(view, r, store, anim.DefaultEncoder(), sequencer.Options{Logger: quiet})
		ex = explorer.New(view, r, seq, explorer.Options{Logger: quiet})
	})

	It("renders the first tick at full resolution", func() {
		f, err := ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Fresh).To(BeTrue())
		Expect(f.Image.Bounds().Dx()).To(Equal(40))
		Expect(f.Image.Bounds().Dy()).To(Equal(30))
		Expect(f.ZoomLabel).To(BeEmpty())
	})

	It("only re-renders after a change", func() {
		_, err := ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())

		f, err := ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Fresh).To(BeFalse())

		Expect(ex.Handle(ctx, explorer.ZoomIn)).To(Succeed())
		f, err = ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Fresh).To(BeTrue())
	})

	DescribeTable("pans by the fixed step",
		func(cmd explorer.Command, dx, dy float64) {
			ox, oy := view.Offsets()
			Expect(ex.Handle(ctx, cmd)).To(Succeed())
			nx, ny := view.Offsets()
			Expect(nx - ox).To(BeNumerically("~", dx, 1e-9))
			Expect(ny - oy).To(BeNumerically("~", dy, 1e-9))
			Expect(view.Zoom()).To(Equal(viewport.DefaultZoom))
		},
		Entry("left", explorer.PanLeft, -10.0, 0.0),
		Entry("right", explorer.PanRight, 10.0, 0.0),
		Entry("up", explorer.PanUp, 0.0, -10.0),
		Entry("down", explorer.PanDown, 0.0, 10.0),
	)

	It("zooms and resets", func() {
		Expect(ex.Handle(ctx, explorer.ZoomIn)).To(Succeed())
		Expect(view.Zoom()).To(BeNumerically("~", 165, 1e-9))
		Expect(ex.Handle(ctx, explorer.ZoomOut)).To(Succeed())
		Expect(ex.Handle(ctx, explorer.ZoomOut)).To(Succeed())
		Expect(view.Zoom()).To(BeNumerically("<", viewport.DefaultZoom))

		Expect(ex.Handle(ctx, explorer.Reset)).To(Succeed())
		Expect(view.State()).To(Equal(view.InitialState()))
	})

	It("toggles the zoom label", func() {
		Expect(ex.Handle(ctx, explorer.ToggleZoomLabel)).To(Succeed())
		Expect(ex.ShowZoom()).To(BeTrue())

		f, err := ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.ZoomLabel).To(Equal("Zoom = 0"))

		Expect(ex.Handle(ctx, explorer.ToggleZoomLabel)).To(Succeed())
		f, err = ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.ZoomLabel).To(BeEmpty())
	})

	It("fits frames inside the display size", func() {
		ex.SetDisplaySize(20, 20)
		f, err := ex.Tick(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Image.Bounds().Dx()).To(Equal(20))
		Expect(f.Image.Bounds().Dy()).To(Equal(15))
		Expect(f.View.Width).To(Equal(40))
	})

	Describe("cursor follow", func() {
		It("nudges the view toward the cursor", func() {
			Expect(ex.Handle(ctx, explorer.ToggleCursorFollow)).To(Succeed())
			Expect(ex.Following()).To(BeTrue())

			ox, oy := view.Offsets()
			ex.MoveCursor(40, 15)
			_, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())

			nx, ny := view.Offsets()
			Expect(nx - ox).To(BeNumerically("~", 20/explorer.DefaultFollowDamping, 1e-9))
			Expect(ny).To(BeNumerically("~", oy, 1e-9))
		})

		It("does nothing when disabled", func() {
			ox, oy := view.Offsets()
			ex.MoveCursor(0, 0)
			_, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())

			nx, ny := view.Offsets()
			Expect(nx).To(Equal(ox))
			Expect(ny).To(Equal(oy))
		})

		It("maps display coordinates back to the viewport", func() {
			ex.SetDisplaySize(20, 15)
			_, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.Handle(ctx, explorer.ToggleCursorFollow)).To(Succeed())
			ox, _ := view.Offsets()
			ex.MoveCursor(20, 7.5)
			_, err = ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())

			nx, _ := view.Offsets()
			Expect(nx - ox).To(BeNumerically("~", 20/explorer.DefaultFollowDamping, 1e-9))
		})
	})

	It("captures a single frame", func() {
		Expect(ex.Handle(ctx, explorer.CaptureSingleFrame)).To(Succeed())
		Expect(ex.LastCapture()).To(BeAnExistingFile())
	})

	Describe("during a recording session", func() {
		BeforeEach(func() {
			view.JumpToZoom(130)
			Expect(ex.Handle(ctx, explorer.StartRecording)).To(Succeed())
			Expect(ex.Sequencer().Active()).To(BeTrue())
		})

		It("ignores navigation commands", func() {
			state := view.State()
			for _, cmd := range []explorer.Command{
				explorer.ZoomIn, explorer.ZoomOut, explorer.PanLeft, explorer.PanRight,
				explorer.PanUp, explorer.PanDown, explorer.Reset, explorer.StartRecording,
			} {
				Expect(ex.Handle(ctx, cmd)).To(Succeed())
			}
			Expect(view.State()).To(Equal(state))
		})

		It("still honours toggles and capture", func() {
			Expect(ex.Handle(ctx, explorer.ToggleZoomLabel)).To(Succeed())
			Expect(ex.ShowZoom()).To(BeTrue())
			Expect(ex.Handle(ctx, explorer.CaptureSingleFrame)).To(Succeed())
			Expect(ex.LastCapture()).To(BeAnExistingFile())
			Expect(ex.Sequencer().Phase()).To(Equal(sequencer.Recording))
		})

		It("cancels back to idle without moving the view", func() {
			_, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())
			zoom := view.Zoom()

			Expect(ex.Handle(ctx, explorer.CancelRecording)).To(Succeed())
			Expect(ex.Sequencer().Active()).To(BeFalse())
			Expect(view.Zoom()).To(Equal(zoom))

			f, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Fresh).To(BeTrue())
			Expect(f.Status.Phase).To(Equal(sequencer.Idle))
		})

		It("shows sweep frames fitted to the display", func() {
			ex.SetDisplaySize(20, 20)
			f, err := ex.Tick(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Fresh).To(BeTrue())
			Expect(f.Image.Bounds().Dx()).To(Equal(20))
			Expect(f.Image.Bounds().Dy()).To(Equal(15))
			Expect(f.Status.Phase).To(Equal(sequencer.Recording))
		})

		It("runs through encoding back to idle", func() {
			Eventually(func() (sequencer.Phase, error) {
				f, err := ex.Tick(ctx)
				return f.Status.Phase, err
			}).Should(Equal(sequencer.Idle))

			media, err := store.ListMedia()
			Expect(err).NotTo(HaveOccurred())
			Expect(media).To(HaveLen(1))
		})
	})
})

var _ = Describe("Command", func() {
	It("round-trips every name", func() {
		for _, cmd := range explorer.Commands() {
			parsed, err := explorer.ParseCommand(cmd.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(cmd))
		}
		Expect(explorer.Commands()).To(HaveLen(12))
	})

	It("parses case-insensitively", func() {
		cmd, err := explorer.ParseCommand("  Zoom-In ")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd).To(Equal(explorer.ZoomIn))
	})

	It("rejects unknown names", func() {
		_, err := explorer.ParseCommand("warp")
		Expect(err).To(MatchError(explorer.ErrUnknownCommand))
	})

	It("formats out-of-range values", func() {
		Expect(explorer.Command(42).String()).To(Equal("command(42)"))
	})
})

var _ = DescribeTable("ZoomLabel",
	func(zoom float64, want string) {
		Expect(explorer.ZoomLabel(zoom)).To(Equal(want))
	},
	Entry("initial zoom", 150.0, "Zoom = 0"),
	Entry("just below a step", 398.0, "Zoom = 1"),
	Entry("rounds half up", 399.0, "Zoom = 2"),
	Entry("two hundred", 200.0, "Zoom = 1"),
	Entry("deep", 1e6, "Zoom = 5000"),
)
