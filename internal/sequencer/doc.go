// Package sequencer records a zoom sweep as numbered frames and hands the
// result to an animation encoder.
//
// A session moves through three phases:
//
//   - Idle: nothing is recorded; navigation belongs to the caller.
//   - Recording: each Tick renders and persists one frame, then zooms in.
//   - Encoding: the first Tick dispatches one background encode; later
//     ticks poll it until it completes.
//
// # Example
//
//	seq := sequencer.New(view, renderer, store, anim.DefaultEncoder(), sequencer.Options{})
//	if err := seq.Start(); err != nil {
//		return err
//	}
//	for seq.Status().Phase != sequencer.Idle {
//		if _, err := seq.Tick(ctx); err != nil {
//			return err
//		}
//	}
//
// # Thread Safety
//
// A Sequencer is owned by a single goroutine. Only the encode runs
// concurrently, and its progress is read through atomics.
package sequencer
