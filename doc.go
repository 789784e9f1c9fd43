// Package viewmux multiplexes many logical viewports onto one shared
// offscreen rendering surface and one frame clock.
//
// # Overview
//
// An [Engine] owns a set of viewports. Each viewport presents on its own
// visible output (an on-screen canvas) and uses one of two pipelines:
//
//   - Shared: drawn by the GPU backend on a single offscreen surface that
//     all shared viewports of the engine are packed onto, then copied to
//     the viewport's output.
//   - Private: drawn by the viewport's own painter on a surface of its
//     own, for content the backend does not render.
//
// Render requests are coalesced: any number of requests between two
// display ticks produce one pass, and within a pass each viewport is drawn
// at most once, in registration order.
//
// # Quick Start
//
//	loop := frameloop.New()
//	eng, err := viewmux.NewEngine("main", viewmux.WithTicker(loop))
//	if err != nil {
//		return err
//	}
//	defer eng.Destroy()
//
//	out := surface.NewImageOutput(512, 512)
//	err = eng.EnableViewport(viewmux.ViewportInput{
//		ID:      "axial",
//		Kind:    viewport.KindShared,
//		Output:  out,
//		Painter: slicePainter,
//	})
//
//	// Once per display refresh:
//	err = loop.RunFrame()
//
// # Threading
//
// An Engine is NOT safe for concurrent use. All engine calls and all
// ticks must happen on one goroutine, usually the one running the host's
// display loop. Work from other goroutines reaches it through
// [frameloop.Loop.Post]. The request pool in package requestpool is the
// exception: it is safe for concurrent use.
//
// # Coordinate System
//
// Placements on the shared surface are reported twice: in image pixels
// (origin top-left, Y down) and as a normalized rectangle in display
// coordinates (origin bottom-left, Y up), the form GPU backends consume.
package viewmux
