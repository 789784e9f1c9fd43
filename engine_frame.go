package viewmux

import (
	"image"

	"github.com/gogpu/viewmux/frame"
	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/viewport"
)

// frameHandler adapts an Engine to frame.Handler.
type frameHandler struct {
	e *Engine
}

var _ frame.Handler = frameHandler{}

func (h frameHandler) Order() []viewport.ID {
	return h.e.viewports.IDs()
}

// RenderViewport presents one viewport. The first shared viewport of a
// pass draws every pending shared viewport on the surface in one backend
// call; the rest of the pass only copies from that result.
func (h frameHandler) RenderViewport(id viewport.ID, pending *frame.PendingSet) error {
	e := h.e
	v, ok := e.viewports.Get(id)
	if !ok {
		return nil
	}
	v.SetDirty(false)

	p := v.Pipeline()
	if !p.UsesSharedPipeline() {
		return p.Render(v.Output(), nil, image.Rectangle{})
	}

	if !e.drawable(v) {
		px := v.Placement().Pixels
		logx.Logger().Warn("viewmux: viewport too small to draw",
			"engine", e.id, "viewport", id, "width", px.Dx(), "height", px.Dy())
		return nil
	}
	if e.surfaceImg == nil || e.drawnFrame != e.scheduler.Frame() || !e.drawn[id] {
		if err := e.drawShared(pending); err != nil {
			return err
		}
	}
	return p.Render(v.Output(), e.surfaceImg, v.Placement().Pixels)
}

func (h frameHandler) FrameRendered(frame uint64, rendered []viewport.ID) {
	for _, id := range rendered {
		h.e.emit(EventFrameRendered, id, frame)
	}
}

// drawable reports whether v's placement meets the minimum size.
func (e *Engine) drawable(v *viewport.Viewport) bool {
	px := v.Placement().Pixels
	return px.Dx() >= e.opts.minViewportSize && px.Dy() >= e.opts.minViewportSize
}

// drawShared draws the pending, drawable shared viewports and caches the
// resulting surface for the rest of the pass.
func (e *Engine) drawShared(pending *frame.PendingSet) error {
	var toDraw []viewport.ID
	for _, v := range e.viewports.Shared() {
		if pending.Has(v.ID()) && e.drawable(v) {
			toDraw = append(toDraw, v.ID())
		}
	}
	img, err := e.compositor.Draw(toDraw)
	if err != nil {
		return err
	}
	e.surfaceImg = img
	e.drawnFrame = e.scheduler.Frame()
	clear(e.drawn)
	for _, id := range toDraw {
		e.drawn[id] = true
	}
	return nil
}
