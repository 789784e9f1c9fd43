package viewmux

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/viewmux/compositor"
	"github.com/gogpu/viewmux/frame"
	"github.com/gogpu/viewmux/frameloop"
	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/surface"
	"github.com/gogpu/viewmux/viewport"
)

// ViewportInput describes a viewport to enable.
type ViewportInput struct {
	ID   viewport.ID
	Kind viewport.Kind

	// Output is the visible surface the viewport presents on. Required.
	Output viewport.Output

	// Painter produces the viewport content. Required for private
	// viewports; for shared viewports it is handed to backends that draw
	// through painters, and may be nil otherwise.
	Painter viewport.Painter

	// Background clears the viewport region before drawing and fills the
	// output when the viewport is disabled. Nil means black.
	Background color.Color
}

// Engine multiplexes viewports onto one shared surface and one frame clock.
//
// Engine is NOT safe for concurrent use. See the package documentation.
type Engine struct {
	id         string
	opts       engineOptions
	ticker     frame.Ticker
	events     *EventBus
	viewports  *viewport.Registry
	painters   map[viewport.ID]viewport.Painter
	compositor *compositor.Compositor
	scheduler  *frame.Scheduler
	destroyed  bool

	// Shared surface contents drawn during the current pass.
	drawnFrame uint64
	drawn      map[viewport.ID]bool
	surfaceImg image.Image
}

// NewEngine creates an engine with the given caller-chosen id.
func NewEngine(id string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.ticker == nil {
		o.ticker = frameloop.New()
	}
	if o.events == nil {
		o.events = NewEventBus()
	}
	if o.backend == nil {
		b, err := surface.Open(o.device)
		if err != nil {
			return nil, fmt.Errorf("viewmux: open backend: %w", err)
		}
		o.backend = b
	}

	format := gputypes.TextureFormatRGBA8Unorm
	if o.device != nil && o.device.SurfaceFormat() != gputypes.TextureFormatUndefined {
		format = o.device.SurfaceFormat()
	}
	comp, err := compositor.New(o.backend, format)
	if err != nil {
		return nil, fmt.Errorf("viewmux: %w", err)
	}

	e := &Engine{
		id:         id,
		opts:       o,
		ticker:     o.ticker,
		events:     o.events,
		viewports:  viewport.NewRegistry(),
		painters:   make(map[viewport.ID]viewport.Painter),
		compositor: comp,
		drawn:      make(map[viewport.ID]bool),
	}
	e.scheduler = frame.New(o.ticker, frameHandler{e})

	if o.registry != nil {
		if err := o.registry.Add(e); err != nil {
			return nil, err
		}
	}

	logx.Logger().Info("viewmux: engine created", "engine", id, "format", format)
	return e, nil
}

// ID returns the engine id.
func (e *Engine) ID() string { return e.id }

// Ticker returns the tick service driving the engine's frames.
func (e *Engine) Ticker() frame.Ticker { return e.ticker }

// Events returns the bus engine notifications are emitted on.
func (e *Engine) Events() *EventBus { return e.events }

// HasBeenDestroyed reports whether Destroy has been called. Unlike the
// other methods it remains usable after Destroy.
func (e *Engine) HasBeenDestroyed() bool { return e.destroyed }

func (e *Engine) checkAlive() error {
	if e.destroyed {
		return fmt.Errorf("%w: %s", ErrUseAfterDestroy, e.id)
	}
	return nil
}

// Viewport returns the viewport registered under id.
func (e *Engine) Viewport(id viewport.ID) (*viewport.Viewport, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	v, ok := e.viewports.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownViewport, id)
	}
	return v, nil
}

// Viewports returns the viewports in registration order.
func (e *Engine) Viewports() ([]*viewport.Viewport, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.viewports.All(), nil
}

// Layout returns the current shared surface layout.
func (e *Engine) Layout() (compositor.Layout, error) {
	if err := e.checkAlive(); err != nil {
		return compositor.Layout{}, err
	}
	return e.compositor.Layout(), nil
}

// FrameState returns the frame scheduler's state.
func (e *Engine) FrameState() (frame.State, error) {
	if err := e.checkAlive(); err != nil {
		return frame.StateIdle, err
	}
	return e.scheduler.State(), nil
}

// EnableViewport adds a viewport. Enabling an id that is already enabled
// replaces the existing viewport in its registration slot. A shared
// viewport repacks the shared surface and marks every shared viewport
// dirty; a private viewport only marks itself. When the surface cannot be
// repacked, the engine is left as it was before the call.
func (e *Engine) EnableViewport(in ViewportInput) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	v, err := e.newViewport(in)
	if err != nil {
		return err
	}
	repack := v.Pipeline().UsesSharedPipeline()

	idx := e.viewports.Index(in.ID)
	old, oldPainter, replaced := e.detach(in.ID)
	if replaced {
		repack = repack || old.Pipeline().UsesSharedPipeline()
	} else {
		idx = e.viewports.Len()
	}
	if err := e.attach(idx, v, in.Painter); err != nil {
		return err
	}

	if repack {
		if err := e.relayoutOnly(); err != nil {
			e.detach(v.ID())
			if replaced {
				_ = e.attach(idx, old, oldPainter)
			}
			return err
		}
	}
	if replaced {
		e.retire(old)
	}
	if repack {
		e.markShared()
	}
	if !v.Pipeline().UsesSharedPipeline() {
		v.SyncSize()
		e.markDirty(v.ID())
	}
	e.emit(EventViewportEnabled, v.ID(), 0)
	return nil
}

// SetViewports replaces every viewport with inputs, in order, with a single
// relayout. Inputs are validated before anything changes, and a failed
// relayout restores the previous viewports.
func (e *Engine) SetViewports(inputs []ViewportInput) error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	seen := make(map[viewport.ID]bool, len(inputs))
	created := make([]*viewport.Viewport, len(inputs))
	for i, in := range inputs {
		if seen[in.ID] {
			return &ConfigurationError{Viewport: in.ID, Reason: "listed twice", Err: viewport.ErrDuplicate}
		}
		seen[in.ID] = true
		v, err := e.newViewport(in)
		if err != nil {
			return err
		}
		created[i] = v
	}

	previous := e.viewports.All()
	previousPainters := e.painters
	e.viewports.Reset()
	e.painters = make(map[viewport.ID]viewport.Painter, len(created))
	for i, v := range created {
		// Ids are unique, so attaching to an empty registry cannot fail.
		_ = e.attach(i, v, inputs[i].Painter)
	}

	if err := e.relayoutOnly(); err != nil {
		e.viewports.Reset()
		e.painters = previousPainters
		for i, v := range previous {
			_ = e.viewports.Insert(i, v)
		}
		return err
	}

	for _, v := range previous {
		e.retire(v)
	}
	for _, v := range created {
		if !v.Pipeline().UsesSharedPipeline() {
			v.SyncSize()
		}
	}
	e.markDirty(e.viewports.IDs()...)
	for _, v := range created {
		e.emit(EventViewportEnabled, v.ID(), 0)
	}
	return nil
}

// DisableViewport removes a viewport. Its output is filled with its
// background color when the output supports it. Removing a shared
// viewport repacks the shared surface; if that fails the viewport stays
// enabled.
func (e *Engine) DisableViewport(id viewport.ID) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	idx := e.viewports.Index(id)
	v, painter, ok := e.detach(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownViewport, id)
	}
	if v.Pipeline().UsesSharedPipeline() {
		if err := e.relayoutOnly(); err != nil {
			_ = e.attach(idx, v, painter)
			return err
		}
		e.retire(v)
		e.markShared()
		return nil
	}
	e.retire(v)
	return nil
}

// Resize re-reads every output size and repacks the shared surface.
// With immediate set, every viewport is also marked dirty; otherwise the
// caller is expected to request renders itself.
func (e *Engine) Resize(immediate bool) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	for _, v := range e.viewports.All() {
		if !v.Pipeline().UsesSharedPipeline() {
			v.SyncSize()
		}
	}
	if err := e.relayoutOnly(); err != nil {
		return err
	}
	if immediate {
		e.markDirty(e.viewports.IDs()...)
	}
	return nil
}

// Render requests a render of every viewport at the next tick.
func (e *Engine) Render() error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	e.markDirty(e.viewports.IDs()...)
	return nil
}

// RenderViewport requests a render of one viewport at the next tick.
func (e *Engine) RenderViewport(id viewport.ID) error {
	return e.RenderViewports([]viewport.ID{id})
}

// RenderViewports requests a render of the listed viewports at the next
// tick. Nothing is marked if any id is unknown.
func (e *Engine) RenderViewports(ids []viewport.ID) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := e.viewports.Get(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownViewport, id)
		}
	}
	e.markDirty(ids...)
	return nil
}

// Destroy cancels any scheduled frame, disables every viewport, and
// releases the shared surface. Calling Destroy again does nothing.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.scheduler.Cancel()
	for _, id := range e.viewports.IDs() {
		e.removeViewport(id)
	}
	e.compositor.Release()
	e.surfaceImg = nil
	clear(e.drawn)
	if e.opts.registry != nil {
		e.opts.registry.Remove(e.id)
	}
	e.destroyed = true
	logx.Logger().Info("viewmux: engine destroyed", "engine", e.id)
}

// newViewport validates in and builds its viewport record.
func (e *Engine) newViewport(in ViewportInput) (*viewport.Viewport, error) {
	if in.Output == nil {
		return nil, &ConfigurationError{Viewport: in.ID, Reason: "missing output"}
	}
	p, err := viewport.NewPipeline(in.Kind, in.Painter)
	if err != nil {
		return nil, &ConfigurationError{Viewport: in.ID, Reason: "pipeline", Err: err}
	}
	return viewport.New(in.ID, e.id, p, in.Output, in.Background), nil
}

// attach registers v at position idx without side effects.
func (e *Engine) attach(idx int, v *viewport.Viewport, painter viewport.Painter) error {
	if err := e.viewports.Insert(idx, v); err != nil {
		return &ConfigurationError{Viewport: v.ID(), Reason: "register", Err: err}
	}
	if v.Pipeline().UsesSharedPipeline() && painter != nil {
		e.painters[v.ID()] = painter
	}
	return nil
}

// detach unregisters id without side effects and returns what it held.
func (e *Engine) detach(id viewport.ID) (*viewport.Viewport, viewport.Painter, bool) {
	v, ok := e.viewports.Get(id)
	if !ok {
		return nil, nil, false
	}
	painter := e.painters[id]
	e.viewports.Remove(id)
	delete(e.painters, id)
	return v, painter, true
}

// retire finishes disabling a detached viewport: its pending render is
// dropped, its output cleared, and listeners told.
func (e *Engine) retire(v *viewport.Viewport) {
	e.scheduler.Remove(v.ID())
	delete(e.drawn, v.ID())
	if f, ok := v.Output().(viewport.Filler); ok {
		f.Fill(v.Background())
	}
	e.emit(EventViewportDisabled, v.ID(), 0)
}

// removeViewport drops id without repacking and emits its disabled event.
func (e *Engine) removeViewport(id viewport.ID) {
	if v, _, ok := e.detach(id); ok {
		e.retire(v)
	}
}

// markShared marks every shared viewport dirty, since the backing store
// was reallocated.
func (e *Engine) markShared() {
	var ids []viewport.ID
	for _, v := range e.viewports.Shared() {
		ids = append(ids, v.ID())
	}
	e.markDirty(ids...)
}

func (e *Engine) relayoutOnly() error {
	shared := e.viewports.Shared()
	members := make([]compositor.Member, len(shared))
	for i, v := range shared {
		members[i] = compositor.Member{Viewport: v, Painter: e.painters[v.ID()]}
	}
	// Surface contents from an earlier layout must never be blitted.
	e.surfaceImg = nil
	clear(e.drawn)
	if _, err := e.compositor.Relayout(members); err != nil {
		return fmt.Errorf("viewmux: %w", err)
	}
	return nil
}

func (e *Engine) markDirty(ids ...viewport.ID) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if v, ok := e.viewports.Get(id); ok {
			v.SetDirty(true)
		}
	}
	e.scheduler.MarkDirty(ids...)
}

func (e *Engine) emit(t EventType, id viewport.ID, frame uint64) {
	e.events.Emit(Event{Type: t, EngineID: e.id, ViewportID: id, Frame: frame})
}
