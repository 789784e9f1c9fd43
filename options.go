package viewmux

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/viewmux/compositor"
	"github.com/gogpu/viewmux/frame"
)

// DefaultMinViewportSize is the smallest width and height, in pixels, at
// which a shared viewport is drawn.
const DefaultMinViewportSize = 2

// Option configures an Engine during creation.
//
// Example:
//
//	// Default software backend, frames driven by a frameloop.Loop
//	eng, err := viewmux.NewEngine("main", viewmux.WithTicker(loop))
//
//	// Host GPU device and backend (dependency injection)
//	eng, err := viewmux.NewEngine("main",
//		viewmux.WithTicker(loop),
//		viewmux.WithDevice(provider),
//		viewmux.WithBackend(gpuBackend),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	ticker          frame.Ticker
	backend         compositor.Backend
	device          gpucontext.DeviceProvider
	events          *EventBus
	registry        *Registry
	minViewportSize int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		ticker:          nil, // frameloop.New() if nil
		backend:         nil, // best backend from the surface registry if nil
		minViewportSize: DefaultMinViewportSize,
	}
}

// WithTicker sets the display tick service that drives frames.
// The default is a new frameloop.Loop, reachable through Engine.Ticker.
func WithTicker(t frame.Ticker) Option {
	return func(o *engineOptions) {
		o.ticker = t
	}
}

// WithBackend sets the GPU backend that draws the shared surface.
// The default is the best backend registered with package surface for
// the device set by WithDevice.
func WithBackend(b compositor.Backend) Option {
	return func(o *engineOptions) {
		o.backend = b
	}
}

// WithDevice sets the host's GPU device. Its surface format becomes the
// format of the shared surface.
func WithDevice(provider gpucontext.DeviceProvider) Option {
	return func(o *engineOptions) {
		o.device = provider
	}
}

// WithEventBus sets the bus that engine notifications are emitted on.
// Several engines may share one bus. The default is a private bus.
func WithEventBus(bus *EventBus) Option {
	return func(o *engineOptions) {
		o.events = bus
	}
}

// WithRegistry adds the engine to r on creation and removes it on Destroy.
func WithRegistry(r *Registry) Option {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithMinViewportSize sets the smallest drawable shared viewport size.
// Values below 1 are treated as 1.
func WithMinViewportSize(px int) Option {
	return func(o *engineOptions) {
		o.minViewportSize = max(px, 1)
	}
}
