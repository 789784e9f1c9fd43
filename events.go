package viewmux

import (
	"fmt"
	"sync"

	"github.com/gogpu/viewmux/viewport"
)

// EventType identifies an engine notification.
type EventType uint8

const (
	// EventViewportEnabled is emitted after a viewport joins an engine.
	EventViewportEnabled EventType = iota + 1

	// EventViewportDisabled is emitted after a viewport leaves an engine,
	// including when the engine is destroyed.
	EventViewportDisabled

	// EventFrameRendered is emitted once per viewport handled by a pass,
	// after the pass.
	EventFrameRendered
)

func (t EventType) String() string {
	switch t {
	case EventViewportEnabled:
		return "ViewportEnabled"
	case EventViewportDisabled:
		return "ViewportDisabled"
	case EventFrameRendered:
		return "FrameRendered"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Event is an engine notification.
type Event struct {
	Type       EventType
	EngineID   string
	ViewportID viewport.ID

	// Frame is the pass number for EventFrameRendered and zero otherwise.
	Frame uint64
}

// Listener receives events.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// EventBus delivers events synchronously to its listeners, in subscription
// order, on the goroutine that emits them.
//
// EventBus is safe for concurrent use. Listeners may subscribe or
// unsubscribe from within a delivery; the change applies to the next event.
type EventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

// NewEventBus creates a bus with no listeners.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe adds fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *EventBus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() { b.unsubscribe(id) }
}

func (b *EventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every listener.
func (b *EventBus) Emit(ev Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of listeners.
func (b *EventBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
