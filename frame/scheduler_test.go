// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"testing"

	"github.com/gogpu/viewmux/viewport"
)

// fakeTicker holds scheduled callbacks until fire is called.
type fakeTicker struct {
	next           Handle
	scheduled      map[Handle]func() error
	scheduledTotal int
	maxOutstanding int
	cancelled      int
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{scheduled: make(map[Handle]func() error)}
}

func (f *fakeTicker) Schedule(fn func() error) Handle {
	f.next++
	f.scheduled[f.next] = fn
	f.scheduledTotal++
	f.maxOutstanding = max(f.maxOutstanding, len(f.scheduled))
	return f.next
}

func (f *fakeTicker) Cancel(h Handle) {
	if _, ok := f.scheduled[h]; ok {
		f.cancelled++
	}
	delete(f.scheduled, h)
}

func (f *fakeTicker) outstanding() int { return len(f.scheduled) }

// fire runs the callbacks scheduled before the call.
func (f *fakeTicker) fire() error {
	due := f.scheduled
	f.scheduled = make(map[Handle]func() error)
	var errs []error
	for _, fn := range due {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

type fakeHandler struct {
	order    []viewport.ID
	rendered []viewport.ID
	frames   [][]viewport.ID
	onRender func(id viewport.ID, pending *PendingSet) error
}

func (h *fakeHandler) Order() []viewport.ID { return h.order }

func (h *fakeHandler) RenderViewport(id viewport.ID, pending *PendingSet) error {
	h.rendered = append(h.rendered, id)
	if h.onRender != nil {
		return h.onRender(id, pending)
	}
	return nil
}

func (h *fakeHandler) FrameRendered(_ uint64, rendered []viewport.ID) {
	h.frames = append(h.frames, rendered)
}

func newTestScheduler(order ...viewport.ID) (*Scheduler, *fakeTicker, *fakeHandler) {
	ticker := newFakeTicker()
	handler := &fakeHandler{order: order}
	return New(ticker, handler), ticker, handler
}

func TestMarkDirtyIdempotent(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b")

	for range 5 {
		s.MarkDirty("a")
	}
	if s.State() != StateArmed {
		t.Fatalf("State = %v, want Armed", s.State())
	}
	if ticker.scheduledTotal != 1 {
		t.Fatalf("ticks scheduled = %d, want 1", ticker.scheduledTotal)
	}

	if err := ticker.fire(); err != nil {
		t.Fatalf("fire error = %v", err)
	}
	assertIDs(t, handler.rendered, "a")
	if s.State() != StateIdle {
		t.Errorf("State after drain = %v, want Idle", s.State())
	}
	if ticker.outstanding() != 0 {
		t.Errorf("outstanding ticks = %d, want 0", ticker.outstanding())
	}
}

func TestSingleTickInvariant(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b", "c")
	handler.onRender = func(id viewport.ID, _ *PendingSet) error {
		// Marks during a pass must not schedule a tick while draining.
		s.MarkDirty("a", "b", "c")
		if ticker.outstanding() != 0 {
			t.Errorf("tick scheduled while draining %s", id)
		}
		return nil
	}

	s.MarkDirty("a")
	s.MarkDirty("b")
	s.MarkDirty("c", "a")
	if ticker.outstanding() != 1 {
		t.Fatalf("outstanding = %d, want 1", ticker.outstanding())
	}

	for range 3 {
		if err := ticker.fire(); err != nil {
			t.Fatal(err)
		}
	}
	if ticker.maxOutstanding != 1 {
		t.Errorf("max outstanding ticks = %d, want 1", ticker.maxOutstanding)
	}
}

func TestDrainRegistrationOrder(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b", "c", "d")
	var lens []int
	handler.onRender = func(_ viewport.ID, pending *PendingSet) error {
		lens = append(lens, pending.Len())
		return nil
	}

	s.MarkDirty("d", "b", "a")
	if err := ticker.fire(); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, handler.rendered, "a", "b", "d")

	// Each viewport leaves the pending set as soon as it is handled.
	want := []int{3, 2, 1}
	for i := range want {
		if lens[i] != want[i] {
			t.Fatalf("pending sizes = %v, want %v", lens, want)
		}
	}
	if len(handler.frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(handler.frames))
	}
	assertIDs(t, handler.frames[0], "a", "b", "d")
}

func TestRemarkDuringOwnDrainIsDeferred(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b")
	remarked := false
	handler.onRender = func(id viewport.ID, _ *PendingSet) error {
		if id == "a" && !remarked {
			remarked = true
			s.MarkDirty("a")
		}
		return nil
	}

	s.MarkDirty("a", "b")
	_ = ticker.fire()
	assertIDs(t, handler.rendered, "a", "b")
	if !s.IsPending("a") || s.State() != StateArmed {
		t.Fatalf("a pending=%v state=%v, want deferred to an armed next frame", s.IsPending("a"), s.State())
	}

	_ = ticker.fire()
	assertIDs(t, handler.rendered, "a", "b", "a")
	if s.Frame() != 2 {
		t.Errorf("Frame = %d, want 2", s.Frame())
	}
}

func TestMarkDuringDrain(t *testing.T) {
	t.Run("not yet pending is deferred", func(t *testing.T) {
		s, ticker, handler := newTestScheduler("a", "b")
		handler.onRender = func(id viewport.ID, _ *PendingSet) error {
			if id == "a" {
				s.MarkDirty("b")
			}
			return nil
		}
		s.MarkDirty("a")
		_ = ticker.fire()
		assertIDs(t, handler.rendered, "a")
		_ = ticker.fire()
		assertIDs(t, handler.rendered, "a", "b")
	})

	t.Run("already pending stays in the pass", func(t *testing.T) {
		s, ticker, handler := newTestScheduler("a", "b")
		handler.onRender = func(id viewport.ID, _ *PendingSet) error {
			if id == "a" {
				s.MarkDirty("b")
			}
			return nil
		}
		s.MarkDirty("a", "b")
		_ = ticker.fire()
		assertIDs(t, handler.rendered, "a", "b")
		if s.State() != StateIdle {
			t.Errorf("State = %v, want Idle", s.State())
		}
	})
}

func TestCancel(t *testing.T) {
	s, ticker, handler := newTestScheduler("a")

	// Idle cancel is a no-op.
	s.Cancel()
	if s.State() != StateIdle || ticker.cancelled != 0 {
		t.Fatalf("idle Cancel: state=%v cancelled=%d", s.State(), ticker.cancelled)
	}

	s.MarkDirty("a")
	s.Cancel()
	if s.State() != StateIdle {
		t.Errorf("State = %v, want Idle", s.State())
	}
	if ticker.cancelled != 1 || ticker.outstanding() != 0 {
		t.Errorf("cancelled=%d outstanding=%d, want 1 and 0", ticker.cancelled, ticker.outstanding())
	}
	if len(s.Pending()) != 0 {
		t.Errorf("Pending = %v, want empty", s.Pending())
	}
	_ = ticker.fire()
	if len(handler.rendered) != 0 {
		t.Errorf("rendered after cancel = %v", handler.rendered)
	}

	// A stale callback firing after cancel must do nothing.
	s.MarkDirty("a")
	var stale func() error
	for _, fn := range ticker.scheduled {
		stale = fn
	}
	s.Cancel()
	if err := stale(); err != nil {
		t.Errorf("stale drain error = %v", err)
	}
	if len(handler.rendered) != 0 {
		t.Errorf("stale drain rendered %v", handler.rendered)
	}

	// Cancel twice is harmless.
	s.Cancel()
}

func TestCancelThenMarkIgnoresDequeuedTick(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b")
	s.MarkDirty("a")

	// The host has already taken the armed callback off its queue for the
	// current frame.
	var dequeued func() error
	for h, fn := range ticker.scheduled {
		dequeued = fn
		delete(ticker.scheduled, h)
	}

	s.Cancel()
	s.MarkDirty("b")
	if err := dequeued(); err != nil {
		t.Fatalf("dequeued tick error = %v", err)
	}
	if len(handler.rendered) != 0 {
		t.Fatalf("dequeued tick rendered %v, want nothing until the next frame", handler.rendered)
	}
	if s.State() != StateArmed {
		t.Errorf("State = %v, want Armed", s.State())
	}
	if ticker.outstanding() != 1 {
		t.Errorf("outstanding ticks = %d, want 1", ticker.outstanding())
	}

	s.MarkDirty("a")
	if ticker.outstanding() != 1 {
		t.Errorf("outstanding ticks after mark = %d, want 1", ticker.outstanding())
	}
	if err := ticker.fire(); err != nil {
		t.Fatalf("fire error = %v", err)
	}
	assertIDs(t, handler.rendered, "a", "b")
	if s.State() != StateIdle || ticker.outstanding() != 0 {
		t.Errorf("state=%v outstanding=%d, want Idle and 0", s.State(), ticker.outstanding())
	}
}

func TestCancelWhileDraining(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b")
	handler.onRender = func(id viewport.ID, _ *PendingSet) error {
		s.Cancel()
		return nil
	}
	s.MarkDirty("a", "b")
	_ = ticker.fire()

	assertIDs(t, handler.rendered, "a")
	if len(handler.frames) != 0 {
		t.Errorf("FrameRendered called after cancel: %v", handler.frames)
	}
	if s.State() != StateIdle || ticker.outstanding() != 0 {
		t.Errorf("state=%v outstanding=%d, want Idle and 0", s.State(), ticker.outstanding())
	}
}

func TestRenderErrorPropagates(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b", "c")
	boom := errors.New("blit failed")
	handler.onRender = func(id viewport.ID, _ *PendingSet) error {
		if id == "b" {
			return boom
		}
		return nil
	}

	s.MarkDirty("a", "b", "c")
	err := ticker.fire()
	if !errors.Is(err, boom) {
		t.Fatalf("fire error = %v, want blit failure", err)
	}
	var verr *ViewportError
	if !errors.As(err, &verr) || verr.ID != "b" || verr.Frame != 1 {
		t.Errorf("error = %#v, want ViewportError for b in frame 1", err)
	}

	// a was already handled; c is still pending for the next frame.
	assertIDs(t, handler.rendered, "a", "b")
	if len(handler.frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(handler.frames))
	}
	assertIDs(t, handler.frames[0], "a")
	assertIDs(t, s.Pending(), "c")
	if s.State() != StateArmed {
		t.Errorf("State = %v, want Armed", s.State())
	}

	handler.onRender = nil
	if err := ticker.fire(); err != nil {
		t.Fatalf("second fire error = %v", err)
	}
	assertIDs(t, handler.rendered, "a", "b", "c")
}

func TestRemove(t *testing.T) {
	s, ticker, handler := newTestScheduler("a", "b")
	s.MarkDirty("a", "b")
	s.Remove("a")
	_ = ticker.fire()
	assertIDs(t, handler.rendered, "b")
}

func TestUnknownPendingDropped(t *testing.T) {
	s, ticker, handler := newTestScheduler("a")
	s.MarkDirty("ghost")
	_ = ticker.fire()
	if len(handler.rendered) != 0 {
		t.Errorf("rendered = %v, want none", handler.rendered)
	}
	if s.State() != StateIdle || ticker.outstanding() != 0 {
		t.Errorf("state=%v outstanding=%d, want Idle and no re-arm", s.State(), ticker.outstanding())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:     "Idle",
		StateArmed:    "Armed",
		StateDraining: "Draining",
		State(9):      "State(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", uint8(s), got, want)
		}
	}
}

func TestPendingSet(t *testing.T) {
	p := NewPendingSet()
	if !p.Add("a") || p.Add("a") {
		t.Error("Add should report only the first insertion")
	}
	p.Add("c")
	p.Add("b")
	assertIDs(t, p.Ordered([]viewport.ID{"c", "x", "a", "b"}), "c", "a", "b")
	if !p.Remove("a") || p.Remove("a") {
		t.Error("Remove should report only the first deletion")
	}
	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len after Clear = %d", p.Len())
	}
}

func assertIDs(t *testing.T, got []viewport.ID, want ...viewport.ID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}
