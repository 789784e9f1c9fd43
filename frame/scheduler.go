// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"fmt"

	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/viewport"
)

// Handle identifies a callback scheduled on a Ticker. The zero Handle
// is never returned by Schedule.
type Handle uint64

// Ticker is the host's "next display tick" service.
//
// Schedule arranges for fn to run once at the next tick. The error fn
// returns belongs to whoever drives the ticks. Cancel drops a scheduled
// callback; cancelling an unknown or already fired handle is a no-op.
type Ticker interface {
	Schedule(fn func() error) Handle
	Cancel(h Handle)
}

// State is the scheduler's position in its Idle → Armed → Draining cycle.
type State uint8

const (
	// StateIdle means nothing is pending and no tick is scheduled.
	StateIdle State = iota

	// StateArmed means a tick is scheduled and viewports are pending.
	StateArmed

	// StateDraining means a pass is running.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateArmed:
		return "Armed"
	case StateDraining:
		return "Draining"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Handler does the per-viewport work of a pass.
type Handler interface {
	// Order returns the live viewport ids in registration order.
	Order() []viewport.ID

	// RenderViewport renders one pending viewport. While it runs, id is
	// still a member of pending.
	RenderViewport(id viewport.ID, pending *PendingSet) error

	// FrameRendered is called after a pass with the viewports it rendered.
	FrameRendered(frame uint64, rendered []viewport.ID)
}

// ViewportError reports a failure while rendering one viewport.
type ViewportError struct {
	Frame uint64
	ID    viewport.ID
	Err   error
}

func (e *ViewportError) Error() string {
	return fmt.Sprintf("frame %d: viewport %s: %v", e.Frame, e.ID, e.Err)
}

func (e *ViewportError) Unwrap() error { return e.Err }

// Scheduler coalesces MarkDirty calls into single passes.
//
// Scheduler is NOT safe for concurrent use. All calls, including the tick
// callback, must happen on one goroutine.
type Scheduler struct {
	ticker   Ticker
	handler  Handler
	pending  *PendingSet
	deferred *PendingSet
	state    State
	tick     Handle
	gen      uint64 // arming generation; stale tick callbacks see a different value
	frame    uint64
	current  viewport.ID
	stopped  bool
}

// New creates an idle scheduler.
func New(ticker Ticker, handler Handler) *Scheduler {
	return &Scheduler{
		ticker:   ticker,
		handler:  handler,
		pending:  NewPendingSet(),
		deferred: NewPendingSet(),
	}
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Frame returns the number of passes started so far.
func (s *Scheduler) Frame() uint64 { return s.frame }

// Pending returns the pending ids in registration order, followed by
// deferred ids when a pass is draining.
func (s *Scheduler) Pending() []viewport.ID {
	order := s.handler.Order()
	ids := s.pending.Ordered(order)
	return append(ids, s.deferred.Ordered(order)...)
}

// IsPending reports whether id will be rendered by an upcoming pass.
func (s *Scheduler) IsPending(id viewport.ID) bool {
	return s.pending.Has(id) || s.deferred.Has(id)
}

// MarkDirty requests a render of ids in the next pass. The first mark
// after a pass arms exactly one tick; later marks only join the set.
func (s *Scheduler) MarkDirty(ids ...viewport.ID) {
	for _, id := range ids {
		if s.state == StateDraining {
			if id == s.current || !s.pending.Has(id) {
				s.deferred.Add(id)
			}
			continue
		}
		s.pending.Add(id)
	}
	if s.state == StateIdle && s.pending.Len() > 0 {
		s.arm()
	}
}

// Remove drops id from the pending and deferred sets.
func (s *Scheduler) Remove(id viewport.ID) {
	s.pending.Remove(id)
	s.deferred.Remove(id)
}

// Cancel drops every pending viewport and the outstanding tick.
// It is safe to call in any state; when Idle it does nothing.
func (s *Scheduler) Cancel() {
	switch s.state {
	case StateIdle:
		return
	case StateArmed:
		s.gen++
		s.ticker.Cancel(s.tick)
		s.tick = 0
		s.state = StateIdle
	case StateDraining:
		s.stopped = true
	}
	s.pending.Clear()
	s.deferred.Clear()
}

func (s *Scheduler) arm() {
	s.gen++
	gen := s.gen
	s.state = StateArmed
	s.tick = s.ticker.Schedule(func() error { return s.drain(gen) })
}

// drain runs one pass. It is the tick callback of arming gen; callbacks of
// a cancelled arming do nothing, even when the host already dequeued them.
func (s *Scheduler) drain(gen uint64) error {
	if s.state != StateArmed || gen != s.gen {
		return nil
	}
	s.state = StateDraining
	s.tick = 0
	s.stopped = false
	s.frame++
	frame := s.frame

	order := s.handler.Order()
	logx.Logger().Debug("frame: drain", "frame", frame, "pending", s.pending.Len())

	var (
		rendered []viewport.ID
		err      error
		complete = true
	)
	for _, id := range order {
		if s.pending.Len() == 0 {
			break
		}
		if !s.pending.Has(id) {
			continue
		}
		s.current = id
		herr := s.handler.RenderViewport(id, s.pending)
		s.current = ""
		s.pending.Remove(id)
		if herr != nil {
			err = &ViewportError{Frame: frame, ID: id, Err: herr}
			complete = false
			break
		}
		if s.stopped {
			break
		}
		rendered = append(rendered, id)
	}

	if s.stopped {
		s.stopped = false
		s.pending.Clear()
		s.deferred.Clear()
		s.state = StateIdle
		return err
	}
	if complete && s.pending.Len() > 0 {
		// Whatever is left was never registered in order; drop it.
		logx.Logger().Debug("frame: dropping unknown pending viewports", "count", s.pending.Len())
		s.pending.Clear()
	}
	for id := range s.deferred.ids {
		s.pending.Add(id)
	}
	s.deferred.Clear()

	s.state = StateIdle
	if s.pending.Len() > 0 {
		s.arm()
	}
	if len(rendered) > 0 {
		s.handler.FrameRendered(frame, rendered)
	}
	return err
}
