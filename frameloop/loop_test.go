// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frameloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/viewmux/frame"
	"github.com/gogpu/viewmux/viewport"
)

func TestScheduleHandles(t *testing.T) {
	l := New()
	h1 := l.Schedule(func() error { return nil })
	h2 := l.Schedule(func() error { return nil })
	if h1 == 0 || h2 == 0 || h1 == h2 {
		t.Errorf("handles = %d, %d; want distinct non-zero", h1, h2)
	}
	if l.Scheduled() != 2 {
		t.Errorf("Scheduled = %d, want 2", l.Scheduled())
	}
}

func TestRunFrameOrderAndDeferral(t *testing.T) {
	l := New()
	var got []int
	l.Schedule(func() error {
		got = append(got, 1)
		// Scheduled during a frame: runs in the next one.
		l.Schedule(func() error {
			got = append(got, 3)
			return nil
		})
		return nil
	})
	l.Schedule(func() error {
		got = append(got, 2)
		return nil
	})

	if err := l.RunFrame(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("first frame ran %v, want [1 2]", got)
	}
	if err := l.RunFrame(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("second frame ran %v, want [1 2 3]", got)
	}
	if l.Scheduled() != 0 {
		t.Errorf("Scheduled = %d, want 0", l.Scheduled())
	}
}

func TestCancel(t *testing.T) {
	l := New()
	ran := false
	h := l.Schedule(func() error {
		ran = true
		return nil
	})
	l.Cancel(h)
	l.Cancel(h)
	l.Cancel(frame.Handle(999))

	if err := l.RunFrame(); err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Error("cancelled callback ran")
	}
}

type recordingHandler struct {
	order    []viewport.ID
	rendered []viewport.ID
}

func (h *recordingHandler) Order() []viewport.ID { return h.order }

func (h *recordingHandler) RenderViewport(id viewport.ID, _ *frame.PendingSet) error {
	h.rendered = append(h.rendered, id)
	return nil
}

func (h *recordingHandler) FrameRendered(uint64, []viewport.ID) {}

func TestSchedulerCancelWithinFrame(t *testing.T) {
	l := New()
	h := &recordingHandler{order: []viewport.ID{"a", "b"}}
	var s *frame.Scheduler

	// Due in the same frame as the scheduler's tick, and runs first.
	l.Schedule(func() error {
		s.Cancel()
		s.MarkDirty("b")
		return nil
	})
	s = frame.New(l, h)
	s.MarkDirty("a")

	if err := l.RunFrame(); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if len(h.rendered) != 0 {
		t.Fatalf("rendered %v in the frame that re-marked, want nothing", h.rendered)
	}
	if l.Scheduled() != 1 || s.State() != frame.StateArmed {
		t.Fatalf("scheduled=%d state=%v, want 1 and Armed", l.Scheduled(), s.State())
	}

	s.MarkDirty("a")
	if l.Scheduled() != 1 {
		t.Errorf("scheduled after mark = %d, want 1", l.Scheduled())
	}
	if err := l.RunFrame(); err != nil {
		t.Fatalf("second RunFrame: %v", err)
	}
	if len(h.rendered) != 2 || h.rendered[0] != "a" || h.rendered[1] != "b" {
		t.Errorf("rendered = %v, want [a b]", h.rendered)
	}
}

func TestRunFrameJoinsErrors(t *testing.T) {
	l := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	l.Schedule(func() error { return e1 })
	l.Schedule(func() error { return nil })
	l.Schedule(func() error { return e2 })

	err := l.RunFrame()
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("RunFrame error = %v, want both errors", err)
	}
}

func TestPostFromOtherGoroutines(t *testing.T) {
	l := New()
	var n atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { n.Add(1) })
		}()
	}
	wg.Wait()

	if ran := l.RunPosted(); ran != 10 {
		t.Errorf("RunPosted = %d, want 10", ran)
	}
	if n.Load() != 10 {
		t.Errorf("posted functions ran %d times, want 10", n.Load())
	}
}

func TestRun(t *testing.T) {
	var frameErrs atomic.Int32
	l := New(
		WithInterval(time.Millisecond),
		WithErrorHandler(func(error) { frameErrs.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ticked := make(chan struct{})
	l.Post(func() {
		// Runs on the loop goroutine, so scheduling here is ordered with ticks.
		l.Schedule(func() error {
			close(ticked)
			return errors.New("frame failed")
		})
	})

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never ran")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if frameErrs.Load() != 1 {
		t.Errorf("error handler called %d times, want 1", frameErrs.Load())
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	if got := New(WithInterval(0)).Interval(); got != DefaultInterval {
		t.Errorf("Interval = %v, want %v", got, DefaultInterval)
	}
	if got := New(WithInterval(5 * time.Millisecond)).Interval(); got != 5*time.Millisecond {
		t.Errorf("Interval = %v, want 5ms", got)
	}
}
