// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frameloop provides the host side of frame scheduling: a
// [frame.Ticker] whose ticks are delivered on one goroutine.
//
// A host with its own display loop calls [Loop.RunFrame] once per vsync.
// A host without one calls [Loop.Run], which ticks at a fixed refresh
// interval. Work originating on other goroutines (load completions, input)
// reaches the loop goroutine through [Loop.Post].
package frameloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gogpu/viewmux/frame"
	"github.com/gogpu/viewmux/internal/logx"
)

// DefaultInterval is the refresh interval used by Run: 60 Hz.
const DefaultInterval = time.Second / 60

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the tick interval used by Run.
// Non-positive values keep DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithErrorHandler sets the function Run passes frame errors to.
// By default they are logged at warn level.
func WithErrorHandler(fn func(error)) Option {
	return func(l *Loop) {
		if fn != nil {
			l.onError = fn
		}
	}
}

type entry struct {
	handle frame.Handle
	fn     func() error
}

// Loop is a frame.Ticker. Schedule, Cancel, and Post are safe for
// concurrent use; callbacks only ever run on the goroutine calling
// RunFrame, RunPosted, or Run.
type Loop struct {
	mu        sync.Mutex
	next      frame.Handle
	scheduled []entry
	posted    []func()
	wake      chan struct{}
	interval  time.Duration
	onError   func(error)
}

var _ frame.Ticker = (*Loop)(nil)

// New creates a Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:     make(chan struct{}, 1),
		interval: DefaultInterval,
		onError: func(err error) {
			logx.Logger().Warn("frameloop: frame failed", "err", err)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the tick interval used by Run.
func (l *Loop) Interval() time.Duration { return l.interval }

// Schedule queues fn for the next frame.
func (l *Loop) Schedule(fn func() error) frame.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	l.scheduled = append(l.scheduled, entry{handle: l.next, fn: fn})
	return l.next
}

// Cancel removes a scheduled callback. Unknown handles are ignored.
func (l *Loop) Cancel(h frame.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.scheduled {
		if e.handle == h {
			l.scheduled = append(l.scheduled[:i], l.scheduled[i+1:]...)
			return
		}
	}
}

// Scheduled returns the number of callbacks waiting for the next frame.
func (l *Loop) Scheduled() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scheduled)
}

// RunFrame runs, in scheduling order, the callbacks that were scheduled
// before the call. Callbacks scheduled while it runs wait for the next
// frame. The callbacks' errors are joined and returned.
func (l *Loop) RunFrame() error {
	l.mu.Lock()
	due := l.scheduled
	l.scheduled = nil
	l.mu.Unlock()

	var errs []error
	for _, e := range due {
		if err := e.fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunPosted runs the functions posted so far and returns how many ran.
func (l *Loop) RunPosted() int {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}
	return len(posted)
}

// Run drives the loop until ctx is done: posted work runs as soon as it
// arrives, and scheduled callbacks run once per interval. Frame errors go
// to the error handler. Run returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.RunPosted()
		case <-ticker.C:
			l.RunPosted()
			if err := l.RunFrame(); err != nil {
				l.onError(err)
			}
		}
	}
}
