// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package requestpool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/viewmux/internal/logx"
)

var (
	// ErrDestroyed is returned by every operation on a destroyed pool.
	ErrDestroyed = errors.New("requestpool: pool has been destroyed")

	// ErrUnknownCategory is returned for a category outside the defined set.
	ErrUnknownCategory = errors.New("requestpool: unknown category")

	// ErrNilTask is returned when a request carries no task.
	ErrNilTask = errors.New("requestpool: nil task")

	// ErrNegativeConcurrency is returned by SetMaxConcurrency for n < 0.
	ErrNegativeConcurrency = errors.New("requestpool: negative concurrency")
)

// Task starts one unit of work and returns a channel that delivers (or is
// closed) once the work settles. The value received is ignored. A nil
// channel means the work already settled when the function returned.
type Task func() <-chan error

// Async returns a Task that runs fn on its own goroutine and settles when
// fn returns.
func Async(fn func() error) Task {
	return func() <-chan error {
		done := make(chan error, 1)
		go func() {
			done <- fn()
		}()
		return done
	}
}

// Request is a queued unit of work.
type Request[M any] struct {
	// Task starts the work.
	Task Task

	// Category selects the queue and the concurrency cap.
	Category Category

	// Priority orders requests within a category; lower runs first.
	Priority int

	// Metadata is carried for the caller and never read by the pool.
	Metadata M
}

// Stats is a snapshot of a pool's accounting.
type Stats struct {
	InFlight       [NumCategories]int
	Queued         [NumCategories]int
	MaxConcurrency [NumCategories]int

	// Awake is false once a pass found every queue empty, and true again
	// after the next Submit.
	Awake bool
}

// Pool schedules requests under per-category concurrency caps.
//
// The zero value is not usable; create pools with New.
type Pool[M any] struct {
	mu             sync.Mutex
	queues         [NumCategories]queue[M]
	maxConcurrency [NumCategories]int
	inFlight       [NumCategories]int
	grabDelay      time.Duration
	timer          *time.Timer
	awake          bool
	destroyed      bool
}

// New creates a sleeping pool.
func New[M any](opts ...Option) *Pool[M] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pool[M]{
		maxConcurrency: cfg.maxConcurrency,
		grabDelay:      cfg.grabDelay,
	}
}

// Submit queues r, wakes the pool, and runs a scheduling pass. Tasks the
// pass starts are called before Submit returns.
func (p *Pool[M]) Submit(r Request[M]) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrDestroyed
	}
	if r.Task == nil {
		p.mu.Unlock()
		return ErrNilTask
	}
	if !r.Category.Valid() {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownCategory, int(r.Category))
	}
	p.queues[r.Category].push(r)
	p.awake = true
	p.mu.Unlock()

	p.pass()
	return nil
}

// DeleteFunc removes the queued requests for which match returns true and
// returns how many were removed. Started tasks are not affected.
func (p *Pool[M]) DeleteFunc(match func(Request[M]) bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return 0, ErrDestroyed
	}
	removed := 0
	for c := range p.queues {
		removed += p.queues[c].deleteFunc(match)
	}
	return removed, nil
}

// ClearCategory removes every queued request of category c and returns how
// many were removed. Started tasks are not affected.
func (p *Pool[M]) ClearCategory(c Category) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return 0, ErrDestroyed
	}
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return p.queues[c].clear(), nil
}

// SetMaxConcurrency changes the cap of category c. Lowering a cap below the
// number of running tasks stops new starts until enough of them settle.
// Raising it starts waiting requests at once.
func (p *Pool[M]) SetMaxConcurrency(c Category, n int) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrDestroyed
	}
	if !c.Valid() {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	if n < 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNegativeConcurrency, n)
	}
	p.maxConcurrency[c] = n
	awake := p.awake
	p.mu.Unlock()

	if awake {
		p.pass()
	}
	return nil
}

// MaxConcurrency returns the cap of category c.
func (p *Pool[M]) MaxConcurrency(c Category) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return 0, ErrDestroyed
	}
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return p.maxConcurrency[c], nil
}

// Stats returns a snapshot of the pool's accounting.
func (p *Pool[M]) Stats() (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return Stats{}, ErrDestroyed
	}
	s := Stats{
		InFlight:       p.inFlight,
		MaxConcurrency: p.maxConcurrency,
		Awake:          p.awake,
	}
	for c := range p.queues {
		s.Queued[c] = p.queues[c].len()
	}
	return s, nil
}

// Requests returns the queued requests in the order a pass would consider
// them: by category precedence, then priority, then arrival.
func (p *Pool[M]) Requests() ([]Request[M], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, ErrDestroyed
	}
	var out []Request[M]
	for c := range p.queues {
		out = p.queues[c].appendTo(out)
	}
	return out, nil
}

// Destroy cancels a pending delayed pass and drops all queued requests.
// Started tasks keep running; their settlements are ignored. Calling
// Destroy again does nothing.
func (p *Pool[M]) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}
	p.destroyed = true
	p.awake = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	for c := range p.queues {
		p.queues[c].clear()
	}
	logx.Logger().Debug("requestpool: destroyed")
}

// Destroyed reports whether Destroy has been called.
func (p *Pool[M]) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// pass starts as many queued requests as the caps allow, in category
// precedence order, and puts the pool to sleep if nothing is left queued.
func (p *Pool[M]) pass() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}

	budget := 0
	for c := range p.maxConcurrency {
		budget += max(p.maxConcurrency[c]-p.inFlight[c], 0)
	}

	var starts []Request[M]
	for c := range NumCategories {
		if budget == 0 {
			break
		}
		for p.inFlight[c] < p.maxConcurrency[c] && budget > 0 {
			r, ok := p.queues[c].pop()
			if !ok {
				break
			}
			p.inFlight[c]++
			budget--
			starts = append(starts, r)
		}
	}

	queued := 0
	for c := range p.queues {
		queued += p.queues[c].len()
	}
	if queued == 0 {
		p.awake = false
	}
	p.mu.Unlock()

	if len(starts) > 0 || queued > 0 {
		logx.Logger().Debug("requestpool: pass", "started", len(starts), "queued", queued)
	}
	for _, r := range starts {
		p.start(r)
	}
}

// start calls the task and arranges for its settlement.
func (p *Pool[M]) start(r Request[M]) {
	done := p.call(r)
	if done == nil {
		p.settle(r.Category)
		return
	}
	go func() {
		<-done
		p.settle(r.Category)
	}()
}

// call runs the task function, treating a panic as an immediate settlement.
func (p *Pool[M]) call(r Request[M]) (done <-chan error) {
	defer func() {
		if v := recover(); v != nil {
			logx.Logger().Warn("requestpool: task panicked",
				"category", r.Category, "priority", r.Priority, "panic", v)
			done = nil
		}
	}()
	return r.Task()
}

// settle releases a slot of category c and schedules the next pass.
func (p *Pool[M]) settle(c Category) {
	p.mu.Lock()
	if p.inFlight[c] > 0 {
		p.inFlight[c]--
	}
	if p.destroyed || !p.awake {
		p.mu.Unlock()
		return
	}
	if p.grabDelay > 0 {
		if p.timer == nil {
			p.timer = time.AfterFunc(p.grabDelay, p.grab)
		}
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.pass()
}

// grab runs the delayed pass.
func (p *Pool[M]) grab() {
	p.mu.Lock()
	p.timer = nil
	p.mu.Unlock()

	p.pass()
}
