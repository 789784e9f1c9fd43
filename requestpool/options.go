// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package requestpool

import "time"

// Default caps and grab delay.
const (
	DefaultInteractionConcurrency = 6
	DefaultThumbnailConcurrency   = 6
	DefaultPrefetchConcurrency    = 5
	DefaultGrabDelay              = 5 * time.Millisecond
)

type config struct {
	maxConcurrency [NumCategories]int
	grabDelay      time.Duration
}

func defaultConfig() config {
	return config{
		maxConcurrency: [NumCategories]int{
			CategoryInteraction: DefaultInteractionConcurrency,
			CategoryThumbnail:   DefaultThumbnailConcurrency,
			CategoryPrefetch:    DefaultPrefetchConcurrency,
		},
		grabDelay: DefaultGrabDelay,
	}
}

// Option configures a Pool.
type Option func(*config)

// WithMaxConcurrency sets the cap of one category.
// Invalid categories are ignored and negative caps become zero.
// A zero cap holds all requests of the category in its queue.
func WithMaxConcurrency(c Category, n int) Option {
	return func(cfg *config) {
		if !c.Valid() {
			return
		}
		cfg.maxConcurrency[c] = max(n, 0)
	}
}

// WithGrabDelay sets how long the pool waits after a settlement before
// running the next scheduling pass, so completions arriving close together
// share one pass. Zero runs the pass immediately.
func WithGrabDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.grabDelay = max(d, 0)
	}
}
