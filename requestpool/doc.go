// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package requestpool schedules asynchronous data-retrieval tasks under a
// category- and priority-bounded concurrency budget.
//
// Every request belongs to one of three categories. Each category has its
// own concurrency cap, and a category never borrows idle capacity from
// another. Within a category, requests wait in priority tiers (lower number
// first, FIFO within a tier). Categories are serviced in a fixed precedence
// order: Interaction, then Thumbnail, then Prefetch.
//
// Exceeding a cap never fails; the request simply waits in its queue.
// Tasks report completion through a channel and the pool only counts the
// settlement: it does not inspect results, retry failures, or time out a
// task that never settles.
//
// Example:
//
//	pool := requestpool.New[string](
//		requestpool.WithMaxConcurrency(requestpool.CategoryPrefetch, 2),
//	)
//	defer pool.Destroy()
//
//	err := pool.Submit(requestpool.Request[string]{
//		Task:     requestpool.Async(func() error { return fetch("image-42") }),
//		Category: requestpool.CategoryInteraction,
//		Metadata: "image-42",
//	})
//
// Pool is safe for concurrent use. Task functions are called without the
// pool's lock held, so a task may submit further requests.
package requestpool
