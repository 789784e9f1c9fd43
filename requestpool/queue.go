// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package requestpool

import (
	"cmp"
	"slices"
)

// tier holds the requests of one priority in arrival order.
type tier[M any] struct {
	priority int
	requests []Request[M]
}

// queue is one category's requests, tiers sorted by ascending priority.
// Tiers are created on first use and dropped once empty.
type queue[M any] struct {
	tiers []tier[M]
}

func (q *queue[M]) push(r Request[M]) {
	i, found := slices.BinarySearchFunc(q.tiers, r.Priority, func(t tier[M], p int) int {
		return cmp.Compare(t.priority, p)
	})
	if !found {
		q.tiers = slices.Insert(q.tiers, i, tier[M]{priority: r.Priority})
	}
	q.tiers[i].requests = append(q.tiers[i].requests, r)
}

// pop removes the head of the lowest non-empty tier.
func (q *queue[M]) pop() (Request[M], bool) {
	if len(q.tiers) == 0 {
		var zero Request[M]
		return zero, false
	}
	t := &q.tiers[0]
	r := t.requests[0]
	var zero Request[M]
	t.requests[0] = zero
	t.requests = t.requests[1:]
	if len(t.requests) == 0 {
		q.tiers = slices.Delete(q.tiers, 0, 1)
	}
	return r, true
}

func (q *queue[M]) len() int {
	n := 0
	for _, t := range q.tiers {
		n += len(t.requests)
	}
	return n
}

// deleteFunc removes the requests for which match returns true and
// reports how many were removed.
func (q *queue[M]) deleteFunc(match func(Request[M]) bool) int {
	removed := 0
	for i := range q.tiers {
		before := len(q.tiers[i].requests)
		q.tiers[i].requests = slices.DeleteFunc(q.tiers[i].requests, match)
		removed += before - len(q.tiers[i].requests)
	}
	q.tiers = slices.DeleteFunc(q.tiers, func(t tier[M]) bool { return len(t.requests) == 0 })
	return removed
}

func (q *queue[M]) clear() int {
	n := q.len()
	q.tiers = nil
	return n
}

// appendTo appends the queued requests in dequeue order.
func (q *queue[M]) appendTo(dst []Request[M]) []Request[M] {
	for _, t := range q.tiers {
		dst = append(dst, t.requests...)
	}
	return dst
}
