// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import "github.com/gogpu/viewmux/viewport"

// PendingSet is the set of viewports waiting for the next drained frame.
// Adding an id twice is a no-op.
type PendingSet struct {
	ids map[viewport.ID]struct{}
}

// NewPendingSet creates an empty set.
func NewPendingSet() *PendingSet {
	return &PendingSet{ids: make(map[viewport.ID]struct{})}
}

// Add inserts id and reports whether it was newly added.
func (s *PendingSet) Add(id viewport.ID) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s *PendingSet) Remove(id viewport.ID) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	return true
}

// Has reports whether id is pending.
func (s *PendingSet) Has(id viewport.ID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of pending ids.
func (s *PendingSet) Len() int { return len(s.ids) }

// Clear empties the set.
func (s *PendingSet) Clear() { clear(s.ids) }

// Ordered returns the members of the set that appear in order, keeping
// that order.
func (s *PendingSet) Ordered(order []viewport.ID) []viewport.ID {
	var out []viewport.ID
	for _, id := range order {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
