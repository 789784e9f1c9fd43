// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame coalesces viewport redraw requests into display-synchronized
// passes.
//
// A [Scheduler] moves through three states:
//
//	Idle ──MarkDirty──▶ Armed ──tick──▶ Draining ──pending empty──▶ Idle
//
// At most one tick is outstanding on the [Ticker] at any time. Marks that
// arrive while a pass is draining are deferred to the following frame, so
// no viewport is rendered twice in one pass.
//
// The scheduler never blocks. Its only suspension point is the wait for
// the ticker to fire, which is the host's business (see package frameloop).
package frame
