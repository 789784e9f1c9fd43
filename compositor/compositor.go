// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/viewport"
)

// Errors returned by the compositor.
var (
	// ErrNilBackend is returned by New when no backend is supplied.
	ErrNilBackend = errors.New("compositor: nil backend")

	// ErrNoRenderTarget is returned when a draw names a viewport the
	// backend has no render target for.
	ErrNoRenderTarget = errors.New("compositor: no render target")
)

// Member is a shared viewport as seen by the compositor.
type Member struct {
	Viewport *viewport.Viewport

	// Painter is forwarded to backends implementing PainterSetter.
	Painter viewport.Painter
}

// Compositor owns the shared surface layout.
//
// Compositor is NOT safe for concurrent use.
type Compositor struct {
	backend Backend
	format  gputypes.TextureFormat
	layout  Layout
	targets []viewport.ID
}

// New creates a compositor drawing through backend into a surface of the
// given pixel format.
func New(backend Backend, format gputypes.TextureFormat) (*Compositor, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	return &Compositor{backend: backend, format: format}, nil
}

// Backend returns the GPU backend.
func (c *Compositor) Backend() Backend { return c.backend }

// Layout returns the current layout.
func (c *Compositor) Layout() Layout { return c.layout }

// Descriptor returns the current backing store descriptor.
func (c *Compositor) Descriptor() SurfaceDescriptor {
	return SurfaceDescriptor{Width: c.layout.Size.X, Height: c.layout.Size.Y, Format: c.format}
}

// Relayout repacks members in the given order, reallocates the backing
// store, and rebuilds the render-target table. Each member's client size
// is refreshed from its output and its placement updated.
//
// Relayout must run before any draw that depends on the new layout. When
// the backing store cannot be reallocated, the previous layout, target
// table and member placements are left as they were.
func (c *Compositor) Relayout(members []Member) (Layout, error) {
	entries := make([]Entry, len(members))
	for i, m := range members {
		entries[i] = Entry{ID: m.Viewport.ID(), Size: clientSize(m.Viewport)}
	}
	layout := Pack(entries)

	desc := SurfaceDescriptor{Width: layout.Size.X, Height: layout.Size.Y, Format: c.format}
	if err := c.backend.Resize(desc); err != nil {
		return c.layout, fmt.Errorf("compositor: resize surface to %dx%d: %w", layout.Size.X, layout.Size.Y, err)
	}

	for _, id := range c.targets {
		c.backend.RemoveRenderTarget(id)
	}
	c.targets = c.targets[:0]
	c.layout = layout

	setter, _ := c.backend.(PainterSetter)
	for i, m := range members {
		placed := layout.Placements[i]
		m.Viewport.SyncSize()
		m.Viewport.SetPlacement(placed.Placement)
		if err := c.backend.AddRenderTarget(placed.ID, placed.Placement.Norm, m.Viewport.Background()); err != nil {
			return layout, fmt.Errorf("compositor: add render target %s: %w", placed.ID, err)
		}
		c.targets = append(c.targets, placed.ID)
		if setter != nil && m.Painter != nil {
			setter.SetPainter(placed.ID, m.Painter)
		}
	}

	logx.Logger().Debug("compositor: relayout",
		"width", layout.Size.X,
		"height", layout.Size.Y,
		"viewports", len(members))
	return layout, nil
}

// clientSize reads the current client size without recording it.
func clientSize(v *viewport.Viewport) image.Point {
	if out := v.Output(); out != nil {
		return out.Size()
	}
	return v.ClientSize()
}

// Draw draws the listed viewports on the shared surface and returns the
// surface contents. Viewports not listed keep their previous pixels.
func (c *Compositor) Draw(toDraw []viewport.ID) (image.Image, error) {
	for _, id := range toDraw {
		if _, ok := c.backend.RenderTarget(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoRenderTarget, id)
		}
	}
	if err := c.backend.DrawAll(toDraw); err != nil {
		return nil, err
	}
	return c.backend.ReadPixels()
}

// Release removes every render target from the backend.
func (c *Compositor) Release() {
	for _, id := range c.targets {
		c.backend.RemoveRenderTarget(id)
	}
	c.targets = nil
	c.layout = Layout{}
}
