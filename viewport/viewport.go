// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"image"
	"image/color"
	"image/draw"
)

// ID identifies a viewport. Ids are caller supplied and assumed unique
// within one engine.
type ID string

// Output is the visible drawing surface a viewport is presented on,
// such as an on-screen canvas.
type Output interface {
	// Size returns the current client size in device pixels.
	Size() image.Point

	// CopyRect copies srcRect of src into dstRect of the output.
	CopyRect(src image.Image, srcRect, dstRect image.Rectangle) error
}

// Filler is an optional interface for outputs that can be cleared to a
// solid color. The engine uses it when a viewport is disabled.
type Filler interface {
	Fill(c color.Color)
}

// Painter produces the content of one viewport.
// dst is sized to the viewport's client box.
type Painter interface {
	Paint(dst draw.Image) error
}

// PainterFunc adapts an ordinary function to the Painter interface.
type PainterFunc func(dst draw.Image) error

// Paint calls f(dst).
func (f PainterFunc) Paint(dst draw.Image) error { return f(dst) }

// NormRect is a sub-rectangle of the unit square in display coordinates:
// the origin is the bottom-left corner and Y grows upward.
type NormRect struct {
	X0, Y0, X1, Y1 float64
}

// Empty reports whether the rectangle has zero area.
func (r NormRect) Empty() bool {
	return r.X0 >= r.X1 || r.Y0 >= r.Y1
}

// Placement is where a viewport sits on the shared surface.
type Placement struct {
	// Pixels is the pixel rectangle in image coordinates (origin top-left).
	Pixels image.Rectangle

	// Norm is Pixels divided by the surface size, in display coordinates.
	Norm NormRect
}

// Viewport is the record the engine keeps for one enabled viewport.
//
// Viewport is NOT safe for concurrent use; it is owned by its engine.
type Viewport struct {
	id         ID
	engineID   string
	pipeline   Pipeline
	output     Output
	background color.Color
	size       image.Point
	placement  Placement
	dirty      bool
}

// New creates a viewport record. The pipeline is fixed for the viewport's
// lifetime.
func New(id ID, engineID string, p Pipeline, out Output, background color.Color) *Viewport {
	if background == nil {
		background = color.Black
	}
	v := &Viewport{
		id:         id,
		engineID:   engineID,
		pipeline:   p,
		output:     out,
		background: background,
	}
	if out != nil {
		v.size = out.Size()
	}
	return v
}

// ID returns the viewport id.
func (v *Viewport) ID() ID { return v.id }

// EngineID returns the id of the owning engine.
func (v *Viewport) EngineID() string { return v.engineID }

// Pipeline returns the rendering pipeline selected at creation.
func (v *Viewport) Pipeline() Pipeline { return v.pipeline }

// Kind is shorthand for v.Pipeline().Kind().
func (v *Viewport) Kind() Kind { return v.pipeline.Kind() }

// Output returns the visible output.
func (v *Viewport) Output() Output { return v.output }

// Background returns the color used to clear the viewport.
func (v *Viewport) Background() color.Color { return v.background }

// ClientSize returns the client size recorded at the last layout.
func (v *Viewport) ClientSize() image.Point { return v.size }

// Placement returns the placement on the shared surface.
// Private viewports have a zero placement.
func (v *Viewport) Placement() Placement { return v.placement }

// IsDirty reports whether the viewport waits for the next frame.
func (v *Viewport) IsDirty() bool { return v.dirty }

// SetPlacement records the placement computed by the compositor.
func (v *Viewport) SetPlacement(p Placement) { v.placement = p }

// SetDirty updates the dirty flag.
func (v *Viewport) SetDirty(dirty bool) { v.dirty = dirty }

// SyncSize re-reads the client size from the output and reports whether
// it changed. Private pipelines are resized to match.
func (v *Viewport) SyncSize() bool {
	if v.output == nil {
		return false
	}
	size := v.output.Size()
	if size == v.size {
		return false
	}
	v.size = size
	v.pipeline.Resize(size)
	return true
}
