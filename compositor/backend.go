// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/viewmux/viewport"
)

// SurfaceDescriptor describes the shared surface's backing store.
type SurfaceDescriptor struct {
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// Size returns the descriptor dimensions as a point.
func (d SurfaceDescriptor) Size() image.Point {
	return image.Pt(d.Width, d.Height)
}

// RenderTarget is the backend's handle for one viewport's region.
type RenderTarget interface {
	SetRect(rect viewport.NormRect)
}

// Backend is the narrow GPU contract the compositor depends on.
// Implementations own the actual graphics API calls.
type Backend interface {
	// Resize reallocates the backing store. Existing content is discarded.
	Resize(desc SurfaceDescriptor) error

	// AddRenderTarget registers a target covering rect, cleared to
	// background before each draw.
	AddRenderTarget(id viewport.ID, rect viewport.NormRect, background color.Color) error

	// RemoveRenderTarget drops the target for id. Unknown ids are ignored.
	RemoveRenderTarget(id viewport.ID)

	// RenderTarget returns the target registered for id.
	RenderTarget(id viewport.ID) (RenderTarget, bool)

	// DrawAll draws the targets listed in toDraw and leaves every other
	// target's pixels untouched.
	DrawAll(toDraw []viewport.ID) error

	// ReadPixels returns the current surface contents.
	ReadPixels() (image.Image, error)
}

// PainterSetter is implemented by backends that draw viewport content
// through a viewport.Painter rather than a scene of their own.
type PainterSetter interface {
	SetPainter(id viewport.ID, p viewport.Painter)
}
