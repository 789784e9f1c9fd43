// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/viewmux/compositor"
	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/viewport"
)

// Backend errors.
var (
	// ErrUnsupportedFormat is returned by Resize for a surface format the
	// software backend cannot store.
	ErrUnsupportedFormat = errors.New("surface: unsupported surface format")

	// ErrInvalidSize is returned by Resize for negative dimensions.
	ErrInvalidSize = errors.New("surface: invalid surface size")

	// ErrUnknownTarget is returned by DrawAll for an id with no render target.
	ErrUnknownTarget = errors.New("surface: unknown render target")

	// ErrDuplicateTarget is returned by AddRenderTarget for an id that
	// already has a render target.
	ErrDuplicateTarget = errors.New("surface: duplicate render target")
)

// target is one viewport's region of the shared surface.
type target struct {
	rect       viewport.NormRect
	background color.Color
	painter    viewport.Painter
	scratch    *image.RGBA
}

// SetRect moves the target.
func (t *target) SetRect(rect viewport.NormRect) { t.rect = rect }

// Backend is the software compositor backend. The shared surface is an
// *image.RGBA in both supported formats. The format only matters to the
// presenter.
//
// Backend is NOT safe for concurrent use.
type Backend struct {
	provider gpucontext.DeviceProvider
	desc     compositor.SurfaceDescriptor
	img      *image.RGBA
	targets  map[viewport.ID]*target
	draws    int
}

var (
	_ compositor.Backend       = (*Backend)(nil)
	_ compositor.PainterSetter = (*Backend)(nil)
)

// NewBackend creates a software backend with an empty surface.
// provider is recorded for hosts that share it with other renderers and
// may be nil.
func NewBackend(provider gpucontext.DeviceProvider) *Backend {
	return &Backend{
		provider: provider,
		desc:     compositor.SurfaceDescriptor{Format: gputypes.TextureFormatRGBA8Unorm},
		img:      image.NewRGBA(image.Rectangle{}),
		targets:  make(map[viewport.ID]*target),
	}
}

// DeviceProvider returns the provider passed to NewBackend.
func (b *Backend) DeviceProvider() gpucontext.DeviceProvider { return b.provider }

// Descriptor returns the current surface descriptor.
func (b *Backend) Descriptor() compositor.SurfaceDescriptor { return b.desc }

// SupportsFormat reports whether the software backend can store format.
func SupportsFormat(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatRGBA8Unorm || format == gputypes.TextureFormatBGRA8Unorm
}

// Resize reallocates the surface. The previous content is discarded and
// every pixel starts transparent.
func (b *Backend) Resize(desc compositor.SurfaceDescriptor) error {
	if !SupportsFormat(desc.Format) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Width < 0 || desc.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	b.desc = desc
	b.img = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	return nil
}

// AddRenderTarget registers a target for id covering rect.
func (b *Backend) AddRenderTarget(id viewport.ID, rect viewport.NormRect, background color.Color) error {
	if _, ok := b.targets[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, id)
	}
	if background == nil {
		background = color.Transparent
	}
	b.targets[id] = &target{rect: rect, background: background}
	return nil
}

// RemoveRenderTarget drops the target for id. Unknown ids are ignored.
func (b *Backend) RemoveRenderTarget(id viewport.ID) {
	delete(b.targets, id)
}

// RenderTarget returns the target registered for id.
func (b *Backend) RenderTarget(id viewport.ID) (compositor.RenderTarget, bool) {
	t, ok := b.targets[id]
	if !ok {
		return nil, false
	}
	return t, true
}

// SetPainter sets the painter that produces id's content. Targets without
// a painter are drawn as their background color.
func (b *Backend) SetPainter(id viewport.ID, p viewport.Painter) {
	if t, ok := b.targets[id]; ok {
		t.painter = p
	}
}

// DrawAll clears each listed target to its background and paints it.
// Pixels outside the listed targets are left untouched.
func (b *Backend) DrawAll(toDraw []viewport.ID) error {
	size := b.desc.Size()
	for _, id := range toDraw {
		t, ok := b.targets[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
		}
		rect := compositor.PixelRect(t.rect, size).Intersect(b.img.Bounds())
		if rect.Empty() {
			continue
		}
		if err := b.drawTarget(id, t, rect); err != nil {
			return err
		}
	}
	b.draws++
	logx.Logger().Debug("surface: draw", "targets", len(toDraw), "draws", b.draws)
	return nil
}

// drawTarget renders t into a scratch image with its origin at (0, 0) and
// copies the result to rect.
func (b *Backend) drawTarget(id viewport.ID, t *target, rect image.Rectangle) error {
	bounds := image.Rect(0, 0, rect.Dx(), rect.Dy())
	if t.scratch == nil || t.scratch.Bounds() != bounds {
		t.scratch = image.NewRGBA(bounds)
	}
	draw.Draw(t.scratch, bounds, image.NewUniform(t.background), image.Point{}, draw.Src)
	if t.painter != nil {
		if err := t.painter.Paint(t.scratch); err != nil {
			return fmt.Errorf("surface: paint %s: %w", id, err)
		}
	}
	draw.Copy(b.img, rect.Min, t.scratch, bounds, draw.Src, nil)
	return nil
}

// Draws returns how many DrawAll calls have completed.
func (b *Backend) Draws() int { return b.draws }

// ReadPixels returns a copy of the surface.
func (b *Backend) ReadPixels() (image.Image, error) {
	out := image.NewRGBA(b.img.Bounds())
	copy(out.Pix, b.img.Pix)
	return out, nil
}
