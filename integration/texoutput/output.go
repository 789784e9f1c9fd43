// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texoutput

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/viewmux/internal/logx"
	"github.com/gogpu/viewmux/surface"
	"github.com/gogpu/viewmux/viewport"
)

// Common errors returned by Output operations.
var (
	// ErrClosed is returned when operations are attempted on a closed output.
	ErrClosed = errors.New("texoutput: output is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("texoutput: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("texoutput: nil DeviceProvider")

	// ErrNilCreator is returned by Flush when a texture must be created
	// but no creator was supplied.
	ErrNilCreator = errors.New("texoutput: nil TextureCreator")
)

// TextureCreator creates GPU textures from RGBA pixel data.
type TextureCreator interface {
	NewTextureFromRGBA(width, height int, data []byte) (any, error)
}

type textureUpdater interface {
	UpdateData(data []byte) error
}

type textureDestroyer interface {
	Destroy()
}

// Output is a viewport output whose pixels end up in a GPU texture.
//
// Output is NOT safe for concurrent use. Use it from the goroutine that
// drives the engine.
type Output struct {
	staging  *surface.ImageOutput
	provider gpucontext.DeviceProvider

	texture    any
	oldTexture any // replaced texture, destroyed after the next upload

	dirty  bool
	closed bool

	uploads int
}

var (
	_ viewport.Output = (*Output)(nil)
	_ viewport.Filler = (*Output)(nil)
)

// New creates an output of the given size for the device behind provider.
func New(provider gpucontext.DeviceProvider, width, height int) (*Output, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	return &Output{
		staging:  surface.NewImageOutput(width, height),
		provider: provider,
		dirty:    true,
	}, nil
}

// Size returns the client size. A closed output reports zero.
func (o *Output) Size() image.Point {
	if o.closed {
		return image.Point{}
	}
	return o.staging.Size()
}

// CopyRect copies srcRect of src into dstRect of the staging image and
// marks the output for upload.
func (o *Output) CopyRect(src image.Image, srcRect, dstRect image.Rectangle) error {
	if o.closed {
		return ErrClosed
	}
	if err := o.staging.CopyRect(src, srcRect, dstRect); err != nil {
		return err
	}
	o.dirty = true
	return nil
}

// Fill clears the staging image to c.
func (o *Output) Fill(c color.Color) {
	if o.closed {
		return
	}
	o.staging.Fill(c)
	o.dirty = true
}

// Resize changes the client size, discarding the staging content. The
// current texture is retired and replaced on the next Flush.
func (o *Output) Resize(width, height int) error {
	if o.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if o.staging.Size() == image.Pt(width, height) {
		return nil
	}
	o.staging.Resize(width, height)
	if o.texture != nil {
		// The GPU may still sample the old texture; keep it until the
		// replacement has been written.
		destroy(o.oldTexture)
		o.oldTexture = o.texture
		o.texture = nil
	}
	o.dirty = true
	return nil
}

// MarkDirty flags the staging image for upload on the next Flush.
func (o *Output) MarkDirty() { o.dirty = true }

// IsDirty reports whether the staging image has changes not yet uploaded.
func (o *Output) IsDirty() bool { return o.dirty }

// Flush uploads the staging image if it changed and returns the texture.
// creator is only consulted when a texture has to be created.
func (o *Output) Flush(creator TextureCreator) (any, error) {
	if o.closed {
		return nil, ErrClosed
	}
	if !o.dirty && o.texture != nil {
		return o.texture, nil
	}

	img := o.staging.Image()
	size := img.Bounds().Size()

	if o.texture == nil {
		if creator == nil {
			return nil, ErrNilCreator
		}
		tex, err := creator.NewTextureFromRGBA(size.X, size.Y, img.Pix)
		if err != nil {
			return nil, fmt.Errorf("texoutput: create %dx%d texture: %w", size.X, size.Y, err)
		}
		o.texture = tex
		destroy(o.oldTexture)
		o.oldTexture = nil
		logx.Logger().Debug("texoutput: texture created", "width", size.X, "height", size.Y)
	} else if updater, ok := o.texture.(textureUpdater); ok {
		if err := updater.UpdateData(img.Pix); err != nil {
			return nil, fmt.Errorf("texoutput: texture update failed: %w", err)
		}
	}

	o.uploads++
	o.dirty = false
	return o.texture, nil
}

// Texture returns the current texture without flushing, or nil.
func (o *Output) Texture() any { return o.texture }

// Uploads returns how many times Flush has written pixel data.
func (o *Output) Uploads() int { return o.uploads }

// Image returns the staging image. The image is owned by the output.
func (o *Output) Image() *image.RGBA { return o.staging.Image() }

// Provider returns the device provider, or nil once closed.
func (o *Output) Provider() gpucontext.DeviceProvider {
	if o.closed {
		return nil
	}
	return o.provider
}

// Close destroys the textures. Close is idempotent.
func (o *Output) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	destroy(o.oldTexture)
	destroy(o.texture)
	o.oldTexture, o.texture = nil, nil
	o.provider = nil
	return nil
}

func destroy(tex any) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
