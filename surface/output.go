// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/viewmux/viewport"
)

// ImageOutput is a viewport output backed by an *image.RGBA.
//
// ImageOutput is NOT safe for concurrent use.
type ImageOutput struct {
	img    *image.RGBA
	scaler draw.Scaler
	copies int
}

var (
	_ viewport.Output = (*ImageOutput)(nil)
	_ viewport.Filler = (*ImageOutput)(nil)
)

// NewImageOutput creates a transparent output of the given size.
// Negative dimensions are treated as zero.
func NewImageOutput(width, height int) *ImageOutput {
	return &ImageOutput{
		img:    image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		scaler: draw.ApproxBiLinear,
	}
}

// SetScaler sets the interpolator used when source and destination
// rectangles differ in size. The default is draw.ApproxBiLinear.
func (o *ImageOutput) SetScaler(s draw.Scaler) {
	if s != nil {
		o.scaler = s
	}
}

// Size returns the output size.
func (o *ImageOutput) Size() image.Point { return o.img.Bounds().Size() }

// Resize reallocates the output, discarding its content, as a canvas
// does when its client box changes.
func (o *ImageOutput) Resize(width, height int) {
	o.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// CopyRect copies srcRect of src into dstRect, scaling when the sizes
// differ. dstRect is clipped to the output.
func (o *ImageOutput) CopyRect(src image.Image, srcRect, dstRect image.Rectangle) error {
	o.copies++
	if srcRect.Empty() || dstRect.Empty() {
		return nil
	}
	if srcRect.Size() == dstRect.Size() {
		draw.Copy(o.img, dstRect.Min, src, srcRect, draw.Src, nil)
		return nil
	}
	o.scaler.Scale(o.img, dstRect, src, srcRect, draw.Src, nil)
	return nil
}

// Fill sets every pixel to c.
func (o *ImageOutput) Fill(c color.Color) {
	draw.Draw(o.img, o.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Copies returns how many times CopyRect has been called.
func (o *ImageOutput) Copies() int { return o.copies }

// Image returns the output pixels. The image is owned by the output.
func (o *ImageOutput) Image() *image.RGBA { return o.img }
