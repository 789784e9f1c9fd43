// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/viewmux/compositor"
	"github.com/gogpu/viewmux/viewport"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func solid(c color.Color) viewport.Painter {
	return viewport.PainterFunc(func(dst draw.Image) error {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		return nil
	})
}

func rgbaAt(t *testing.T, img image.Image, x, y int) color.RGBA {
	t.Helper()
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

// newTwoTargetBackend lays out a 10x4 surface with "a" on the left half
// and "b" on the right half.
func newTwoTargetBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend(nil)
	desc := compositor.SurfaceDescriptor{Width: 10, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}
	if err := b.Resize(desc); err != nil {
		t.Fatal(err)
	}
	if err := b.AddRenderTarget("a", viewport.NormRect{X0: 0, Y0: 0, X1: 0.5, Y1: 1}, red); err != nil {
		t.Fatal(err)
	}
	if err := b.AddRenderTarget("b", viewport.NormRect{X0: 0.5, Y0: 0, X1: 1, Y1: 1}, blue); err != nil {
		t.Fatal(err)
	}
	return b
}

// TestBackendDrawOnlyListed tests that DrawAll leaves unlisted targets alone.
func TestBackendDrawOnlyListed(t *testing.T) {
	b := newTwoTargetBackend(t)

	if err := b.DrawAll([]viewport.ID{"a"}); err != nil {
		t.Fatal(err)
	}
	img, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if got := rgbaAt(t, img, 2, 2); got != red {
		t.Errorf("pixel in a = %v, want %v", got, red)
	}
	if got := rgbaAt(t, img, 7, 2); got != (color.RGBA{}) {
		t.Errorf("pixel in b = %v, want transparent", got)
	}

	if err := b.DrawAll([]viewport.ID{"b"}); err != nil {
		t.Fatal(err)
	}
	img, _ = b.ReadPixels()
	if got := rgbaAt(t, img, 2, 2); got != red {
		t.Errorf("pixel in a after drawing b = %v, want %v", got, red)
	}
	if got := rgbaAt(t, img, 7, 2); got != blue {
		t.Errorf("pixel in b = %v, want %v", got, blue)
	}
	if b.Draws() != 2 {
		t.Errorf("Draws() = %d, want 2", b.Draws())
	}
}

// TestBackendPainter tests that painters see a zero-origin image of the
// target's size.
func TestBackendPainter(t *testing.T) {
	b := newTwoTargetBackend(t)

	var bounds image.Rectangle
	b.SetPainter("b", viewport.PainterFunc(func(dst draw.Image) error {
		bounds = dst.Bounds()
		dst.Set(0, 0, green)
		return nil
	}))
	if err := b.DrawAll([]viewport.ID{"b"}); err != nil {
		t.Fatal(err)
	}
	if bounds != image.Rect(0, 0, 5, 4) {
		t.Errorf("painter bounds = %v, want (0,0)-(5,4)", bounds)
	}
	img, _ := b.ReadPixels()
	if got := rgbaAt(t, img, 5, 0); got != green {
		t.Errorf("painted pixel = %v, want %v", got, green)
	}
	if got := rgbaAt(t, img, 6, 0); got != blue {
		t.Errorf("background pixel = %v, want %v", got, blue)
	}
}

// TestBackendSetRect tests moving a render target.
func TestBackendSetRect(t *testing.T) {
	b := newTwoTargetBackend(t)
	rt, ok := b.RenderTarget("a")
	if !ok {
		t.Fatal("render target a missing")
	}
	rt.SetRect(viewport.NormRect{X0: 0.5, Y0: 0, X1: 1, Y1: 0.5})

	if err := b.DrawAll([]viewport.ID{"a"}); err != nil {
		t.Fatal(err)
	}
	img, _ := b.ReadPixels()
	// Bottom half in display coordinates is rows 2..3 in image space.
	if got := rgbaAt(t, img, 7, 3); got != red {
		t.Errorf("moved target pixel = %v, want %v", got, red)
	}
	if got := rgbaAt(t, img, 7, 0); got != (color.RGBA{}) {
		t.Errorf("pixel above moved target = %v, want transparent", got)
	}
}

// TestBackendErrors tests error paths.
func TestBackendErrors(t *testing.T) {
	b := newTwoTargetBackend(t)

	if err := b.DrawAll([]viewport.ID{"zzz"}); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("DrawAll(unknown) = %v, want ErrUnknownTarget", err)
	}
	if err := b.AddRenderTarget("a", viewport.NormRect{}, nil); !errors.Is(err, ErrDuplicateTarget) {
		t.Errorf("AddRenderTarget(dup) = %v, want ErrDuplicateTarget", err)
	}

	paintErr := errors.New("paint failed")
	b.SetPainter("a", viewport.PainterFunc(func(draw.Image) error { return paintErr }))
	if err := b.DrawAll([]viewport.ID{"a"}); !errors.Is(err, paintErr) {
		t.Errorf("DrawAll with failing painter = %v, want wrapped paint error", err)
	}

	err := b.Resize(compositor.SurfaceDescriptor{Width: 1, Height: 1, Format: gputypes.TextureFormatDepth24PlusStencil8})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Resize(depth) = %v, want ErrUnsupportedFormat", err)
	}
	err = b.Resize(compositor.SurfaceDescriptor{Width: -1, Height: 1, Format: gputypes.TextureFormatRGBA8Unorm})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(-1) = %v, want ErrInvalidSize", err)
	}

	b.RemoveRenderTarget("a")
	b.RemoveRenderTarget("a")
	if _, ok := b.RenderTarget("a"); ok {
		t.Error("render target a still present after removal")
	}
}

// TestBackendResizeDiscards tests that Resize clears content.
func TestBackendResizeDiscards(t *testing.T) {
	b := newTwoTargetBackend(t)
	_ = b.DrawAll([]viewport.ID{"a", "b"})

	desc := compositor.SurfaceDescriptor{Width: 10, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}
	if err := b.Resize(desc); err != nil {
		t.Fatal(err)
	}
	img, _ := b.ReadPixels()
	if got := rgbaAt(t, img, 2, 2); got != (color.RGBA{}) {
		t.Errorf("pixel after resize = %v, want transparent", got)
	}
	if b.Descriptor() != desc {
		t.Errorf("Descriptor() = %+v, want %+v", b.Descriptor(), desc)
	}
}

// TestBackendReadPixelsFormats tests that readback is RGBA for every
// supported surface format.
func TestBackendReadPixelsFormats(t *testing.T) {
	for _, format := range []gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm,
	} {
		b := NewBackend(nil)
		if err := b.Resize(compositor.SurfaceDescriptor{Width: 1, Height: 1, Format: format}); err != nil {
			t.Fatal(err)
		}
		_ = b.AddRenderTarget("a", viewport.NormRect{X1: 1, Y1: 1}, red)
		if err := b.DrawAll([]viewport.ID{"a"}); err != nil {
			t.Fatal(err)
		}

		img, _ := b.ReadPixels()
		if c := rgbaAt(t, img, 0, 0); c != red {
			t.Errorf("format %v: ReadPixels pixel = %v, want %v", format, c, red)
		}
	}
}

// TestBackendWithCompositor drives the backend through the compositor.
func TestBackendWithCompositor(t *testing.T) {
	b := NewBackend(nil)
	c, err := compositor.New(b, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}

	left := viewport.New("left", "e", mustPipeline(t), NewImageOutput(4, 2), red)
	right := viewport.New("right", "e", mustPipeline(t), NewImageOutput(6, 4), nil)
	layout, err := c.Relayout([]compositor.Member{
		{Viewport: left},
		{Viewport: right, Painter: solid(green)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if layout.Size != image.Pt(10, 4) {
		t.Fatalf("layout size = %v, want 10x4", layout.Size)
	}

	img, err := c.Draw([]viewport.ID{"left", "right"})
	if err != nil {
		t.Fatal(err)
	}
	// left is 4x2, bottom aligned: image rows 2..3.
	if got := rgbaAt(t, img, 1, 3); got != red {
		t.Errorf("left pixel = %v, want %v", got, red)
	}
	if got := rgbaAt(t, img, 1, 0); got != (color.RGBA{}) {
		t.Errorf("pixel above left = %v, want transparent", got)
	}
	if got := rgbaAt(t, img, 8, 0); got != green {
		t.Errorf("right pixel = %v, want %v", got, green)
	}
}

func mustPipeline(t *testing.T) viewport.Pipeline {
	t.Helper()
	p, err := viewport.NewPipeline(viewport.KindShared, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
