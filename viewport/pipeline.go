// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
)

// Errors returned when building a pipeline.
var (
	// ErrUnknownKind is returned for a Kind other than KindShared or KindPrivate.
	ErrUnknownKind = errors.New("viewport: unknown pipeline kind")

	// ErrNoPainter is returned when a private pipeline has nothing to paint with.
	ErrNoPainter = errors.New("viewport: private pipeline requires a painter")

	// ErrNoSource is returned when a shared pipeline is rendered without
	// a shared surface to copy from.
	ErrNoSource = errors.New("viewport: shared pipeline rendered without a source")
)

// Kind selects how a viewport is rendered.
type Kind uint8

const (
	// KindUnknown is the zero Kind and is rejected.
	KindUnknown Kind = iota

	// KindShared viewports are composited on the shared surface.
	KindShared

	// KindPrivate viewports render and paint themselves.
	KindPrivate
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindShared:
		return "shared"
	case KindPrivate:
		return "private"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses "shared" or "private", ignoring case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared":
		return KindShared, nil
	case "private":
		return KindPrivate, nil
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Pipeline is the closed set of rendering strategies. The only
// implementations are the ones returned by NewPipeline.
type Pipeline interface {
	// Kind reports which variant this is.
	Kind() Kind

	// UsesSharedPipeline reports whether the viewport is drawn on the
	// shared surface.
	UsesSharedPipeline() bool

	// Resize adapts the pipeline to a new client size.
	Resize(size image.Point)

	// Render presents the viewport on out. For shared pipelines src is the
	// shared surface and srcRect the viewport's placement on it; private
	// pipelines ignore both.
	Render(out Output, src image.Image, srcRect image.Rectangle) error

	sealed()
}

// NewPipeline returns the pipeline for kind. Private pipelines need a
// painter; shared pipelines ignore it because the GPU backend draws them.
func NewPipeline(kind Kind, painter Painter) (Pipeline, error) {
	switch kind {
	case KindShared:
		return sharedPipeline{}, nil
	case KindPrivate:
		if painter == nil {
			return nil, ErrNoPainter
		}
		return &privatePipeline{painter: painter}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

type sharedPipeline struct{}

func (sharedPipeline) Kind() Kind               { return KindShared }
func (sharedPipeline) UsesSharedPipeline() bool { return true }
func (sharedPipeline) Resize(image.Point)       {}
func (sharedPipeline) sealed()                  {}

func (sharedPipeline) Render(out Output, src image.Image, srcRect image.Rectangle) error {
	if src == nil {
		return ErrNoSource
	}
	size := out.Size()
	return out.CopyRect(src, srcRect, image.Rect(0, 0, size.X, size.Y))
}

// privatePipeline owns a surface sized to the viewport's client box.
type privatePipeline struct {
	painter Painter
	surface *image.RGBA
}

func (*privatePipeline) Kind() Kind               { return KindPrivate }
func (*privatePipeline) UsesSharedPipeline() bool { return false }
func (*privatePipeline) sealed()                  {}

func (p *privatePipeline) Resize(size image.Point) {
	if p.surface != nil && p.surface.Bounds().Size() == size {
		return
	}
	p.surface = image.NewRGBA(image.Rectangle{Max: size})
}

func (p *privatePipeline) Render(out Output, _ image.Image, _ image.Rectangle) error {
	size := out.Size()
	p.Resize(size)
	draw.Draw(p.surface, p.surface.Bounds(), image.Transparent, image.Point{}, draw.Src)
	if err := p.painter.Paint(p.surface); err != nil {
		return err
	}
	return out.CopyRect(p.surface, p.surface.Bounds(), image.Rect(0, 0, size.X, size.Y))
}
