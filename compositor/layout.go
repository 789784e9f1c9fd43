// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"image"

	"github.com/gogpu/viewmux/viewport"
)

// Entry is one shared viewport to be packed.
type Entry struct {
	ID   viewport.ID
	Size image.Point
}

// Placed pairs a viewport id with its placement.
type Placed struct {
	ID        viewport.ID
	Placement viewport.Placement
}

// Layout is the result of packing: the surface size and one placement per
// entry, in input order.
type Layout struct {
	Size       image.Point
	Placements []Placed
}

// Pack lays entries out in a single row.
//
// Zero or negative client sizes are clamped to zero and still receive a
// (degenerate) placement. When the surface itself has zero width or
// height, the normalized coordinates along that axis are zero.
func Pack(entries []Entry) Layout {
	var size image.Point
	for _, e := range entries {
		w, h := max(e.Size.X, 0), max(e.Size.Y, 0)
		size.X += w
		size.Y = max(size.Y, h)
	}

	l := Layout{
		Size:       size,
		Placements: make([]Placed, 0, len(entries)),
	}

	x := 0
	for _, e := range entries {
		w, h := max(e.Size.X, 0), max(e.Size.Y, 0)
		px := image.Rect(x, size.Y-h, x+w, size.Y)
		l.Placements = append(l.Placements, Placed{
			ID: e.ID,
			Placement: viewport.Placement{
				Pixels: px,
				Norm:   normalize(px, size),
			},
		})
		x += w
	}
	return l
}

// normalize converts an image-space pixel rectangle into display
// coordinates on a surface of the given size.
func normalize(px image.Rectangle, size image.Point) viewport.NormRect {
	var n viewport.NormRect
	if size.X > 0 {
		n.X0 = float64(px.Min.X) / float64(size.X)
		n.X1 = float64(px.Max.X) / float64(size.X)
	}
	if size.Y > 0 {
		n.Y0 = float64(size.Y-px.Max.Y) / float64(size.Y)
		n.Y1 = float64(size.Y-px.Min.Y) / float64(size.Y)
	}
	return n
}

// PixelRect is the inverse of the normalization done by Pack: it maps a
// display-space rectangle back to image-space pixels on a surface of the
// given size.
func PixelRect(n viewport.NormRect, size image.Point) image.Rectangle {
	x0 := round(n.X0 * float64(size.X))
	x1 := round(n.X1 * float64(size.X))
	top := size.Y - round(n.Y1*float64(size.Y))
	bottom := size.Y - round(n.Y0*float64(size.Y))
	return image.Rect(x0, top, x1, bottom)
}

func round(f float64) int {
	if f < 0 {
		return -int(-f + 0.5)
	}
	return int(f + 0.5)
}

// Placement returns the placement of id.
func (l Layout) Placement(id viewport.ID) (viewport.Placement, bool) {
	for _, p := range l.Placements {
		if p.ID == id {
			return p.Placement, true
		}
	}
	return viewport.Placement{}, false
}

// IDs returns the packed ids in layout order.
func (l Layout) IDs() []viewport.ID {
	ids := make([]viewport.ID, len(l.Placements))
	for i, p := range l.Placements {
		ids[i] = p.ID
	}
	return ids
}
