// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor packs shared viewports onto one offscreen surface and
// keeps the GPU backend's render-target table in step with that layout.
//
// # Packing
//
// Packing is a single row of shelves, left to right in registration order:
//
//	surface width  = sum of client widths
//	surface height = max client height
//
// Viewports shorter than the surface are bottom-aligned. The layout does
// not attempt multi-row or general 2D packing; blit coordinates elsewhere
// rely on the single-row shape.
//
// # Backend
//
// The compositor talks to the GPU only through [Backend]. Every relayout
// reallocates the backing store and rebuilds the render-target table
// (remove, then add) because target identities are tied to their rectangles.
package compositor
