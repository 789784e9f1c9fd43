// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewport defines the viewport record shared by the compositor,
// the frame scheduler, and the engine.
//
// A viewport is one logical rendering target. It is created with a
// [Kind] that selects its [Pipeline] once:
//
//   - KindShared viewports are packed onto the engine's shared offscreen
//     surface, drawn there by the GPU backend, and blitted to their output.
//   - KindPrivate viewports keep a private surface sized to their own client
//     box and render and paint themselves.
//
// Viewports never hold a pointer to their engine. They carry the engine id
// as a lookup-only back-reference; the engine owns the [Registry].
package viewport
