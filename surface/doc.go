// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides compositor backends and visible outputs.
//
// # Backends
//
// [Backend] is the software reference implementation of
// [compositor.Backend]: the shared surface is an in-memory image, each
// render target is a sub-rectangle of it, and viewport content is produced
// by a [viewport.Painter]. It supports the RGBA8Unorm and BGRA8Unorm
// surface formats.
//
// Hardware backends live outside this module and register themselves by
// name, the same way the software backend does:
//
//	func init() {
//	    surface.Register("vulkan", 100, newVulkanBackend, vulkanAvailable)
//	}
//
//	// Later, pick the best backend for the host's device:
//	b, err := surface.Open(provider)
//
// # Outputs
//
// [ImageOutput] implements [viewport.Output] and [viewport.Filler] over an
// *image.RGBA. It stands in for an on-screen canvas in tools and tests.
package surface
