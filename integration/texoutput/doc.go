// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texoutput presents viewports on a GPU texture.
//
// An [Output] implements [viewport.Output] over a CPU staging image. The
// engine copies viewport pixels into it, and [Output.Flush] uploads the
// staging image to a texture, creating the texture lazily on the first
// flush and recreating it after a resize.
//
// Typical use inside a windowing host:
//
//	out, err := texoutput.New(provider, 512, 512)
//	if err != nil {
//	    return err
//	}
//	defer out.Close()
//
//	eng.EnableViewport(viewmux.ViewportInput{ID: "axial", Kind: viewport.KindShared, Output: out})
//
//	host.OnDraw(func(r texoutput.TextureCreator) {
//	    tex, err := out.Flush(r)
//	    ...
//	})
//
// The texture type is opaque to this package. Textures returned by the
// creator may implement UpdateData(data []byte) error to be updated in
// place, and Destroy() to be released.
package texoutput
