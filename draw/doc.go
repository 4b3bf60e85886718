// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package draw executes a frame's drawables against a gpu.Device.
//
// Submission code offers [Drawable] values to a [Queue] while walking the
// scene. After sorting, the renderer polls the queue and calls Draw on each
// entry with a per-frame [Context]. Drawables may consume the entries that
// follow them: [DrawableSurfaceShape] pulls every adjacent surface shape
// into one batch and renders the whole batch into an offscreen texture per
// terrain tile before compositing it onto the tile.
//
// Drawables live in [Pool] arenas and return to them when the queue is
// cleared at the end of the frame. Everything in this package is confined
// to the render thread.
package draw
