// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the submission side of a frame: the state shapes
// read while they assemble geometry and the services they use to enqueue
// drawables.
//
// # Context
//
// A [Context] lives as long as the renderer and is prepared once per frame
// with [Context.BeginFrame]. It exposes:
//
//   - the globe and the camera-derived matrices, eye point and frustum
//   - the render resource cache, shared by buffers and textures
//   - the program registry
//   - the drawable pools and the draw queue
//   - pick identifiers and picked objects
//
// Shapes run on the render thread and never touch the device: they hand
// resource objects to drawables, which upload them lazily when they are
// drawn.
//
//	rc.BeginFrame(camera, viewport, false)
//	for _, s := range shapes {
//	    shape.Render(rc, s)
//	}
//	queue.Sort()
//	// draw the queue, then:
//	rc.ReleaseEvicted()
//
// # Resource Lifetime
//
// Resources evicted from the cache are not released immediately: a
// drawable submitted earlier in the frame may still reference them.
// [Context.ReleaseEvicted] releases them once the queue has been drawn.
package render
