// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gles implements gpu.Device on an OpenGL 4.3 core context through
// go-gl.
//
// The host owns the context: it creates the window, makes the context
// current on the render thread and only then calls [New]. The device never
// swaps buffers or polls events.
//
// The package requires cgo and is excluded by the nogpu build tag.
package gles
