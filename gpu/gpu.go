// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu defines the GL-style device interface the renderer draws
// through and the resource objects bound to it.
//
// The renderer RECEIVES a [Device] from the host; it never creates a GL
// context itself. Two devices ship with the module: gpu/gles on go-gl and
// the pure Go gpu/soft used for headless rendering and tests.
//
// Resource objects ([BufferObject], [Texture], [Framebuffer],
// [BasicProgram]) are created on the CPU and uploaded lazily the first
// time they are bound. Bind methods return false instead of an error:
// a resource that cannot be bound this frame is skipped and the caller
// tries again on the next frame.
//
// Nothing in this package is safe for concurrent use. All calls belong on
// the render thread that owns the device.
package gpu

import "errors"

var (
	// ErrFramebufferIncomplete is returned by Device.BindFramebuffer when the
	// framebuffer cannot be rendered to.
	ErrFramebufferIncomplete = errors.New("gpu: framebuffer incomplete")

	// ErrUnsupportedFormat is returned when a texture format is not RGBA8.
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")

	// ErrInvalidDataSize is returned when pixel data does not match the
	// texture dimensions.
	ErrInvalidDataSize = errors.New("gpu: invalid pixel data size")

	// ErrUnknownProgram is returned by Device.CreateProgram for a program
	// kind the device cannot build.
	ErrUnknownProgram = errors.New("gpu: unknown program kind")

	// ErrInvalidID is returned when an operation names a resource the device
	// never created or already deleted.
	ErrInvalidID = errors.New("gpu: invalid resource id")
)
