// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Device provides GL-style GPU access from the host application.
//
// Key principle: drape RECEIVES the device from the host, it does NOT
// create one. The host owns the context, makes it current on the render
// thread and hands the device to the renderer. Resource ids are opaque;
// zero is never a valid id and id zero for BindFramebuffer selects the
// host's default framebuffer.
//
// Example implementation on top of a host GL context:
//
//	type hostDevice struct {
//	    *gles.Device
//	    window *glfw.Window
//	}
type Device interface {
	// CreateProgram builds the shader program of the given kind.
	CreateProgram(kind ProgramKind) (uint32, error)
	// UseProgram makes a program current.
	UseProgram(id uint32)
	// SetUniforms uploads uniform values for the current program.
	SetUniforms(u *Uniforms)
	// DeleteProgram releases a program.
	DeleteProgram(id uint32)

	// CreateBuffer uploads data into a new buffer object.
	CreateBuffer(target BufferTarget, data []byte) (uint32, error)
	// BindBuffer binds a buffer to target. Id zero unbinds.
	BindBuffer(target BufferTarget, id uint32)
	// DeleteBuffer releases a buffer.
	DeleteBuffer(id uint32)

	// CreateTexture allocates a texture. Pixels may be nil for a render
	// target; otherwise rows are tightly packed, bottom row first.
	CreateTexture(desc TextureDescriptor, pixels []byte) (uint32, error)
	// UpdateTexture replaces the pixels of an existing texture.
	UpdateTexture(id uint32, pixels []byte) error
	// ActiveTexture selects the texture unit used by BindTexture.
	ActiveTexture(unit int)
	// BindTexture binds a texture to the active unit. Id zero unbinds.
	BindTexture(id uint32)
	// DeleteTexture releases a texture.
	DeleteTexture(id uint32)

	// CreateFramebuffer allocates an offscreen framebuffer.
	CreateFramebuffer() (uint32, error)
	// AttachTexture attaches tex as the color buffer of fb.
	AttachTexture(fb, tex uint32) error
	// BindFramebuffer makes fb the draw target. Id zero selects the default
	// framebuffer. Returns ErrFramebufferIncomplete when fb cannot be drawn to.
	BindFramebuffer(id uint32) error
	// DeleteFramebuffer releases a framebuffer.
	DeleteFramebuffer(id uint32)

	EnableVertexAttribArray(location uint32)
	DisableVertexAttribArray(location uint32)
	// VertexAttribPointer describes float32 attribute data in the bound
	// array buffer. Stride and offset are in bytes.
	VertexAttribPointer(location uint32, size, stride, offset int)

	// DrawElements draws count uint16 indices from the bound element buffer,
	// starting offset bytes into it.
	DrawElements(mode gputypes.PrimitiveTopology, count, offset int)

	// SetViewport sets the viewport in window coordinates, origin at the
	// bottom left.
	SetViewport(r image.Rectangle)
	Enable(c Capability)
	Disable(c Capability)
	SetLineWidth(width float32)
	// Clear fills the color buffer of the bound framebuffer with c and resets
	// its depth buffer, if any.
	Clear(c gputypes.Color)
	// ReadPixels reads back a region of the bound framebuffer, top row first.
	ReadPixels(r image.Rectangle) (*image.RGBA, error)
}

// ProgramKind identifies a shader program a device knows how to build.
type ProgramKind uint8

const (
	// ProgramBasic is the single-color, optionally textured program used for
	// every shape and for compositing surface textures onto terrain.
	ProgramBasic ProgramKind = iota + 1
)

// String returns the program name.
func (k ProgramKind) String() string {
	if k == ProgramBasic {
		return "basic"
	}
	return "unknown"
}

// BufferTarget selects the binding point of a buffer object.
type BufferTarget uint8

const (
	// ArrayBuffer holds vertex attribute data.
	ArrayBuffer BufferTarget = iota + 1

	// ElementArrayBuffer holds uint16 vertex indices.
	ElementArrayBuffer
)

// String returns the target name.
func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case ElementArrayBuffer:
		return "element"
	default:
		return "unknown"
	}
}

// Capability is a global pipeline toggle.
type Capability uint8

const (
	// DepthTest enables depth testing against the bound framebuffer.
	DepthTest Capability = iota + 1

	// CullFace enables back-face culling.
	CullFace

	// Blend enables premultiplied source-over blending.
	Blend
)

// TextureDescriptor describes parameters for creating a texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// Format is the texture pixel format. Only RGBA8Unorm is supported.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageTextureBinding allows the texture to be sampled.
	TextureUsageTextureBinding TextureUsage = 1 << iota

	// TextureUsageRenderAttachment allows the texture to be a framebuffer
	// color attachment.
	TextureUsageRenderAttachment
)

// DefaultTextureDescriptor returns an RGBA8 sampled texture descriptor.
func DefaultTextureDescriptor(width, height int) TextureDescriptor {
	return TextureDescriptor{
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  TextureUsageTextureBinding,
	}
}

// ByteSize returns the size of the texture's pixel data.
func (d TextureDescriptor) ByteSize() int { return d.Width * d.Height * 4 }
