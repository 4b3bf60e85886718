// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"
	"image"
	"strings"

	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
)

// Draw is one recorded DrawElements call with the state it ran under.
type Draw struct {
	Mode        gputypes.PrimitiveTopology
	Count       int
	Offset      int
	Framebuffer uint32
	Program     uint32
	Texture     uint32
	LineWidth   float32
	DepthTest   bool
	Uniforms    gpu.Uniforms
}

// Device records every call and tracks the GL state they leave behind.
// Failure switches make the corresponding operations fail.
type Device struct {
	Calls []string
	Draws []Draw

	FailCreateBuffer      bool
	FailCreateTexture     bool
	FailCreateProgram     bool
	FailCreateFramebuffer bool
	FailBindFramebuffer   bool

	Viewport    image.Rectangle
	Enabled     map[gpu.Capability]bool
	LineWidth   float32
	Framebuffer uint32
	Program     uint32
	Texture     uint32
	Uniforms    gpu.Uniforms
	Buffers     map[uint32][]byte
	Live        map[uint32]string

	bound  map[gpu.BufferTarget]uint32
	nextID uint32
}

var _ gpu.Device = (*Device)(nil)

// New returns a device with depth testing enabled and a line width of 1,
// like a freshly initialized renderer.
func New() *Device {
	return &Device{
		Enabled:   map[gpu.Capability]bool{gpu.DepthTest: true},
		LineWidth: 1,
		Uniforms:  gpu.DefaultUniforms(),
		Buffers:   make(map[uint32][]byte),
		Live:      make(map[uint32]string),
		bound:     make(map[gpu.BufferTarget]uint32),
	}
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) mint(kind string) uint32 {
	d.nextID++
	d.Live[d.nextID] = kind
	return d.nextID
}

// Count returns how many recorded calls start with prefix.
func (d *Device) Count(prefix string) int {
	n := 0
	for _, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded calls and draws but keeps state.
func (d *Device) ResetCalls() {
	d.Calls = d.Calls[:0]
	d.Draws = d.Draws[:0]
}

// BoundBuffer returns the buffer bound to target.
func (d *Device) BoundBuffer(target gpu.BufferTarget) uint32 { return d.bound[target] }

func (d *Device) CreateProgram(kind gpu.ProgramKind) (uint32, error) {
	d.record("CreateProgram(%v)", kind)
	if d.FailCreateProgram {
		return 0, gpu.ErrUnknownProgram
	}
	return d.mint("program"), nil
}

func (d *Device) UseProgram(id uint32) {
	d.record("UseProgram(%d)", id)
	d.Program = id
}

func (d *Device) SetUniforms(u *gpu.Uniforms) {
	d.record("SetUniforms")
	d.Uniforms = *u
}

func (d *Device) DeleteProgram(id uint32) {
	d.record("DeleteProgram(%d)", id)
	delete(d.Live, id)
}

func (d *Device) CreateBuffer(target gpu.BufferTarget, data []byte) (uint32, error) {
	d.record("CreateBuffer(%v,%d)", target, len(data))
	if d.FailCreateBuffer {
		return 0, fmt.Errorf("gputest: buffer creation disabled")
	}
	id := d.mint("buffer")
	d.Buffers[id] = append([]byte(nil), data...)
	return id, nil
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) {
	d.record("BindBuffer(%v,%d)", target, id)
	d.bound[target] = id
}

func (d *Device) DeleteBuffer(id uint32) {
	d.record("DeleteBuffer(%d)", id)
	delete(d.Buffers, id)
	delete(d.Live, id)
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor, pixels []byte) (uint32, error) {
	d.record("CreateTexture(%dx%d)", desc.Width, desc.Height)
	if d.FailCreateTexture {
		return 0, gpu.ErrUnsupportedFormat
	}
	return d.mint("texture"), nil
}

func (d *Device) UpdateTexture(id uint32, pixels []byte) error {
	d.record("UpdateTexture(%d)", id)
	return nil
}

func (d *Device) ActiveTexture(unit int) { d.record("ActiveTexture(%d)", unit) }

func (d *Device) BindTexture(id uint32) {
	d.record("BindTexture(%d)", id)
	d.Texture = id
}

func (d *Device) DeleteTexture(id uint32) {
	d.record("DeleteTexture(%d)", id)
	delete(d.Live, id)
}

func (d *Device) CreateFramebuffer() (uint32, error) {
	d.record("CreateFramebuffer")
	if d.FailCreateFramebuffer {
		return 0, fmt.Errorf("gputest: framebuffer creation disabled")
	}
	return d.mint("framebuffer"), nil
}

func (d *Device) AttachTexture(fb, tex uint32) error {
	d.record("AttachTexture(%d,%d)", fb, tex)
	return nil
}

func (d *Device) BindFramebuffer(id uint32) error {
	d.record("BindFramebuffer(%d)", id)
	if id != 0 && d.FailBindFramebuffer {
		return gpu.ErrFramebufferIncomplete
	}
	d.Framebuffer = id
	return nil
}

func (d *Device) DeleteFramebuffer(id uint32) {
	d.record("DeleteFramebuffer(%d)", id)
	delete(d.Live, id)
}

func (d *Device) EnableVertexAttribArray(location uint32) {
	d.record("EnableVertexAttribArray(%d)", location)
}

func (d *Device) DisableVertexAttribArray(location uint32) {
	d.record("DisableVertexAttribArray(%d)", location)
}

func (d *Device) VertexAttribPointer(location uint32, size, stride, offset int) {
	d.record("VertexAttribPointer(%d,%d,%d,%d)", location, size, stride, offset)
}

func (d *Device) DrawElements(mode gputypes.PrimitiveTopology, count, offset int) {
	d.record("DrawElements(%d,%d,%d)", mode, count, offset)
	d.Draws = append(d.Draws, Draw{
		Mode:        mode,
		Count:       count,
		Offset:      offset,
		Framebuffer: d.Framebuffer,
		Program:     d.Program,
		Texture:     d.Texture,
		LineWidth:   d.LineWidth,
		DepthTest:   d.Enabled[gpu.DepthTest],
		Uniforms:    d.Uniforms,
	})
}

func (d *Device) SetViewport(r image.Rectangle) {
	d.record("SetViewport(%v)", r)
	d.Viewport = r
}

func (d *Device) Enable(c gpu.Capability) {
	d.record("Enable(%d)", c)
	d.Enabled[c] = true
}

func (d *Device) Disable(c gpu.Capability) {
	d.record("Disable(%d)", c)
	d.Enabled[c] = false
}

func (d *Device) SetLineWidth(width float32) {
	d.record("SetLineWidth(%g)", width)
	d.LineWidth = width
}

func (d *Device) Clear(c gputypes.Color) { d.record("Clear") }

func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	d.record("ReadPixels(%v)", r)
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}
