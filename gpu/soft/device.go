// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements gpu.Device in pure Go.
//
// The device keeps GL-style mutable state and rasterizes indexed triangles
// and lines on the CPU: triangles with edge functions and a top-left fill
// rule, wide lines as antialiased quads through golang.org/x/image/vector.
// Fragments run the basic program's logic: a premultiplied uniform color,
// optionally modulated by a nearest-sampled texture, with pick mode
// thresholding texture alpha instead of modulating. Blending is
// premultiplied source-over.
//
// The default framebuffer is a [Target]. Texture framebuffers have no depth
// buffer. Texture rows are stored bottom row first, matching the y-up
// window coordinates of the viewport.
//
// Device is not safe for concurrent use.
package soft

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

type buffer struct {
	target gpu.BufferTarget
	data   []byte
}

type texture struct {
	desc gpu.TextureDescriptor
	pix  []byte
}

type attrib struct {
	enabled bool
	size    int
	stride  int
	offset  int
	buffer  uint32
}

// Resources counts the live objects of a device.
type Resources struct {
	Programs     int
	Buffers      int
	Textures     int
	Framebuffers int
}

// Device is a software gpu.Device.
type Device struct {
	target *Target
	logger *slog.Logger

	nextID       uint32
	programs     map[uint32]gpu.ProgramKind
	buffers      map[uint32]*buffer
	textures     map[uint32]*texture
	framebuffers map[uint32]uint32 // framebuffer -> color texture

	program     uint32
	uniforms    gpu.Uniforms
	bound       [3]uint32 // indexed by gpu.BufferTarget
	texture     uint32
	framebuffer uint32
	attribs     [2]attrib
	viewport    image.Rectangle
	depthTest   bool
	cullFace    bool
	blend       bool
	lineWidth   float32

	raster vector.Rasterizer
	mask   *image.Alpha
}

var _ gpu.Device = (*Device)(nil)

// New returns a device drawing into target. The viewport covers the whole
// target; depth testing, face culling and blending start disabled.
func New(target *Target) *Device {
	return &Device{
		target:       target,
		logger:       gpu.Logger(),
		programs:     make(map[uint32]gpu.ProgramKind),
		buffers:      make(map[uint32]*buffer),
		textures:     make(map[uint32]*texture),
		framebuffers: make(map[uint32]uint32),
		uniforms:     gpu.DefaultUniforms(),
		viewport:     image.Rect(0, 0, target.Width(), target.Height()),
		lineWidth:    1,
		mask:         image.NewAlpha(image.Rectangle{}),
	}
}

// Target returns the default framebuffer.
func (d *Device) Target() *Target { return d.target }

// SetLogger sets the device's logger. Nil selects the gpu package logger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = gpu.Logger()
	}
	d.logger = l
}

// Resources returns the number of live objects.
func (d *Device) Resources() Resources {
	return Resources{
		Programs:     len(d.programs),
		Buffers:      len(d.buffers),
		Textures:     len(d.textures),
		Framebuffers: len(d.framebuffers),
	}
}

func (d *Device) mint() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) CreateProgram(kind gpu.ProgramKind) (uint32, error) {
	if kind != gpu.ProgramBasic {
		return 0, fmt.Errorf("soft: program %v: %w", kind, gpu.ErrUnknownProgram)
	}
	id := d.mint()
	d.programs[id] = kind
	return id, nil
}

func (d *Device) UseProgram(id uint32) {
	if _, ok := d.programs[id]; ok || id == 0 {
		d.program = id
	}
}

func (d *Device) SetUniforms(u *gpu.Uniforms) { d.uniforms = *u }

func (d *Device) DeleteProgram(id uint32) {
	delete(d.programs, id)
	if d.program == id {
		d.program = 0
	}
}

func (d *Device) CreateBuffer(target gpu.BufferTarget, data []byte) (uint32, error) {
	id := d.mint()
	d.buffers[id] = &buffer{target: target, data: append([]byte(nil), data...)}
	return id, nil
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) {
	if int(target) < len(d.bound) {
		d.bound[target] = id
	}
}

func (d *Device) DeleteBuffer(id uint32) {
	delete(d.buffers, id)
	for i := range d.bound {
		if d.bound[i] == id {
			d.bound[i] = 0
		}
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor, pixels []byte) (uint32, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("soft: texture %dx%d: %w", desc.Width, desc.Height, gpu.ErrInvalidDataSize)
	}
	tex := &texture{desc: desc, pix: make([]byte, desc.ByteSize())}
	if pixels != nil {
		if len(pixels) != len(tex.pix) {
			return 0, fmt.Errorf("soft: texture data %d bytes, want %d: %w", len(pixels), len(tex.pix), gpu.ErrInvalidDataSize)
		}
		copy(tex.pix, pixels)
	}
	id := d.mint()
	d.textures[id] = tex
	return id, nil
}

func (d *Device) UpdateTexture(id uint32, pixels []byte) error {
	tex, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("soft: texture %d: %w", id, gpu.ErrInvalidID)
	}
	if len(pixels) != len(tex.pix) {
		return fmt.Errorf("soft: texture data %d bytes, want %d: %w", len(pixels), len(tex.pix), gpu.ErrInvalidDataSize)
	}
	copy(tex.pix, pixels)
	return nil
}

// ActiveTexture selects the texture unit. The software device has a single
// unit.
func (d *Device) ActiveTexture(unit int) {}

func (d *Device) BindTexture(id uint32) { d.texture = id }

func (d *Device) DeleteTexture(id uint32) {
	delete(d.textures, id)
	if d.texture == id {
		d.texture = 0
	}
}

func (d *Device) CreateFramebuffer() (uint32, error) {
	id := d.mint()
	d.framebuffers[id] = 0
	return id, nil
}

func (d *Device) AttachTexture(fb, tex uint32) error {
	if _, ok := d.framebuffers[fb]; !ok {
		return fmt.Errorf("soft: framebuffer %d: %w", fb, gpu.ErrInvalidID)
	}
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("soft: texture %d: %w", tex, gpu.ErrInvalidID)
	}
	if t.desc.Usage&gpu.TextureUsageRenderAttachment == 0 {
		return fmt.Errorf("soft: texture %d is not renderable: %w", tex, gpu.ErrFramebufferIncomplete)
	}
	d.framebuffers[fb] = tex
	return nil
}

func (d *Device) BindFramebuffer(id uint32) error {
	if id != 0 {
		tex, ok := d.framebuffers[id]
		if !ok {
			return fmt.Errorf("soft: framebuffer %d: %w", id, gpu.ErrInvalidID)
		}
		if _, ok := d.textures[tex]; !ok {
			return fmt.Errorf("soft: framebuffer %d: %w", id, gpu.ErrFramebufferIncomplete)
		}
	}
	d.framebuffer = id
	return nil
}

func (d *Device) DeleteFramebuffer(id uint32) {
	delete(d.framebuffers, id)
	if d.framebuffer == id {
		d.framebuffer = 0
	}
}

func (d *Device) EnableVertexAttribArray(location uint32) {
	if int(location) < len(d.attribs) {
		d.attribs[location].enabled = true
	}
}

func (d *Device) DisableVertexAttribArray(location uint32) {
	if int(location) < len(d.attribs) {
		d.attribs[location].enabled = false
	}
}

// VertexAttribPointer sources the attribute at location from the buffer
// currently bound to gpu.ArrayBuffer.
func (d *Device) VertexAttribPointer(location uint32, size, stride, offset int) {
	if int(location) >= len(d.attribs) {
		return
	}
	a := &d.attribs[location]
	a.size, a.stride, a.offset = size, stride, offset
	a.buffer = d.bound[gpu.ArrayBuffer]
}

func (d *Device) SetViewport(r image.Rectangle) { d.viewport = r }

func (d *Device) Enable(c gpu.Capability)  { d.setCapability(c, true) }
func (d *Device) Disable(c gpu.Capability) { d.setCapability(c, false) }

func (d *Device) setCapability(c gpu.Capability, on bool) {
	switch c {
	case gpu.DepthTest:
		d.depthTest = on
	case gpu.CullFace:
		d.cullFace = on
	case gpu.Blend:
		d.blend = on
	}
}

func (d *Device) SetLineWidth(width float32) { d.lineWidth = width }

// Clear fills the current framebuffer with c. Clearing the default
// framebuffer also resets its depth buffer.
func (d *Device) Clear(c gputypes.Color) {
	if d.framebuffer == 0 {
		d.target.Clear(c)
		d.target.ClearDepth()
		return
	}
	if s, ok := d.surface(); ok {
		px := premultipliedBytes(c)
		for i := 0; i+3 < len(s.pix); i += 4 {
			copy(s.pix[i:i+4], px[:])
		}
	}
}

// ReadPixels copies r, in y-up window coordinates of the current
// framebuffer, into an image whose top row is the top of r.
func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	s, ok := d.surface()
	if !ok {
		return nil, fmt.Errorf("soft: framebuffer %d: %w", d.framebuffer, gpu.ErrFramebufferIncomplete)
	}
	r = r.Intersect(image.Rect(0, 0, s.w, s.h))
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if s.flip {
		// The default framebuffer image is already top-down.
		xdraw.Draw(out, out.Bounds(), d.target.img, image.Pt(r.Min.X, s.h-r.Max.Y), xdraw.Src)
		return out, nil
	}
	for y := 0; y < r.Dy(); y++ {
		src := s.offset(r.Min.X, r.Max.Y-1-y)
		copy(out.Pix[y*out.Stride:y*out.Stride+4*r.Dx()], s.pix[src:src+4*r.Dx()])
	}
	return out, nil
}

// surface is the color (and depth) storage of a framebuffer.
type surface struct {
	w, h   int
	pix    []byte
	stride int
	flip   bool      // rows stored top-down
	depth  []float32 // nil without a depth buffer
}

func (s *surface) row(py int) int {
	if s.flip {
		return s.h - 1 - py
	}
	return py
}

func (s *surface) offset(px, py int) int { return s.row(py)*s.stride + px*4 }

func (d *Device) surface() (surface, bool) {
	if d.framebuffer == 0 {
		t := d.target
		return surface{w: t.Width(), h: t.Height(), pix: t.img.Pix, stride: t.img.Stride, flip: true, depth: t.depth}, true
	}
	tex, ok := d.textures[d.framebuffers[d.framebuffer]]
	if !ok {
		return surface{}, false
	}
	return surface{w: tex.desc.Width, h: tex.desc.Height, pix: tex.pix, stride: tex.desc.Width * 4}, true
}

// fetch reads attribute location for vertex i, defaulting missing
// components to (0, 0, 0, 1).
func (d *Device) fetch(location int, i int) [4]float32 {
	out := [4]float32{0, 0, 0, 1}
	a := &d.attribs[location]
	if !a.enabled {
		return out
	}
	b, ok := d.buffers[a.buffer]
	if !ok {
		return out
	}
	stride := a.stride
	if stride == 0 {
		stride = a.size * 4
	}
	base := a.offset + i*stride
	for k := 0; k < a.size && k < 4; k++ {
		off := base + 4*k
		if off < 0 || off+4 > len(b.data) {
			break
		}
		out[k] = math.Float32frombits(binary.LittleEndian.Uint32(b.data[off:]))
	}
	return out
}
