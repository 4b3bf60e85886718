//go:build !nogpu

package gles

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/internal/shader"
	"github.com/gogpu/gputypes"
)

// ErrCompile is returned by CreateProgram when a shader fails to compile
// or link.
var ErrCompile = errors.New("gles: shader compilation failed")

// Device draws through the OpenGL context current on the calling thread.
type Device struct {
	vao      uint32
	ubo      uint32
	textures map[uint32]gpu.TextureDescriptor
	program  shader.Program
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL entry points for the current context and prepares the
// state the basic program needs. Depth testing, face culling and
// premultiplied blending start disabled, as on a fresh context.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gles: init: %w", err)
	}
	prog, err := shader.Basic()
	if err != nil {
		return nil, err
	}
	d := &Device{textures: make(map[uint32]gpu.TextureDescriptor), program: prog}

	// Core profiles draw nothing without a bound vertex array object.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, d.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, shader.UniformSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, shader.UniformBinding, d.ubo)

	gl.DepthFunc(gl.LEQUAL)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	gpu.Logger().Info("gles: device created",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return d, nil
}

// Release deletes the device's own GL objects.
func (d *Device) Release() {
	gl.DeleteBuffers(1, &d.ubo)
	gl.DeleteVertexArrays(1, &d.vao)
	d.ubo, d.vao = 0, 0
}

func compileShader(source string, kind uint32) (uint32, error) {
	s := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csources, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(s, logLength, nil, gl.Str(log))
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%w: %s", ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return s, nil
}

// CreateProgram compiles and links the program of kind.
func (d *Device) CreateProgram(kind gpu.ProgramKind) (uint32, error) {
	if kind != gpu.ProgramBasic {
		return 0, fmt.Errorf("gles: %v: %w", kind, gpu.ErrUnknownProgram)
	}
	vs, err := compileShader(d.program.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(d.program.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	p := gl.CreateProgram()
	gl.AttachShader(p, vs)
	gl.AttachShader(p, fs)
	gl.LinkProgram(p)

	var status int32
	gl.GetProgramiv(p, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(p, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(p, logLength, nil, gl.Str(log))
		gl.DeleteProgram(p)
		return 0, fmt.Errorf("%w: link: %s", ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return p, nil
}

func (d *Device) UseProgram(id uint32) { gl.UseProgram(id) }

// SetUniforms uploads u to the uniform block in std140 layout.
func (d *Device) SetUniforms(u *gpu.Uniforms) {
	packed := shader.Pack(u)
	gl.BindBuffer(gl.UNIFORM_BUFFER, d.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, shader.UniformSize, unsafe.Pointer(&packed[0]))
}

func (d *Device) DeleteProgram(id uint32) { gl.DeleteProgram(id) }

func bufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

// CreateBuffer uploads data into a static buffer.
func (d *Device) CreateBuffer(target gpu.BufferTarget, data []byte) (uint32, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("gles: glGenBuffers failed: error 0x%x", gl.GetError())
	}
	t := bufferTarget(target)
	gl.BindBuffer(t, id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(t, len(data), ptr, gl.STATIC_DRAW)
	return id, nil
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) { gl.BindBuffer(bufferTarget(target), id) }

func (d *Device) DeleteBuffer(id uint32) { gl.DeleteBuffers(1, &id) }

// CreateTexture allocates an RGBA8 texture. Render attachments clamp at
// their edges; sampled textures repeat.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor, pixels []byte) (uint32, error) {
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return 0, fmt.Errorf("gles: %v: %w", desc.Format, gpu.ErrUnsupportedFormat)
	}
	if pixels != nil && len(pixels) != desc.ByteSize() {
		return 0, fmt.Errorf("gles: %d bytes for %dx%d: %w", len(pixels), desc.Width, desc.Height, gpu.ErrInvalidDataSize)
	}
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("gles: glGenTextures failed: error 0x%x", gl.GetError())
	}
	gl.BindTexture(gl.TEXTURE_2D, id)

	wrap := int32(gl.REPEAT)
	if desc.Usage&gpu.TextureUsageRenderAttachment != 0 {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	d.textures[id] = desc
	return id, nil
}

// UpdateTexture replaces every pixel of texture id.
func (d *Device) UpdateTexture(id uint32, pixels []byte) error {
	desc, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("gles: texture %d: %w", id, gpu.ErrInvalidID)
	}
	if len(pixels) != desc.ByteSize() {
		return fmt.Errorf("gles: %d bytes for %dx%d: %w", len(pixels), desc.Width, desc.Height, gpu.ErrInvalidDataSize)
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(desc.Width), int32(desc.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return nil
}

func (d *Device) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (d *Device) BindTexture(id uint32) { gl.BindTexture(gl.TEXTURE_2D, id) }

func (d *Device) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
	delete(d.textures, id)
}

func (d *Device) CreateFramebuffer() (uint32, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("gles: glGenFramebuffers failed: error 0x%x", gl.GetError())
	}
	return id, nil
}

// AttachTexture attaches tex as the color buffer of fb and leaves fb bound.
func (d *Device) AttachTexture(fb, tex uint32) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	return checkFramebuffer(fb)
}

// BindFramebuffer makes fb the draw target.
func (d *Device) BindFramebuffer(id uint32) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, id)
	if id == 0 {
		return nil
	}
	return checkFramebuffer(id)
}

func checkFramebuffer(id uint32) error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("gles: framebuffer %d status 0x%x: %w", id, status, gpu.ErrFramebufferIncomplete)
	}
	return nil
}

func (d *Device) DeleteFramebuffer(id uint32) { gl.DeleteFramebuffers(1, &id) }

func (d *Device) EnableVertexAttribArray(location uint32) { gl.EnableVertexAttribArray(location) }

func (d *Device) DisableVertexAttribArray(location uint32) { gl.DisableVertexAttribArray(location) }

func (d *Device) VertexAttribPointer(location uint32, size, stride, offset int) {
	gl.VertexAttribPointerWithOffset(location, int32(size), gl.FLOAT, false, int32(stride), uintptr(offset))
}

var topologies = map[gputypes.PrimitiveTopology]uint32{
	gputypes.PrimitiveTopologyPointList:     gl.POINTS,
	gputypes.PrimitiveTopologyLineList:      gl.LINES,
	gputypes.PrimitiveTopologyLineStrip:     gl.LINE_STRIP,
	gputypes.PrimitiveTopologyTriangleList:  gl.TRIANGLES,
	gputypes.PrimitiveTopologyTriangleStrip: gl.TRIANGLE_STRIP,
}

func (d *Device) DrawElements(mode gputypes.PrimitiveTopology, count, offset int) {
	m, ok := topologies[mode]
	if !ok || count <= 0 {
		return
	}
	gl.DrawElementsWithOffset(m, int32(count), gl.UNSIGNED_SHORT, uintptr(offset))
}

func (d *Device) SetViewport(r image.Rectangle) {
	gl.Viewport(int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()))
}

var capabilities = map[gpu.Capability]uint32{
	gpu.DepthTest: gl.DEPTH_TEST,
	gpu.CullFace:  gl.CULL_FACE,
	gpu.Blend:     gl.BLEND,
}

func (d *Device) Enable(c gpu.Capability) {
	if gc, ok := capabilities[c]; ok {
		gl.Enable(gc)
	}
}

func (d *Device) Disable(c gpu.Capability) {
	if gc, ok := capabilities[c]; ok {
		gl.Disable(gc)
	}
}

func (d *Device) SetLineWidth(width float32) { gl.LineWidth(width) }

// Clear fills the color buffer with c, premultiplied, and resets depth.
func (d *Device) Clear(c gputypes.Color) {
	pm := c.Premultiplied()
	gl.ClearColor(float32(pm.R), float32(pm.G), float32(pm.B), float32(pm.A))
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ReadPixels reads r, in window coordinates, top row first.
func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return image.NewRGBA(image.Rectangle{}), nil
	}
	w, h := r.Dx(), r.Dy()
	buf := make([]byte, 4*w*h)
	gl.ReadPixels(int32(r.Min.X), int32(r.Min.Y), int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("gles: glReadPixels: error 0x%x", code)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+4*w], buf[(h-1-y)*4*w:(h-y)*4*w])
	}
	return out, nil
}
