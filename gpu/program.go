package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/gputypes"
)

// Vertex attribute locations of the basic program.
const (
	VertexPointLocation    uint32 = 0
	VertexTexCoordLocation uint32 = 1
)

// Uniforms holds the basic program's uniform values as uploaded to the
// device.
type Uniforms struct {
	// MVP is the model-view-projection matrix, column major.
	MVP mgl32.Mat4

	// Color is the premultiplied RGBA color.
	Color [4]float32

	// TexCoordMatrix transforms texture coordinates, column major.
	TexCoordMatrix mgl32.Mat3

	EnableTexture  bool
	EnablePickMode bool
}

// DefaultUniforms returns identity matrices and opaque white.
func DefaultUniforms() Uniforms {
	return Uniforms{
		MVP:            mgl32.Ident4(),
		Color:          [4]float32{1, 1, 1, 1},
		TexCoordMatrix: mgl32.Ident3(),
	}
}

// BasicProgram is the program every shape draws with: a flat color,
// optionally modulated by a texture, with a pick mode that writes the
// color unmodified.
//
// The program is built on the device by the first UseProgram. Load methods
// upload immediately and apply to the current program, so they must follow
// UseProgram.
type BasicProgram struct {
	u     Uniforms
	color gputypes.Color
	tex   geom.Matrix

	id  uint32
	dev Device
}

// NewBasicProgram returns a program with default uniforms.
func NewBasicProgram() *BasicProgram {
	return &BasicProgram{u: DefaultUniforms(), color: gputypes.ColorWhite, tex: geom.Identity()}
}

// ID returns the device id, or zero before the first successful use.
func (p *BasicProgram) ID() uint32 { return p.id }

// Uniforms returns the values last uploaded.
func (p *BasicProgram) Uniforms() Uniforms { return p.u }

// UseProgram builds the program if needed and makes it current.
func (p *BasicProgram) UseProgram(dev Device) bool {
	if p.id == 0 {
		id, err := dev.CreateProgram(ProgramBasic)
		if err != nil {
			slogger().Warn("gpu: basic program unavailable", "err", err)
			return false
		}
		p.id, p.dev = id, dev
		slogger().Info("gpu: program created", "kind", ProgramBasic, "id", id)
		dev.UseProgram(id)
		dev.SetUniforms(&p.u)
		return true
	}
	dev.UseProgram(p.id)
	return true
}

func (p *BasicProgram) upload() {
	if p.dev != nil {
		p.dev.SetUniforms(&p.u)
	}
}

// LoadModelviewProjection uploads the model-view-projection matrix.
func (p *BasicProgram) LoadModelviewProjection(m mgl64.Mat4) {
	for i := range m {
		p.u.MVP[i] = float32(m[i])
	}
	p.upload()
}

// LoadColor uploads c, premultiplied by its alpha.
func (p *BasicProgram) LoadColor(c gputypes.Color) {
	if p.color == c {
		return
	}
	p.color = c
	pm := c.Premultiplied()
	p.u.Color = [4]float32{float32(pm.R), float32(pm.G), float32(pm.B), float32(pm.A)}
	p.upload()
}

// LoadTexCoordMatrix uploads the texture coordinate transform.
func (p *BasicProgram) LoadTexCoordMatrix(m geom.Matrix) {
	if p.tex == m {
		return
	}
	p.tex = m
	p.u.TexCoordMatrix = mgl32.Mat3(m.Columns())
	p.upload()
}

// EnableTexture toggles texture sampling.
func (p *BasicProgram) EnableTexture(enable bool) {
	if p.u.EnableTexture == enable {
		return
	}
	p.u.EnableTexture = enable
	p.upload()
}

// EnablePickMode toggles pick mode, in which fragments take the uniform
// color unmodified by blending.
func (p *BasicProgram) EnablePickMode(enable bool) {
	if p.u.EnablePickMode == enable {
		return
	}
	p.u.EnablePickMode = enable
	p.upload()
}

// Release deletes the device program.
func (p *BasicProgram) Release() {
	if p.id != 0 && p.dev != nil {
		p.dev.DeleteProgram(p.id)
	}
	p.id, p.dev = 0, nil
}
