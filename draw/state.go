package draw

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
)

// MaxDrawElements is the number of primitives a DrawShapeState can hold.
const MaxDrawElements = 4

// VertexAttrib locates a float32 attribute inside an interleaved vertex.
type VertexAttrib struct {
	Size   int
	Offset int
}

// DrawElements is one indexed draw call and the style it draws with.
type DrawElements struct {
	Mode           gputypes.PrimitiveTopology
	Count          int
	Offset         int // bytes into the element buffer
	Color          gputypes.Color
	LineWidth      float32
	Texture        *gpu.Texture
	TexCoordMatrix geom.Matrix
	TexCoordAttrib VertexAttrib
}

// DrawShapeState is the GPU state a shape hands to its drawable. Style
// fields (Color, LineWidth, Texture, TexCoordMatrix, TexCoordAttrib) are
// captured into each primitive when DrawElements is called.
type DrawShapeState struct {
	Program       *gpu.BasicProgram
	VertexBuffer  *gpu.BufferObject
	ElementBuffer *gpu.BufferObject
	VertexOrigin  mgl64.Vec3
	VertexStride  int // bytes

	EnableCullFace  bool
	EnableDepthTest bool

	Color          gputypes.Color
	LineWidth      float32
	Texture        *gpu.Texture
	TexCoordMatrix geom.Matrix
	TexCoordAttrib VertexAttrib

	prims     [MaxDrawElements]DrawElements
	primCount int
}

// Reset restores the defaults and drops every primitive and reference.
func (s *DrawShapeState) Reset() {
	*s = DrawShapeState{
		EnableCullFace:  true,
		EnableDepthTest: true,
		Color:           gputypes.ColorWhite,
		LineWidth:       1,
		TexCoordMatrix:  geom.Identity(),
	}
}

// DrawElements records a primitive with the current style. It returns
// false when MaxDrawElements primitives are already recorded.
func (s *DrawShapeState) DrawElements(mode gputypes.PrimitiveTopology, count, offset int) bool {
	if s.primCount == MaxDrawElements {
		return false
	}
	s.prims[s.primCount] = DrawElements{
		Mode:           mode,
		Count:          count,
		Offset:         offset,
		Color:          s.Color,
		LineWidth:      s.LineWidth,
		Texture:        s.Texture,
		TexCoordMatrix: s.TexCoordMatrix,
		TexCoordAttrib: s.TexCoordAttrib,
	}
	s.primCount++
	return true
}

// Prims returns the recorded primitives in draw order.
func (s *DrawShapeState) Prims() []DrawElements { return s.prims[:s.primCount] }

// drawPrims issues every primitive of s. The vertex point attribute must
// already point into the bound vertex buffer.
func (s *DrawShapeState) drawPrims(dev gpu.Device, program *gpu.BasicProgram) {
	for i := range s.Prims() {
		prim := &s.prims[i]
		program.LoadColor(prim.Color)
		if prim.Texture != nil && prim.Texture.BindTexture(dev) {
			program.LoadTexCoordMatrix(prim.TexCoordMatrix)
			program.EnableTexture(true)
		} else {
			program.EnableTexture(false)
		}
		if prim.TexCoordAttrib.Size > 0 {
			dev.VertexAttribPointer(gpu.VertexTexCoordLocation, prim.TexCoordAttrib.Size, s.VertexStride, prim.TexCoordAttrib.Offset)
		}
		dev.SetLineWidth(prim.LineWidth)
		dev.DrawElements(prim.Mode, prim.Count, prim.Offset)
	}
}
