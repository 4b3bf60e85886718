package draw

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/gpu"
)

// ShapePool is the arena DrawableShape values come from.
type ShapePool = Pool[DrawableShape, *DrawableShape]

// DrawableShape draws a shape's primitives directly into the current
// framebuffer.
type DrawableShape struct {
	State DrawShapeState

	pool   *ShapePool
	handle Handle
}

// ObtainShape takes a drawable from pool with its state reset.
func ObtainShape(pool *ShapePool) *DrawableShape {
	h, d := pool.Obtain()
	d.State.Reset()
	d.pool, d.handle = pool, h
	return d
}

// Reset clears the drawable for reuse.
func (d *DrawableShape) Reset() {
	d.State.Reset()
	d.pool, d.handle = nil, 0
}

// Recycle returns the drawable to its pool.
func (d *DrawableShape) Recycle() {
	if d.pool != nil {
		d.pool.Recycle(d.handle)
	}
}

// Kind returns KindShape.
func (d *DrawableShape) Kind() Kind { return KindShape }

// Draw issues the shape's primitives. Depth testing and face culling are
// disabled when the state asks for it and restored afterwards.
func (d *DrawableShape) Draw(dc *Context) {
	s := &d.State
	if s.Program == nil || s.VertexBuffer == nil || s.ElementBuffer == nil {
		return
	}
	dev := dc.Device
	if !s.Program.UseProgram(dev) || !s.VertexBuffer.BindBuffer(dev) || !s.ElementBuffer.BindBuffer(dev) {
		return
	}

	s.Program.EnablePickMode(dc.PickMode)
	s.Program.EnableTexture(false)
	s.Program.LoadModelviewProjection(dc.ModelviewProjection.Mul4(mgl64.Translate3D(s.VertexOrigin[0], s.VertexOrigin[1], s.VertexOrigin[2])))

	if !s.EnableDepthTest {
		dev.Disable(gpu.DepthTest)
	}
	if !s.EnableCullFace {
		dev.Disable(gpu.CullFace)
	}
	dev.EnableVertexAttribArray(gpu.VertexTexCoordLocation)
	defer func() {
		if !s.EnableDepthTest {
			dev.Enable(gpu.DepthTest)
		}
		if !s.EnableCullFace {
			dev.Enable(gpu.CullFace)
		}
		dev.SetLineWidth(1)
		dev.DisableVertexAttribArray(gpu.VertexTexCoordLocation)
	}()

	dev.VertexAttribPointer(gpu.VertexPointLocation, 3, s.VertexStride, 0)
	s.drawPrims(dev, s.Program)
	dc.Stats.ShapesDrawn++
}
