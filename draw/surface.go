package draw

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
)

// SurfaceShapePool is the arena DrawableSurfaceShape values come from.
type SurfaceShapePool = Pool[DrawableSurfaceShape, *DrawableSurfaceShape]

// DrawableSurfaceShape draws a shape that conforms to the terrain. Its
// vertices are geographic: x is longitude, y is latitude, both in degrees
// relative to State.VertexOrigin.
type DrawableSurfaceShape struct {
	State  DrawShapeState
	Sector geom.Sector

	pool   *SurfaceShapePool
	handle Handle
}

// ObtainSurfaceShape takes a drawable from pool with its state reset.
func ObtainSurfaceShape(pool *SurfaceShapePool) *DrawableSurfaceShape {
	h, d := pool.Obtain()
	d.State.Reset()
	d.Sector = geom.EmptySector()
	d.pool, d.handle = pool, h
	return d
}

// Reset clears the drawable for reuse.
func (d *DrawableSurfaceShape) Reset() {
	d.State.Reset()
	d.Sector = geom.EmptySector()
	d.pool, d.handle = nil, 0
}

// Recycle returns the drawable to its pool.
func (d *DrawableSurfaceShape) Recycle() {
	if d.pool != nil {
		d.pool.Recycle(d.handle)
	}
}

// Kind returns KindSurfaceShape.
func (d *DrawableSurfaceShape) Kind() Kind { return KindSurfaceShape }

// Draw consumes every surface shape queued directly after d and draws the
// batch onto each terrain tile: shapes touching the tile are rendered into
// the scratch framebuffer, which is then textured onto the tile.
func (d *DrawableSurfaceShape) Draw(dc *Context) {
	program := d.State.Program
	if program == nil {
		return
	}
	dev := dc.Device
	if !program.UseProgram(dev) {
		return
	}

	dev.ActiveTexture(0)
	dev.EnableVertexAttribArray(gpu.VertexTexCoordLocation)

	batch := dc.ScratchList()
	defer func() {
		batch.Clear()
		dev.DisableVertexAttribArray(gpu.VertexTexCoordLocation)
	}()

	batch.Add(d)
	for next := dc.PeekDrawable(); next != nil && next.Kind() == d.Kind(); next = dc.PeekDrawable() {
		batch.Add(dc.PollDrawable())
	}
	dc.Stats.SurfaceBatches++
	dc.Stats.SurfaceShapesDrawn += batch.Len()

	for _, terrain := range dc.Terrain {
		if terrain.Sector().IsEmpty() {
			continue
		}
		if d.drawShapesToTexture(dc, terrain) > 0 {
			d.drawTextureToTerrain(dc, terrain)
		}
	}
}

// TileMatrix maps the geographic rectangle of sector onto normalized
// device coordinates, with the minimum corner at (-1,-1) and the maximum
// corner at (1,1).
func TileMatrix(sector geom.Sector) mgl64.Mat4 {
	return mgl64.Translate3D(-1, -1, 0).
		Mul4(mgl64.Scale3D(2/sector.DeltaLongitude(), 2/sector.DeltaLatitude(), 1)).
		Mul4(mgl64.Translate3D(-sector.MinLongitude, -sector.MinLatitude, 0))
}

func (d *DrawableSurfaceShape) drawShapesToTexture(dc *Context, terrain Terrain) int {
	dev := dc.Device
	program := d.State.Program
	fb := dc.ScratchFramebuffer()

	defer func() {
		if err := dev.BindFramebuffer(0); err != nil {
			dc.log().Warn("draw: restoring default framebuffer failed", "err", err)
		}
		dev.SetViewport(dc.Viewport)
		// Drawables run with depth testing on; DrawableShape restores
		// the same state after a shape disables it.
		dev.Enable(gpu.DepthTest)
		dev.SetLineWidth(1)
	}()

	if !fb.BindFramebuffer(dev) {
		dc.Stats.TexturePassesSkipped++
		return 0
	}

	tex := fb.ColorAttachment()
	dev.SetViewport(image.Rect(0, 0, tex.Width(), tex.Height()))
	dev.Clear(gputypes.ColorTransparent)
	dev.Disable(gpu.DepthTest)
	program.EnablePickMode(dc.PickMode)

	tileSector := terrain.Sector()
	tileMVP := TileMatrix(tileSector)
	batch := dc.ScratchList()
	count := 0
	for i := 0; i < batch.Len(); i++ {
		shape, ok := batch.At(i).(*DrawableSurfaceShape)
		if !ok || !shape.Sector.IntersectsOrNextTo(tileSector) {
			continue
		}
		s := &shape.State
		if s.VertexBuffer == nil || !s.VertexBuffer.BindBuffer(dev) {
			continue
		}
		if s.ElementBuffer == nil || !s.ElementBuffer.BindBuffer(dev) {
			continue
		}
		program.LoadModelviewProjection(tileMVP.Mul4(mgl64.Translate3D(s.VertexOrigin[0], s.VertexOrigin[1], s.VertexOrigin[2])))
		dev.VertexAttribPointer(gpu.VertexPointLocation, 3, s.VertexStride, 0)

		// The batch draws with the first shape's program.
		s.drawPrims(dev, program)
		count++
	}
	dc.Stats.TexturePasses++
	return count
}

func (d *DrawableSurfaceShape) drawTextureToTerrain(dc *Context, terrain Terrain) {
	dev := dc.Device
	program := d.State.Program

	if !terrain.UseVertexPointAttrib(dev, gpu.VertexPointLocation) {
		return
	}
	if !terrain.UseVertexTexCoordAttrib(dev, gpu.VertexTexCoordLocation) {
		return
	}
	if !dc.ScratchFramebuffer().ColorAttachment().BindTexture(dev) {
		return
	}

	program.EnablePickMode(false)
	program.EnableTexture(true)
	program.LoadTexCoordMatrix(geom.Identity())
	program.LoadColor(gputypes.ColorWhite)
	origin := terrain.VertexOrigin()
	program.LoadModelviewProjection(dc.ModelviewProjection.Mul4(mgl64.Translate3D(origin[0], origin[1], origin[2])))
	terrain.DrawTriangles(dev)
	dc.Stats.TilesComposited++
}
