package draw

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
)

// pickBackground is the color terrain draws with in pick mode. Its
// identifier is zero, which never names a picked object.
var pickBackground = gputypes.NewColor(0, 0, 0, 1)

// DrawableTerrain fills every terrain tile of the frame with a flat color,
// writing the depth that surface and 3D shapes are tested against. It is
// owned by its creator and not pooled.
type DrawableTerrain struct {
	Program *gpu.BasicProgram
	Color   gputypes.Color
}

// Recycle does nothing.
func (d *DrawableTerrain) Recycle() {}

// Kind returns KindTerrain.
func (d *DrawableTerrain) Kind() Kind { return KindTerrain }

// Draw draws each tile of dc.Terrain.
func (d *DrawableTerrain) Draw(dc *Context) {
	if d.Program == nil {
		return
	}
	dev := dc.Device
	if !d.Program.UseProgram(dev) {
		return
	}
	d.Program.EnablePickMode(dc.PickMode)
	d.Program.EnableTexture(false)
	if dc.PickMode {
		d.Program.LoadColor(pickBackground)
	} else {
		d.Program.LoadColor(d.Color)
	}
	for _, terrain := range dc.Terrain {
		if !terrain.UseVertexPointAttrib(dev, gpu.VertexPointLocation) {
			continue
		}
		origin := terrain.VertexOrigin()
		d.Program.LoadModelviewProjection(dc.ModelviewProjection.Mul4(mgl64.Translate3D(origin[0], origin[1], origin[2])))
		terrain.DrawTriangles(dev)
		dc.Stats.TerrainTilesDrawn++
	}
}
