package draw

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/gpu"
)

// Terrain is a tessellated terrain tile that surface shapes are composited
// onto.
type Terrain interface {
	// Sector returns the tile's geographic extent.
	Sector() geom.Sector

	// VertexOrigin returns the Cartesian origin the tile's vertex points
	// are relative to.
	VertexOrigin() mgl64.Vec3

	// UseVertexPointAttrib points the given attribute location at the
	// tile's vertex points.
	UseVertexPointAttrib(dev gpu.Device, location uint32) bool

	// UseVertexTexCoordAttrib points the given attribute location at the
	// tile's texture coordinates, spanning [0,1] across the sector.
	UseVertexTexCoordAttrib(dev gpu.Device, location uint32) bool

	// DrawTriangles draws the tile's surface.
	DrawTriangles(dev gpu.Device)
}
