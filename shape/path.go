package shape

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/gputypes"
)

// pathVertexStride is the number of floats per path vertex: x, y, z and
// the distance along the path.
const pathVertexStride = 4

// Path is a line through a list of positions, optionally extruded down to
// the ground as a curtain.
type Path struct {
	Base

	positions     []geom.Position
	extrude       bool
	followTerrain bool

	vertexArray      []float32
	interiorElements []uint16
	outlineElements  []uint16
	verticalElements []uint16

	prevPoint  mgl64.Vec3
	texCoord1d float64
	truncated  bool
}

// NewPath returns a great circle path through positions with the default
// attributes. It panics if positions is nil.
func NewPath(positions []geom.Position) *Path {
	if positions == nil {
		panic("shape: NewPath with nil positions")
	}
	return &Path{Base: newBase(), positions: positions}
}

// Kind returns KindPath.
func (p *Path) Kind() Kind { return KindPath }

// Positions returns the path's positions.
func (p *Path) Positions() []geom.Position { return p.positions }

// SetPositions replaces the path's positions. It panics if positions is
// nil.
func (p *Path) SetPositions(positions []geom.Position) {
	if positions == nil {
		panic("shape: SetPositions with nil positions")
	}
	p.positions = positions
	p.invalidate()
}

// Extrude reports whether the path is extruded to the ground.
func (p *Path) Extrude() bool { return p.extrude }

// SetExtrude sets whether the path is extruded to the ground. Surface
// paths ignore it.
func (p *Path) SetExtrude(extrude bool) {
	p.extrude = extrude
	p.invalidate()
}

// FollowTerrain reports whether a ground-clamped path is draped onto the
// terrain.
func (p *Path) FollowTerrain() bool { return p.followTerrain }

// SetFollowTerrain sets whether a ground-clamped path is draped onto the
// terrain.
func (p *Path) SetFollowTerrain(follow bool) {
	p.followTerrain = follow
	p.invalidate()
}

// VertexArray returns the assembled vertices.
func (p *Path) VertexArray() []float32 { return p.vertexArray }

// InteriorElements returns the triangle strip indices of the curtain.
func (p *Path) InteriorElements() []uint16 { return p.interiorElements }

// OutlineElements returns the line strip indices of the path itself.
func (p *Path) OutlineElements() []uint16 { return p.outlineElements }

// VerticalElements returns the line list indices joining each position to
// the ground.
func (p *Path) VerticalElements() []uint16 { return p.verticalElements }

// AssembleGeometry rebuilds the vertex and element arrays from the
// positions and starts a new geometry version.
func (p *Path) AssembleGeometry(rc *render.Context) {
	p.isSurfaceShape = p.altitudeMode == globe.ClampToGround && p.followTerrain
	p.vertexArray = p.vertexArray[:0]
	p.interiorElements = p.interiorElements[:0]
	p.outlineElements = p.outlineElements[:0]
	p.verticalElements = p.verticalElements[:0]
	p.truncated = false
	p.nextVersion()

	if len(p.positions) == 0 {
		p.boundingSector = geom.EmptySector()
		p.boundingBox = geom.UnitBox()
		return
	}

	begin := p.positions[0]
	p.addVertex(rc, begin.Latitude, begin.Longitude, begin.Altitude, false)
	for _, end := range p.positions[1:] {
		p.addIntermediateVertices(rc, begin, end)
		p.addVertex(rc, end.Latitude, end.Longitude, end.Altitude, false)
		begin = end
	}

	if p.truncated {
		rc.Logger().Warn("shape: path truncated at the vertex limit",
			"positions", len(p.positions), "vertices", len(p.vertexArray)/pathVertexStride)
	}

	if p.isSurfaceShape {
		p.boundingSector = geom.EmptySector()
		p.boundingSector.UnionArray(p.vertexArray, pathVertexStride)
		p.boundingSector.Translate(p.vertexOrigin[1], p.vertexOrigin[0])
		p.boundingBox = geom.UnitBox()
	} else {
		p.boundingBox.SetToPoints(p.vertexArray, pathVertexStride)
		p.boundingBox.Translate(p.vertexOrigin)
		p.boundingSector = geom.EmptySector()
	}
}

func (p *Path) addIntermediateVertices(rc *render.Context, begin, end geom.Position) {
	p.intermediatePoints(begin, end, func(latitude, longitude, altitude float64) {
		p.addVertex(rc, latitude, longitude, altitude, true)
	})
}

func (p *Path) addVertex(rc *render.Context, latitude, longitude, altitude float64, intermediate bool) {
	vertex := len(p.vertexArray) / pathVertexStride
	need := 1
	if p.extrude && !p.isSurfaceShape {
		need = 2
	}
	if vertex+need > maxVertices {
		p.truncated = true
		return
	}

	point := rc.GeographicToCartesian(latitude, longitude, altitude, p.altitudeMode)
	if vertex == 0 {
		if p.isSurfaceShape {
			p.vertexOrigin = mgl64.Vec3{longitude, latitude, 0}
		} else {
			p.vertexOrigin = point
		}
		p.texCoord1d = 0
	} else {
		p.texCoord1d += point.Sub(p.prevPoint).Len()
	}
	p.prevPoint = point

	if p.isSurfaceShape {
		p.vertexArray = append(p.vertexArray,
			float32(longitude-p.vertexOrigin[0]),
			float32(latitude-p.vertexOrigin[1]),
			0,
			float32(p.texCoord1d))
		p.outlineElements = append(p.outlineElements, uint16(vertex))
		return
	}

	p.vertexArray = appendRelative(p.vertexArray, point, p.vertexOrigin, p.texCoord1d)
	p.outlineElements = append(p.outlineElements, uint16(vertex))
	if !p.extrude {
		return
	}

	ground := rc.GeographicToCartesian(latitude, longitude, 0, globe.ClampToGround)
	p.vertexArray = appendRelative(p.vertexArray, ground, p.vertexOrigin, 0)
	p.interiorElements = append(p.interiorElements, uint16(vertex), uint16(vertex+1))
	if !intermediate {
		p.verticalElements = append(p.verticalElements, uint16(vertex), uint16(vertex+1))
	}
}

func appendRelative(array []float32, point, origin mgl64.Vec3, texCoord float64) []float32 {
	return append(array,
		float32(point[0]-origin[0]),
		float32(point[1]-origin[1]),
		float32(point[2]-origin[2]),
		float32(texCoord))
}

// SubmitDrawable offers the path to rc as a surface drawable or a 3D
// drawable.
func (p *Path) SubmitDrawable(rc *render.Context) {
	if p.dirty {
		p.AssembleGeometry(rc)
	}
	attrs := p.active
	if attrs == nil {
		attrs = p.Attributes
	}
	if attrs == nil || len(p.vertexArray) == 0 {
		return
	}

	var (
		d              draw.Drawable
		state          *draw.DrawShapeState
		cameraDistance float64
	)
	if p.isSurfaceShape {
		sd := draw.ObtainSurfaceShape(rc.SurfaceShapePool())
		sd.Sector = p.boundingSector
		d, state = sd, &sd.State
		cameraDistance = cameraDistanceGeographic(rc, p.boundingSector)
	} else {
		sd := draw.ObtainShape(rc.ShapePool())
		d, state = sd, &sd.State
		cameraDistance = cameraDistanceCartesian(rc, p.vertexArray, pathVertexStride, p.vertexOrigin)
	}

	state.Program = rc.BasicProgram()
	state.VertexBuffer = p.vertexBuffer(rc)
	state.ElementBuffer = p.elementBuffer(rc)
	state.VertexOrigin = p.vertexOrigin
	state.VertexStride = pathVertexStride * 4
	state.EnableCullFace = false
	state.EnableDepthTest = attrs.DepthTest

	interiorBytes := 2 * len(p.interiorElements)
	outlineBytes := 2 * len(p.outlineElements)

	state.TexCoordAttrib = draw.VertexAttrib{Size: 1, Offset: 12}
	if attrs.DrawOutline && attrs.OutlineImage != nil {
		if tex := rc.RetrieveTexture(attrs.OutlineImage); tex != nil {
			state.Texture = tex
			state.TexCoordMatrix = repeatingTexCoordTransform(tex, rc.PixelSizeAtDistance(cameraDistance))
		}
	}

	if attrs.DrawOutline {
		state.Color = p.color(rc, attrs.OutlineColor)
		state.LineWidth = attrs.OutlineWidth
		if p.isSurfaceShape {
			state.LineWidth += 0.5
		}
		state.DrawElements(gputypes.PrimitiveTopologyLineStrip, len(p.outlineElements), interiorBytes)
	}
	state.Texture = nil

	if attrs.DrawOutline && attrs.DrawVerticals && p.extrude && len(p.verticalElements) > 0 {
		state.Color = p.color(rc, attrs.OutlineColor)
		state.LineWidth = attrs.OutlineWidth
		state.DrawElements(gputypes.PrimitiveTopologyLineList, len(p.verticalElements), interiorBytes+outlineBytes)
	}

	if attrs.DrawInterior && p.extrude && len(p.interiorElements) > 0 {
		state.Color = p.color(rc, attrs.InteriorColor)
		state.DrawElements(gputypes.PrimitiveTopologyTriangleStrip, len(p.interiorElements), 0)
	}

	if len(state.Prims()) == 0 {
		d.Recycle()
		return
	}
	if p.isSurfaceShape {
		rc.OfferSurfaceDrawable(d, 0)
	} else {
		rc.OfferShapeDrawable(d, cameraDistance)
	}
}

func (p *Path) vertexBuffer(rc *render.Context) *gpu.BufferObject {
	key := p.key(render.SlotVertexBuffer)
	if b := rc.GetBufferObject(key); b != nil {
		return b
	}
	return rc.PutBufferObject(key, gpu.NewVertexBuffer(p.vertexArray))
}

func (p *Path) elementBuffer(rc *render.Context) *gpu.BufferObject {
	key := p.key(render.SlotElementBuffer)
	if b := rc.GetBufferObject(key); b != nil {
		return b
	}
	elements := make([]uint16, 0, len(p.interiorElements)+len(p.outlineElements)+len(p.verticalElements))
	elements = append(elements, p.interiorElements...)
	elements = append(elements, p.outlineElements...)
	elements = append(elements, p.verticalElements...)
	return rc.PutBufferObject(key, gpu.NewElementBuffer(elements))
}
