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

// polygonVertexStride is the number of floats per polygon vertex: x, y
// and z.
const polygonVertexStride = 3

// Polygon is an area bounded by an outer boundary with optional holes,
// optionally extruded down to the ground. Boundaries are closed
// implicitly and may wind either way. Polygons are untextured: the
// interior and outline images of their attributes are ignored.
type Polygon struct {
	Base

	boundaries    [][]geom.Position
	extrude       bool
	followTerrain bool

	vertexArray      []float32
	interiorElements []uint16
	outlineElements  []uint16
	verticalElements []uint16

	// tessPoints holds each vertex's (longitude, latitude), indexed by
	// vertex id.
	tessPoints []mgl64.Vec2
	rings      [][]int
	truncated  bool
}

// NewPolygon returns a polygon whose outer boundary is boundary, with the
// default attributes. It panics if boundary is nil.
func NewPolygon(boundary []geom.Position) *Polygon {
	if boundary == nil {
		panic("shape: NewPolygon with nil boundary")
	}
	return &Polygon{Base: newBase(), boundaries: [][]geom.Position{boundary}}
}

// Kind returns KindPolygon.
func (p *Polygon) Kind() Kind { return KindPolygon }

// BoundaryCount returns the number of boundaries. The first is the outer
// boundary, the rest are holes.
func (p *Polygon) BoundaryCount() int { return len(p.boundaries) }

// Boundary returns boundary i.
func (p *Polygon) Boundary(i int) []geom.Position { return p.boundaries[i] }

// SetBoundary replaces boundary i. It panics if positions is nil.
func (p *Polygon) SetBoundary(i int, positions []geom.Position) {
	if positions == nil {
		panic("shape: SetBoundary with nil positions")
	}
	p.boundaries[i] = positions
	p.invalidate()
}

// AddBoundary appends a boundary. On a polygon with an outer boundary it
// adds a hole. It panics if positions is nil.
func (p *Polygon) AddBoundary(positions []geom.Position) {
	if positions == nil {
		panic("shape: AddBoundary with nil positions")
	}
	p.boundaries = append(p.boundaries, positions)
	p.invalidate()
}

// RemoveBoundary removes and returns boundary i.
func (p *Polygon) RemoveBoundary(i int) []geom.Position {
	removed := p.boundaries[i]
	p.boundaries = append(p.boundaries[:i], p.boundaries[i+1:]...)
	p.invalidate()
	return removed
}

// ClearBoundaries removes every boundary.
func (p *Polygon) ClearBoundaries() {
	p.boundaries = p.boundaries[:0]
	p.invalidate()
}

// Extrude reports whether the polygon is extruded to the ground.
func (p *Polygon) Extrude() bool { return p.extrude }

// SetExtrude sets whether the polygon is extruded to the ground. Surface
// polygons ignore it.
func (p *Polygon) SetExtrude(extrude bool) {
	p.extrude = extrude
	p.invalidate()
}

// FollowTerrain reports whether a ground-clamped polygon is draped onto
// the terrain.
func (p *Polygon) FollowTerrain() bool { return p.followTerrain }

// SetFollowTerrain sets whether a ground-clamped polygon is draped onto
// the terrain.
func (p *Polygon) SetFollowTerrain(follow bool) {
	p.followTerrain = follow
	p.invalidate()
}

// VertexArray returns the assembled vertices.
func (p *Polygon) VertexArray() []float32 { return p.vertexArray }

// InteriorElements returns the triangle list indices of the top surface
// followed, for extruded polygons, by the side walls.
func (p *Polygon) InteriorElements() []uint16 { return p.interiorElements }

// OutlineElements returns the line list indices of every boundary.
func (p *Polygon) OutlineElements() []uint16 { return p.outlineElements }

// VerticalElements returns the line list indices joining each boundary
// position to the ground.
func (p *Polygon) VerticalElements() []uint16 { return p.verticalElements }

// AssembleGeometry rebuilds the vertex and element arrays from the
// boundaries and starts a new geometry version.
func (p *Polygon) AssembleGeometry(rc *render.Context) {
	p.isSurfaceShape = p.altitudeMode == globe.ClampToGround && p.followTerrain
	p.vertexArray = p.vertexArray[:0]
	p.interiorElements = p.interiorElements[:0]
	p.outlineElements = p.outlineElements[:0]
	p.verticalElements = p.verticalElements[:0]
	p.tessPoints = p.tessPoints[:0]
	p.rings = p.rings[:0]
	p.truncated = false
	p.nextVersion()

	need := 1
	if p.extrude && !p.isSurfaceShape {
		need = 2
	}
	perEdge := 1
	if p.pathType != Linear && p.maxIntermediatePoints > 0 {
		perEdge += p.maxIntermediatePoints
	}

	for _, boundary := range p.boundaries {
		if n := len(boundary); n > 1 && boundary[0] == boundary[n-1] {
			boundary = boundary[:n-1]
		}
		if len(boundary) < 3 {
			continue
		}
		if len(p.tessPoints)+len(boundary)*perEdge*need > maxVertices {
			p.truncated = true
			break
		}

		var ring []int
		for i, begin := range boundary {
			ring = append(ring, p.addVertex(rc, begin.Latitude, begin.Longitude, begin.Altitude, false))
			end := boundary[(i+1)%len(boundary)]
			p.intermediatePoints(begin, end, func(latitude, longitude, altitude float64) {
				ring = append(ring, p.addVertex(rc, latitude, longitude, altitude, true))
			})
		}
		p.rings = append(p.rings, ring)
	}

	if p.truncated {
		rc.Logger().Warn("shape: polygon truncated at the vertex limit",
			"boundaries", len(p.boundaries), "vertices", len(p.tessPoints))
	}

	if len(p.rings) == 0 {
		p.boundingSector = geom.EmptySector()
		p.boundingBox = geom.UnitBox()
		return
	}

	for _, ring := range p.rings {
		for i, v := range ring {
			p.outlineElements = append(p.outlineElements, uint16(v), uint16(ring[(i+1)%len(ring)]))
		}
	}

	orientRings(p.tessPoints, p.rings)
	var ok bool
	if p.interiorElements, ok = triangulate(p.tessPoints, p.rings, p.interiorElements); !ok {
		rc.Logger().Warn("shape: polygon interior partially triangulated",
			"boundaries", len(p.rings), "triangles", len(p.interiorElements)/3)
	}

	if need == 2 {
		// Top vertex v is followed by its ground vertex v+1; with the
		// interior left of every ring edge the walls face outward.
		for _, ring := range p.rings {
			for i, a := range ring {
				b := ring[(i+1)%len(ring)]
				p.interiorElements = append(p.interiorElements,
					uint16(a), uint16(a+1), uint16(b),
					uint16(b), uint16(a+1), uint16(b+1))
			}
		}
	}

	if p.isSurfaceShape {
		p.boundingSector = geom.EmptySector()
		p.boundingSector.UnionArray(p.vertexArray, polygonVertexStride)
		p.boundingSector.Translate(p.vertexOrigin[1], p.vertexOrigin[0])
		p.boundingBox = geom.UnitBox()
	} else {
		p.boundingBox.SetToPoints(p.vertexArray, polygonVertexStride)
		p.boundingBox.Translate(p.vertexOrigin)
		p.boundingSector = geom.EmptySector()
	}
}

// addVertex appends a top vertex, and its ground vertex when extruded, and
// returns the top vertex id.
func (p *Polygon) addVertex(rc *render.Context, latitude, longitude, altitude float64, intermediate bool) int {
	vertex := len(p.tessPoints)
	point := rc.GeographicToCartesian(latitude, longitude, altitude, p.altitudeMode)
	if vertex == 0 {
		if p.isSurfaceShape {
			p.vertexOrigin = mgl64.Vec3{longitude, latitude, 0}
		} else {
			p.vertexOrigin = point
		}
	}
	p.tessPoints = append(p.tessPoints, mgl64.Vec2{longitude, latitude})

	if p.isSurfaceShape {
		p.vertexArray = append(p.vertexArray,
			float32(longitude-p.vertexOrigin[0]),
			float32(latitude-p.vertexOrigin[1]),
			0)
		return vertex
	}

	p.vertexArray = appendPoint(p.vertexArray, point, p.vertexOrigin)
	if !p.extrude {
		return vertex
	}

	ground := rc.GeographicToCartesian(latitude, longitude, 0, globe.ClampToGround)
	p.vertexArray = appendPoint(p.vertexArray, ground, p.vertexOrigin)
	p.tessPoints = append(p.tessPoints, mgl64.Vec2{longitude, latitude})
	if !intermediate {
		p.verticalElements = append(p.verticalElements, uint16(vertex), uint16(vertex+1))
	}
	return vertex
}

func appendPoint(array []float32, point, origin mgl64.Vec3) []float32 {
	return append(array,
		float32(point[0]-origin[0]),
		float32(point[1]-origin[1]),
		float32(point[2]-origin[2]))
}

// SubmitDrawable offers the polygon to rc as a surface drawable or a 3D
// drawable.
func (p *Polygon) SubmitDrawable(rc *render.Context) {
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
		cameraDistance = cameraDistanceCartesian(rc, p.vertexArray, polygonVertexStride, p.vertexOrigin)
	}

	state.Program = rc.BasicProgram()
	state.VertexBuffer = p.vertexBuffer(rc)
	state.ElementBuffer = p.elementBuffer(rc)
	state.VertexOrigin = p.vertexOrigin
	state.VertexStride = polygonVertexStride * 4
	state.EnableCullFace = p.extrude && !p.isSurfaceShape
	state.EnableDepthTest = attrs.DepthTest

	// Opaque interiors draw first so the outline lands on top of them.
	if p.isSurfaceShape || attrs.InteriorColor.A >= 1 {
		p.drawInterior(rc, state, attrs)
		p.drawOutline(rc, state, attrs)
	} else {
		p.drawOutline(rc, state, attrs)
		p.drawInterior(rc, state, attrs)
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

func (p *Polygon) drawInterior(rc *render.Context, state *draw.DrawShapeState, attrs *Attributes) {
	if !attrs.DrawInterior || len(p.interiorElements) == 0 {
		return
	}
	state.Color = p.color(rc, attrs.InteriorColor)
	state.DrawElements(gputypes.PrimitiveTopologyTriangleList, len(p.interiorElements), 0)
}

func (p *Polygon) drawOutline(rc *render.Context, state *draw.DrawShapeState, attrs *Attributes) {
	if !attrs.DrawOutline {
		return
	}
	interiorBytes := 2 * len(p.interiorElements)
	state.Color = p.color(rc, attrs.OutlineColor)
	state.LineWidth = attrs.OutlineWidth
	if p.isSurfaceShape {
		state.LineWidth += 0.5
	}
	state.DrawElements(gputypes.PrimitiveTopologyLineList, len(p.outlineElements), interiorBytes)
	if attrs.DrawVerticals && p.extrude && len(p.verticalElements) > 0 {
		state.LineWidth = attrs.OutlineWidth
		state.DrawElements(gputypes.PrimitiveTopologyLineList, len(p.verticalElements), interiorBytes+2*len(p.outlineElements))
	}
}

func (p *Polygon) vertexBuffer(rc *render.Context) *gpu.BufferObject {
	key := p.key(render.SlotVertexBuffer)
	if b := rc.GetBufferObject(key); b != nil {
		return b
	}
	return rc.PutBufferObject(key, gpu.NewVertexBuffer(p.vertexArray))
}

func (p *Polygon) elementBuffer(rc *render.Context) *gpu.BufferObject {
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
