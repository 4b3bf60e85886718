package shape

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/gputypes"
)

const (
	// ellipseVertexStride is the number of floats per ellipse vertex: x, y,
	// z, east and north meters from the center, and the distance along the
	// outline.
	ellipseVertexStride = 6

	// MinIntervals is the fewest angular intervals an ellipse is built from.
	MinIntervals = 32

	// DefaultMaximumIntervals caps the intervals of a close-up ellipse.
	DefaultMaximumIntervals = 256

	// MaxIntervals is the largest interval count whose ring, spine and
	// extruded ring all fit in uint16 element indices.
	MaxIntervals = 26214

	// DefaultMaximumPixelsPerInterval is the longest an interval may appear
	// on screen before the ellipse is subdivided further.
	DefaultMaximumPixelsPerInterval = 50
)

// Ellipses with the same interval count share one element buffer.
var (
	ellipseElementsMu     sync.Mutex
	ellipseElementsOwners = make(map[int]uint64)
)

func ellipseElementsKey(intervals int) render.CacheKey {
	ellipseElementsMu.Lock()
	defer ellipseElementsMu.Unlock()
	owner, ok := ellipseElementsOwners[intervals]
	if !ok {
		owner = render.NewCacheOwner()
		ellipseElementsOwners[intervals] = owner
	}
	return render.CacheKey{Owner: owner, Slot: render.SlotElementBuffer, Version: 1}
}

// ellipseRange is a span of the shared element buffer, in elements.
type ellipseRange struct{ lower, upper int }

func (r ellipseRange) count() int  { return r.upper - r.lower }
func (r ellipseRange) offset() int { return 2 * r.lower }

// ellipseElements is the element layout for one interval count.
type ellipseElements struct {
	elements []uint16
	top      ellipseRange
	outline  ellipseRange
	side     ellipseRange
}

func spineCount(intervals int) int { return intervals/2 - 1 }

// skirtOffset is the index of the first extruded vertex.
func skirtOffset(intervals int) int { return intervals + spineCount(intervals) }

// assembleEllipseElements builds the top triangle strip, zigzagging from
// the ring through the spine, the closed outline strip, and the side
// strip pairing each ring vertex with its extruded copy.
func assembleEllipseElements(intervals int) ellipseElements {
	var e ellipseElements
	el := make([]uint16, 0, 3*intervals+intervals+1+2*intervals+2)

	spine := intervals
	half := intervals / 2
	el = append(el, 0, 1)
	for i := 2; i < intervals; i++ {
		if i != half+1 {
			if i > half {
				spine--
				el = append(el, uint16(spine))
			} else {
				el = append(el, uint16(spine))
				spine++
			}
		}
		// Degenerate triangle at the negative major axis turns the strip
		// back toward the positive axis.
		if i == half {
			el = append(el, uint16(i))
		}
		el = append(el, uint16(i))
	}
	spine--
	el = append(el, uint16(spine), 0)
	e.top = ellipseRange{0, len(el)}

	for i := 0; i < intervals; i++ {
		el = append(el, uint16(i))
	}
	el = append(el, 0)
	e.outline = ellipseRange{e.top.upper, len(el)}

	offset := skirtOffset(intervals)
	for i := 0; i < intervals; i++ {
		el = append(el, uint16(i), uint16(i+offset))
	}
	el = append(el, 0, uint16(offset))
	e.side = ellipseRange{e.outline.upper, len(el)}

	e.elements = el
	return e
}

// Ellipse is an ellipse on the globe, given by a center and two radii in
// meters, optionally extruded down to the ground.
type Ellipse struct {
	Base

	center      geom.Position
	majorRadius float64
	minorRadius float64
	heading     float64

	extrude       bool
	followTerrain bool

	maximumIntervals         int
	maximumPixelsPerInterval float64

	activeIntervals int
	layoutIntervals int
	layout          ellipseElements
	vertexArray     []float32

	prevPoint  mgl64.Vec3
	texCoord1d float64
}

// NewEllipse returns an ellipse at center with the given radii in meters.
// The major radius lies east-west before heading is applied. It panics if
// a radius is negative.
func NewEllipse(center geom.Position, majorRadius, minorRadius float64) *Ellipse {
	e := &Ellipse{
		Base:                     newBase(),
		center:                   center,
		maximumIntervals:         DefaultMaximumIntervals,
		maximumPixelsPerInterval: DefaultMaximumPixelsPerInterval,
	}
	e.SetRadii(majorRadius, minorRadius)
	return e
}

// Kind returns KindEllipse.
func (e *Ellipse) Kind() Kind { return KindEllipse }

// Center returns the center position.
func (e *Ellipse) Center() geom.Position { return e.center }

// SetCenter moves the ellipse.
func (e *Ellipse) SetCenter(center geom.Position) {
	e.center = center
	e.invalidate()
}

// MajorRadius returns the major radius in meters.
func (e *Ellipse) MajorRadius() float64 { return e.majorRadius }

// MinorRadius returns the minor radius in meters.
func (e *Ellipse) MinorRadius() float64 { return e.minorRadius }

// SetRadii sets both radii in meters. It panics if either is negative.
func (e *Ellipse) SetRadii(major, minor float64) {
	if major < 0 || minor < 0 {
		panic("shape: negative ellipse radius")
	}
	e.majorRadius, e.minorRadius = major, minor
	e.invalidate()
}

// Heading returns the clockwise rotation from north in degrees.
func (e *Ellipse) Heading() float64 { return e.heading }

// SetHeading sets the clockwise rotation from north in degrees.
func (e *Ellipse) SetHeading(heading float64) {
	e.heading = heading
	e.invalidate()
}

// Extrude reports whether the ellipse is extruded to the ground.
func (e *Ellipse) Extrude() bool { return e.extrude }

// SetExtrude sets whether the ellipse is extruded to the ground.
func (e *Ellipse) SetExtrude(extrude bool) {
	e.extrude = extrude
	e.invalidate()
}

// FollowTerrain reports whether a ground-clamped ellipse is draped onto
// the terrain.
func (e *Ellipse) FollowTerrain() bool { return e.followTerrain }

// SetFollowTerrain sets whether a ground-clamped ellipse is draped onto
// the terrain.
func (e *Ellipse) SetFollowTerrain(follow bool) {
	e.followTerrain = follow
	e.invalidate()
}

// SetMaximumIntervals caps the interval count. Values below MinIntervals
// leave the ellipse at MinIntervals and values above MaxIntervals are
// clamped to MaxIntervals.
func (e *Ellipse) SetMaximumIntervals(n int) {
	e.maximumIntervals = n
	e.invalidate()
}

// SetMaximumPixelsPerInterval sets the on-screen interval length that
// triggers subdivision.
func (e *Ellipse) SetMaximumPixelsPerInterval(px float64) {
	e.maximumPixelsPerInterval = px
	e.invalidate()
}

// ActiveIntervals returns the interval count of the last assembly.
func (e *Ellipse) ActiveIntervals() int { return e.activeIntervals }

// VertexArray returns the assembled vertices: the ring, then the spine,
// then the extruded ring.
func (e *Ellipse) VertexArray() []float32 { return e.vertexArray }

// computeIntervals doubles MinIntervals until an interval spans at most
// maximumPixelsPerInterval pixels at the ellipse's distance.
func (e *Ellipse) computeIntervals(rc *render.Context) int {
	intervals := MinIntervals
	if intervals >= e.maximumIntervals {
		return intervals
	}
	center := rc.GeographicToCartesian(e.center.Latitude, e.center.Longitude, e.center.Altitude, e.altitudeMode)
	distance := center.Sub(rc.EyePoint).Len() - math.Max(e.majorRadius, e.minorRadius)
	if distance <= 0 {
		return e.maximumIntervals
	}
	metersPerPixel := rc.PixelSizeAtDistance(distance)
	if metersPerPixel <= 0 || e.maximumPixelsPerInterval <= 0 {
		return intervals
	}
	circumferenceIntervals := e.circumference() / metersPerPixel / e.maximumPixelsPerInterval
	subdivisions := math.Ceil(math.Log2(circumferenceIntervals / float64(intervals)))
	if subdivisions > 0 {
		intervals <<= min(int(subdivisions), 16)
	}
	return min(intervals, e.maximumIntervals)
}

// circumference is Ramanujan's approximation.
func (e *Ellipse) circumference() float64 {
	a, b := e.majorRadius, e.minorRadius
	return math.Pi * (3*(a+b) - math.Sqrt((3*a+b)*(a+3*b)))
}

func sanitizeIntervals(n int) int {
	n = min(n, MaxIntervals)
	if n%2 == 0 {
		return n
	}
	return n - 1
}

// AssembleGeometry rebuilds the vertices for the interval count suited to
// the current camera and starts a new geometry version.
func (e *Ellipse) AssembleGeometry(rc *render.Context) {
	e.assemble(rc, sanitizeIntervals(e.computeIntervals(rc)))
}

func (e *Ellipse) assemble(rc *render.Context, intervals int) {
	e.nextVersion()
	e.activeIntervals = intervals
	e.isSurfaceShape = e.altitudeMode == globe.ClampToGround && e.followTerrain
	e.vertexArray = e.vertexArray[:0]
	if e.majorRadius == 0 && e.minorRadius == 0 {
		e.boundingSector = geom.EmptySector()
		e.boundingBox = geom.UnitBox()
		return
	}

	c := e.center
	centerPoint := rc.GeographicToCartesian(c.Latitude, c.Longitude, c.Altitude, e.altitudeMode)
	if e.isSurfaceShape {
		e.vertexOrigin = mgl64.Vec3{c.Longitude, c.Latitude, 0}
	} else {
		e.vertexOrigin = centerPoint
	}
	east, north := localAxes(c.Latitude, c.Longitude)

	spines := spineCount(intervals)
	skirt := e.extrude && !e.isSurfaceShape
	n := intervals + spines
	if skirt {
		n += intervals
	}
	if cap(e.vertexArray) < n*ellipseVertexStride {
		e.vertexArray = make([]float32, n*ellipseVertexStride)
	} else {
		e.vertexArray = e.vertexArray[:n*ellipseVertexStride]
		clear(e.vertexArray)
	}

	// The ring starts on the positive major axis and runs counter-clockwise;
	// the spine runs along the major axis between the ring's ends.
	standard := e.majorRadius > e.minorRadius
	headingAdjustment := 0.0
	radius := math.Max(rc.Globe.Ellipsoid.EquatorialRadius(), rc.Globe.Ellipsoid.PolarRadius())
	majorArc, minorArc := e.majorRadius/radius, e.minorRadius/radius
	if standard {
		headingAdjustment = 90
	} else {
		majorArc, minorArc = minorArc, majorArc
	}

	center := c.Location()
	delta := 2 * math.Pi / float64(intervals)
	spineRadius := make([]float64, 0, spines)
	offset := skirtOffset(intervals)
	for i := 0; i < intervals; i++ {
		rad := delta * float64(i)
		x := math.Cos(rad) * majorArc
		y := math.Sin(rad) * minorArc
		azimuth := mgl64.RadToDeg(-math.Atan2(y, x)) + headingAdjustment + e.heading
		loc := center.GreatCircleLocation(azimuth, math.Hypot(x, y))
		e.setVertex(rc, i, loc, c.Altitude, centerPoint, east, north)
		if skirt {
			e.setSkirtVertex(rc, i+offset, loc)
		}
		if i > 0 && i < intervals/2 {
			spineRadius = append(spineRadius, x)
		}
	}
	for j, r := range spineRadius {
		loc := center.GreatCircleLocation(headingAdjustment+e.heading, r)
		e.setVertex(rc, intervals+j, loc, c.Altitude, centerPoint, east, north)
	}

	if e.isSurfaceShape {
		e.boundingSector = geom.EmptySector()
		e.boundingSector.UnionArray(e.vertexArray, ellipseVertexStride)
		e.boundingSector.Translate(e.vertexOrigin[1], e.vertexOrigin[0])
		e.boundingBox = geom.UnitBox()
	} else {
		e.boundingBox.SetToPoints(e.vertexArray, ellipseVertexStride)
		e.boundingBox.Translate(e.vertexOrigin)
		e.boundingSector = geom.EmptySector()
	}
}

// localAxes returns the unit east and north vectors at a location.
func localAxes(latitude, longitude float64) (east, north mgl64.Vec3) {
	sinLat, cosLat := math.Sincos(mgl64.DegToRad(latitude))
	sinLon, cosLon := math.Sincos(mgl64.DegToRad(longitude))
	east = mgl64.Vec3{cosLon, 0, -sinLon}
	north = mgl64.Vec3{-sinLat * sinLon, cosLat, -sinLat * cosLon}
	return east, north
}

func (e *Ellipse) setVertex(rc *render.Context, index int, loc geom.Location, altitude float64, centerPoint, east, north mgl64.Vec3) {
	point := rc.GeographicToCartesian(loc.Latitude, loc.Longitude, altitude, e.altitudeMode)
	if index == 0 {
		e.texCoord1d = 0
	} else {
		e.texCoord1d += point.Sub(e.prevPoint).Len()
	}
	e.prevPoint = point

	local := point.Sub(centerPoint)
	v := e.vertexArray[index*ellipseVertexStride : (index+1)*ellipseVertexStride]
	if e.isSurfaceShape {
		v[0] = float32(loc.Longitude - e.vertexOrigin[0])
		v[1] = float32(loc.Latitude - e.vertexOrigin[1])
		v[2] = 0
	} else {
		v[0] = float32(point[0] - e.vertexOrigin[0])
		v[1] = float32(point[1] - e.vertexOrigin[1])
		v[2] = float32(point[2] - e.vertexOrigin[2])
	}
	v[3] = float32(local.Dot(east))
	v[4] = float32(local.Dot(north))
	v[5] = float32(e.texCoord1d)
}

func (e *Ellipse) setSkirtVertex(rc *render.Context, index int, loc geom.Location) {
	point := rc.GeographicToCartesian(loc.Latitude, loc.Longitude, 0, globe.ClampToGround)
	v := e.vertexArray[index*ellipseVertexStride : (index+1)*ellipseVertexStride]
	v[0] = float32(point[0] - e.vertexOrigin[0])
	v[1] = float32(point[1] - e.vertexOrigin[1])
	v[2] = float32(point[2] - e.vertexOrigin[2])
}

// SubmitDrawable offers the ellipse to rc, reassembling it first when it
// changed or the camera calls for a different interval count.
func (e *Ellipse) SubmitDrawable(rc *render.Context) {
	if intervals := sanitizeIntervals(e.computeIntervals(rc)); e.dirty || intervals != e.activeIntervals {
		e.assemble(rc, intervals)
	}
	attrs := e.active
	if attrs == nil {
		attrs = e.Attributes
	}
	if attrs == nil || len(e.vertexArray) == 0 {
		return
	}

	var (
		d              draw.Drawable
		state          *draw.DrawShapeState
		cameraDistance float64
	)
	if e.isSurfaceShape {
		sd := draw.ObtainSurfaceShape(rc.SurfaceShapePool())
		sd.Sector = e.boundingSector
		d, state = sd, &sd.State
		cameraDistance = cameraDistanceGeographic(rc, e.boundingSector)
	} else {
		sd := draw.ObtainShape(rc.ShapePool())
		d, state = sd, &sd.State
		cameraDistance = cameraDistanceCartesian(rc, e.vertexArray, ellipseVertexStride, e.vertexOrigin)
	}

	state.Program = rc.BasicProgram()
	state.VertexBuffer = e.vertexBuffer(rc)
	state.ElementBuffer = e.elementBuffer(rc)
	state.VertexOrigin = e.vertexOrigin
	state.VertexStride = ellipseVertexStride * 4
	state.EnableCullFace = e.extrude
	state.EnableDepthTest = attrs.DepthTest

	metersPerPixel := rc.PixelSizeAtDistance(cameraDistance)
	if e.isSurfaceShape {
		e.drawInterior(rc, state, attrs, metersPerPixel)
		e.drawOutline(rc, state, attrs, metersPerPixel)
	} else {
		e.drawOutline(rc, state, attrs, metersPerPixel)
		e.drawInterior(rc, state, attrs, metersPerPixel)
	}

	if len(state.Prims()) == 0 {
		d.Recycle()
		return
	}
	if e.isSurfaceShape {
		rc.OfferSurfaceDrawable(d, 0)
	} else {
		rc.OfferShapeDrawable(d, cameraDistance)
	}
}

func (e *Ellipse) drawInterior(rc *render.Context, state *draw.DrawShapeState, attrs *Attributes, metersPerPixel float64) {
	if !attrs.DrawInterior {
		return
	}
	state.Texture = nil
	if attrs.InteriorImage != nil {
		if tex := rc.RetrieveTexture(attrs.InteriorImage); tex != nil {
			state.Texture = tex
			state.TexCoordMatrix = repeatingTexCoordTransform(tex, metersPerPixel)
		}
	}
	state.Color = e.color(rc, attrs.InteriorColor)
	state.TexCoordAttrib = draw.VertexAttrib{Size: 2, Offset: 12}
	state.DrawElements(gputypes.PrimitiveTopologyTriangleStrip, e.layout.top.count(), e.layout.top.offset())
	if e.extrude && !e.isSurfaceShape {
		state.Texture = nil
		state.DrawElements(gputypes.PrimitiveTopologyTriangleStrip, e.layout.side.count(), e.layout.side.offset())
	}
}

func (e *Ellipse) drawOutline(rc *render.Context, state *draw.DrawShapeState, attrs *Attributes, metersPerPixel float64) {
	if !attrs.DrawOutline {
		return
	}
	state.Texture = nil
	if attrs.OutlineImage != nil {
		if tex := rc.RetrieveTexture(attrs.OutlineImage); tex != nil {
			state.Texture = tex
			state.TexCoordMatrix = repeatingTexCoordTransform(tex, metersPerPixel)
		}
	}
	state.Color = e.color(rc, attrs.OutlineColor)
	state.LineWidth = attrs.OutlineWidth
	state.TexCoordAttrib = draw.VertexAttrib{Size: 1, Offset: 20}
	state.DrawElements(gputypes.PrimitiveTopologyLineStrip, e.layout.outline.count(), e.layout.outline.offset())
	if attrs.DrawVerticals && e.extrude && !e.isSurfaceShape {
		state.Texture = nil
		state.DrawElements(gputypes.PrimitiveTopologyLineList, e.layout.side.count(), e.layout.side.offset())
	}
}

func (e *Ellipse) vertexBuffer(rc *render.Context) *gpu.BufferObject {
	key := e.key(render.SlotVertexBuffer)
	if b := rc.GetBufferObject(key); b != nil {
		return b
	}
	return rc.PutBufferObject(key, gpu.NewVertexBuffer(e.vertexArray))
}

func (e *Ellipse) elementBuffer(rc *render.Context) *gpu.BufferObject {
	if e.layoutIntervals != e.activeIntervals {
		e.layout = assembleEllipseElements(e.activeIntervals)
		e.layoutIntervals = e.activeIntervals
	}
	key := ellipseElementsKey(e.activeIntervals)
	if b := rc.GetBufferObject(key); b != nil {
		return b
	}
	return rc.PutBufferObject(key, gpu.NewElementBuffer(e.layout.elements))
}
