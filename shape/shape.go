package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/gputypes"
)

// nearZeroThreshold is the shortest edge, in radians, that is subdivided.
// On Earth it is well under a millimeter.
const nearZeroThreshold = 1e-10

// maxVertices bounds the vertex count of one shape so every element fits
// in a uint16.
const maxVertices = math.MaxUint16

// Kind identifies a shape variant.
type Kind uint8

const (
	KindPath Kind = iota + 1
	KindEllipse
	KindPolygon
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindEllipse:
		return "ellipse"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Shape is a shape variant. The set of variants is closed: Path, Ellipse
// and Polygon.
type Shape interface {
	// AssembleGeometry rebuilds the shape's vertex and element arrays.
	AssembleGeometry(rc *render.Context)

	// SubmitDrawable offers the shape's drawable to rc, assembling the
	// geometry first when it is out of date.
	SubmitDrawable(rc *render.Context)

	// Kind reports the variant.
	Kind() Kind

	common() *Base
}

// Render submits s for the current frame: shapes outside the view
// frustum and shapes without active attributes are skipped, and in pick
// mode the shape draws with a fresh pick color and is recorded as a
// picked object when it enqueued anything.
func Render(rc *render.Context, s Shape) {
	b := s.common()
	if b.dirty {
		s.AssembleGeometry(rc)
	}
	if !b.intersectsFrustum(rc) {
		return
	}
	b.determineActiveAttributes()
	if b.active == nil {
		return
	}

	count := rc.DrawableCount()
	if rc.PickMode {
		b.pickID = rc.NextPickedObjectID()
		b.pickColor = geom.IdentifierToColor(b.pickID)
	}

	s.SubmitDrawable(rc)

	if rc.PickMode && rc.DrawableCount() != count {
		var obj any = s
		if b.Object != nil {
			obj = b.Object
		}
		rc.OfferPickedObject(b.pickID, obj)
	}
}

// Base holds the state common to every shape variant.
type Base struct {
	// Attributes is used unless the shape is highlighted.
	Attributes *Attributes

	// HighlightAttributes replaces Attributes while Highlighted is set.
	// Nil keeps Attributes.
	HighlightAttributes *Attributes
	Highlighted         bool

	// Object is reported with picked objects instead of the shape itself
	// when set.
	Object any

	altitudeMode          globe.AltitudeMode
	pathType              PathType
	maxIntermediatePoints int

	active    *Attributes
	pickID    int
	pickColor gputypes.Color

	boundingSector geom.Sector
	boundingBox    geom.BoundingBox
	vertexOrigin   mgl64.Vec3
	isSurfaceShape bool

	owner   uint64
	version uint64
	dirty   bool
}

func newBase() Base {
	return Base{
		Attributes:            DefaultAttributes(),
		maxIntermediatePoints: 10,
		boundingSector:        geom.EmptySector(),
		boundingBox:           geom.UnitBox(),
		owner:                 render.NewCacheOwner(),
		dirty:                 true,
	}
}

func (b *Base) common() *Base { return b }

// AltitudeMode returns how position altitudes are interpreted.
func (b *Base) AltitudeMode() globe.AltitudeMode { return b.altitudeMode }

// PathType returns how edges are interpolated.
func (b *Base) PathType() PathType { return b.pathType }

// MaximumIntermediatePoints returns the number of points inserted along
// each edge of a non-linear path.
func (b *Base) MaximumIntermediatePoints() int { return b.maxIntermediatePoints }

// SetAltitudeMode sets how position altitudes are interpreted.
func (b *Base) SetAltitudeMode(mode globe.AltitudeMode) {
	b.altitudeMode = mode
	b.invalidate()
}

// SetPathType sets how edges are interpolated.
func (b *Base) SetPathType(t PathType) {
	b.pathType = t
	b.invalidate()
}

// SetMaximumIntermediatePoints sets the number of points inserted along
// each edge. Zero or less disables interpolation.
func (b *Base) SetMaximumIntermediatePoints(n int) {
	b.maxIntermediatePoints = n
	b.invalidate()
}

// IsSurfaceShape reports whether the last assembled geometry is
// geographic and drawn onto the terrain.
func (b *Base) IsSurfaceShape() bool { return b.isSurfaceShape }

// BoundingSector returns the extent of a surface shape, or an empty
// sector for other shapes.
func (b *Base) BoundingSector() geom.Sector { return b.boundingSector }

// BoundingBox returns the Cartesian extent of a shape drawn in 3D, or the
// unit box for surface shapes.
func (b *Base) BoundingBox() geom.BoundingBox { return b.boundingBox }

// VertexOrigin returns the point vertices are stored relative to:
// Cartesian for shapes drawn in 3D, (longitude, latitude, 0) for surface
// shapes.
func (b *Base) VertexOrigin() mgl64.Vec3 { return b.vertexOrigin }

// Version returns the cache version of the current geometry.
func (b *Base) Version() uint64 { return b.version }

// invalidate marks the geometry for reassembly.
func (b *Base) invalidate() { b.dirty = true }

// nextVersion starts a new geometry version.
func (b *Base) nextVersion() {
	b.version++
	b.dirty = false
}

func (b *Base) key(slot uint8) render.CacheKey {
	return render.CacheKey{Owner: b.owner, Slot: slot, Version: b.version}
}

func (b *Base) intersectsFrustum(rc *render.Context) bool {
	return b.boundingBox.IsUnitBox() || b.boundingBox.IntersectsFrustum(rc.Frustum)
}

func (b *Base) determineActiveAttributes() {
	if b.Highlighted && b.HighlightAttributes != nil {
		b.active = b.HighlightAttributes
	} else {
		b.active = b.Attributes
	}
}

// color returns c, or the pick color in pick mode.
func (b *Base) color(rc *render.Context, c gputypes.Color) gputypes.Color {
	if rc.PickMode {
		return b.pickColor
	}
	return c
}

// intermediatePoints calls fn for each point inserted along the edge from
// begin to end: maxIntermediatePoints evenly spaced points on the great
// circle or rhumb line, altitude interpolated linearly. Linear edges and
// edges shorter than nearZeroThreshold get none.
func (b *Base) intermediatePoints(begin, end geom.Position, fn func(latitude, longitude, altitude float64)) {
	if b.pathType == Linear || b.maxIntermediatePoints <= 0 {
		return
	}

	from, to := begin.Location(), end.Location()
	var azimuth, length float64
	switch b.pathType {
	case GreatCircle:
		azimuth = from.GreatCircleAzimuth(to)
		length = from.GreatCircleDistance(to)
	case RhumbLine:
		azimuth = from.RhumbAzimuth(to)
		length = from.RhumbDistance(to)
	}
	if length < nearZeroThreshold {
		return
	}

	segments := b.maxIntermediatePoints + 1
	deltaDist := length / float64(segments)
	deltaAlt := (end.Altitude - begin.Altitude) / float64(segments)
	dist := deltaDist
	alt := begin.Altitude + deltaAlt
	for i := 1; i < segments; i++ {
		var loc geom.Location
		if b.pathType == GreatCircle {
			loc = from.GreatCircleLocation(azimuth, dist)
		} else {
			loc = from.RhumbLocation(azimuth, dist)
		}
		fn(loc.Latitude, loc.Longitude, alt)
		dist += deltaDist
		alt += deltaAlt
	}
}

// cameraDistanceGeographic returns the distance from the eye to the
// ground point of sector nearest to the camera's location.
func cameraDistanceGeographic(rc *render.Context, sector geom.Sector) float64 {
	lat := geom.Clamp(rc.Camera.Position.Latitude, sector.MinLatitude, sector.MaxLatitude)
	lon := geom.Clamp(rc.Camera.Position.Longitude, sector.MinLongitude, sector.MaxLongitude)
	p := rc.GeographicToCartesian(lat, lon, 0, globe.ClampToGround)
	return p.Sub(rc.EyePoint).Len()
}

// cameraDistanceCartesian returns the distance from the eye to the nearest
// vertex in array. Vertices are stride floats apart, relative to origin.
func cameraDistanceCartesian(rc *render.Context, array []float32, stride int, origin mgl64.Vec3) float64 {
	c := rc.EyePoint.Sub(origin)
	minDist2 := math.Inf(1)
	for i := 0; i+2 < len(array); i += stride {
		dx := float64(array[i]) - c[0]
		dy := float64(array[i+1]) - c[1]
		dz := float64(array[i+2]) - c[2]
		minDist2 = math.Min(minDist2, dx*dx+dy*dy+dz*dz)
	}
	return math.Sqrt(minDist2)
}

// repeatingTexCoordTransform scales texture coordinates measured in meters
// so that tex repeats once per tex.Width() screen pixels at metersPerPixel.
func repeatingTexCoordTransform(tex *gpu.Texture, metersPerPixel float64) geom.Matrix {
	if metersPerPixel <= 0 {
		return tex.TexCoordTransform()
	}
	s := geom.Scale(1/(float64(tex.Width())*metersPerPixel), 1/(float64(tex.Height())*metersPerPixel))
	return s.Multiply(tex.TexCoordTransform())
}
