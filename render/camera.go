package render

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
)

// DefaultFieldOfView is the vertical field of view used when a camera
// leaves it unset, in degrees.
const DefaultFieldOfView = 45.0

// Camera is a viewer above the globe.
type Camera struct {
	// Position is the eye position. Altitude is meters above the ellipsoid.
	Position geom.Position

	// Heading is the view direction in degrees clockwise from north.
	Heading float64

	// Tilt is the angle in degrees between the view direction and straight
	// down.
	Tilt float64

	// FieldOfView is the vertical field of view in degrees. Zero selects
	// DefaultFieldOfView.
	FieldOfView float64
}

func (c Camera) fieldOfView() float64 {
	if c.FieldOfView <= 0 || c.FieldOfView >= 180 {
		return DefaultFieldOfView
	}
	return c.FieldOfView
}

// Matrices computes the model-view and projection matrices for viewport
// and the eye point in Cartesian coordinates.
//
// The near plane sits at a quarter of the eye altitude and the far plane at
// twice the horizon distance, which keeps everything between the eye and
// the horizon inside the depth range.
func (c Camera) Matrices(g *globe.Globe, viewport image.Rectangle) (modelview, projection mgl64.Mat4, eye mgl64.Vec3) {
	lat := mgl64.DegToRad(c.Position.Latitude)
	lon := mgl64.DegToRad(c.Position.Longitude)
	eye = g.Point(c.Position.Latitude, c.Position.Longitude, c.Position.Altitude, globe.Absolute)

	up := mgl64.Vec3{math.Cos(lat) * math.Sin(lon), math.Sin(lat), math.Cos(lat) * math.Cos(lon)}
	east := mgl64.Vec3{math.Cos(lon), 0, -math.Sin(lon)}
	north := up.Cross(east)

	heading := mgl64.DegToRad(c.Heading)
	tilt := mgl64.DegToRad(c.Tilt)
	forward := north.Mul(math.Cos(heading)).Add(east.Mul(math.Sin(heading)))
	dir := up.Mul(-math.Cos(tilt)).Add(forward.Mul(math.Sin(tilt)))
	viewUp := up.Mul(math.Sin(tilt)).Add(forward.Mul(math.Cos(tilt)))
	modelview = mgl64.LookAtV(eye, eye.Add(dir), viewUp)

	alt := math.Max(c.Position.Altitude, 1)
	radius := g.EquatorialRadius()
	horizon := math.Sqrt(alt * (2*radius + alt))
	aspect := 1.0
	if viewport.Dy() > 0 {
		aspect = float64(viewport.Dx()) / float64(viewport.Dy())
	}
	projection = mgl64.Perspective(mgl64.DegToRad(c.fieldOfView()), aspect, math.Max(alt/4, 1), 2*horizon)
	return modelview, projection, eye
}
