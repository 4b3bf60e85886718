// Package globe converts geographic positions to the Cartesian frame the
// renderer draws in.
package globe

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
)

// ElevationModel reports terrain height in meters above the ellipsoid.
type ElevationModel interface {
	Elevation(latitude, longitude float64) float64
}

// ElevationFunc adapts a function to ElevationModel.
type ElevationFunc func(latitude, longitude float64) float64

// Elevation calls f.
func (f ElevationFunc) Elevation(latitude, longitude float64) float64 { return f(latitude, longitude) }

// Globe is an ellipsoid with optional terrain.
type Globe struct {
	Ellipsoid Ellipsoid

	// VerticalExaggeration scales altitudes and terrain heights.
	// Zero is treated as 1.
	VerticalExaggeration float64

	// Elevation supplies terrain heights. Nil means a smooth ellipsoid.
	Elevation ElevationModel
}

// New returns a smooth WGS84 globe.
func New() *Globe {
	return &Globe{Ellipsoid: WGS84, VerticalExaggeration: 1}
}

// EquatorialRadius returns the ellipsoid's semi-major axis.
func (g *Globe) EquatorialRadius() float64 { return g.Ellipsoid.EquatorialRadius() }

// ElevationAt returns the terrain height at a location, before
// exaggeration.
func (g *Globe) ElevationAt(latitude, longitude float64) float64 {
	if g.Elevation == nil {
		return 0
	}
	return g.Elevation.Elevation(latitude, longitude)
}

func (g *Globe) exaggeration() float64 {
	if g.VerticalExaggeration == 0 {
		return 1
	}
	return g.VerticalExaggeration
}

// Point converts a geographic position to Cartesian coordinates,
// interpreting the altitude according to mode.
func (g *Globe) Point(latitude, longitude, altitude float64, mode AltitudeMode) mgl64.Vec3 {
	switch mode {
	case ClampToGround:
		altitude = g.ElevationAt(latitude, longitude)
	case RelativeToGround:
		altitude += g.ElevationAt(latitude, longitude)
	}
	return g.Ellipsoid.GeographicToCartesian(latitude, longitude, altitude*g.exaggeration())
}

// PositionPoint is Point for a geom.Position.
func (g *Globe) PositionPoint(p geom.Position, mode AltitudeMode) mgl64.Vec3 {
	return g.Point(p.Latitude, p.Longitude, p.Altitude, mode)
}

// Position converts a Cartesian point back to geographic coordinates. The
// returned altitude is above the ellipsoid, without exaggeration removed.
func (g *Globe) Position(p mgl64.Vec3) geom.Position {
	return g.Ellipsoid.CartesianToGeographic(p)
}
