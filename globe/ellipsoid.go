// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/geom"
)

// Ellipsoid is an oblate reference ellipsoid.
type Ellipsoid struct {
	// SemiMajorAxis is the equatorial radius in meters.
	SemiMajorAxis float64

	// InverseFlattening is 1/f where f = (a-b)/a.
	InverseFlattening float64
}

// WGS84 is the World Geodetic System 1984 ellipsoid.
var WGS84 = Ellipsoid{SemiMajorAxis: 6378137.0, InverseFlattening: 298.257223563}

// EquatorialRadius returns the semi-major axis in meters.
func (e Ellipsoid) EquatorialRadius() float64 { return e.SemiMajorAxis }

// PolarRadius returns the semi-minor axis in meters.
func (e Ellipsoid) PolarRadius() float64 {
	if e.InverseFlattening == 0 {
		return e.SemiMajorAxis
	}
	return e.SemiMajorAxis * (1 - 1/e.InverseFlattening)
}

// EccentricitySquared returns e² = 2f - f².
func (e Ellipsoid) EccentricitySquared() float64 {
	if e.InverseFlattening == 0 {
		return 0
	}
	f := 1 / e.InverseFlattening
	return 2*f - f*f
}

// GeographicToCartesian converts degrees and meters above the ellipsoid to
// a Cartesian point. The frame has Y toward the north pole, Z toward the
// intersection of the equator and the prime meridian, and X toward 90°E.
func (e Ellipsoid) GeographicToCartesian(latitude, longitude, altitude float64) mgl64.Vec3 {
	lat := latitude * math.Pi / 180
	lon := longitude * math.Pi / 180
	cosLat, sinLat := math.Cos(lat), math.Sin(lat)
	cosLon, sinLon := math.Cos(lon), math.Sin(lon)

	ec2 := e.EccentricitySquared()
	rpm := e.SemiMajorAxis / math.Sqrt(1-ec2*sinLat*sinLat)

	return mgl64.Vec3{
		(altitude + rpm) * cosLat * sinLon,
		(altitude + rpm*(1-ec2)) * sinLat,
		(altitude + rpm) * cosLat * cosLon,
	}
}

// CartesianToGeographic inverts GeographicToCartesian using the closed
// form of Vermeille (2002).
func (e Ellipsoid) CartesianToGeographic(p mgl64.Vec3) geom.Position {
	// Rotate into the conventional Z-up frame.
	X, Y, Z := p[2], p[0], p[1]

	a := e.SemiMajorAxis
	ec2 := e.EccentricitySquared()
	XXpYY := X*X + Y*Y
	sqrtXXpYY := math.Sqrt(XXpYY)

	pp := XXpYY / (a * a)
	q := Z * Z * (1 - ec2) / (a * a)
	r := (pp + q - ec2*ec2) / 6
	evoluteBorderTest := 8*r*r*r + ec2*ec2*pp*q

	var lambda, phi, h float64
	if evoluteBorderTest > 0 || q != 0 {
		var u float64
		if evoluteBorderTest > 0 {
			rad1 := math.Sqrt(evoluteBorderTest)
			rad2 := math.Sqrt(ec2 * ec2 * pp * q)
			if evoluteBorderTest > 10*ec2 {
				rad3 := math.Cbrt((rad1 + rad2) * (rad1 + rad2))
				u = r + 0.5*rad3 + 2*r*r/rad3
			} else {
				u = r + 0.5*math.Cbrt((rad1+rad2)*(rad1+rad2)) + 0.5*math.Cbrt((rad1-rad2)*(rad1-rad2))
			}
		} else {
			rad1 := math.Sqrt(-evoluteBorderTest)
			rad2 := math.Sqrt(-8 * r * r * r)
			rad3 := math.Sqrt(ec2 * ec2 * pp * q)
			atan := 2 * math.Atan2(rad3, rad1+rad2) / 3
			u = -4 * r * math.Sin(atan) * math.Cos(math.Pi/6+atan)
		}

		v := math.Sqrt(u*u + ec2*ec2*q)
		w := ec2 * (u + v - q) / (2 * v)
		k := (u + v) / (math.Sqrt(w*w+u+v) + w)
		d := k * sqrtXXpYY / (k + ec2)
		sqrtDDpZZ := math.Sqrt(d*d + Z*Z)

		h = (k + ec2 - 1) * sqrtDDpZZ / k
		phi = 2 * math.Atan2(Z, sqrtDDpZZ+d)
	} else {
		rad1 := math.Sqrt(1 - ec2)
		rad2 := math.Sqrt(ec2 - pp)
		e := math.Sqrt(ec2)

		h = -a * rad1 * rad2 / e
		phi = rad2 / (e*rad2 + rad1*math.Sqrt(pp))
	}

	s2 := math.Sqrt2
	switch {
	case (s2-1)*Y < sqrtXXpYY+X:
		lambda = 2 * math.Atan2(Y, sqrtXXpYY+X)
	case sqrtXXpYY+Y < (s2+1)*X:
		lambda = -math.Pi/2 + 2*math.Atan2(X, sqrtXXpYY-Y)
	default:
		lambda = math.Pi/2 - 2*math.Atan2(X, sqrtXXpYY+Y)
	}

	return geom.NewPosition(phi*180/math.Pi, lambda*180/math.Pi, h)
}
