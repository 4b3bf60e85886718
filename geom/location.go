package geom

import "math"

// rhumbTolerance guards rhumb line computations along east-west courses,
// where the Mercator stretch is indeterminate.
const rhumbTolerance = 1e-15

// Location is a geographic location in degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// NewLocation returns the location at the given latitude and longitude.
func NewLocation(latitude, longitude float64) Location {
	return Location{Latitude: latitude, Longitude: longitude}
}

// GreatCircleAzimuth returns the initial azimuth in degrees, clockwise from
// north, of the great circle arc from l to to. Coincident locations yield 0.
func (l Location) GreatCircleAzimuth(to Location) float64 {
	lat1 := radians(l.Latitude)
	lat2 := radians(to.Latitude)
	lon1 := radians(l.Longitude)
	lon2 := radians(to.Longitude)

	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	if lon1 == lon2 {
		if lat1 > lat2 {
			return 180
		}
		return 0
	}

	y := math.Cos(lat2) * math.Sin(lon2-lon1)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	az := math.Atan2(y, x)
	if math.IsNaN(az) {
		return 0
	}
	return degrees(az)
}

// GreatCircleDistance returns the angular distance in radians between l and
// to along a great circle.
func (l Location) GreatCircleDistance(to Location) float64 {
	lat1 := radians(l.Latitude)
	lat2 := radians(to.Latitude)
	lon1 := radians(l.Longitude)
	lon2 := radians(to.Longitude)

	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	a := math.Sin((lat2 - lat1) / 2)
	b := math.Sin((lon2 - lon1) / 2)
	c := a*a + math.Cos(lat1)*math.Cos(lat2)*b*b
	d := 2 * math.Asin(math.Sqrt(c))
	if math.IsNaN(d) {
		return 0
	}
	return d
}

// GreatCircleLocation returns the location reached by travelling
// distance radians from l along a great circle with the given initial
// azimuth in degrees.
func (l Location) GreatCircleLocation(azimuth, distance float64) Location {
	if distance == 0 {
		return l
	}

	lat := radians(l.Latitude)
	lon := radians(l.Longitude)
	az := radians(azimuth)

	endLat := math.Asin(math.Sin(lat)*math.Cos(distance) + math.Cos(lat)*math.Sin(distance)*math.Cos(az))
	endLon := lon + math.Atan2(
		math.Sin(distance)*math.Sin(az),
		math.Cos(lat)*math.Cos(distance)-math.Sin(lat)*math.Sin(distance)*math.Cos(az))

	if math.IsNaN(endLat) || math.IsNaN(endLon) {
		return l
	}
	return Location{
		Latitude:  NormalizeLatitude(degrees(endLat)),
		Longitude: NormalizeLongitude(degrees(endLon)),
	}
}

// RhumbAzimuth returns the constant azimuth in degrees of the rhumb line
// from l to to, taking the shorter course across the antimeridian.
func (l Location) RhumbAzimuth(to Location) float64 {
	lat1 := radians(l.Latitude)
	lat2 := radians(to.Latitude)
	lon1 := radians(l.Longitude)
	lon2 := radians(to.Longitude)

	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLon := wrapDeltaLongitude(lon2 - lon1)
	dPhi := mercatorDelta(lat1, lat2)
	az := math.Atan2(dLon, dPhi)
	if math.IsNaN(az) {
		return 0
	}
	return degrees(az)
}

// RhumbDistance returns the angular distance in radians between l and to
// along a rhumb line.
func (l Location) RhumbDistance(to Location) float64 {
	lat1 := radians(l.Latitude)
	lat2 := radians(to.Latitude)
	lon1 := radians(l.Longitude)
	lon2 := radians(to.Longitude)

	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLat := lat2 - lat1
	dLon := wrapDeltaLongitude(lon2 - lon1)

	var q float64
	if math.Abs(dLat) < rhumbTolerance {
		q = math.Cos(lat1)
	} else {
		q = dLat / mercatorDelta(lat1, lat2)
	}

	d := math.Sqrt(dLat*dLat + q*q*dLon*dLon)
	if math.IsNaN(d) {
		return 0
	}
	return d
}

// RhumbLocation returns the location reached by travelling distance
// radians from l along a rhumb line with the given azimuth in degrees.
func (l Location) RhumbLocation(azimuth, distance float64) Location {
	if distance == 0 {
		return l
	}

	lat := radians(l.Latitude)
	lon := radians(l.Longitude)
	az := radians(azimuth)

	endLat := lat + distance*math.Cos(az)
	dLat := endLat - lat

	var q float64
	if math.Abs(dLat) < rhumbTolerance {
		q = math.Cos(lat)
	} else {
		q = dLat / mercatorDelta(lat, endLat)
	}

	dLon := distance * math.Sin(az) / q

	// Passing over a pole.
	if math.Abs(endLat) > math.Pi/2 {
		if endLat > 0 {
			endLat = math.Pi - endLat
		} else {
			endLat = -math.Pi - endLat
		}
	}
	endLon := math.Mod(lon+dLon+math.Pi, 2*math.Pi) - math.Pi

	if math.IsNaN(endLat) || math.IsNaN(endLon) {
		return l
	}
	return Location{
		Latitude:  NormalizeLatitude(degrees(endLat)),
		Longitude: NormalizeLongitude(degrees(endLon)),
	}
}

// NormalizeLatitude wraps a latitude in degrees into [-90, 90], reflecting
// across the poles.
func NormalizeLatitude(deg float64) float64 {
	lat := math.Mod(deg, 180)
	switch {
	case lat > 90:
		lat = 180 - lat
	case lat < -90:
		lat = -180 - lat
	}
	if int(deg/180)%2 != 0 {
		return -lat
	}
	return lat
}

// NormalizeLongitude wraps a longitude in degrees into [-180, 180].
func NormalizeLongitude(deg float64) float64 {
	lon := math.Mod(deg, 360)
	switch {
	case lon > 180:
		return lon - 360
	case lon < -180:
		return lon + 360
	}
	return lon
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mercatorDelta(lat1, lat2 float64) float64 {
	return math.Log(math.Tan(lat2/2+math.Pi/4) / math.Tan(lat1/2+math.Pi/4))
}

func wrapDeltaLongitude(dLon float64) float64 {
	if math.Abs(dLon) > math.Pi {
		if dLon > 0 {
			return -(2*math.Pi - dLon)
		}
		return 2*math.Pi + dLon
	}
	return dLon
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
