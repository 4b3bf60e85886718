package geom

import "fmt"

// Position is a geographic location with an altitude in meters.
type Position struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// NewPosition returns the position at the given coordinates.
func NewPosition(latitude, longitude, altitude float64) Position {
	return Position{Latitude: latitude, Longitude: longitude, Altitude: altitude}
}

// Location drops the altitude.
func (p Position) Location() Location {
	return Location{Latitude: p.Latitude, Longitude: p.Longitude}
}

// String formats p as "lat,lon,alt".
func (p Position) String() string {
	return fmt.Sprintf("%g,%g,%g", p.Latitude, p.Longitude, p.Altitude)
}
