package geom

import "math"

// Sector is a geographic rectangle bounded by latitude and longitude in
// degrees. A sector with NaN bounds is empty; comparisons against NaN are
// always false, so empty sectors never intersect anything.
type Sector struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// NewSector returns the sector spanning the given bounds.
func NewSector(minLat, maxLat, minLon, maxLon float64) Sector {
	return Sector{MinLatitude: minLat, MaxLatitude: maxLat, MinLongitude: minLon, MaxLongitude: maxLon}
}

// EmptySector returns a sector with NaN bounds.
func EmptySector() Sector {
	nan := math.NaN()
	return Sector{MinLatitude: nan, MaxLatitude: nan, MinLongitude: nan, MaxLongitude: nan}
}

// FullSphere returns the sector covering the whole globe.
func FullSphere() Sector {
	return Sector{MinLatitude: -90, MaxLatitude: 90, MinLongitude: -180, MaxLongitude: 180}
}

// SetEmpty resets s to NaN bounds.
func (s *Sector) SetEmpty() { *s = EmptySector() }

// IsEmpty reports whether s encloses no area.
func (s Sector) IsEmpty() bool {
	return !(s.MinLatitude < s.MaxLatitude && s.MinLongitude < s.MaxLongitude)
}

// DeltaLatitude returns the latitude span in degrees.
func (s Sector) DeltaLatitude() float64 { return s.MaxLatitude - s.MinLatitude }

// DeltaLongitude returns the longitude span in degrees.
func (s Sector) DeltaLongitude() float64 { return s.MaxLongitude - s.MinLongitude }

// Centroid returns the center location of s.
func (s Sector) Centroid() Location {
	return Location{
		Latitude:  0.5 * (s.MinLatitude + s.MaxLatitude),
		Longitude: 0.5 * (s.MinLongitude + s.MaxLongitude),
	}
}

// Contains reports whether the location lies inside s, bounds included.
func (s Sector) Contains(latitude, longitude float64) bool {
	return s.MinLatitude <= latitude && s.MaxLatitude >= latitude &&
		s.MinLongitude <= longitude && s.MaxLongitude >= longitude
}

// Intersects reports whether s and o share interior area. Sectors that only
// touch along an edge do not intersect.
func (s Sector) Intersects(o Sector) bool {
	return s.MinLatitude < o.MaxLatitude && s.MaxLatitude > o.MinLatitude &&
		s.MinLongitude < o.MaxLongitude && s.MaxLongitude > o.MinLongitude
}

// IntersectsOrNextTo reports whether s and o intersect or share an edge or
// corner.
func (s Sector) IntersectsOrNextTo(o Sector) bool {
	return s.MinLatitude <= o.MaxLatitude && s.MaxLatitude >= o.MinLatitude &&
		s.MinLongitude <= o.MaxLongitude && s.MaxLongitude >= o.MinLongitude
}

// Union expands s to include o. Empty sectors contribute nothing.
func (s *Sector) Union(o Sector) {
	if o.IsEmpty() {
		return
	}
	if s.IsEmpty() {
		*s = o
		return
	}
	s.MinLatitude = math.Min(s.MinLatitude, o.MinLatitude)
	s.MaxLatitude = math.Max(s.MaxLatitude, o.MaxLatitude)
	s.MinLongitude = math.Min(s.MinLongitude, o.MinLongitude)
	s.MaxLongitude = math.Max(s.MaxLongitude, o.MaxLongitude)
}

// UnionArray expands s to include every coordinate pair of a flat array of
// interleaved vertices, reading longitude at offset 0 and latitude at
// offset 1 of each stride-sized vertex. NaN bounds are treated as unset.
func (s *Sector) UnionArray(array []float32, stride int) {
	if stride < 2 {
		panic("geom: UnionArray stride must be at least 2")
	}

	minLat, maxLat := s.MinLatitude, s.MaxLatitude
	minLon, maxLon := s.MinLongitude, s.MaxLongitude
	if math.IsNaN(minLat) {
		minLat = math.MaxFloat64
	}
	if math.IsNaN(maxLat) {
		maxLat = -math.MaxFloat64
	}
	if math.IsNaN(minLon) {
		minLon = math.MaxFloat64
	}
	if math.IsNaN(maxLon) {
		maxLon = -math.MaxFloat64
	}

	for i := 0; i+1 < len(array); i += stride {
		lon := float64(array[i])
		lat := float64(array[i+1])
		maxLat = math.Max(maxLat, lat)
		minLat = math.Min(minLat, lat)
		maxLon = math.Max(maxLon, lon)
		minLon = math.Min(minLon, lon)
	}

	if minLat < math.MaxFloat64 {
		s.MinLatitude = minLat
	}
	if maxLat > -math.MaxFloat64 {
		s.MaxLatitude = maxLat
	}
	if minLon < math.MaxFloat64 {
		s.MinLongitude = minLon
	}
	if maxLon > -math.MaxFloat64 {
		s.MaxLongitude = maxLon
	}
}

// Translate shifts s by the given latitude and longitude deltas.
func (s *Sector) Translate(dLat, dLon float64) {
	s.MinLatitude += dLat
	s.MaxLatitude += dLat
	s.MinLongitude += dLon
	s.MaxLongitude += dLon
}
