package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundingBox is an axis-aligned Cartesian box. The unit box, centered at
// the origin with unit half extents, marks a box that has not been computed
// and is treated as always visible.
type BoundingBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// UnitBox returns the canonical unit box.
func UnitBox() BoundingBox {
	return BoundingBox{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
}

// SetToUnitBox resets b to the unit box.
func (b *BoundingBox) SetToUnitBox() { *b = UnitBox() }

// IsUnitBox reports whether b is the unit box.
func (b BoundingBox) IsUnitBox() bool { return b == UnitBox() }

// SetToPoints sets b to the extent of a flat array of interleaved vertices
// whose first three components are x, y and z.
func (b *BoundingBox) SetToPoints(array []float32, stride int) {
	if stride < 3 {
		panic("geom: SetToPoints stride must be at least 3")
	}
	if len(array) < 3 {
		b.SetToUnitBox()
		return
	}

	lo := mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	hi := mgl64.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64}
	for i := 0; i+2 < len(array); i += stride {
		for k := 0; k < 3; k++ {
			v := float64(array[i+k])
			lo[k] = math.Min(lo[k], v)
			hi[k] = math.Max(hi[k], v)
		}
	}
	b.Min, b.Max = lo, hi
}

// Translate shifts b by t.
func (b *BoundingBox) Translate(t mgl64.Vec3) {
	b.Min = b.Min.Add(t)
	b.Max = b.Max.Add(t)
}

// Union expands b to include p.
func (b *BoundingBox) Union(p mgl64.Vec3) {
	for k := 0; k < 3; k++ {
		b.Min[k] = math.Min(b.Min[k], p[k])
		b.Max[k] = math.Max(b.Max[k], p[k])
	}
}

// Center returns the midpoint of b.
func (b BoundingBox) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// IntersectsFrustum reports whether any part of b lies inside f. The test
// is conservative: boxes near frustum corners may be reported visible.
func (b BoundingBox) IntersectsFrustum(f Frustum) bool {
	for _, p := range f.Planes {
		// Positive vertex: the corner furthest along the plane normal.
		v := b.Min
		if p.Normal[0] >= 0 {
			v[0] = b.Max[0]
		}
		if p.Normal[1] >= 0 {
			v[1] = b.Max[1]
		}
		if p.Normal[2] >= 0 {
			v[2] = b.Max[2]
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}
