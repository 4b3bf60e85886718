package geom

import "github.com/go-gl/mathgl/mgl64"

// Plane is the set of points p with Normal·p + D == 0. Points with a
// positive distance lie on the side the normal points to.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p mgl64.Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

func (pl Plane) normalized() Plane {
	l := pl.Normal.Len()
	if l == 0 {
		return pl
	}
	return Plane{Normal: pl.Normal.Mul(1 / l), D: pl.D / l}
}

// Frustum is a view volume bounded by six inward-facing planes in the
// order left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the view frustum of a model-view-projection
// matrix. The planes are expressed in the matrix's model coordinates.
func FrustumFromMatrix(m mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := m.Rows()
	plane := func(v mgl64.Vec4) Plane {
		return Plane{Normal: v.Vec3(), D: v[3]}.normalized()
	}
	return Frustum{Planes: [6]Plane{
		plane(r3.Add(r0)),
		plane(r3.Sub(r0)),
		plane(r3.Add(r1)),
		plane(r3.Sub(r1)),
		plane(r3.Add(r2)),
		plane(r3.Sub(r2)),
	}}
}

// ContainsPoint reports whether p lies inside or on f.
func (f Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}
