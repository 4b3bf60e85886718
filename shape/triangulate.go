package shape

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon interiors are triangulated by ear clipping in the plane of
// longitude and latitude. Holes are first joined to the outer ring by a
// bridge edge to the nearest visible outer vertex, which turns the rings
// into one simple polygon that visits the bridge twice.

// area2 is twice the signed area of triangle abc, positive when
// counter-clockwise.
func area2(a, b, c mgl64.Vec2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
}

func left(a, b, c mgl64.Vec2) bool      { return area2(a, b, c) > 0 }
func leftOn(a, b, c mgl64.Vec2) bool    { return area2(a, b, c) >= 0 }
func collinear(a, b, c mgl64.Vec2) bool { return area2(a, b, c) == 0 }

// between reports whether c lies on the closed segment ab, given that the
// three points are collinear.
func between(a, b, c mgl64.Vec2) bool {
	if !collinear(a, b, c) {
		return false
	}
	if a[0] != b[0] {
		return (a[0] <= c[0] && c[0] <= b[0]) || (a[0] >= c[0] && c[0] >= b[0])
	}
	return (a[1] <= c[1] && c[1] <= b[1]) || (a[1] >= c[1] && c[1] >= b[1])
}

// intersectProp reports a proper intersection of ab and cd: one that is
// interior to both segments.
func intersectProp(a, b, c, d mgl64.Vec2) bool {
	if collinear(a, b, c) || collinear(a, b, d) || collinear(c, d, a) || collinear(c, d, b) {
		return false
	}
	return left(a, b, c) != left(a, b, d) && left(c, d, a) != left(c, d, b)
}

func intersect(a, b, c, d mgl64.Vec2) bool {
	return intersectProp(a, b, c, d) ||
		between(a, b, c) || between(a, b, d) || between(c, d, a) || between(c, d, b)
}

// ringArea2 is twice the signed area of ring.
func ringArea2(pts []mgl64.Vec2, ring []int) float64 {
	var sum float64
	for i, v := range ring {
		a, b := pts[v], pts[ring[(i+1)%len(ring)]]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum
}

// orientRings reverses rings in place so the outer ring, rings[0], runs
// counter-clockwise and every hole runs clockwise. The polygon's interior
// then lies left of every ring edge.
func orientRings(pts []mgl64.Vec2, rings [][]int) {
	for i, ring := range rings {
		area := ringArea2(pts, ring)
		if (i == 0 && area < 0) || (i > 0 && area > 0) {
			slices.Reverse(ring)
		}
	}
}

// earClipper triangulates one simple counter-clockwise polygon given as
// vertex ids into pts.
type earClipper struct {
	pts  []mgl64.Vec2
	poly []int
	ear  []bool
}

func (e *earClipper) next(i int) int { return (i + 1) % len(e.poly) }
func (e *earClipper) prev(i int) int { return (i + len(e.poly) - 1) % len(e.poly) }
func (e *earClipper) at(i int) mgl64.Vec2 { return e.pts[e.poly[i]] }

// inCone reports whether the segment from vertex i toward b lies inside
// the polygon near i.
func (e *earClipper) inCone(i int, b mgl64.Vec2) bool {
	a, a0, a1 := e.at(i), e.at(e.prev(i)), e.at(e.next(i))
	if leftOn(a, a1, a0) {
		return left(a, b, a0) && left(b, a, a1)
	}
	return !(leftOn(a, b, a1) && leftOn(b, a, a0))
}

// diagonalie reports whether ij crosses no polygon edge, ignoring edges
// that touch i or j, including their duplicates on a hole bridge.
func (e *earClipper) diagonalie(i, j int) bool {
	a, b := e.at(i), e.at(j)
	for k := range e.poly {
		k1 := e.next(k)
		if k == i || k1 == i || k == j || k1 == j {
			continue
		}
		c, d := e.at(k), e.at(k1)
		if a == c || a == d || b == c || b == d {
			continue
		}
		if intersect(a, b, c, d) {
			return false
		}
	}
	return true
}

func (e *earClipper) diagonal(i, j int) bool {
	return e.inCone(i, e.at(j)) && e.inCone(j, e.at(i)) && e.diagonalie(i, j)
}

// isEar reports whether vertex i can be clipped.
func (e *earClipper) isEar(i int) bool { return e.diagonal(e.prev(i), e.next(i)) }

// clip appends the triangles to dst. It reports false when it had to stop
// before the polygon was fully triangulated.
func (e *earClipper) clip(dst []uint16) ([]uint16, bool) {
	e.ear = e.ear[:0]
	for i := range e.poly {
		e.ear = append(e.ear, e.isEar(i))
	}

	for len(e.poly) > 3 {
		// Clip the ear with the shortest diagonal.
		best, bestLen := -1, 0.0
		for i, ok := range e.ear {
			if !ok {
				continue
			}
			l := e.at(e.next(i)).Sub(e.at(e.prev(i))).LenSqr()
			if best < 0 || l < bestLen {
				best, bestLen = i, l
			}
		}
		if best < 0 {
			// Rings touching each other can leave no proper ear; any
			// convex corner keeps the clipping going.
			for i := range e.poly {
				if left(e.at(e.prev(i)), e.at(i), e.at(e.next(i))) {
					best = i
					break
				}
			}
			if best < 0 {
				// Only collinear vertices remain: nothing left to cover.
				return dst, ringArea2(e.pts, e.poly) <= 0
			}
		}

		i0, i2 := e.prev(best), e.next(best)
		dst = append(dst, uint16(e.poly[i0]), uint16(e.poly[best]), uint16(e.poly[i2]))

		e.poly = slices.Delete(e.poly, best, best+1)
		e.ear = slices.Delete(e.ear, best, best+1)
		if best >= len(e.poly) {
			best = 0
		}
		p := e.prev(best)
		e.ear[p] = e.isEar(p)
		e.ear[best] = e.isEar(best)
	}
	if len(e.poly) == 3 && left(e.at(0), e.at(1), e.at(2)) {
		dst = append(dst, uint16(e.poly[0]), uint16(e.poly[1]), uint16(e.poly[2]))
	}
	return dst, true
}

// bridgeHole joins hole to poly, the outer ring with previously merged
// holes, through the vertex of poly closest to the hole's leftmost vertex
// that sees it without crossing any ring. others are the holes still to
// be merged. It reports false when no bridge exists.
func bridgeHole(pts []mgl64.Vec2, poly, hole []int, others [][]int) ([]int, bool) {
	outer := &earClipper{pts: pts, poly: poly}
	start := leftmost(pts, hole)
	for n := range hole {
		h := (start + n) % len(hole)
		hp := pts[hole[h]]

		best, bestDist := -1, 0.0
		for j := range poly {
			if !outer.inCone(j, hp) {
				continue
			}
			d := pts[poly[j]].Sub(hp).LenSqr()
			if best >= 0 && d >= bestDist {
				continue
			}
			if crossesRing(pts, poly, pts[poly[j]], hp) || crossesRing(pts, hole, pts[poly[j]], hp) {
				continue
			}
			blocked := false
			for _, other := range others {
				if crossesRing(pts, other, pts[poly[j]], hp) {
					blocked = true
					break
				}
			}
			if !blocked {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			continue
		}

		merged := make([]int, 0, len(poly)+len(hole)+2)
		for k := 0; k <= len(poly); k++ {
			merged = append(merged, poly[(best+k)%len(poly)])
		}
		for k := 0; k <= len(hole); k++ {
			merged = append(merged, hole[(h+k)%len(hole)])
		}
		return merged, true
	}
	return poly, false
}

// crossesRing reports whether segment ab crosses an edge of ring that
// does not end at a or b.
func crossesRing(pts []mgl64.Vec2, ring []int, a, b mgl64.Vec2) bool {
	for i, v := range ring {
		c, d := pts[v], pts[ring[(i+1)%len(ring)]]
		if a == c || a == d || b == c || b == d {
			continue
		}
		if intersect(a, b, c, d) {
			return true
		}
	}
	return false
}

func leftmost(pts []mgl64.Vec2, ring []int) int {
	best := 0
	for i, v := range ring {
		p, q := pts[v], pts[ring[best]]
		if p[0] < q[0] || (p[0] == q[0] && p[1] < q[1]) {
			best = i
		}
	}
	return best
}

// triangulate appends the counter-clockwise triangles covering rings[0]
// minus the holes rings[1:] to dst. Rings must already be oriented by
// orientRings. It reports false when a hole could not be bridged or the
// clipping stopped early; dst then holds the triangles found so far.
func triangulate(pts []mgl64.Vec2, rings [][]int, dst []uint16) ([]uint16, bool) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return dst, len(rings) == 0
	}
	ok := true
	poly := slices.Clone(rings[0])

	holes := slices.Clone(rings[1:])
	slices.SortStableFunc(holes, func(a, b []int) int {
		pa, pb := pts[a[leftmost(pts, a)]], pts[b[leftmost(pts, b)]]
		switch {
		case pa[0] < pb[0]:
			return -1
		case pa[0] > pb[0]:
			return 1
		}
		return 0
	})
	for i, hole := range holes {
		var bridged bool
		poly, bridged = bridgeHole(pts, poly, hole, holes[i+1:])
		ok = ok && bridged
	}

	e := &earClipper{pts: pts, poly: poly}
	dst, clipped := e.clip(dst)
	return dst, ok && clipped
}
