package soft

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// vertex is a transformed vertex in y-up window coordinates. Texture
// coordinates are divided by w for perspective-correct interpolation.
type vertex struct {
	x, y, z float32
	s, t, q float32
	ok      bool
}

func lerpVertex(a, b vertex, f float32) vertex {
	return vertex{
		x:  a.x + (b.x-a.x)*f,
		y:  a.y + (b.y-a.y)*f,
		z:  a.z + (b.z-a.z)*f,
		s:  a.s + (b.s-a.s)*f,
		t:  a.t + (b.t-a.t)*f,
		q:  a.q + (b.q-a.q)*f,
		ok: true,
	}
}

// DrawElements draws count uint16 indices starting offset bytes into the
// bound element buffer.
func (d *Device) DrawElements(mode gputypes.PrimitiveTopology, count, offset int) {
	if d.program == 0 {
		d.logger.Debug("soft: draw without a program")
		return
	}
	eb, ok := d.buffers[d.bound[gpu.ElementArrayBuffer]]
	if !ok {
		d.logger.Debug("soft: draw without an element buffer")
		return
	}
	s, ok := d.surface()
	if !ok {
		return
	}
	clip := d.viewport.Intersect(image.Rect(0, 0, s.w, s.h))
	if clip.Empty() {
		return
	}

	idx := make([]int, 0, count)
	for i := 0; i < count; i++ {
		off := offset + 2*i
		if off < 0 || off+2 > len(eb.data) {
			break
		}
		idx = append(idx, int(binary.LittleEndian.Uint16(eb.data[off:])))
	}
	verts := make([]vertex, len(idx))
	for i, v := range idx {
		verts[i] = d.transform(v)
	}

	switch mode {
	case gputypes.PrimitiveTopologyTriangleList:
		for i := 0; i+2 < len(verts); i += 3 {
			d.triangle(&s, clip, verts[i], verts[i+1], verts[i+2])
		}
	case gputypes.PrimitiveTopologyTriangleStrip:
		for i := 0; i+2 < len(verts); i++ {
			if idx[i] == idx[i+1] || idx[i+1] == idx[i+2] || idx[i] == idx[i+2] {
				continue
			}
			if i%2 == 0 {
				d.triangle(&s, clip, verts[i], verts[i+1], verts[i+2])
			} else {
				d.triangle(&s, clip, verts[i+1], verts[i], verts[i+2])
			}
		}
	case gputypes.PrimitiveTopologyLineList:
		for i := 0; i+1 < len(verts); i += 2 {
			d.line(&s, clip, verts[i], verts[i+1])
		}
	case gputypes.PrimitiveTopologyLineStrip:
		for i := 0; i+1 < len(verts); i++ {
			d.line(&s, clip, verts[i], verts[i+1])
		}
	case gputypes.PrimitiveTopologyPointList:
		for _, v := range verts {
			d.point(&s, clip, v)
		}
	}
}

func (d *Device) transform(i int) vertex {
	p := d.fetch(0, i)
	tc := d.fetch(1, i)
	c := d.uniforms.MVP.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	if c[3] <= 0 {
		return vertex{}
	}
	inv := 1 / c[3]
	vp := d.viewport
	uv := d.uniforms.TexCoordMatrix.Mul3x1(mgl32.Vec3{tc[0], tc[1], 1})
	return vertex{
		x:  float32(vp.Min.X) + (c[0]*inv+1)/2*float32(vp.Dx()),
		y:  float32(vp.Min.Y) + (c[1]*inv+1)/2*float32(vp.Dy()),
		z:  (c[2]*inv + 1) / 2,
		s:  uv[0] * inv,
		t:  uv[1] * inv,
		q:  inv,
		ok: true,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// ownsEdge implements the fill rule for counter-clockwise triangles in y-up
// coordinates: pixels centered exactly on an edge belong to left and top
// edges only.
func ownsEdge(ax, ay, bx, by float32) bool {
	dy := by - ay
	return dy < 0 || (dy == 0 && bx < ax)
}

func (d *Device) triangle(s *surface, clip image.Rectangle, a, b, c vertex) {
	if !a.ok || !b.ok || !c.ok {
		return
	}
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 || (d.cullFace && area < 0) {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	r := image.Rect(
		int(math.Floor(float64(min(a.x, b.x, c.x)))),
		int(math.Floor(float64(min(a.y, b.y, c.y)))),
		int(math.Ceil(float64(max(a.x, b.x, c.x)))),
		int(math.Ceil(float64(max(a.y, b.y, c.y)))),
	).Intersect(clip)

	ownA := ownsEdge(b.x, b.y, c.x, c.y)
	ownB := ownsEdge(c.x, c.y, a.x, a.y)
	ownC := ownsEdge(a.x, a.y, b.x, b.y)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		cy := float32(py) + 0.5
		for px := r.Min.X; px < r.Max.X; px++ {
			cx := float32(px) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, cx, cy)
			w1 := edge(c.x, c.y, a.x, a.y, cx, cy)
			w2 := edge(a.x, a.y, b.x, b.y, cx, cy)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if (w0 == 0 && !ownA) || (w1 == 0 && !ownB) || (w2 == 0 && !ownC) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area
			d.fragment(s, px, py,
				l0*a.z+l1*b.z+l2*c.z,
				l0*a.s+l1*b.s+l2*c.s,
				l0*a.t+l1*b.t+l2*c.t,
				l0*a.q+l1*b.q+l2*c.q,
				1)
		}
	}
}

// line rasterizes a segment as a quad of the current line width with
// antialiased coverage.
func (d *Device) line(s *surface, clip image.Rectangle, a, b vertex) {
	if !a.ok || !b.ok {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	length2 := dx*dx + dy*dy
	if length2 == 0 {
		return
	}
	length := float32(math.Sqrt(float64(length2)))
	hw := max(d.lineWidth, 1) / 2
	nx, ny := -dy/length*hw, dx/length*hw

	quad := [4][2]float32{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}
	lo, hi := quad[0], quad[0]
	for _, p := range quad[1:] {
		lo = [2]float32{min(lo[0], p[0]), min(lo[1], p[1])}
		hi = [2]float32{max(hi[0], p[0]), max(hi[1], p[1])}
	}
	r := image.Rect(
		int(math.Floor(float64(lo[0]))), int(math.Floor(float64(lo[1]))),
		int(math.Ceil(float64(hi[0]))), int(math.Ceil(float64(hi[1]))),
	).Intersect(clip)
	if r.Empty() {
		return
	}

	mask := d.coverage(r, quad[:])
	for py := r.Min.Y; py < r.Max.Y; py++ {
		cy := float32(py) + 0.5
		row := mask.Pix[(py-r.Min.Y)*mask.Stride:]
		for px := r.Min.X; px < r.Max.X; px++ {
			cov := row[px-r.Min.X]
			if cov == 0 {
				continue
			}
			cx := float32(px) + 0.5
			f := ((cx-a.x)*dx + (cy-a.y)*dy) / length2
			v := lerpVertex(a, b, min(max(f, 0), 1))
			d.fragment(s, px, py, v.z, v.s, v.t, v.q, float32(cov)/255)
		}
	}
}

// coverage rasterizes polygon, in window coordinates, into an alpha mask
// covering r.
func (d *Device) coverage(r image.Rectangle, polygon [][2]float32) *image.Alpha {
	w, h := r.Dx(), r.Dy()
	if d.mask.Rect.Dx() != w || d.mask.Rect.Dy() != h {
		d.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	}
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	z := &d.raster
	z.Reset(w, h)
	z.DrawOp = xdraw.Src
	z.MoveTo(polygon[0][0]-ox, polygon[0][1]-oy)
	for _, p := range polygon[1:] {
		z.LineTo(p[0]-ox, p[1]-oy)
	}
	z.ClosePath()
	z.Draw(d.mask, d.mask.Bounds(), image.Opaque, image.Point{})
	return d.mask
}

func (d *Device) point(s *surface, clip image.Rectangle, v vertex) {
	if !v.ok {
		return
	}
	px, py := int(math.Floor(float64(v.x))), int(math.Floor(float64(v.y)))
	if image.Pt(px, py).In(clip) {
		d.fragment(s, px, py, v.z, v.s, v.t, v.q, 1)
	}
}

// fragment shades and writes one pixel. s, t and q are the interpolated
// perspective-divided texture coordinates.
func (d *Device) fragment(sf *surface, px, py int, z, s, t, q, coverage float32) {
	if z < 0 || z > 1 {
		return
	}
	di := -1
	if d.depthTest && sf.depth != nil {
		di = sf.row(py)*sf.w + px
		if z > sf.depth[di] {
			return
		}
	}

	u := &d.uniforms
	src := u.Color
	if u.EnableTexture {
		var texel [4]float32
		if q != 0 {
			texel = d.sample(s/q, t/q)
		}
		if u.EnablePickMode {
			keep := float32(math.Floor(float64(texel[3]) + 0.5))
			src = [4]float32{src[0] * keep, src[1] * keep, src[2] * keep, src[3] * keep}
		} else {
			src = [4]float32{src[0] * texel[0], src[1] * texel[1], src[2] * texel[2], src[3] * texel[3]}
		}
	}
	if u.EnablePickMode {
		if coverage < 0.5 {
			return
		}
		coverage = 1
	}

	o := sf.offset(px, py)
	dst := sf.pix[o : o+4 : o+4]
	for k := 0; k < 4; k++ {
		sc := src[k] * coverage
		dc := float32(dst[k]) / 255
		if d.blend {
			dc = sc + dc*(1-src[3]*coverage)
		} else {
			dc = sc + dc*(1-coverage)
		}
		dst[k] = unit8(dc)
	}
	if di >= 0 {
		sf.depth[di] = z
	}
}

// sample returns the premultiplied texel of the bound texture nearest to
// (s, t). Render targets clamp; other textures repeat outside [0, 1].
func (d *Device) sample(s, t float32) [4]float32 {
	tex, ok := d.textures[d.texture]
	if !ok {
		return [4]float32{}
	}
	w, h := tex.desc.Width, tex.desc.Height
	if tex.desc.Usage&gpu.TextureUsageRenderAttachment == 0 {
		s, t = wrap(s), wrap(t)
	}
	x := min(max(int(s*float32(w)), 0), w-1)
	y := min(max(int(t*float32(h)), 0), h-1)
	o := (y*w + x) * 4
	p := tex.pix[o : o+4 : o+4]
	return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func wrap(v float32) float32 {
	if v >= 0 && v <= 1 {
		return v
	}
	return v - float32(math.Floor(float64(v)))
}
