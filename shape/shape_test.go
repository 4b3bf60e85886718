package shape

import (
	"bytes"
	"image"
	"log/slog"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/gputypes"
)

func newContext(t testing.TB, cam render.Camera) *render.Context {
	t.Helper()
	rc := render.NewContext(draw.NewQueue(16), render.Config{})
	rc.BeginFrame(cam, image.Rect(0, 0, 400, 300), false)
	return rc
}

func overview() render.Camera {
	return render.Camera{Position: geom.NewPosition(40, -110, 2e7)}
}

func scenarioPositions(altitudes ...float64) []geom.Position {
	if len(altitudes) == 0 {
		altitudes = []float64{1e5, 1e6, 1e5}
	}
	return []geom.Position{
		geom.NewPosition(50, -180, altitudes[0]),
		geom.NewPosition(30, -100, altitudes[1]),
		geom.NewPosition(50, -40, altitudes[2]),
	}
}

func vertexCount(p *Path) int { return len(p.VertexArray()) / pathVertexStride }

func TestPathVertexCounts(t *testing.T) {
	tests := []struct {
		name      string
		positions []geom.Position
		pathType  PathType
		k         int
		want      int
	}{
		{"linear", scenarioPositions(), Linear, 10, 3},
		{"great circle", scenarioPositions(), GreatCircle, 10, 23},
		{"rhumb line", scenarioPositions(), RhumbLine, 4, 11},
		{"no intermediate points", scenarioPositions(), GreatCircle, 0, 3},
		{"degenerate edge", []geom.Position{
			geom.NewPosition(10, 10, 0),
			geom.NewPosition(10, 10, 0),
			geom.NewPosition(20, 20, 0),
		}, GreatCircle, 2, 5},
		{"single position", []geom.Position{geom.NewPosition(1, 2, 3)}, GreatCircle, 10, 1},
		{"empty", []geom.Position{}, GreatCircle, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newContext(t, overview())
			p := NewPath(tt.positions)
			p.SetPathType(tt.pathType)
			p.SetMaximumIntermediatePoints(tt.k)
			p.AssembleGeometry(rc)

			if got := vertexCount(p); got != tt.want {
				t.Errorf("vertex count = %d, want %d", got, tt.want)
			}
			if got := len(p.OutlineElements()); got != tt.want {
				t.Errorf("outline elements = %d, want %d", got, tt.want)
			}
			if len(p.InteriorElements()) != 0 || len(p.VerticalElements()) != 0 {
				t.Error("unextruded path has interior or vertical elements")
			}
			for i, e := range p.OutlineElements() {
				if int(e) != i {
					t.Fatalf("outline element %d = %d", i, e)
				}
			}
		})
	}
}

func TestPathScenarioCartesian(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	p.AssembleGeometry(rc)

	if p.IsSurfaceShape() {
		t.Fatal("path with absolute altitudes is a surface shape")
	}
	if got := vertexCount(p); got != 23 {
		t.Fatalf("vertex count = %d, want 23", got)
	}
	if !p.BoundingSector().IsEmpty() {
		t.Errorf("bounding sector = %+v, want empty", p.BoundingSector())
	}
	box := p.BoundingBox()
	if box.IsUnitBox() {
		t.Fatal("bounding box is the unit box")
	}

	origin := rc.GeographicToCartesian(50, -180, 1e5, globe.Absolute)
	if !p.VertexOrigin().ApproxEqualThreshold(origin, 1e-6) {
		t.Errorf("vertex origin = %v, want %v", p.VertexOrigin(), origin)
	}
	const slack = 2 // float32 vertex rounding, in meters
	for _, pos := range scenarioPositions() {
		pt := rc.GeographicToCartesian(pos.Latitude, pos.Longitude, pos.Altitude, globe.Absolute)
		for k := 0; k < 3; k++ {
			if pt[k] < box.Min[k]-slack || pt[k] > box.Max[k]+slack {
				t.Errorf("%v outside bounding box %+v", pos, box)
			}
		}
	}

	// The first vertex sits on the origin and the path length accumulates.
	va := p.VertexArray()
	if va[0] != 0 || va[1] != 0 || va[2] != 0 || va[3] != 0 {
		t.Errorf("first vertex = %v, want zeros", va[:4])
	}
	for i := 1; i < vertexCount(p); i++ {
		if va[i*4+3] <= va[(i-1)*4+3] {
			t.Fatalf("texture coordinate not increasing at vertex %d", i)
		}
	}
}

func TestPathScenarioSurface(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions(0, 0, 0))
	p.SetAltitudeMode(globe.ClampToGround)
	p.SetFollowTerrain(true)
	p.SetExtrude(true)
	p.AssembleGeometry(rc)

	if !p.IsSurfaceShape() {
		t.Fatal("clamped terrain-following path is not a surface shape")
	}
	if got := len(p.OutlineElements()); got != 23 {
		t.Errorf("outline elements = %d, want 23", got)
	}
	if len(p.InteriorElements()) != 0 || len(p.VerticalElements()) != 0 {
		t.Error("surface path has interior or vertical elements")
	}
	if !p.BoundingBox().IsUnitBox() {
		t.Errorf("bounding box = %+v, want the unit box", p.BoundingBox())
	}
	if want := (mgl64.Vec3{-180, 50, 0}); p.VertexOrigin() != want {
		t.Errorf("vertex origin = %v, want %v", p.VertexOrigin(), want)
	}

	s := p.BoundingSector()
	const eps = 1e-3
	if s.MinLatitude > 30+eps || s.MaxLatitude < 50-eps {
		t.Errorf("sector latitudes [%v, %v] miss [30, 50]", s.MinLatitude, s.MaxLatitude)
	}
	if s.MinLongitude > -180+eps || s.MaxLongitude < -40-eps {
		t.Errorf("sector longitudes [%v, %v] miss [-180, -40]", s.MinLongitude, s.MaxLongitude)
	}
	for i := 2; i < len(p.VertexArray()); i += pathVertexStride {
		if p.VertexArray()[i] != 0 {
			t.Fatalf("surface vertex z = %v, want 0", p.VertexArray()[i])
		}
	}
}

func TestPathExtrude(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	p.SetMaximumIntermediatePoints(1)
	p.SetExtrude(true)
	p.AssembleGeometry(rc)

	if got := vertexCount(p); got != 10 {
		t.Fatalf("vertex count = %d, want 10", got)
	}
	if got := len(p.InteriorElements()); got != 10 {
		t.Errorf("interior elements = %d, want 10", got)
	}
	if want := []uint16{0, 2, 4, 6, 8}; !slices.Equal(p.OutlineElements(), want) {
		t.Errorf("outline = %v, want %v", p.OutlineElements(), want)
	}
	if want := []uint16{0, 1, 4, 5, 8, 9}; !slices.Equal(p.VerticalElements(), want) {
		t.Errorf("verticals = %v, want %v", p.VerticalElements(), want)
	}
	for _, e := range p.InteriorElements() {
		if int(e) >= vertexCount(p) {
			t.Fatalf("interior element %d out of range", e)
		}
	}

	// Ground vertices sit below their path vertices.
	va := p.VertexArray()
	origin := p.VertexOrigin()
	for v := 0; v < 10; v += 2 {
		top := mgl64.Vec3{float64(va[v*4]), float64(va[v*4+1]), float64(va[v*4+2])}.Add(origin)
		ground := mgl64.Vec3{float64(va[v*4+4]), float64(va[v*4+5]), float64(va[v*4+6])}.Add(origin)
		if top.Len() <= ground.Len() {
			t.Errorf("vertex %d: ground vertex not below the path", v)
		}
	}
}

// decodePositions converts the assembled Cartesian vertices of p back to
// geographic positions.
func decodePositions(rc *render.Context, p *Path) []geom.Position {
	va := p.VertexArray()
	origin := p.VertexOrigin()
	positions := make([]geom.Position, 0, len(va)/pathVertexStride)
	for i := 0; i+2 < len(va); i += pathVertexStride {
		pt := mgl64.Vec3{float64(va[i]), float64(va[i+1]), float64(va[i+2])}.Add(origin)
		positions = append(positions, rc.Globe.Position(pt))
	}
	return positions
}

func angleDiff(a, b float64) float64 {
	return math.Abs(math.Mod(a-b+540, 360) - 180)
}

func TestPathIntermediatePositions(t *testing.T) {
	tests := []struct {
		name       string
		begin, end geom.Position
		pathType   PathType
		k          int
		lonStep    float64 // expected longitude step along the equator, 0 to skip
	}{
		{"great circle along the equator", geom.NewPosition(0, 0, 0), geom.NewPosition(0, 90, 9000), GreatCircle, 8, 10},
		{"great circle", geom.NewPosition(10, -30, 0), geom.NewPosition(50, 60, 5e4), GreatCircle, 4, 0},
		{"rhumb line", geom.NewPosition(0, 0, 0), geom.NewPosition(40, 40, 2e4), RhumbLine, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newContext(t, overview())
			p := NewPath([]geom.Position{tt.begin, tt.end})
			p.SetPathType(tt.pathType)
			p.SetMaximumIntermediatePoints(tt.k)
			p.AssembleGeometry(rc)

			got := decodePositions(rc, p)
			if len(got) != tt.k+2 {
				t.Fatalf("%d vertices, want %d", len(got), tt.k+2)
			}

			from := tt.begin.Location()
			track := func(to geom.Location) (azimuth, distance float64) {
				if tt.pathType == RhumbLine {
					return from.RhumbAzimuth(to), from.RhumbDistance(to)
				}
				return from.GreatCircleAzimuth(to), from.GreatCircleDistance(to)
			}
			azimuth, length := track(tt.end.Location())

			for i := 1; i < len(got); i++ {
				frac := float64(i) / float64(tt.k+1)
				pos := got[i]

				wantAlt := tt.begin.Altitude + frac*(tt.end.Altitude-tt.begin.Altitude)
				if math.Abs(pos.Altitude-wantAlt) > 2 {
					t.Errorf("vertex %d altitude = %.1f, want %.1f", i, pos.Altitude, wantAlt)
				}
				az, dist := track(pos.Location())
				if math.Abs(dist-frac*length) > 1e-6 {
					t.Errorf("vertex %d is %.7f rad along the track, want %.7f", i, dist, frac*length)
				}
				if angleDiff(az, azimuth) > 1e-3 {
					t.Errorf("vertex %d azimuth from the start = %.5f, want %.5f", i, az, azimuth)
				}
				if tt.lonStep > 0 {
					if math.Abs(pos.Latitude) > 1e-5 || math.Abs(pos.Longitude-tt.lonStep*float64(i)) > 1e-5 {
						t.Errorf("vertex %d at (%.6f, %.6f), want (0, %v)", i, pos.Latitude, pos.Longitude, tt.lonStep*float64(i))
					}
				}
			}
		})
	}
}

func TestPathExtrudeGroundFollowsTerrain(t *testing.T) {
	g := globe.New()
	g.Elevation = globe.ElevationFunc(func(lat, lon float64) float64 { return 500 })
	rc := render.NewContext(draw.NewQueue(4), render.Config{Globe: g})
	rc.BeginFrame(overview(), image.Rect(0, 0, 400, 300), false)

	p := NewPath(scenarioPositions())
	p.SetMaximumIntermediatePoints(0)
	p.SetExtrude(true)
	p.AssembleGeometry(rc)

	got := decodePositions(rc, p)
	if len(got) != 6 {
		t.Fatalf("%d vertices, want 6", len(got))
	}
	for i, want := range scenarioPositions() {
		top, ground := got[2*i], got[2*i+1]
		if math.Abs(top.Altitude-want.Altitude) > 2 {
			t.Errorf("position %d altitude = %.1f, want %.1f", i, top.Altitude, want.Altitude)
		}
		if math.Abs(ground.Altitude-500) > 2 {
			t.Errorf("position %d ground altitude = %.1f, want the terrain at 500", i, ground.Altitude)
		}
	}
}

func TestPathAssemblyIsDeterministic(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	p.SetExtrude(true)
	p.AssembleGeometry(rc)
	v1 := p.Version()
	va := slices.Clone(p.VertexArray())
	interior := slices.Clone(p.InteriorElements())
	outline := slices.Clone(p.OutlineElements())
	verticals := slices.Clone(p.VerticalElements())

	p.AssembleGeometry(rc)
	if p.Version() != v1+1 {
		t.Errorf("version = %d, want %d", p.Version(), v1+1)
	}
	if !slices.Equal(va, p.VertexArray()) || !slices.Equal(interior, p.InteriorElements()) ||
		!slices.Equal(outline, p.OutlineElements()) || !slices.Equal(verticals, p.VerticalElements()) {
		t.Error("reassembly produced different geometry")
	}
}

func TestPathNilPositionsPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"NewPath", func() { NewPath(nil) }},
		{"SetPositions", func() { NewPath([]geom.Position{}).SetPositions(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestPathVertexLimit(t *testing.T) {
	var buf bytes.Buffer
	rc := render.NewContext(draw.NewQueue(1), render.Config{
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	})
	rc.BeginFrame(overview(), image.Rect(0, 0, 400, 300), false)

	positions := make([]geom.Position, 70000)
	for i := range positions {
		positions[i] = geom.NewPosition(float64(i%100)*0.01, float64(i/100)*0.01, 0)
	}
	p := NewPath(positions)
	p.SetPathType(Linear)
	p.AssembleGeometry(rc)

	if got := vertexCount(p); got != math.MaxUint16 {
		t.Errorf("vertex count = %d, want %d", got, math.MaxUint16)
	}
	if !strings.Contains(buf.String(), "truncated") {
		t.Errorf("no truncation warning logged: %q", buf.String())
	}
}

func TestPathSubmitCartesian(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	p.SetExtrude(true)
	p.Attributes.DrawVerticals = true
	p.Attributes.OutlineWidth = 3
	Render(rc, p)

	if rc.DrawableCount() != 1 {
		t.Fatalf("DrawableCount() = %d, want 1", rc.DrawableCount())
	}
	d, ok := rc.Queue().Poll().(*draw.DrawableShape)
	if !ok {
		t.Fatal("path did not offer a DrawableShape")
	}
	s := &d.State
	if s.EnableCullFace || !s.EnableDepthTest {
		t.Errorf("cull face %v, depth test %v", s.EnableCullFace, s.EnableDepthTest)
	}
	if s.VertexStride != 16 || s.VertexOrigin != p.VertexOrigin() {
		t.Errorf("stride %d, origin %v", s.VertexStride, s.VertexOrigin)
	}
	if s.VertexBuffer.ByteSize() != 4*len(p.VertexArray()) {
		t.Errorf("vertex buffer %d bytes", s.VertexBuffer.ByteSize())
	}

	interior := len(p.InteriorElements())
	outline := len(p.OutlineElements())
	want := []draw.DrawElements{
		{Mode: gputypes.PrimitiveTopologyLineStrip, Count: outline, Offset: 2 * interior, Color: gputypes.ColorRed, LineWidth: 3},
		{Mode: gputypes.PrimitiveTopologyLineList, Count: len(p.VerticalElements()), Offset: 2 * (interior + outline), Color: gputypes.ColorRed, LineWidth: 3},
		{Mode: gputypes.PrimitiveTopologyTriangleStrip, Count: interior, Offset: 0, Color: gputypes.ColorWhite, LineWidth: 3},
	}
	prims := s.Prims()
	if len(prims) != len(want) {
		t.Fatalf("%d prims, want %d", len(prims), len(want))
	}
	for i, w := range want {
		g := prims[i]
		if g.Mode != w.Mode || g.Count != w.Count || g.Offset != w.Offset || g.Color != w.Color || g.LineWidth != w.LineWidth {
			t.Errorf("prim %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestPathSubmitSurface(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions(0, 0, 0))
	p.SetAltitudeMode(globe.ClampToGround)
	p.SetFollowTerrain(true)
	Render(rc, p)

	d, ok := rc.Queue().Poll().(*draw.DrawableSurfaceShape)
	if !ok {
		t.Fatal("surface path did not offer a DrawableSurfaceShape")
	}
	if d.Sector != p.BoundingSector() {
		t.Errorf("drawable sector %+v, want %+v", d.Sector, p.BoundingSector())
	}
	prims := d.State.Prims()
	if len(prims) != 1 {
		t.Fatalf("%d prims, want the outline only", len(prims))
	}
	if prims[0].Mode != gputypes.PrimitiveTopologyLineStrip || prims[0].Count != 23 || prims[0].LineWidth != 1.5 {
		t.Errorf("outline prim = %+v", prims[0])
	}
}

func TestPathOutlineTexture(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	p.SetExtrude(true)
	p.Attributes.DrawVerticals = true
	p.Attributes.OutlineImage = image.NewNRGBA(image.Rect(0, 0, 8, 1))
	Render(rc, p)

	d := rc.Queue().Poll().(*draw.DrawableShape)
	prims := d.State.Prims()
	if prims[0].Texture == nil {
		t.Fatal("outline prim has no texture")
	}
	if prims[0].TexCoordAttrib != (draw.VertexAttrib{Size: 1, Offset: 12}) {
		t.Errorf("tex coord attrib = %+v", prims[0].TexCoordAttrib)
	}
	if prims[0].TexCoordMatrix.IsIdentity() {
		t.Error("outline texture is not scaled to the path length")
	}
	for _, prim := range prims[1:] {
		if prim.Texture != nil {
			t.Errorf("%v prim is textured", prim.Mode)
		}
	}
}

func TestPathBufferCacheVersions(t *testing.T) {
	rc := newContext(t, overview())
	p := NewPath(scenarioPositions())
	Render(rc, p)
	if s := rc.CacheStats(); s.Len != 2 {
		t.Fatalf("cache holds %d entries, want 2", s.Len)
	}
	first := rc.Queue().Poll().(*draw.DrawableShape).State.VertexBuffer

	rc.Queue().Clear()
	rc.BeginFrame(overview(), image.Rect(0, 0, 400, 300), false)
	Render(rc, p)
	if again := rc.Queue().Poll().(*draw.DrawableShape).State.VertexBuffer; again != first {
		t.Error("unchanged path rebuilt its vertex buffer")
	}

	rc.Queue().Clear()
	p.SetExtrude(true)
	Render(rc, p)
	if s := rc.CacheStats(); s.Len != 2 {
		t.Errorf("cache holds %d entries after reassembly, want 2", s.Len)
	}
	if n := rc.ReleaseEvicted(); n != 2 {
		t.Errorf("ReleaseEvicted() = %d, want 2", n)
	}
}

func TestRenderPickMode(t *testing.T) {
	rc := render.NewContext(draw.NewQueue(4), render.Config{})
	rc.BeginFrame(overview(), image.Rect(0, 0, 400, 300), true)

	a := NewPath(scenarioPositions())
	b := NewPath(scenarioPositions(2e5, 2e5, 2e5))
	b.Object = "flight 2"
	Render(rc, a)
	Render(rc, b)

	picked := rc.PickedObjects()
	if len(picked) != 2 {
		t.Fatalf("%d picked objects, want 2", len(picked))
	}
	if picked[0].ID != 1 || picked[0].Object != a {
		t.Errorf("picked[0] = %+v", picked[0])
	}
	if picked[1].ID != 2 || picked[1].Object != "flight 2" {
		t.Errorf("picked[1] = %+v", picked[1])
	}

	rc.Queue().Sort()
	for rc.Queue().Remaining() > 0 {
		d := rc.Queue().Poll().(*draw.DrawableShape)
		c := d.State.Prims()[0].Color
		if id := geom.ColorToIdentifier(c); id != 1 && id != 2 {
			t.Errorf("prim color %v is not a pick color", c)
		}
	}
}

func TestRenderHighlightAndCulling(t *testing.T) {
	t.Run("highlight hides everything", func(t *testing.T) {
		rc := render.NewContext(draw.NewQueue(4), render.Config{})
		rc.BeginFrame(overview(), image.Rect(0, 0, 400, 300), true)
		p := NewPath(scenarioPositions())
		p.HighlightAttributes = &Attributes{}
		p.Highlighted = true
		Render(rc, p)
		if rc.DrawableCount() != 0 || len(rc.PickedObjects()) != 0 {
			t.Errorf("drawables %d, picked %d", rc.DrawableCount(), len(rc.PickedObjects()))
		}
	})
	t.Run("outside the frustum", func(t *testing.T) {
		rc := newContext(t, render.Camera{Position: geom.NewPosition(-40, 70, 1e6)})
		Render(rc, NewPath(scenarioPositions()))
		if rc.DrawableCount() != 0 {
			t.Error("path on the far side of the globe was drawn")
		}
	})
}

func TestEllipseElements(t *testing.T) {
	for _, n := range []int{32, 64, 256} {
		e := assembleEllipseElements(n)
		if got := e.top.count(); got != 2*n {
			t.Errorf("%d intervals: top strip %d elements, want %d", n, got, 2*n)
		}
		outline := e.elements[e.outline.lower:e.outline.upper]
		if len(outline) != n+1 || outline[0] != 0 || outline[n] != 0 {
			t.Errorf("%d intervals: outline not closed: len %d", n, len(outline))
		}
		if got := e.side.count(); got != 2*n+2 {
			t.Errorf("%d intervals: side strip %d elements, want %d", n, got, 2*n+2)
		}

		spines := make(map[uint16]bool)
		for _, v := range e.elements[e.top.lower:e.top.upper] {
			if int(v) >= skirtOffset(n) {
				t.Fatalf("%d intervals: top element %d beyond the spine", n, v)
			}
			if int(v) >= n {
				spines[v] = true
			}
		}
		if len(spines) != spineCount(n) {
			t.Errorf("%d intervals: top strip uses %d spine vertices, want %d", n, len(spines), spineCount(n))
		}
	}
}

func TestEllipseIntervals(t *testing.T) {
	tests := []struct {
		name     string
		altitude float64
		max      int
		want     int
	}{
		{"far", 1e7, DefaultMaximumIntervals, MinIntervals},
		{"inside the radius", 1e4, DefaultMaximumIntervals, DefaultMaximumIntervals},
		{"odd maximum", 1e4, 101, 100},
		{"maximum below minimum", 1e4, 8, MinIntervals},
		{"maximum above the index limit", 1e4, 40001, MaxIntervals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, tt.altitude)})
			e := NewEllipse(geom.NewPosition(0, 0, 0), 1e5, 5e4)
			e.SetMaximumIntervals(tt.max)
			e.AssembleGeometry(rc)
			if e.ActiveIntervals() != tt.want {
				t.Errorf("ActiveIntervals() = %d, want %d", e.ActiveIntervals(), tt.want)
			}
			if got := len(e.VertexArray()) / ellipseVertexStride; got != tt.want+spineCount(tt.want) {
				t.Errorf("vertex count = %d, want %d", got, tt.want+spineCount(tt.want))
			}
		})
	}
}

func TestEllipseElementsFitVertexCount(t *testing.T) {
	rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, 1e3)})
	e := NewEllipse(geom.NewPosition(0, 0, 0), 5e6, 5e6)
	e.SetExtrude(true)
	e.SetMaximumIntervals(40000)
	e.AssembleGeometry(rc)

	n := e.ActiveIntervals()
	if n != MaxIntervals || n%2 != 0 {
		t.Fatalf("ActiveIntervals() = %d, want %d", n, MaxIntervals)
	}
	vertices := len(e.VertexArray()) / ellipseVertexStride
	if vertices != 2*n+spineCount(n) || vertices > math.MaxUint16 {
		t.Fatalf("vertex count = %d, want %d within uint16 range", vertices, 2*n+spineCount(n))
	}
	for i, el := range assembleEllipseElements(n).elements {
		if int(el) >= vertices {
			t.Fatalf("element %d = %d, beyond %d vertices", i, el, vertices)
		}
	}
}

func TestEllipseRing(t *testing.T) {
	tests := []struct {
		name    string
		heading float64
		major   float64
		minor   float64
		// east and north offsets of vertex 0 and of the quarter vertex
		first, quarter [2]float64
	}{
		{"east-west major", 0, 1e5, 5e4, [2]float64{1e5, 0}, [2]float64{0, 5e4}},
		{"heading 90", 90, 1e5, 5e4, [2]float64{0, -1e5}, [2]float64{5e4, 0}},
		{"minor larger", 0, 5e4, 1e5, [2]float64{0, 1e5}, [2]float64{-5e4, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, 1e7)})
			e := NewEllipse(geom.NewPosition(0, 0, 0), tt.major, tt.minor)
			e.SetHeading(tt.heading)
			e.AssembleGeometry(rc)

			va := e.VertexArray()
			q := e.ActiveIntervals() / 4 * ellipseVertexStride
			check := func(label string, got []float32, want [2]float64) {
				// Arcs are laid out on a sphere but converted on the
				// ellipsoid, which shortens north-south offsets.
				tol := 0.01 * math.Max(tt.major, tt.minor)
				if math.Abs(float64(got[0])-want[0]) > tol || math.Abs(float64(got[1])-want[1]) > tol {
					t.Errorf("%s vertex at (%v, %v), want %v", label, got[0], got[1], want)
				}
			}
			check("first", va[3:5], tt.first)
			check("quarter", va[q+3:q+5], tt.quarter)
		})
	}
}

func TestEllipseExtrudedSubmit(t *testing.T) {
	rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, 1e7)})
	e := NewEllipse(geom.NewPosition(0, 0, 1e4), 1e5, 5e4)
	e.SetExtrude(true)
	e.Attributes.DrawVerticals = true
	Render(rc, e)

	n := e.ActiveIntervals()
	if got := len(e.VertexArray()) / ellipseVertexStride; got != 2*n+spineCount(n) {
		t.Fatalf("vertex count = %d, want %d", got, 2*n+spineCount(n))
	}
	d, ok := rc.Queue().Poll().(*draw.DrawableShape)
	if !ok {
		t.Fatal("ellipse did not offer a DrawableShape")
	}
	if !d.State.EnableCullFace {
		t.Error("extruded ellipse draws without face culling")
	}
	modes := []gputypes.PrimitiveTopology{
		gputypes.PrimitiveTopologyLineStrip,
		gputypes.PrimitiveTopologyLineList,
		gputypes.PrimitiveTopologyTriangleStrip,
		gputypes.PrimitiveTopologyTriangleStrip,
	}
	prims := d.State.Prims()
	if len(prims) != len(modes) {
		t.Fatalf("%d prims, want %d", len(prims), len(modes))
	}
	for i, m := range modes {
		if prims[i].Mode != m {
			t.Errorf("prim %d mode %v, want %v", i, prims[i].Mode, m)
		}
	}
	if prims[0].TexCoordAttrib != (draw.VertexAttrib{Size: 1, Offset: 20}) ||
		prims[2].TexCoordAttrib != (draw.VertexAttrib{Size: 2, Offset: 12}) {
		t.Errorf("tex coord attribs %+v, %+v", prims[0].TexCoordAttrib, prims[2].TexCoordAttrib)
	}
}

func TestEllipseSurfaceSharesElements(t *testing.T) {
	rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, 1e7)})
	var ellipses []*Ellipse
	for i := 0; i < 2; i++ {
		e := NewEllipse(geom.NewPosition(float64(i), 0, 0), 1e5, 5e4)
		e.SetAltitudeMode(globe.ClampToGround)
		e.SetFollowTerrain(true)
		e.SetExtrude(true)
		Render(rc, e)
		ellipses = append(ellipses, e)
	}

	var elementBuffers []any
	for rc.Queue().Remaining() > 0 {
		d, ok := rc.Queue().Poll().(*draw.DrawableSurfaceShape)
		if !ok {
			t.Fatal("surface ellipse did not offer a DrawableSurfaceShape")
		}
		prims := d.State.Prims()
		if len(prims) != 2 || prims[0].Mode != gputypes.PrimitiveTopologyTriangleStrip || prims[1].Mode != gputypes.PrimitiveTopologyLineStrip {
			t.Errorf("surface prims = %+v, want interior then outline", prims)
		}
		elementBuffers = append(elementBuffers, d.State.ElementBuffer)
	}
	if len(elementBuffers) != 2 || elementBuffers[0] != elementBuffers[1] {
		t.Error("ellipses with equal intervals do not share an element buffer")
	}
	if s := ellipses[0].BoundingSector(); !s.Contains(0, 0) {
		t.Errorf("sector %+v misses the center", s)
	}
}

func TestEllipseZeroRadii(t *testing.T) {
	rc := newContext(t, render.Camera{Position: geom.NewPosition(0, 0, 1e7)})
	Render(rc, NewEllipse(geom.NewPosition(0, 0, 0), 0, 0))
	if rc.DrawableCount() != 0 {
		t.Error("zero-radius ellipse was drawn")
	}
}

func BenchmarkPathAssemble(b *testing.B) {
	rc := newContext(b, overview())
	p := NewPath(scenarioPositions())
	p.SetExtrude(true)
	p.SetMaximumIntermediatePoints(100)
	b.ReportAllocs()
	for b.Loop() {
		p.AssembleGeometry(rc)
	}
}
