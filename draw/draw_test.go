package draw_test

import (
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/internal/gputest"
	"github.com/gogpu/gputypes"
)

type fakeTerrain struct {
	sector     geom.Sector
	origin     mgl64.Vec3
	failPoints bool
	drawn      int
}

func (t *fakeTerrain) Sector() geom.Sector      { return t.sector }
func (t *fakeTerrain) VertexOrigin() mgl64.Vec3 { return t.origin }

func (t *fakeTerrain) UseVertexPointAttrib(dev gpu.Device, location uint32) bool {
	return !t.failPoints
}

func (t *fakeTerrain) UseVertexTexCoordAttrib(dev gpu.Device, location uint32) bool { return true }

func (t *fakeTerrain) DrawTriangles(dev gpu.Device) {
	t.drawn++
	dev.DrawElements(gputypes.PrimitiveTopologyTriangleStrip, 4, 0)
}

type fixture struct {
	dev      *gputest.Device
	queue    *draw.Queue
	dc       *draw.Context
	program  *gpu.BasicProgram
	shapes   draw.ShapePool
	surfaces draw.SurfaceShapePool
}

func newFixture() *fixture {
	f := &fixture{
		dev:     gputest.New(),
		queue:   draw.NewQueue(16),
		program: gpu.NewBasicProgram(),
	}
	f.dc = draw.NewContext(f.dev, f.queue, 64)
	f.dc.Viewport = image.Rect(0, 0, 320, 240)
	f.dev.Viewport = f.dc.Viewport
	return f
}

func (f *fixture) surface(sector geom.Sector, color gputypes.Color) *draw.DrawableSurfaceShape {
	d := draw.ObtainSurfaceShape(&f.surfaces)
	d.Sector = sector
	d.State.Program = f.program
	d.State.VertexBuffer = gpu.NewVertexBuffer([]float32{0, 0, 0, 1, 0, 0, 1, 1, 0})
	d.State.ElementBuffer = gpu.NewElementBuffer([]uint16{0, 1, 2})
	d.State.VertexOrigin = mgl64.Vec3{sector.MinLongitude, sector.MinLatitude, 0}
	d.State.VertexStride = 12
	d.State.Color = color
	d.State.DrawElements(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	return d
}

func (f *fixture) shape() *draw.DrawableShape {
	d := draw.ObtainShape(&f.shapes)
	d.State.Program = f.program
	d.State.VertexBuffer = gpu.NewVertexBuffer([]float32{0, 0, 0, 1, 0, 0})
	d.State.ElementBuffer = gpu.NewElementBuffer([]uint16{0, 1})
	d.State.VertexStride = 12
	d.State.LineWidth = 3
	d.State.DrawElements(gputypes.PrimitiveTopologyLineStrip, 2, 0)
	return d
}

type stub struct {
	name     string
	kind     draw.Kind
	recycled *[]string
}

func (s *stub) Draw(*draw.Context) {}
func (s *stub) Recycle()           { *s.recycled = append(*s.recycled, s.name) }
func (s *stub) Kind() draw.Kind    { return s.kind }

func TestQueueSort(t *testing.T) {
	var recycled []string
	q := draw.NewQueue(0)
	offer := func(name string, g draw.Group, depth float64) {
		q.Offer(&stub{name: name, kind: draw.KindShape, recycled: &recycled}, g, depth)
	}
	offer("near", draw.GroupShape, -10)
	offer("surface-b", draw.GroupSurface, 0)
	offer("far", draw.GroupShape, -1000)
	offer("surface-a", draw.GroupSurface, 0)
	offer("tie", draw.GroupShape, -10)

	q.Sort()
	want := []string{"surface-b", "surface-a", "far", "near", "tie"}
	for i, w := range want {
		d := q.Poll()
		if d == nil {
			t.Fatalf("Poll() #%d = nil", i)
		}
		if got := d.(*stub).name; got != w {
			t.Errorf("Poll() #%d = %s, want %s", i, got, w)
		}
	}
	if q.Poll() != nil || q.Peek() != nil {
		t.Error("queue not exhausted")
	}

	q.Rewind()
	if q.Remaining() != 5 {
		t.Errorf("Remaining() after Rewind = %d, want 5", q.Remaining())
	}

	q.Clear()
	if len(recycled) != 5 {
		t.Errorf("Clear() recycled %d drawables, want 5", len(recycled))
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Clear = %d", q.Len())
	}
}

func TestPool(t *testing.T) {
	var p draw.ShapePool
	p.Warmup(3)
	if p.Free() != 3 || p.Len() != 0 {
		t.Fatalf("after Warmup: free=%d len=%d", p.Free(), p.Len())
	}

	h, first := p.Obtain()
	first.State.LineWidth = 7
	for i := 0; i < 200; i++ {
		p.Obtain()
	}
	if p.At(h) != first {
		t.Error("pointer moved while the pool grew")
	}
	if p.Len() != 201 {
		t.Errorf("Len() = %d, want 201", p.Len())
	}

	p.Recycle(h)
	p.Recycle(h)
	if p.Free() != 1 {
		t.Errorf("Free() after double recycle = %d, want 1", p.Free())
	}
	if first.State.LineWidth != 1 {
		t.Errorf("recycled slot not reset: line width %g", first.State.LineWidth)
	}
	if h2, _ := p.Obtain(); h2 != h {
		t.Errorf("Obtain() = %d, want recycled slot %d", h2, h)
	}
}

func TestObtainedDrawableRecycles(t *testing.T) {
	var p draw.SurfaceShapePool
	d := draw.ObtainSurfaceShape(&p)
	d.Sector = geom.NewSector(0, 1, 0, 1)
	d.Recycle()
	if p.Len() != 0 || p.Free() != 1 {
		t.Fatalf("len=%d free=%d after Recycle", p.Len(), p.Free())
	}
	if !d.Sector.IsEmpty() {
		t.Error("sector survived recycle")
	}
}

func TestDrawShapeStateCapturesStyle(t *testing.T) {
	var s draw.DrawShapeState
	s.Reset()
	if !s.EnableDepthTest || !s.EnableCullFace || s.LineWidth != 1 || s.Color != gputypes.ColorWhite {
		t.Fatalf("Reset() defaults = %+v", s)
	}

	s.Color = gputypes.ColorRed
	s.LineWidth = 2
	s.DrawElements(gputypes.PrimitiveTopologyTriangleList, 6, 0)
	s.Color = gputypes.ColorBlue
	s.TexCoordAttrib = draw.VertexAttrib{Size: 2, Offset: 12}
	s.DrawElements(gputypes.PrimitiveTopologyLineStrip, 4, 12)

	prims := s.Prims()
	if len(prims) != 2 {
		t.Fatalf("len(Prims()) = %d", len(prims))
	}
	if prims[0].Color != gputypes.ColorRed || prims[0].LineWidth != 2 || prims[0].TexCoordAttrib.Size != 0 {
		t.Errorf("prim 0 = %+v", prims[0])
	}
	if prims[1].Color != gputypes.ColorBlue || prims[1].Offset != 12 || prims[1].TexCoordAttrib.Offset != 12 {
		t.Errorf("prim 1 = %+v", prims[1])
	}

	s.DrawElements(gputypes.PrimitiveTopologyTriangleList, 1, 0)
	s.DrawElements(gputypes.PrimitiveTopologyTriangleList, 1, 0)
	if s.DrawElements(gputypes.PrimitiveTopologyTriangleList, 1, 0) {
		t.Errorf("DrawElements beyond %d prims succeeded", draw.MaxDrawElements)
	}
}

func TestTileMatrix(t *testing.T) {
	sector := geom.NewSector(10, 30, -20, 20)
	m := draw.TileMatrix(sector)
	tests := []struct {
		lon, lat float64
		x, y     float64
	}{
		{-20, 10, -1, -1},
		{20, 30, 1, 1},
		{0, 20, 0, 0},
		{20, 10, 1, -1},
	}
	for _, tt := range tests {
		p := m.Mul4x1(mgl64.Vec4{tt.lon, tt.lat, 0, 1})
		if math.Abs(p[0]-tt.x) > 1e-12 || math.Abs(p[1]-tt.y) > 1e-12 {
			t.Errorf("TileMatrix(%v, %v) = (%v, %v), want (%v, %v)", tt.lon, tt.lat, p[0], p[1], tt.x, tt.y)
		}
	}
}

func TestSurfaceShapeBatch(t *testing.T) {
	f := newFixture()
	terrain := &fakeTerrain{sector: geom.NewSector(0, 10, 0, 10)}
	f.dc.Terrain = []draw.Terrain{terrain}

	for i := 0; i < 5; i++ {
		f.queue.Offer(f.surface(geom.NewSector(1, 2, float64(i), float64(i)+1), gputypes.ColorRed), draw.GroupSurface, 0)
	}
	f.queue.Offer(f.shape(), draw.GroupShape, 0)
	f.queue.Sort()

	f.queue.Poll().Draw(f.dc)

	if got := f.queue.Remaining(); got != 1 {
		t.Fatalf("Remaining() = %d, want 1", got)
	}
	if got := f.queue.Peek().Kind(); got != draw.KindShape {
		t.Errorf("Peek().Kind() = %v, want shape", got)
	}
	if f.dc.ScratchList().Len() != 0 {
		t.Error("scratch list not cleared")
	}

	fb := f.dc.ScratchFramebuffer().ID()
	offscreen := 0
	for _, d := range f.dev.Draws {
		if d.Framebuffer == fb {
			offscreen++
			if d.DepthTest {
				t.Error("offscreen draw with depth test enabled")
			}
		}
	}
	if offscreen != 5 {
		t.Errorf("offscreen draws = %d, want 5", offscreen)
	}
	if terrain.drawn != 1 {
		t.Errorf("terrain composited %d times, want 1", terrain.drawn)
	}
	last := f.dev.Draws[len(f.dev.Draws)-1]
	if last.Framebuffer != 0 || !last.Uniforms.EnableTexture || last.Texture != f.dc.ScratchFramebuffer().ColorAttachment().ID() {
		t.Errorf("composite draw = %+v", last)
	}
	if f.dev.Viewport != f.dc.Viewport || !f.dev.Enabled[gpu.DepthTest] || f.dev.LineWidth != 1 {
		t.Errorf("state not restored: viewport %v depth %v width %g", f.dev.Viewport, f.dev.Enabled[gpu.DepthTest], f.dev.LineWidth)
	}
	if f.dc.Stats.SurfaceBatches != 1 || f.dc.Stats.SurfaceShapesDrawn != 5 {
		t.Errorf("stats = %+v", f.dc.Stats)
	}
}

func TestSurfaceShapeSkipsDistantTiles(t *testing.T) {
	f := newFixture()
	near := &fakeTerrain{sector: geom.NewSector(0, 10, 0, 10)}
	far := &fakeTerrain{sector: geom.NewSector(40, 50, 40, 50)}
	adjacent := &fakeTerrain{sector: geom.NewSector(0, 10, 10, 20)}
	f.dc.Terrain = []draw.Terrain{near, far, adjacent}

	f.queue.Offer(f.surface(geom.NewSector(2, 4, 6, 10), gputypes.ColorBlue), draw.GroupSurface, 0)
	f.dc.DrawAll()

	if near.drawn != 1 || adjacent.drawn != 1 {
		t.Errorf("near=%d adjacent=%d, want 1 each", near.drawn, adjacent.drawn)
	}
	if far.drawn != 0 {
		t.Errorf("far tile composited %d times", far.drawn)
	}
}

func TestSurfaceShapeFramebufferFailure(t *testing.T) {
	f := newFixture()
	terrain := &fakeTerrain{sector: geom.NewSector(0, 10, 0, 10)}
	f.dc.Terrain = []draw.Terrain{terrain}
	f.dev.FailBindFramebuffer = true

	f.queue.Offer(f.surface(geom.NewSector(1, 2, 1, 2), gputypes.ColorRed), draw.GroupSurface, 0)
	f.dc.DrawAll()

	if len(f.dev.Draws) != 0 {
		t.Errorf("drew %d primitives after framebuffer failure", len(f.dev.Draws))
	}
	if terrain.drawn != 0 {
		t.Error("terrain composited after framebuffer failure")
	}
	if f.dev.Framebuffer != 0 || f.dev.Viewport != f.dc.Viewport || !f.dev.Enabled[gpu.DepthTest] {
		t.Errorf("state changed: fb=%d viewport=%v depth=%v", f.dev.Framebuffer, f.dev.Viewport, f.dev.Enabled[gpu.DepthTest])
	}
	if f.dc.Stats.TexturePassesSkipped != 1 {
		t.Errorf("TexturePassesSkipped = %d", f.dc.Stats.TexturePassesSkipped)
	}
}

func TestSurfaceShapeCompositesWithDepthTest(t *testing.T) {
	f := newFixture()
	west := &fakeTerrain{sector: geom.NewSector(0, 10, 0, 10)}
	east := &fakeTerrain{sector: geom.NewSector(0, 10, 10, 20)}
	f.dc.Terrain = []draw.Terrain{west, east}

	f.queue.Offer(f.surface(geom.NewSector(2, 4, 8, 12), gputypes.ColorRed), draw.GroupSurface, 0)
	f.dc.DrawAll()

	fb := f.dc.ScratchFramebuffer().ID()
	composites := 0
	for i, d := range f.dev.Draws {
		switch {
		case d.Framebuffer == fb && d.DepthTest:
			t.Errorf("draw %d: texture pass with depth test enabled", i)
		case d.Framebuffer == 0:
			composites++
			if !d.DepthTest {
				t.Errorf("draw %d: composite without depth test", i)
			}
		}
	}
	if composites != 2 {
		t.Errorf("composite draws = %d, want one per tile", composites)
	}
	if !f.dev.Enabled[gpu.DepthTest] {
		t.Error("depth test left disabled after the surface pass")
	}
}

func TestSurfaceShapeTerrainAttribFailure(t *testing.T) {
	f := newFixture()
	terrain := &fakeTerrain{sector: geom.NewSector(0, 10, 0, 10), failPoints: true}
	f.dc.Terrain = []draw.Terrain{terrain}

	f.queue.Offer(f.surface(geom.NewSector(1, 2, 1, 2), gputypes.ColorRed), draw.GroupSurface, 0)
	f.dc.DrawAll()

	if terrain.drawn != 0 {
		t.Error("terrain drawn without vertex points")
	}
	if len(f.dev.Draws) != 1 {
		t.Errorf("draws = %d, want the offscreen draw only", len(f.dev.Draws))
	}
}

func TestDrawableShape(t *testing.T) {
	f := newFixture()
	d := f.shape()
	d.State.EnableDepthTest = false
	d.State.EnableCullFace = false
	d.State.VertexOrigin = mgl64.Vec3{5, 6, 7}
	f.dc.PickMode = true
	f.queue.Offer(d, draw.GroupShape, 0)
	f.dc.DrawAll()

	if len(f.dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(f.dev.Draws))
	}
	got := f.dev.Draws[0]
	if got.DepthTest {
		t.Error("depth test enabled during draw")
	}
	if got.LineWidth != 3 || !got.Uniforms.EnablePickMode {
		t.Errorf("draw = %+v", got)
	}
	if got.Uniforms.MVP[12] != 5 || got.Uniforms.MVP[14] != 7 {
		t.Errorf("mvp translation = %v", got.Uniforms.MVP.Col(3))
	}
	if !f.dev.Enabled[gpu.DepthTest] || !f.dev.Enabled[gpu.CullFace] || f.dev.LineWidth != 1 {
		t.Error("state not restored after draw")
	}
	if f.dc.Stats.ShapesDrawn != 1 {
		t.Errorf("ShapesDrawn = %d", f.dc.Stats.ShapesDrawn)
	}
}

func TestDrawableShapeMissingBuffers(t *testing.T) {
	f := newFixture()
	d := f.shape()
	d.State.ElementBuffer = nil
	d.Draw(f.dc)
	if len(f.dev.Draws) != 0 {
		t.Error("drew without an element buffer")
	}

	f.dev.FailCreateBuffer = true
	d = f.shape()
	d.Draw(f.dc)
	if len(f.dev.Draws) != 0 {
		t.Error("drew after buffer upload failed")
	}
}

func TestDrawableTerrain(t *testing.T) {
	tests := []struct {
		name      string
		pickMode  bool
		wantColor [4]float32
	}{
		{"color", false, [4]float32{0, 0, 0.5, 0.5}},
		{"pick mode", true, [4]float32{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.dc.PickMode = tt.pickMode
			f.dc.Terrain = []draw.Terrain{
				&fakeTerrain{sector: geom.NewSector(0, 1, 0, 1)},
				&fakeTerrain{sector: geom.NewSector(0, 1, 1, 2), failPoints: true},
				&fakeTerrain{sector: geom.NewSector(1, 2, 0, 1), origin: mgl64.Vec3{9, 0, 0}},
			}
			d := &draw.DrawableTerrain{Program: f.program, Color: gputypes.NewColor(0, 0, 1, 0.5)}
			f.queue.Offer(d, draw.GroupBackground, 0)
			f.dc.DrawAll()

			if len(f.dev.Draws) != 2 || f.dc.Stats.TerrainTilesDrawn != 2 {
				t.Fatalf("draws = %d, tiles = %d, want 2", len(f.dev.Draws), f.dc.Stats.TerrainTilesDrawn)
			}
			for _, dr := range f.dev.Draws {
				if dr.Uniforms.Color != tt.wantColor {
					t.Errorf("color = %v, want %v", dr.Uniforms.Color, tt.wantColor)
				}
				if dr.Uniforms.EnableTexture || dr.Uniforms.EnablePickMode != tt.pickMode {
					t.Errorf("uniforms = %+v", dr.Uniforms)
				}
			}
			if got := f.dev.Draws[1].Uniforms.MVP[12]; got != 9 {
				t.Errorf("second tile translation x = %v, want 9", got)
			}
		})
	}
}

func BenchmarkQueueSort(b *testing.B) {
	var recycled []string
	q := draw.NewQueue(1024)
	items := make([]*stub, 1024)
	for i := range items {
		items[i] = &stub{kind: draw.KindShape, recycled: &recycled}
	}
	b.ReportAllocs()
	for b.Loop() {
		for i, s := range items {
			q.Offer(s, draw.Group(i%3), float64((i*7919)%1024))
		}
		q.Sort()
		q.Clear()
		recycled = recycled[:0]
	}
}
