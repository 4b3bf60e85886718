package render

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/gpucontext"
)

func newContext(cfg Config) *Context {
	return NewContext(draw.NewQueue(8), cfg)
}

func TestCameraLooksAtGround(t *testing.T) {
	g := globe.New()
	cam := Camera{Position: geom.NewPosition(30, 60, 1e6)}
	mv, proj, eye := cam.Matrices(g, image.Rect(0, 0, 400, 300))

	if want := g.Point(30, 60, 1e6, globe.Absolute); !eye.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("eye = %v, want %v", eye, want)
	}

	// The point directly below the eye projects to the viewport center.
	ground := g.Point(30, 60, 0, globe.Absolute)
	clip := proj.Mul4(mv).Mul4x1(ground.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip[3])
	if math.Abs(ndc[0]) > 1e-6 || math.Abs(ndc[1]) > 1e-6 {
		t.Errorf("nadir projects to %v, want the center", ndc)
	}
	if ndc[2] < -1 || ndc[2] > 1 {
		t.Errorf("nadir depth %v outside the clip range", ndc[2])
	}

	// North is up on screen with zero heading.
	north := g.Point(31, 60, 0, globe.Absolute)
	clip = proj.Mul4(mv).Mul4x1(north.Vec4(1))
	if y := clip[1] / clip[3]; y <= 0 {
		t.Errorf("north projects below center: y = %v", y)
	}
}

func TestCameraHeadingRotatesView(t *testing.T) {
	g := globe.New()
	cam := Camera{Position: geom.NewPosition(0, 0, 1e6), Heading: 90}
	mv, proj, _ := cam.Matrices(g, image.Rect(0, 0, 100, 100))

	east := g.Point(0, 1, 0, globe.Absolute)
	clip := proj.Mul4(mv).Mul4x1(east.Vec4(1))
	if y := clip[1] / clip[3]; y <= 0 {
		t.Errorf("heading 90: east projects below center, y = %v", y)
	}
}

func TestBeginFrame(t *testing.T) {
	rc := newContext(Config{})
	rc.NextPickedObjectID()
	rc.OfferPickedObject(1, "old")

	cam := Camera{Position: geom.NewPosition(0, 0, 1e7)}
	rc.BeginFrame(cam, image.Rect(0, 0, 200, 100), true)

	if !rc.PickMode {
		t.Error("PickMode not set")
	}
	if len(rc.PickedObjects()) != 0 {
		t.Errorf("picked objects survived BeginFrame: %v", rc.PickedObjects())
	}
	if id := rc.NextPickedObjectID(); id != 1 {
		t.Errorf("first pick id = %d, want 1", id)
	}
	if !rc.ModelviewProjection.ApproxEqual(rc.Projection.Mul4(rc.Modelview)) {
		t.Error("ModelviewProjection is not Projection x Modelview")
	}
	if !rc.Frustum.ContainsPoint(rc.GeographicToCartesian(0, 0, 0, globe.ClampToGround)) {
		t.Error("frustum excludes the point below the eye")
	}
}

func TestPixelSizeAtDistance(t *testing.T) {
	rc := newContext(Config{})
	rc.BeginFrame(Camera{Position: geom.NewPosition(0, 0, 1e6), FieldOfView: 90}, image.Rect(0, 0, 100, 200), false)
	// tan(45 deg) = 1, so one pixel spans 2/200 of the distance.
	if got := rc.PixelSizeAtDistance(1000); math.Abs(got-10) > 1e-9 {
		t.Errorf("PixelSizeAtDistance(1000) = %v, want 10", got)
	}

	rc.BeginFrame(Camera{}, image.Rectangle{}, false)
	if got := rc.PixelSizeAtDistance(1000); got != 0 {
		t.Errorf("PixelSizeAtDistance with an empty viewport = %v, want 0", got)
	}
}

func TestBufferObjectCache(t *testing.T) {
	rc := newContext(Config{})
	owner := NewCacheOwner()
	v1 := CacheKey{Owner: owner, Slot: SlotVertexBuffer, Version: 1}
	if rc.GetBufferObject(v1) != nil {
		t.Fatal("empty cache returned a buffer")
	}
	b1 := rc.PutBufferObject(v1, gpu.NewVertexBuffer([]float32{1, 2, 3}))
	if rc.GetBufferObject(v1) != b1 {
		t.Error("GetBufferObject did not return the stored buffer")
	}

	v2 := v1
	v2.Version = 2
	rc.PutBufferObject(v2, gpu.NewVertexBuffer([]float32{4}))
	if rc.GetBufferObject(v1) != nil {
		t.Error("superseded version still cached")
	}
	if n := rc.ReleaseEvicted(); n != 1 {
		t.Errorf("ReleaseEvicted() = %d, want 1", n)
	}
	if s := rc.CacheStats(); s.Len != 1 || s.UsedBytes != 4 {
		t.Errorf("CacheStats() = %+v", s)
	}
}

type foreignTexture struct{}

func (foreignTexture) Width() int  { return 1 }
func (foreignTexture) Height() int { return 1 }

type creatorFunc func(w, h int, data []byte) (gpucontext.Texture, error)

func (f creatorFunc) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	return f(w, h, data)
}

func TestRetrieveTexture(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{255, 0, 0, 255})

	rc := newContext(Config{})
	if rc.GetTexture(src) != nil {
		t.Fatal("GetTexture before retrieval returned a texture")
	}
	tex := rc.RetrieveTexture(src)
	if tex == nil {
		t.Fatal("RetrieveTexture returned nil")
	}
	if tex.Width() != 2 || tex.Height() != 1 {
		t.Errorf("texture size %dx%d, want 2x1", tex.Width(), tex.Height())
	}
	if rc.GetTexture(src) != tex || rc.RetrieveTexture(src) != tex {
		t.Error("texture not cached by source identity")
	}
	if other := image.NewNRGBA(image.Rect(0, 0, 2, 1)); rc.GetTexture(other) != nil {
		t.Error("an equal image with a different identity hit the cache")
	}
}

func TestRetrieveTextureCreatorFailures(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	tests := []struct {
		name    string
		creator creatorFunc
	}{
		{"error", func(int, int, []byte) (gpucontext.Texture, error) { return nil, errors.New("out of memory") }},
		{"foreign", func(int, int, []byte) (gpucontext.Texture, error) { return foreignTexture{}, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newContext(Config{TextureCreator: tt.creator})
			if rc.RetrieveTexture(src) != nil {
				t.Error("RetrieveTexture returned a texture")
			}
			if rc.CacheStats().Len != 0 {
				t.Error("failed retrieval was cached")
			}
		})
	}
}

func TestPrograms(t *testing.T) {
	rc := newContext(Config{})
	if rc.GetProgram(gpu.ProgramBasic) != nil {
		t.Fatal("program registered before use")
	}
	p := rc.BasicProgram()
	if p == nil || rc.BasicProgram() != p || rc.GetProgram(gpu.ProgramBasic) != p {
		t.Error("BasicProgram did not register a single program")
	}
	rc.Close()
	if rc.GetProgram(gpu.ProgramBasic) != nil {
		t.Error("program still registered after Close")
	}
}

type stubDrawable struct{ name string }

func (*stubDrawable) Draw(*draw.Context) {}
func (*stubDrawable) Recycle()           {}
func (*stubDrawable) Kind() draw.Kind    { return draw.KindShape }

func TestOfferOrdering(t *testing.T) {
	q := draw.NewQueue(8)
	rc := NewContext(q, Config{})
	far := &stubDrawable{"far"}
	near := &stubDrawable{"near"}
	s1 := &stubDrawable{"surface1"}
	s2 := &stubDrawable{"surface2"}
	bg := &stubDrawable{"background"}

	rc.OfferShapeDrawable(near, 10)
	rc.OfferSurfaceDrawable(s1, 0)
	rc.OfferShapeDrawable(far, 1000)
	rc.OfferSurfaceDrawable(s2, 0)
	rc.OfferBackgroundDrawable(bg)
	if rc.DrawableCount() != 5 {
		t.Fatalf("DrawableCount() = %d, want 5", rc.DrawableCount())
	}

	q.Sort()
	want := []string{"background", "surface1", "surface2", "far", "near"}
	for i, name := range want {
		d, _ := q.Poll().(*stubDrawable)
		if d == nil || d.name != name {
			t.Errorf("drawable %d = %v, want %s", i, d, name)
		}
	}
}

func TestPoolWarmup(t *testing.T) {
	rc := newContext(Config{PoolWarmup: 10})
	if rc.ShapePool().Free() != 10 || rc.SurfaceShapePool().Free() != 10 {
		t.Errorf("free slots = %d/%d, want 10/10", rc.ShapePool().Free(), rc.SurfaceShapePool().Free())
	}
	d := draw.ObtainShape(rc.ShapePool())
	d.State.VertexOrigin = mgl64.Vec3{1, 2, 3}
	d.Recycle()
	if rc.ShapePool().Len() != 0 {
		t.Errorf("pool in use = %d after recycle", rc.ShapePool().Len())
	}
}
