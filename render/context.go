package render

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/internal/cache"
	"github.com/gogpu/gpucontext"
)

// DefaultCacheCapacity is the byte budget of the render resource cache.
const DefaultCacheCapacity = 64 << 20

// CacheKey identifies one version of a cached resource.
type CacheKey = cache.Key

// Cache slots a shape stores its buffers under.
const (
	SlotVertexBuffer uint8 = iota
	SlotElementBuffer
	slotTexture
)

// NewCacheOwner returns a process-unique owner id for cache keys.
func NewCacheOwner() uint64 { return cache.NewOwner() }

// Resource is a GPU object held by the render resource cache.
type Resource interface {
	ByteSize() int
	Release()
}

// CacheStats is a snapshot of the render resource cache.
type CacheStats = cache.Stats

// PickedObject associates a pick identifier with the object that drew
// with its color.
type PickedObject struct {
	ID     int
	Object any
}

// Config configures a Context.
type Config struct {
	// Globe converts geographic positions. Nil selects a WGS84 globe.
	Globe *globe.Globe

	// CacheCapacity is the render resource cache budget in bytes. Zero
	// selects DefaultCacheCapacity; a negative value means unlimited.
	CacheCapacity int

	// TextureCreator mints textures for image sources. Nil selects
	// gpu.TextureCreator.
	TextureCreator gpucontext.TextureCreator

	// PoolWarmup preallocates this many drawables in each pool.
	PoolWarmup int

	// Logger receives diagnostics. Nil selects the gpu package logger.
	Logger *slog.Logger
}

// Context is the render state shapes see while they submit drawables.
// It is confined to the render thread.
type Context struct {
	Globe    *globe.Globe
	Camera   Camera
	Viewport image.Rectangle
	PickMode bool

	Modelview           mgl64.Mat4
	Projection          mgl64.Mat4
	ModelviewProjection mgl64.Mat4
	EyePoint            mgl64.Vec3
	Frustum             geom.Frustum

	queue       *draw.Queue
	resources   *cache.ResourceCache[Resource]
	textureKeys map[image.Image]CacheKey
	creator     gpucontext.TextureCreator
	programs    map[gpu.ProgramKind]*gpu.BasicProgram
	shapes      draw.ShapePool
	surfaces    draw.SurfaceShapePool
	logger      *slog.Logger

	pixelSizeFactor float64
	lastPickID      int
	picked          []PickedObject
}

// NewContext returns a context offering drawables to queue.
func NewContext(queue *draw.Queue, cfg Config) *Context {
	if cfg.Globe == nil {
		cfg.Globe = globe.New()
	}
	switch {
	case cfg.CacheCapacity == 0:
		cfg.CacheCapacity = DefaultCacheCapacity
	case cfg.CacheCapacity < 0:
		cfg.CacheCapacity = 0
	}
	if cfg.TextureCreator == nil {
		cfg.TextureCreator = gpu.TextureCreator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = gpu.Logger()
	}
	rc := &Context{
		Globe:               cfg.Globe,
		Modelview:           mgl64.Ident4(),
		Projection:          mgl64.Ident4(),
		ModelviewProjection: mgl64.Ident4(),
		queue:               queue,
		resources:           cache.New[Resource](cfg.CacheCapacity),
		textureKeys:         make(map[image.Image]CacheKey),
		creator:             cfg.TextureCreator,
		programs:            make(map[gpu.ProgramKind]*gpu.BasicProgram),
		logger:              cfg.Logger,
	}
	rc.shapes.Warmup(cfg.PoolWarmup)
	rc.surfaces.Warmup(cfg.PoolWarmup)
	return rc
}

// BeginFrame prepares the context for a frame seen by camera through
// viewport. Pick identifiers restart at 1.
func (rc *Context) BeginFrame(camera Camera, viewport image.Rectangle, pickMode bool) {
	rc.Camera = camera
	rc.Viewport = viewport
	rc.PickMode = pickMode
	rc.Modelview, rc.Projection, rc.EyePoint = camera.Matrices(rc.Globe, viewport)
	rc.ModelviewProjection = rc.Projection.Mul4(rc.Modelview)
	rc.Frustum = geom.FrustumFromMatrix(rc.ModelviewProjection)
	rc.pixelSizeFactor = 0
	rc.lastPickID = 0
	rc.picked = rc.picked[:0]
}

// Logger returns the context's logger.
func (rc *Context) Logger() *slog.Logger { return rc.logger }

// Queue returns the queue drawables are offered to.
func (rc *Context) Queue() *draw.Queue { return rc.queue }

// GeographicToCartesian converts a geographic position to the Cartesian
// frame drawables are positioned in.
func (rc *Context) GeographicToCartesian(latitude, longitude, altitude float64, mode globe.AltitudeMode) mgl64.Vec3 {
	return rc.Globe.Point(latitude, longitude, altitude, mode)
}

// PixelSizeAtDistance returns the size in meters of one pixel at distance
// meters from the eye.
func (rc *Context) PixelSizeAtDistance(distance float64) float64 {
	if rc.pixelSizeFactor == 0 {
		h := rc.Viewport.Dy()
		if h <= 0 {
			return 0
		}
		tanHalf := math.Tan(mgl64.DegToRad(rc.Camera.fieldOfView() / 2))
		rc.pixelSizeFactor = 2 * tanHalf / float64(h)
	}
	return distance * rc.pixelSizeFactor
}

// GetBufferObject returns the buffer cached under key, or nil.
func (rc *Context) GetBufferObject(key CacheKey) *gpu.BufferObject {
	v, ok := rc.resources.Get(key)
	if !ok {
		return nil
	}
	b, _ := v.(*gpu.BufferObject)
	return b
}

// PutBufferObject caches b under key and returns it. Other versions of the
// key's owner slot are evicted.
func (rc *Context) PutBufferObject(key CacheKey, b *gpu.BufferObject) *gpu.BufferObject {
	rc.resources.Put(key, b)
	return b
}

// GetTexture returns the texture cached for source, or nil. Sources are
// keyed by identity, so they should be pointers.
func (rc *Context) GetTexture(source image.Image) *gpu.Texture {
	key, ok := rc.textureKeys[source]
	if !ok {
		return nil
	}
	v, ok := rc.resources.Get(key)
	if !ok {
		delete(rc.textureKeys, source)
		return nil
	}
	t, _ := v.(*gpu.Texture)
	return t
}

// RetrieveTexture creates a texture for source through the texture
// creator and caches it. It returns nil, logging at warn level, when the
// creator fails or mints a texture the gpu package cannot bind.
func (rc *Context) RetrieveTexture(source image.Image) *gpu.Texture {
	if t := rc.GetTexture(source); t != nil {
		return t
	}
	w, h, pixels := gpu.RGBAPixels(source)
	created, err := rc.creator.NewTextureFromRGBA(w, h, pixels)
	if err != nil {
		rc.logger.Warn("render: texture creation failed", "width", w, "height", h, "err", err)
		return nil
	}
	t, ok := created.(*gpu.Texture)
	if !ok {
		rc.logger.Warn("render: texture creator returned a foreign texture", "type", fmt.Sprintf("%T", created))
		return nil
	}
	key := CacheKey{Owner: NewCacheOwner(), Slot: slotTexture, Version: 1}
	rc.textureKeys[source] = key
	rc.resources.Put(key, t)
	return t
}

// GetProgram returns the registered program of kind, or nil.
func (rc *Context) GetProgram(kind gpu.ProgramKind) *gpu.BasicProgram {
	return rc.programs[kind]
}

// PutProgram registers p for kind and returns it.
func (rc *Context) PutProgram(kind gpu.ProgramKind, p *gpu.BasicProgram) *gpu.BasicProgram {
	rc.programs[kind] = p
	return p
}

// BasicProgram returns the basic program, registering it on first use.
func (rc *Context) BasicProgram() *gpu.BasicProgram {
	if p := rc.GetProgram(gpu.ProgramBasic); p != nil {
		return p
	}
	return rc.PutProgram(gpu.ProgramBasic, gpu.NewBasicProgram())
}

// ShapePool returns the pool of directly drawn shape drawables.
func (rc *Context) ShapePool() *draw.ShapePool { return &rc.shapes }

// SurfaceShapePool returns the pool of surface shape drawables.
func (rc *Context) SurfaceShapePool() *draw.SurfaceShapePool { return &rc.surfaces }

// OfferSurfaceDrawable enqueues a drawable rendered onto the terrain.
// Lower zOrder values draw first; equal values keep their offer order.
func (rc *Context) OfferSurfaceDrawable(d draw.Drawable, zOrder float64) {
	rc.queue.Offer(d, draw.GroupSurface, zOrder)
}

// OfferShapeDrawable enqueues a drawable drawn directly in 3D. Drawables
// are ordered back to front by cameraDistance.
func (rc *Context) OfferShapeDrawable(d draw.Drawable, cameraDistance float64) {
	rc.queue.Offer(d, draw.GroupShape, -cameraDistance)
}

// OfferBackgroundDrawable enqueues a drawable that draws before every
// shape.
func (rc *Context) OfferBackgroundDrawable(d draw.Drawable) {
	rc.queue.Offer(d, draw.GroupBackground, 0)
}

// DrawableCount returns the number of drawables offered so far.
func (rc *Context) DrawableCount() int { return rc.queue.Len() }

// NextPickedObjectID returns a new pick identifier for this frame.
func (rc *Context) NextPickedObjectID() int {
	rc.lastPickID++
	return rc.lastPickID
}

// OfferPickedObject records that object drew with the color of id.
func (rc *Context) OfferPickedObject(id int, object any) {
	rc.picked = append(rc.picked, PickedObject{ID: id, Object: object})
}

// PickedObjects returns the objects offered this frame. The slice is
// reused by the next BeginFrame.
func (rc *Context) PickedObjects() []PickedObject { return rc.picked }

// CacheStats returns a snapshot of the resource cache.
func (rc *Context) CacheStats() CacheStats { return rc.resources.Stats() }

// ReleaseEvicted releases resources evicted from the cache. It must run
// on the render thread after the frame's drawables have been drawn.
func (rc *Context) ReleaseEvicted() int {
	n := rc.resources.ReleaseEvicted(func(r Resource) { r.Release() })
	if n > 0 {
		rc.logger.Debug("render: released evicted resources", "count", n)
	}
	return n
}

// Close releases every cached resource and registered program.
func (rc *Context) Close() {
	rc.resources.Clear()
	rc.ReleaseEvicted()
	clear(rc.textureKeys)
	for kind, p := range rc.programs {
		p.Release()
		delete(rc.programs, kind)
	}
}
