package drape

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/drape/shape"
	"github.com/gogpu/drape/terrain"
	"github.com/gogpu/gputypes"
)

// Frame describes one frame to render.
type Frame struct {
	// Camera is the viewer.
	Camera render.Camera

	// Viewport is the drawing area in window coordinates, origin at the
	// bottom left.
	Viewport image.Rectangle

	// Shapes are submitted in order. Surface shapes keep this order when
	// they overlap.
	Shapes []shape.Shape

	// PickMode draws every shape in a unique opaque color instead of its
	// attributes. The default framebuffer can then be read back and the
	// colors mapped to FrameStats.PickedObjects.
	PickMode bool
}

// FrameStats reports the work done for a frame.
type FrameStats struct {
	// ShapesSubmitted is the number of shapes handed to the frame.
	ShapesSubmitted int

	// DrawablesQueued is the number of drawables the shapes and terrain
	// enqueued.
	DrawablesQueued int

	// TerrainTiles is the number of tiles inside the view frustum.
	TerrainTiles int

	// Draw counts the drawing work: shapes drawn, surface batches, texture
	// passes, tiles composited.
	Draw draw.Stats

	// Cache is the resource cache after the frame.
	Cache render.CacheStats

	// Released is the number of evicted resources released at frame end.
	Released int

	// PickedObjects lists, in pick mode, the objects that drew and their
	// pick identifiers.
	PickedObjects []render.PickedObject
}

// Renderer draws vector shapes over tessellated terrain on a host device.
// It is confined to the thread the device's context is current on.
type Renderer struct {
	dev     gpu.Device
	opts    options
	logger  *slog.Logger
	queue   *draw.Queue
	rc      *render.Context
	dc      *draw.Context
	terrain *terrain.Tessellator

	background draw.DrawableTerrain
	tiles      []draw.Terrain
	closed     bool
}

// NewRenderer returns a renderer drawing onto dev.
//
// Key principle: drape does not create the device. The host owns the GL
// context and keeps it current while calling RenderFrame and Close.
func NewRenderer(dev gpu.Device, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.terrain == nil {
		o.terrain = defaultTerrain()
	}
	if err := o.terrain.Validate(); err != nil {
		return nil, fmt.Errorf("drape: %w", err)
	}

	logger := Logger()
	propagateLogger(dev, logger)

	queue := draw.NewQueue(64)
	r := &Renderer{
		dev:     dev,
		opts:    o,
		logger:  logger,
		queue:   queue,
		terrain: o.terrain,
		rc: render.NewContext(queue, render.Config{
			Globe:          o.globe,
			CacheCapacity:  o.cacheCapacity,
			TextureCreator: o.textureCreator,
			PoolWarmup:     o.poolWarmup,
			Logger:         logger,
		}),
		dc: draw.NewContext(dev, queue, o.tileTextureSize),
	}
	r.dc.Logger = logger
	logger.Info("drape: renderer created",
		"tileTextureSize", o.tileTextureSize,
		"cacheCapacity", o.cacheCapacity,
		"terrainTiles", o.terrain.Rows*o.terrain.Cols)
	return r, nil
}

// Context returns the submission context. Shapes may use it between
// frames to assemble geometry ahead of time.
func (r *Renderer) Context() *render.Context { return r.rc }

// RenderFrame draws f into the default framebuffer: terrain first, then
// surface shapes draped onto the visible tiles, then shapes drawn in 3D
// from farthest to nearest.
func (r *Renderer) RenderFrame(f Frame) (FrameStats, error) {
	if r.closed {
		return FrameStats{}, ErrClosed
	}
	if f.Viewport.Empty() {
		return FrameStats{}, fmt.Errorf("%w: %v", ErrInvalidViewport, f.Viewport)
	}

	rc := r.rc
	rc.BeginFrame(f.Camera, f.Viewport, f.PickMode)

	if _, err := r.terrain.Tessellate(rc.Globe); err != nil {
		return FrameStats{}, fmt.Errorf("drape: tessellate terrain: %w", err)
	}
	r.tiles = r.terrain.Visible(rc.Frustum, r.tiles[:0])

	// The queue recycles every drawable, including the terrain, whatever
	// happens below.
	defer r.queue.Clear()

	r.background = draw.DrawableTerrain{Program: rc.BasicProgram(), Color: r.opts.terrainColor}
	rc.OfferBackgroundDrawable(&r.background)

	for _, s := range f.Shapes {
		if s == nil {
			continue
		}
		shape.Render(rc, s)
	}
	queued := r.queue.Len()
	r.queue.Sort()

	dc := r.dc
	dc.ModelviewProjection = rc.ModelviewProjection
	dc.Viewport = f.Viewport
	dc.PickMode = f.PickMode
	dc.Terrain = r.tiles
	dc.Stats = draw.Stats{}

	if err := r.beginDraw(f); err != nil {
		return FrameStats{}, err
	}
	dc.DrawAll()
	r.endDraw()

	released := rc.ReleaseEvicted()
	stats := FrameStats{
		ShapesSubmitted: len(f.Shapes),
		DrawablesQueued: queued,
		TerrainTiles:    len(r.tiles),
		Draw:            dc.Stats,
		Cache:           rc.CacheStats(),
		Released:        released,
	}
	if f.PickMode {
		stats.PickedObjects = append([]render.PickedObject(nil), rc.PickedObjects()...)
	}
	r.logger.Debug("drape: frame rendered",
		"shapes", stats.ShapesSubmitted,
		"drawables", stats.DrawablesQueued,
		"tiles", stats.TerrainTiles,
		"surfaceBatches", stats.Draw.SurfaceBatches,
		"released", stats.Released)
	return stats, nil
}

func (r *Renderer) beginDraw(f Frame) error {
	dev := r.dev
	if err := dev.BindFramebuffer(0); err != nil {
		return fmt.Errorf("drape: bind default framebuffer: %w", err)
	}
	dev.SetViewport(f.Viewport)
	if f.PickMode {
		// Identifier zero: nothing picked.
		dev.Clear(gputypes.ColorBlack)
	} else {
		dev.Clear(r.opts.clearColor)
	}
	dev.EnableVertexAttribArray(gpu.VertexPointLocation)
	dev.Enable(gpu.DepthTest)
	dev.Enable(gpu.CullFace)
	if f.PickMode {
		dev.Disable(gpu.Blend)
	} else {
		dev.Enable(gpu.Blend)
	}
	dev.SetLineWidth(1)
	return nil
}

func (r *Renderer) endDraw() {
	dev := r.dev
	dev.DisableVertexAttribArray(gpu.VertexPointLocation)
	dev.Disable(gpu.Blend)
	dev.Disable(gpu.CullFace)
	dev.Disable(gpu.DepthTest)
	dev.BindBuffer(gpu.ArrayBuffer, 0)
	dev.BindBuffer(gpu.ElementArrayBuffer, 0)
	dev.BindTexture(0)
}

// Close releases every GPU resource the renderer created: cached buffers
// and textures, the program, the scratch framebuffer and the terrain
// buffers. The renderer cannot be used afterwards.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.queue.Clear()
	r.rc.Close()
	r.dc.Release()
	r.terrain.Close()
	r.logger.Info("drape: renderer closed")
}
