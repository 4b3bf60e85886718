package draw

import (
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/gpu"
)

// DefaultTileTextureSize is the edge length of the offscreen texture
// surface shapes are rendered into.
const DefaultTileTextureSize = 512

// Stats counts the work done while drawing a frame.
type Stats struct {
	ShapesDrawn          int
	SurfaceShapesDrawn   int
	SurfaceBatches       int
	TexturePasses        int
	TexturePassesSkipped int
	TilesComposited      int
	TerrainTilesDrawn    int
}

// Context is the state shared by the drawables of one frame.
type Context struct {
	Device              gpu.Device
	ModelviewProjection mgl64.Mat4
	Viewport            image.Rectangle
	PickMode            bool
	Terrain             []Terrain
	Logger              *slog.Logger
	Stats               Stats

	queue           *Queue
	tileTextureSize int
	scratchList     List
	scratchFB       *gpu.Framebuffer
}

// NewContext returns a context drawing from queue onto dev. A tile texture
// size of zero selects DefaultTileTextureSize.
func NewContext(dev gpu.Device, queue *Queue, tileTextureSize int) *Context {
	if tileTextureSize <= 0 {
		tileTextureSize = DefaultTileTextureSize
	}
	return &Context{
		Device:              dev,
		ModelviewProjection: mgl64.Ident4(),
		queue:               queue,
		tileTextureSize:     tileTextureSize,
	}
}

// Queue returns the queue drawables are polled from.
func (dc *Context) Queue() *Queue { return dc.queue }

// PeekDrawable returns the next queued drawable without consuming it.
func (dc *Context) PeekDrawable() Drawable { return dc.queue.Peek() }

// PollDrawable consumes the next queued drawable.
func (dc *Context) PollDrawable() Drawable { return dc.queue.Poll() }

// DrawAll polls and draws every remaining drawable. The caller enables
// depth testing and face culling first; drawables that change either
// restore it to enabled.
func (dc *Context) DrawAll() {
	for d := dc.queue.Poll(); d != nil; d = dc.queue.Poll() {
		d.Draw(dc)
	}
}

// ScratchList returns the shared list used to batch drawables. The list is
// empty between draws.
func (dc *Context) ScratchList() *List { return &dc.scratchList }

// TileTextureSize returns the edge length of the scratch framebuffer.
func (dc *Context) TileTextureSize() int { return dc.tileTextureSize }

// ScratchFramebuffer returns the offscreen framebuffer surface shapes
// render into, creating it on first use.
func (dc *Context) ScratchFramebuffer() *gpu.Framebuffer {
	if dc.scratchFB == nil {
		dc.scratchFB = gpu.NewFramebuffer(gpu.NewRenderTexture(dc.tileTextureSize, dc.tileTextureSize))
	}
	return dc.scratchFB
}

// Release deletes the scratch framebuffer.
func (dc *Context) Release() {
	if dc.scratchFB != nil {
		dc.scratchFB.Release()
		dc.scratchFB = nil
	}
}

func (dc *Context) log() *slog.Logger {
	if dc.Logger != nil {
		return dc.Logger
	}
	return gpu.Logger()
}
