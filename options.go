package drape

import (
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/drape/terrain"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Default terrain grid: 8 rows of 16 tiles covering the whole globe.
const (
	DefaultTerrainRows = 8
	DefaultTerrainCols = 16
)

// DefaultTerrainColor is the flat color terrain tiles are filled with.
var DefaultTerrainColor = gputypes.NewColor(0.2, 0.3, 0.45, 1)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := drape.NewRenderer(dev,
//	    drape.WithTileTextureSize(256),
//	    drape.WithClearColor(gputypes.ColorBlack))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	globe           *globe.Globe
	tileTextureSize int
	cacheCapacity   int
	terrain         *terrain.Tessellator
	textureCreator  gpucontext.TextureCreator
	poolWarmup      int
	clearColor      gputypes.Color
	terrainColor    gputypes.Color
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		tileTextureSize: draw.DefaultTileTextureSize,
		cacheCapacity:   render.DefaultCacheCapacity,
		clearColor:      gputypes.ColorTransparent,
		terrainColor:    DefaultTerrainColor,
	}
}

// WithGlobe sets the globe shapes and terrain are placed on. The default
// is a WGS84 globe without elevations.
func WithGlobe(g *globe.Globe) Option {
	return func(o *options) {
		o.globe = g
	}
}

// WithTileTextureSize sets the edge length of the offscreen texture
// surface shapes are rendered into before compositing. Values of zero or
// less keep the default of 512.
func WithTileTextureSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.tileTextureSize = size
		}
	}
}

// WithCacheCapacity sets the byte budget of the GPU resource cache. A
// negative capacity disables eviction by size; superseded versions are
// still evicted.
func WithCacheCapacity(bytes int) Option {
	return func(o *options) {
		o.cacheCapacity = bytes
	}
}

// WithTerrain sets the tessellator whose tiles surface shapes are draped
// over. The renderer releases its buffers on Close.
//
// Example:
//
//	t := terrain.NewTessellator(geom.NewSector(30, 50, -120, -100), 4, 4, 0)
//	r, err := drape.NewRenderer(dev, drape.WithTerrain(t))
func WithTerrain(t *terrain.Tessellator) Option {
	return func(o *options) {
		o.terrain = t
	}
}

// WithTextureCreator sets how outline images become textures. Hosts that
// manage their own textures pass their gpucontext.TextureCreator here.
func WithTextureCreator(c gpucontext.TextureCreator) Option {
	return func(o *options) {
		o.textureCreator = c
	}
}

// WithPoolWarmup preallocates n drawables in each drawable pool.
func WithPoolWarmup(n int) Option {
	return func(o *options) {
		o.poolWarmup = n
	}
}

// WithClearColor sets the color the default framebuffer is cleared to at
// the start of every frame. The default is transparent.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithTerrainColor sets the flat color of the terrain tiles.
func WithTerrainColor(c gputypes.Color) Option {
	return func(o *options) {
		o.terrainColor = c
	}
}

func defaultTerrain() *terrain.Tessellator {
	return terrain.NewTessellator(geom.FullSphere(), DefaultTerrainRows, DefaultTerrainCols, terrain.DefaultDensity)
}
