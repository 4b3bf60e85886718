// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package terrain tessellates a geographic region into tiles that surface
// shapes are draped over.
//
// A [Tessellator] splits its sector into a grid of [Tile] values. Every
// tile holds a regular vertex grid relative to its south-west corner and
// shares one texture coordinate buffer and one triangle-strip element
// buffer with its siblings. Tiles implement draw.Terrain.
package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/drape/draw"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/drape/internal/parallel"
	"github.com/gogpu/gputypes"
)

// DefaultDensity is the number of grid cells along each tile edge.
const DefaultDensity = 16

// minParallelTiles is the smallest grid whose tiles are built on a worker
// pool.
const minParallelTiles = 16

// Tessellator divides Sector into Rows x Cols tiles of Density x Density
// cells each.
type Tessellator struct {
	Sector  geom.Sector
	Rows    int
	Cols    int
	Density int

	tiles     []*Tile
	texCoords *gpu.BufferObject
	elements  *gpu.BufferObject
	built     tessellation
}

type tessellation struct {
	globe        *globe.Globe
	exaggeration float64
}

// NewTessellator returns a tessellator for sector. Zero rows, cols or
// density select one row, one column and DefaultDensity.
func NewTessellator(sector geom.Sector, rows, cols, density int) *Tessellator {
	if rows <= 0 {
		rows = 1
	}
	if cols <= 0 {
		cols = 1
	}
	if density <= 0 {
		density = DefaultDensity
	}
	return &Tessellator{Sector: sector, Rows: rows, Cols: cols, Density: density}
}

// Validate reports whether the tessellator can produce tiles.
func (t *Tessellator) Validate() error {
	if t.Sector.IsEmpty() || t.Sector.DeltaLatitude() <= 0 || t.Sector.DeltaLongitude() <= 0 {
		return fmt.Errorf("terrain: sector %+v has no area", t.Sector)
	}
	// Tile vertices are indexed with uint16.
	if n := (t.Density + 1) * (t.Density + 1); t.Density < 1 || n > 1<<16 {
		return fmt.Errorf("terrain: density %d out of range", t.Density)
	}
	if t.Rows < 1 || t.Cols < 1 {
		return fmt.Errorf("terrain: %dx%d tile grid", t.Rows, t.Cols)
	}
	return nil
}

// Tessellate returns the tiles for g. Tiles are rebuilt when the globe or
// its exaggeration changes, or after Invalidate. Large grids are built on
// several goroutines, so g's elevation model must be safe for concurrent
// reads.
func (t *Tessellator) Tessellate(g *globe.Globe) ([]*Tile, error) {
	key := tessellation{globe: g, exaggeration: g.VerticalExaggeration}
	if t.tiles != nil && t.built == key {
		return t.tiles, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.Release()

	n := t.Density + 1
	if t.texCoords == nil {
		t.texCoords = gpu.NewVertexBuffer(TexCoords(n, n))
		t.elements = gpu.NewElementBuffer(TriStripElements(n, n))
	}
	stripCount := len(TriStripElements(n, n))

	dLat := t.Sector.DeltaLatitude() / float64(t.Rows)
	dLon := t.Sector.DeltaLongitude() / float64(t.Cols)
	tiles := make([]*Tile, t.Rows*t.Cols)
	build := func(i int) {
		row, col := i/t.Cols, i%t.Cols
		minLat := t.Sector.MinLatitude + float64(row)*dLat
		minLon := t.Sector.MinLongitude + float64(col)*dLon
		maxLat, maxLon := minLat+dLat, minLon+dLon
		// Avoid cracks from accumulated rounding on the outer edges.
		if row == t.Rows-1 {
			maxLat = t.Sector.MaxLatitude
		}
		if col == t.Cols-1 {
			maxLon = t.Sector.MaxLongitude
		}
		tile := newTile(g, geom.NewSector(minLat, maxLat, minLon, maxLon), n)
		tile.Row, tile.Col = row, col
		tile.texCoords = t.texCoords
		tile.elements = t.elements
		tile.stripCount = stripCount
		tiles[i] = tile
	}
	if len(tiles) < minParallelTiles {
		for i := range tiles {
			build(i)
		}
	} else {
		pool := parallel.NewPool(0)
		pool.Run(len(tiles), build)
		pool.Close()
	}
	t.tiles = tiles
	t.built = key
	return tiles, nil
}

// Invalidate forces the next Tessellate to rebuild, for example after the
// globe's elevation model changed.
func (t *Tessellator) Invalidate() { t.built = tessellation{} }

// Tiles returns the tiles of the last tessellation.
func (t *Tessellator) Tiles() []*Tile { return t.tiles }

// Visible appends to dst the tiles of the last tessellation whose bounding
// box intersects f.
func (t *Tessellator) Visible(f geom.Frustum, dst []draw.Terrain) []draw.Terrain {
	for _, tile := range t.tiles {
		if tile.box.IntersectsFrustum(f) {
			dst = append(dst, tile)
		}
	}
	return dst
}

// Release deletes the tiles' device buffers. Shared buffers survive and
// are reused by the next tessellation.
func (t *Tessellator) Release() {
	for _, tile := range t.tiles {
		tile.points.Release()
	}
	t.tiles = nil
}

// Close releases every device buffer, shared ones included.
func (t *Tessellator) Close() {
	t.Release()
	if t.texCoords != nil {
		t.texCoords.Release()
		t.elements.Release()
		t.texCoords, t.elements = nil, nil
	}
}

// Tile is one tessellated terrain tile.
type Tile struct {
	Row, Col int

	sector     geom.Sector
	origin     mgl64.Vec3
	box        geom.BoundingBox
	points     *gpu.BufferObject
	texCoords  *gpu.BufferObject
	elements   *gpu.BufferObject
	stripCount int
}

var _ draw.Terrain = (*Tile)(nil)

func newTile(g *globe.Globe, sector geom.Sector, n int) *Tile {
	origin := g.Point(sector.MinLatitude, sector.MinLongitude, 0, globe.ClampToGround)
	points := make([]float32, 0, n*n*3)
	dLat := sector.DeltaLatitude() / float64(n-1)
	dLon := sector.DeltaLongitude() / float64(n-1)
	for i := 0; i < n; i++ {
		lat := sector.MinLatitude + float64(i)*dLat
		if i == n-1 {
			lat = sector.MaxLatitude
		}
		for j := 0; j < n; j++ {
			lon := sector.MinLongitude + float64(j)*dLon
			if j == n-1 {
				lon = sector.MaxLongitude
			}
			p := g.Point(lat, lon, 0, globe.ClampToGround).Sub(origin)
			points = append(points, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
	tile := &Tile{sector: sector, origin: origin, points: gpu.NewVertexBuffer(points)}
	tile.box.SetToPoints(points, 3)
	tile.box.Translate(origin)
	return tile
}

// Sector returns the tile's geographic extent.
func (t *Tile) Sector() geom.Sector { return t.sector }

// VertexOrigin returns the Cartesian point of the tile's south-west corner.
func (t *Tile) VertexOrigin() mgl64.Vec3 { return t.origin }

// BoundingBox returns the tile's Cartesian extent.
func (t *Tile) BoundingBox() geom.BoundingBox { return t.box }

// UseVertexPointAttrib binds the tile's points to location.
func (t *Tile) UseVertexPointAttrib(dev gpu.Device, location uint32) bool {
	if !t.points.BindBuffer(dev) {
		return false
	}
	dev.VertexAttribPointer(location, 3, 12, 0)
	return true
}

// UseVertexTexCoordAttrib binds the shared texture coordinates to location.
func (t *Tile) UseVertexTexCoordAttrib(dev gpu.Device, location uint32) bool {
	if t.texCoords == nil || !t.texCoords.BindBuffer(dev) {
		return false
	}
	dev.VertexAttribPointer(location, 2, 8, 0)
	return true
}

// DrawTriangles draws the tile surface as one triangle strip.
func (t *Tile) DrawTriangles(dev gpu.Device) {
	if t.elements == nil || !t.elements.BindBuffer(dev) {
		return
	}
	dev.DrawElements(gputypes.PrimitiveTopologyTriangleStrip, t.stripCount, 0)
}

// TexCoords returns s,t pairs for a numLat x numLon grid, s increasing
// with longitude and t with latitude. The last row and column are exactly 1.
func TexCoords(numLat, numLon int) []float32 {
	ds := 1 / float32(max(numLon-1, 1))
	dt := 1 / float32(max(numLat-1, 1))
	out := make([]float32, 0, numLat*numLon*2)
	for i := 0; i < numLat; i++ {
		tc := float32(i) * dt
		if i == numLat-1 {
			tc = 1
		}
		for j := 0; j < numLon; j++ {
			s := float32(j) * ds
			if j == numLon-1 {
				s = 1
			}
			out = append(out, s, tc)
		}
	}
	return out
}

// TriStripElements returns a triangle strip covering a numLat x numLon
// grid with counter-clockwise winding seen from above. Rows are joined with
// degenerate triangles.
func TriStripElements(numLat, numLon int) []uint16 {
	out := make([]uint16, 0, ((numLat-1)*numLon+(numLat-2))*2)
	vertex := 0
	for i := 0; i < numLat-1; i++ {
		for j := 0; j < numLon; j++ {
			vertex = j + i*numLon
			out = append(out, uint16(vertex+numLon), uint16(vertex))
		}
		if i < numLat-2 {
			out = append(out, uint16(vertex), uint16((i+2)*numLon))
		}
	}
	return out
}
