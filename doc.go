// Package drape draws vector shapes over a tessellated globe.
//
// # Overview
//
// drape renders paths and ellipses positioned in geographic coordinates.
// Shapes clamped to the ground and following the terrain are surface
// shapes: they are rasterized into an offscreen texture per terrain tile
// and composited onto the tile, so they drape over the surface at any
// altitude. Other shapes are drawn directly in 3D.
//
// # Quick Start
//
//	target := soft.NewTarget(800, 600)
//	r, err := drape.NewRenderer(soft.New(target))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	path := shape.NewPath([]geom.Position{
//	    geom.NewPosition(50, -180, 1e5),
//	    geom.NewPosition(30, -100, 1e6),
//	    geom.NewPosition(50, -40, 1e5),
//	})
//	_, err = r.RenderFrame(drape.Frame{
//	    Camera:   render.Camera{Position: geom.NewPosition(40, -110, 2e7)},
//	    Viewport: image.Rect(0, 0, 800, 600),
//	    Shapes:   []shape.Shape{path},
//	})
//
// # Devices
//
// drape never creates a GPU context. The host passes a [gpu.Device]:
// soft.Device renders on the CPU into an *image.RGBA, and gles.Device
// drives the OpenGL context the host made current.
//
// # Frame
//
// A frame runs in two walks. The submission walk assembles dirty shape
// geometry and offers drawables to a queue. The queue is sorted into
// terrain, surface shapes in submission order, then 3D shapes from
// farthest to nearest. The render walk draws the queue; runs of surface
// shapes are batched into one texture pass per tile. Cached GPU buffers
// evicted during the frame are released once it has been drawn.
//
// # Coordinate System
//
// Cartesian coordinates are Earth-centered with Y toward the north pole
// and Z toward latitude 0, longitude 0. Window coordinates have their
// origin at the bottom left.
package drape
