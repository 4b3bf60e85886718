// Package shape assembles geographic shapes into GPU geometry and submits
// them as drawables.
//
// Three variants exist, [Path], [Ellipse] and [Polygon]. Each chooses at
// assembly time between two renderings: a shape clamped to the ground
// that follows the terrain is a surface shape, assembled in
// longitude/latitude degrees and rasterized into terrain tile textures;
// any other shape is assembled in Cartesian coordinates and drawn
// directly in 3D.
//
// Polygon interiors are triangulated by ear clipping in longitude and
// latitude, after each hole is bridged into the outer boundary.
//
// Geometry is cached on the shape and rebuilt only after a setter
// invalidates it. Each rebuild uses a new cache version, so the GPU
// buffers of the previous geometry are evicted from the render resource
// cache the first time the new ones are stored.
package shape
