package shape

import (
	"image"

	"github.com/gogpu/gputypes"
)

// PathType selects how the edges between positions are interpolated.
type PathType uint8

const (
	// GreatCircle edges follow the shortest path on the globe.
	GreatCircle PathType = iota

	// RhumbLine edges keep a constant azimuth.
	RhumbLine

	// Linear edges are straight lines between the positions, with no
	// intermediate points.
	Linear
)

// String returns the path type name.
func (t PathType) String() string {
	switch t {
	case GreatCircle:
		return "GreatCircle"
	case RhumbLine:
		return "RhumbLine"
	case Linear:
		return "Linear"
	default:
		return "Unknown"
	}
}

// Attributes controls how a shape is drawn.
type Attributes struct {
	DrawInterior  bool
	DrawOutline   bool
	DrawVerticals bool

	InteriorColor gputypes.Color
	OutlineColor  gputypes.Color
	OutlineWidth  float32

	// DepthTest makes the shape subject to depth testing against the
	// terrain and other shapes.
	DepthTest bool

	// InteriorImage and OutlineImage are textures repeated along the shape.
	// Images are cached by identity, so the same pointer must be reused
	// across frames.
	InteriorImage image.Image
	OutlineImage  image.Image
}

// DefaultAttributes returns a white interior and a one pixel red outline,
// both drawn with depth testing.
func DefaultAttributes() *Attributes {
	return &Attributes{
		DrawInterior:  true,
		DrawOutline:   true,
		InteriorColor: gputypes.ColorWhite,
		OutlineColor:  gputypes.ColorRed,
		OutlineWidth:  1,
		DepthTest:     true,
	}
}

// Copy returns a copy of a.
func (a *Attributes) Copy() *Attributes {
	c := *a
	return &c
}
