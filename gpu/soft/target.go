// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Target is the default framebuffer of a software device: a CPU-backed
// *image.RGBA color buffer with a float32 depth buffer. Pixels hold
// premultiplied RGBA; the image's top row is the top of the viewport.
//
// Example:
//
//	target := soft.NewTarget(800, 600)
//	dev := soft.New(target)
//	// render...
//	png.Encode(w, target.Image())
type Target struct {
	img   *image.RGBA
	depth []float32
}

// NewTarget creates a target of the given size.
func NewTarget(width, height int) *Target {
	return NewTargetFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewTargetFromImage wraps an existing *image.RGBA. The image is used
// directly without copying; its bounds must start at the origin.
func NewTargetFromImage(img *image.RGBA) *Target {
	t := &Target{img: img}
	t.depth = make([]float32, t.Width()*t.Height())
	t.ClearDepth()
	return t
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.img.Bounds().Dx() }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.img.Bounds().Dy() }

// Format returns the pixel format (RGBA8).
func (t *Target) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// Pixels returns direct access to the pixel data.
func (t *Target) Pixels() []byte { return t.img.Pix }

// Stride returns the number of bytes per row.
func (t *Target) Stride() int { return t.img.Stride }

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *Target) Image() *image.RGBA { return t.img }

// Clear fills the color buffer with c, premultiplied.
func (t *Target) Clear(c gputypes.Color) {
	px := premultipliedBytes(c)
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
}

// ClearDepth resets every depth sample to the far plane.
func (t *Target) ClearDepth() {
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// Resize replaces the buffers with new ones of the given dimensions.
// The contents are not preserved.
func (t *Target) Resize(width, height int) {
	*t = *NewTarget(width, height)
}

func premultipliedBytes(c gputypes.Color) [4]byte {
	pm := c.Premultiplied()
	return [4]byte{unit8(float32(pm.R)), unit8(float32(pm.G)), unit8(float32(pm.B)), unit8(float32(pm.A))}
}

func unit8(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
