package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/drape/geom"
	"github.com/gogpu/gpucontext"
	xdraw "golang.org/x/image/draw"
)

// Texture is an RGBA8 texture uploaded to the device on first bind.
// Pixel rows are stored bottom row first, matching GL texture space where
// t = 0 is the first row.
type Texture struct {
	desc   TextureDescriptor
	pixels []byte
	dirty  bool

	texCoordTransform geom.Matrix

	id  uint32
	dev Device
}

var (
	_ gpucontext.Texture              = (*Texture)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

// NewTexture creates a sampled texture from bottom-up RGBA pixels. Nil
// pixels leave the texture contents undefined until the first update.
func NewTexture(width, height int, pixels []byte) (*Texture, error) {
	desc := DefaultTextureDescriptor(width, height)
	if pixels != nil && len(pixels) != desc.ByteSize() {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d", ErrInvalidDataSize, len(pixels), width, height)
	}
	return &Texture{desc: desc, pixels: pixels, texCoordTransform: geom.Identity()}, nil
}

// NewRenderTexture creates a texture usable as a framebuffer color
// attachment.
func NewRenderTexture(width, height int) *Texture {
	desc := DefaultTextureDescriptor(width, height)
	desc.Label = "render target"
	desc.Usage |= TextureUsageRenderAttachment
	return &Texture{desc: desc, texCoordTransform: geom.Identity()}
}

// NewTextureFromImage converts img to RGBA and creates a texture from it.
// Image rows run top to bottom; they are stored reversed so that t = 1 is
// the top of the image.
func NewTextureFromImage(img image.Image) *Texture {
	w, h, pixels := RGBAPixels(img)
	return &Texture{desc: DefaultTextureDescriptor(w, h), pixels: pixels, texCoordTransform: geom.Identity()}
}

// RGBAPixels converts img to tightly packed RGBA rows, bottom row first,
// the layout textures are created from.
func RGBAPixels(img image.Image) (width, height int, pixels []byte) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)

	w, h := b.Dx(), b.Dy()
	pixels = make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(pixels[(h-1-y)*w*4:(h-y)*w*4], rgba.Pix[y*rgba.Stride:y*rgba.Stride+w*4])
	}
	return w, h, pixels
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.desc.Height }

// Descriptor returns the creation parameters.
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

// ByteSize returns the size of the texture's pixel data.
func (t *Texture) ByteSize() int { return t.desc.ByteSize() }

// ID returns the device id, or zero before the first successful bind.
func (t *Texture) ID() uint32 { return t.id }

// TexCoordTransform returns the transform applied to texture coordinates
// before sampling.
func (t *Texture) TexCoordTransform() geom.Matrix { return t.texCoordTransform }

// SetTexCoordTransform replaces the texture coordinate transform.
func (t *Texture) SetTexCoordTransform(m geom.Matrix) { t.texCoordTransform = m }

// UpdateData replaces all pixels. The upload happens on the next bind.
func (t *Texture) UpdateData(data []byte) error {
	if len(data) != t.desc.ByteSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDataSize, len(data), t.desc.ByteSize())
	}
	t.pixels = append(t.pixels[:0], data...)
	t.dirty = true
	return nil
}

// UpdateRegion replaces a w x h block of pixels starting at texel (x, y).
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > t.desc.Width || y+h > t.desc.Height {
		return fmt.Errorf("gpu: region %dx%d at (%d,%d) outside %dx%d texture", w, h, x, y, t.desc.Width, t.desc.Height)
	}
	if len(data) != w*h*4 {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDataSize, len(data), w*h*4)
	}
	if len(t.pixels) != t.desc.ByteSize() {
		t.pixels = make([]byte, t.desc.ByteSize())
	}
	stride := t.desc.Width * 4
	for row := 0; row < h; row++ {
		copy(t.pixels[(y+row)*stride+x*4:], data[row*w*4:(row+1)*w*4])
	}
	t.dirty = true
	return nil
}

// upload creates the device texture, or pushes pending pixel updates.
func (t *Texture) upload(dev Device) bool {
	if t.id == 0 {
		id, err := dev.CreateTexture(t.desc, t.pixels)
		if err != nil {
			slogger().Warn("gpu: texture upload failed", "label", t.desc.Label, "width", t.desc.Width, "height", t.desc.Height, "err", err)
			return false
		}
		t.id, t.dev, t.dirty = id, dev, false
		if t.desc.Usage&TextureUsageRenderAttachment == 0 {
			t.pixels = nil
		}
		return true
	}
	if t.dirty {
		if err := dev.UpdateTexture(t.id, t.pixels); err != nil {
			slogger().Warn("gpu: texture update failed", "id", t.id, "err", err)
			return false
		}
		t.dirty = false
	}
	return true
}

// BindTexture uploads the texture if needed and binds it to the active
// texture unit.
func (t *Texture) BindTexture(dev Device) bool {
	if !t.upload(dev) {
		return false
	}
	dev.BindTexture(t.id)
	return true
}

// Release deletes the device texture.
func (t *Texture) Release() {
	if t.id != 0 && t.dev != nil {
		t.dev.DeleteTexture(t.id)
	}
	t.id, t.dev = 0, nil
}

// TextureCreator mints textures through the gpucontext interface. Textures
// are uploaded to whichever device first binds them.
type TextureCreator struct{}

var _ gpucontext.TextureCreator = TextureCreator{}

// NewTextureFromRGBA creates a texture from bottom-up RGBA pixels.
func (TextureCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil data", ErrInvalidDataSize)
	}
	t, err := NewTexture(width, height, data)
	if err != nil {
		return nil, err
	}
	return t, nil
}
