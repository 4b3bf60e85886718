package gpu

// Framebuffer is an offscreen render target with a single color
// attachment. It is created on the device the first time it is bound.
type Framebuffer struct {
	color    *Texture
	attached bool

	id  uint32
	dev Device
}

// NewFramebuffer returns a framebuffer rendering into color.
func NewFramebuffer(color *Texture) *Framebuffer {
	return &Framebuffer{color: color}
}

// ColorAttachment returns the attached color texture.
func (f *Framebuffer) ColorAttachment() *Texture { return f.color }

// ID returns the device id, or zero before the first successful bind.
func (f *Framebuffer) ID() uint32 { return f.id }

// ByteSize returns the size of the color attachment.
func (f *Framebuffer) ByteSize() int {
	if f.color == nil {
		return 0
	}
	return f.color.ByteSize()
}

// BindFramebuffer makes f the draw target. It returns false, and logs at
// warn level, when the framebuffer cannot be created or is incomplete.
func (f *Framebuffer) BindFramebuffer(dev Device) bool {
	if f.id == 0 {
		id, err := dev.CreateFramebuffer()
		if err != nil {
			slogger().Warn("gpu: framebuffer creation failed", "err", err)
			return false
		}
		f.id, f.dev = id, dev
	}

	if !f.attached && f.color != nil {
		if !f.color.upload(dev) {
			return false
		}
		if err := dev.AttachTexture(f.id, f.color.id); err != nil {
			slogger().Warn("gpu: framebuffer attachment failed", "framebuffer", f.id, "texture", f.color.id, "err", err)
			return false
		}
		f.attached = true
	}

	if err := dev.BindFramebuffer(f.id); err != nil {
		slogger().Warn("gpu: framebuffer bind failed", "framebuffer", f.id, "err", err)
		return false
	}
	return true
}

// Release deletes the framebuffer and its color attachment.
func (f *Framebuffer) Release() {
	if f.id != 0 && f.dev != nil {
		f.dev.DeleteFramebuffer(f.id)
	}
	if f.color != nil {
		f.color.Release()
	}
	f.id, f.dev, f.attached = 0, nil, false
}
