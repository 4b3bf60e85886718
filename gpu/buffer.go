package gpu

import (
	"encoding/binary"
	"math"
)

// BufferObject is vertex or element data uploaded to the device the first
// time it is bound. The CPU copy is dropped after upload.
type BufferObject struct {
	target BufferTarget
	data   []byte
	size   int

	id  uint32
	dev Device
}

// NewVertexBuffer encodes float32 vertex data for an array buffer.
func NewVertexBuffer(vertices []float32) *BufferObject {
	data := make([]byte, 4*len(vertices))
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return &BufferObject{target: ArrayBuffer, data: data, size: len(data)}
}

// NewElementBuffer encodes uint16 indices for an element array buffer.
func NewElementBuffer(indices []uint16) *BufferObject {
	data := make([]byte, 2*len(indices))
	for i, v := range indices {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return &BufferObject{target: ElementArrayBuffer, data: data, size: len(data)}
}

// Target returns the buffer's binding point.
func (b *BufferObject) Target() BufferTarget { return b.target }

// ByteSize returns the size of the buffer data in bytes.
func (b *BufferObject) ByteSize() int { return b.size }

// ID returns the device id, or zero before the first successful bind.
func (b *BufferObject) ID() uint32 { return b.id }

// BindBuffer uploads the buffer if needed and binds it. It returns false
// when the upload fails; the failure is logged and the buffer stays
// unuploaded so the next bind retries.
func (b *BufferObject) BindBuffer(dev Device) bool {
	if b.id == 0 {
		id, err := dev.CreateBuffer(b.target, b.data)
		if err != nil {
			slogger().Warn("gpu: buffer upload failed", "target", b.target, "bytes", b.size, "err", err)
			return false
		}
		b.id, b.dev, b.data = id, dev, nil
	}
	dev.BindBuffer(b.target, b.id)
	return true
}

// Release deletes the device buffer. The buffer cannot be bound again.
func (b *BufferObject) Release() {
	if b.id != 0 && b.dev != nil {
		b.dev.DeleteBuffer(b.id)
	}
	b.id, b.dev, b.data = 0, nil, nil
}
