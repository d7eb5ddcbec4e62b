package native

import (
	"unsafe"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// Buffer implements gfx.Buffer on a HAL buffer.
type Buffer struct {
	dev    *Device
	raw    hal.Buffer
	label  string
	size   uint64
	memory gfx.MemoryKind

	// mapping is the persistent host view of a host-visible buffer.
	mapping []byte

	// shadow is set when mapping is Go memory rather than a HAL mapping.
	shadow bool
}

func (b *Buffer) mapStaging() {
	m, err := b.dev.raw.MapBuffer(b.raw, 0, b.size)
	switch {
	case err != nil:
		b.dev.log.Debug("native: staging buffer not mappable, using host memory",
			"label", b.label, "err", err)
	case !m.IsCoherent:
		// Writes through a non-coherent mapping need explicit flushes
		// the HAL does not expose. Upload from host memory instead.
		_ = b.dev.raw.UnmapBuffer(b.raw)
		b.dev.log.Debug("native: staging mapping not coherent, using host memory",
			"label", b.label)
	default:
		b.mapping = unsafe.Slice((*byte)(m.Ptr), b.size)
		return
	}
	b.mapping = make([]byte, b.size)
	b.shadow = true
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Memory returns the memory kind the buffer was created with.
func (b *Buffer) Memory() gfx.MemoryKind { return b.memory }

// Map returns the staging mapping, or nil for device-local buffers.
func (b *Buffer) Map() []byte {
	if b.memory != gfx.MemoryHostVisible {
		return nil
	}
	return b.mapping
}

// Copy uploads data to the start of a device-local buffer through the
// queue.
func (b *Buffer) Copy(data []byte) error {
	if b.memory != gfx.MemoryDeviceLocal {
		return gfx.ErrNotHostVisible
	}
	if uint64(len(data)) > b.size {
		return gfx.ErrOutOfRange
	}
	if b.raw == nil {
		return ErrDestroyed
	}
	return b.dev.queue.raw.WriteBuffer(b.raw, 0, data)
}

// Destroy unmaps and releases the buffer.
func (b *Buffer) Destroy() {
	if b.raw == nil {
		return
	}
	if b.mapping != nil && !b.shadow {
		if err := b.dev.raw.UnmapBuffer(b.raw); err != nil {
			b.dev.log.Warn("native: unmap buffer", "label", b.label, "err", err)
		}
	}
	b.mapping = nil
	b.dev.raw.DestroyBuffer(b.raw)
	b.raw = nil
}
