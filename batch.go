package batch2d

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
)

// indexSize is the byte size of one index; batches always use 32-bit
// indices.
const indexSize = 4

// batch is one draw call worth of primitives: host-visible staging buffers
// the CPU writes through their persistent mapping, the device-local
// buffers the GPU draws from, and the textures the batch references.
type batch struct {
	vertexStaging gfx.Buffer
	indexStaging  gfx.Buffer
	vertices      gfx.Buffer
	indices       gfx.Buffer

	vertexData []byte
	indexData  []byte

	stride        int
	maxVertices   int
	maxIndices    int
	maxPrimitives int
	maxTextures   int

	vertexCount int
	indexCount  int
	count       int

	textures []gfx.Texture

	// lineWidth is the width every line of the batch shares. Zero means no
	// line has been accepted yet.
	lineWidth float32
}

// batchConfig sizes a batch.
type batchConfig struct {
	label         string
	stride        int
	maxVertices   int
	maxIndices    int
	maxPrimitives int
	maxTextures   int
}

// newBatch allocates the four buffers of a batch.
func newBatch(dev gfx.Device, cfg batchConfig) (*batch, error) {
	b := &batch{
		stride:        cfg.stride,
		maxVertices:   cfg.maxVertices,
		maxIndices:    cfg.maxIndices,
		maxPrimitives: cfg.maxPrimitives,
		maxTextures:   cfg.maxTextures,
		textures:      make([]gfx.Texture, 0, cfg.maxTextures),
	}

	vertexBytes := uint64(cfg.stride) * uint64(cfg.maxVertices)
	indexBytes := uint64(indexSize) * uint64(cfg.maxIndices)

	specs := []struct {
		dst    *gfx.Buffer
		suffix string
		size   uint64
		memory gfx.MemoryKind
		usage  gputypes.BufferUsage
	}{
		{&b.vertexStaging, "vertex_staging", vertexBytes, gfx.MemoryHostVisible, gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc},
		{&b.indexStaging, "index_staging", indexBytes, gfx.MemoryHostVisible, gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc},
		{&b.vertices, "vertices", vertexBytes, gfx.MemoryDeviceLocal, gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst},
		{&b.indices, "indices", indexBytes, gfx.MemoryDeviceLocal, gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst},
	}
	for _, s := range specs {
		buf, err := dev.CreateBuffer(&gfx.BufferDescriptor{
			Label:  cfg.label + "_" + s.suffix,
			Size:   s.size,
			Memory: s.memory,
			Usage:  s.usage,
		})
		if err != nil {
			b.destroy()
			return nil, fmt.Errorf("create %s buffer: %w", s.suffix, err)
		}
		*s.dst = buf
	}

	b.vertexData = b.vertexStaging.Map()
	b.indexData = b.indexStaging.Map()
	if uint64(len(b.vertexData)) < vertexBytes || uint64(len(b.indexData)) < indexBytes {
		b.destroy()
		return nil, fmt.Errorf("map staging buffers: %w", gfx.ErrNotHostVisible)
	}
	return b, nil
}

// destroy releases the buffers in reverse creation order.
func (b *batch) destroy() {
	for _, buf := range []gfx.Buffer{b.indices, b.vertices, b.indexStaging, b.vertexStaging} {
		if buf != nil {
			buf.Destroy()
		}
	}
	b.indices, b.vertices, b.indexStaging, b.vertexStaging = nil, nil, nil, nil
	b.vertexData, b.indexData = nil, nil
}

// reset empties the batch for reuse.
func (b *batch) reset() {
	b.vertexCount = 0
	b.indexCount = 0
	b.count = 0
	clear(b.textures)
	b.textures = b.textures[:0]
	b.lineWidth = 0
}

// fits reports whether one more primitive of v vertices and i indices fits.
func (b *batch) fits(v, i int) bool {
	return b.count < b.maxPrimitives &&
		b.vertexCount+v <= b.maxVertices &&
		b.indexCount+i <= b.maxIndices
}

// isGeometryFull reports whether the batch cannot take any more geometry.
func (b *batch) isGeometryFull() bool {
	return b.count >= b.maxPrimitives ||
		b.vertexCount >= b.maxVertices ||
		b.indexCount >= b.maxIndices
}

// hasTexture returns the slot of t if the batch already references it.
func (b *batch) hasTexture(t gfx.Texture) (int, bool) {
	for i, bound := range b.textures {
		if bound == t {
			return i, true
		}
	}
	return 0, false
}

// isTexturesFull reports whether every texture slot is taken.
func (b *batch) isTexturesFull() bool {
	return len(b.textures) >= b.maxTextures
}

// textureIndex returns the slot of t, appending it when new. The caller
// checks isTexturesFull first.
func (b *batch) textureIndex(t gfx.Texture) int {
	if i, ok := b.hasTexture(t); ok {
		return i
	}
	b.textures = append(b.textures, t)
	return len(b.textures) - 1
}

// nextVertex returns the staging bytes of the next vertex.
func (b *batch) nextVertex() []byte {
	off := b.vertexCount * b.stride
	b.vertexCount++
	return b.vertexData[off : off+b.stride]
}

// putIndex appends one index.
func (b *batch) putIndex(i uint32) {
	off := b.indexCount * indexSize
	binary.LittleEndian.PutUint32(b.indexData[off:off+indexSize], i)
	b.indexCount++
}

// putQuad appends the six indices of a quad whose four vertices start at
// base: two triangles sharing the 0-2 diagonal.
func (b *batch) putQuad(base uint32) {
	for _, k := range [6]uint32{0, 1, 2, 2, 3, 0} {
		b.putIndex(base + k)
	}
}
