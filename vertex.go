package batch2d

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// Vertex layouts. Every attribute is little-endian; colors are RGBA8 with
// red in the lowest byte.
//
//	rect   pos f32x2 | uv f32x2    | color unorm8x4 | texture index f32
//	line   pos f32x2 | color unorm8x4
//	circle pos f32x2 | local f32x2 | color unorm8x4 | radius f32
const (
	rectStride   = 24
	lineStride   = 12
	circleStride = 24
)

var rectAttributes = []gputypes.VertexAttribute{
	{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
	{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
	{Format: gputypes.VertexFormatFloat32, Offset: 20, ShaderLocation: 3},
}

var lineAttributes = []gputypes.VertexAttribute{
	{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	{Format: gputypes.VertexFormatUnorm8x4, Offset: 8, ShaderLocation: 1},
}

var circleAttributes = []gputypes.VertexAttribute{
	{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
	{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
	{Format: gputypes.VertexFormatFloat32, Offset: 20, ShaderLocation: 3},
}

func putFloat(dst []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(dst[off:off+4], math.Float32bits(v))
}

func putUint(dst []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(dst[off:off+4], v)
}

// quadCapacity sizes batches of four-vertex, six-index primitives.
func quadCapacity(n int) (vertices, indices int) {
	return 4 * n, 6 * n
}
