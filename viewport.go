package batch2d

import (
	"encoding/binary"
	"image"
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d/gfx"
)

// Viewport holds the per-session transform parameters.
//
// Draw calls take positions in target pixels with the origin at the top-left
// corner and y pointing down. Every emitted vertex v becomes
//
//	v*Scale - (targetSize/2 - Offset)
//
// which centers the target on the origin before the projection maps it to
// clip space. Rect is the GPU viewport and scissor rectangle.
type Viewport struct {
	// Scale multiplies vertex positions. The zero value means {1, 1}.
	Scale f32.Vec2

	// Offset shifts vertex positions after scaling.
	Offset f32.Vec2

	// Rect is the viewport in framebuffer pixels. An empty Rect covers the
	// whole target.
	Rect image.Rectangle
}

// DefaultViewport returns the viewport covering the whole target at its
// native size.
func DefaultViewport(target gfx.Framebuffer) Viewport {
	w, h := target.Size()
	return Viewport{
		Scale: f32.Vec2{1, 1},
		Rect:  image.Rect(0, 0, int(w), int(h)),
	}
}

// normalize fills zero-valued fields with their defaults for a w x h
// target.
func (v Viewport) normalize(w, h uint32) Viewport {
	if v.Scale == (f32.Vec2{}) {
		v.Scale = f32.Vec2{1, 1}
	}
	if v.Rect.Empty() {
		v.Rect = image.Rect(0, 0, int(w), int(h))
	}
	return v
}

// scissor returns the viewport rectangle clipped to the target.
func (v Viewport) scissor(w, h uint32) image.Rectangle {
	return v.Rect.Intersect(image.Rect(0, 0, int(w), int(h)))
}

// vertexTransform maps target pixels to target-centered coordinates.
type vertexTransform struct {
	scale f32.Vec2
	shift f32.Vec2
}

// newTransform builds the transform for a viewport on a w x h target.
func newTransform(v Viewport, w, h uint32) vertexTransform {
	return vertexTransform{
		scale: v.Scale,
		shift: f32.Vec2{
			float32(w)/2 - v.Offset[0],
			float32(h)/2 - v.Offset[1],
		},
	}
}

// apply transforms one position.
func (t vertexTransform) apply(x, y float32) (float32, float32) {
	return x*t.scale[0] - t.shift[0], y*t.scale[1] - t.shift[1]
}

// invert undoes apply.
func (t vertexTransform) invert(x, y float32) (float32, float32) {
	return (x + t.shift[0]) / t.scale[0], (y + t.shift[1]) / t.scale[1]
}

// projection returns the orthographic projection of a w x h target
// centered on the origin. Screen y points down and clip-space y points up,
// so the y scale is negative.
func projection(w, h uint32) f32.Mat4 {
	return f32.Mat4{
		2 / float32(w), 0, 0, 0,
		0, -2 / float32(h), 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// matricesSize is the size of the projection uniform block.
const matricesSize = 64

// putMat4 writes a row-major matrix as the column-major mat4x4<f32> WGSL
// expects.
func putMat4(dst []byte, m f32.Mat4) {
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			off := (col*4 + row) * 4
			binary.LittleEndian.PutUint32(dst[off:off+4], math.Float32bits(m[row*4+col]))
		}
	}
}
