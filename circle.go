package batch2d

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d/gfx"
)

// circle is one filled circle draw.
type circle struct {
	center f32.Vec2
	radius float32
	color  uint32
}

// CircleRenderer batches filled circles. Each circle is a quad around its
// center; the fragment stage discards pixels outside the radius.
type CircleRenderer struct {
	r *renderer[circle]
}

// NewCircleRenderer creates a circle renderer drawing into framebuffers of
// pass.
func NewCircleRenderer(dev gfx.Device, pass gfx.RenderPass, opts ...Option) (*CircleRenderer, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer[circle](dev, pass, circleShape{}, o)
	if err != nil {
		return nil, err
	}
	return &CircleRenderer{r: r}, nil
}

// Destroy waits for the last submission and releases every GPU object.
// It panics during a drawing session.
func (cr *CircleRenderer) Destroy() { cr.r.destroy() }

// BeginDrawing opens a drawing session on target with the default
// viewport. The first submission of the session waits on wait, which may
// be nil.
func (cr *CircleRenderer) BeginDrawing(wait gfx.Semaphore, target gfx.Framebuffer) error {
	return cr.r.begin(wait, target, nil)
}

// BeginDrawingViewport is BeginDrawing with an explicit viewport.
func (cr *CircleRenderer) BeginDrawingViewport(wait gfx.Semaphore, target gfx.Framebuffer, vp Viewport) error {
	return cr.r.begin(wait, target, &vp)
}

// EndDrawing submits the pending batch, signaling signal when the GPU is
// done, and closes the session. It returns the first error of the session.
func (cr *CircleRenderer) EndDrawing(signal gfx.Semaphore) error {
	return cr.r.end(signal)
}

// DrawCircle draws a filled circle. A radius that is not positive draws
// nothing.
func (cr *CircleRenderer) DrawCircle(center f32.Vec2, radius float32, c RGBA) {
	if !(radius > 0) {
		if !cr.r.drawing {
			panic("batch2d: draw called outside a drawing session")
		}
		return
	}
	cr.r.draw(&circle{center: center, radius: radius, color: c.RGBA8()})
}

// Stats returns activity counters.
func (cr *CircleRenderer) Stats() Stats { return cr.r.stats }

// circleShape emits one bounding quad per circle.
type circleShape struct{}

func (circleShape) config() shapeConfig {
	return shapeConfig{
		name:       "circle",
		shader:     circleShaderWGSL,
		stride:     circleStride,
		attributes: circleAttributes,
		topology:   gputypes.PrimitiveTopologyTriangleList,
		capacity:   quadCapacity,
	}
}

func (circleShape) create(gfx.Device, gfx.DescriptorSet) error { return nil }

func (circleShape) release() {}

func (circleShape) geometry(*circle) (int, int) { return 4, 6 }

func (circleShape) mustFlush(*batch, *circle) bool { return false }

// emit writes the corners center±r with their offsets from the center, in
// the same winding as rects.
func (circleShape) emit(b *batch, c *circle, xf vertexTransform) {
	r := c.radius
	offsets := [4]f32.Vec2{{-r, -r}, {r, -r}, {r, r}, {-r, r}}

	base := uint32(b.vertexCount)
	for _, o := range offsets {
		x, y := xf.apply(c.center[0]+o[0], c.center[1]+o[1])

		v := b.nextVertex()
		putFloat(v, 0, x)
		putFloat(v, 4, y)
		putFloat(v, 8, o[0])
		putFloat(v, 12, o[1])
		putUint(v, 16, c.color)
		putFloat(v, 20, r)
	}
	b.putQuad(base)
}

func (circleShape) prepare(*batch, gfx.DescriptorSet) {}

func (circleShape) record(*batch, gfx.CommandBuffer) {}
