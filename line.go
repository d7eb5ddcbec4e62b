package batch2d

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d/gfx"
)

// restartIndex terminates a line strip inside an index buffer.
const restartIndex = 0xFFFFFFFF

// polyline is one line strip draw.
type polyline struct {
	points []f32.Vec2
	color  uint32
	width  float32
}

// LineRenderer batches polylines. Each polyline is a line strip; strips
// are separated by primitive restart so one draw call holds many of them.
// Line width is a property of the whole batch, so a width change flushes.
type LineRenderer struct {
	r *renderer[polyline]

	// maxPoints is the longest strip an empty batch holds.
	maxPoints int
}

// NewLineRenderer creates a line renderer drawing into framebuffers of pass.
func NewLineRenderer(dev gfx.Device, pass gfx.RenderPass, opts ...Option) (*LineRenderer, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer[polyline](dev, pass, lineShape{}, o)
	if err != nil {
		return nil, err
	}
	v, i := lineCapacity(o.maxPrimitives)
	return &LineRenderer{r: r, maxPoints: min(v, i-1)}, nil
}

// Destroy waits for the last submission and releases every GPU object.
// It panics during a drawing session.
func (lr *LineRenderer) Destroy() { lr.r.destroy() }

// BeginDrawing opens a drawing session on target with the default
// viewport. The first submission of the session waits on wait, which may
// be nil.
func (lr *LineRenderer) BeginDrawing(wait gfx.Semaphore, target gfx.Framebuffer) error {
	return lr.r.begin(wait, target, nil)
}

// BeginDrawingViewport is BeginDrawing with an explicit viewport.
func (lr *LineRenderer) BeginDrawingViewport(wait gfx.Semaphore, target gfx.Framebuffer, vp Viewport) error {
	return lr.r.begin(wait, target, &vp)
}

// EndDrawing submits the pending batch, signaling signal when the GPU is
// done, and closes the session. It returns the first error of the session.
func (lr *LineRenderer) EndDrawing(signal gfx.Semaphore) error {
	return lr.r.end(signal)
}

// DrawLines draws a connected polyline through points. Fewer than two
// points draw nothing. A polyline longer than one batch is split, and the
// pieces share their junction point. It panics if width is not positive.
func (lr *LineRenderer) DrawLines(points []f32.Vec2, c RGBA, width float32) {
	if !(width > 0) {
		panic("batch2d: line width must be positive")
	}
	if len(points) < 2 {
		if !lr.r.drawing {
			panic("batch2d: draw called outside a drawing session")
		}
		return
	}

	color := c.RGBA8()
	for len(points) > lr.maxPoints {
		lr.r.draw(&polyline{points: points[:lr.maxPoints], color: color, width: width})
		points = points[lr.maxPoints-1:]
	}
	lr.r.draw(&polyline{points: points, color: color, width: width})
}

// DrawLine draws the segment from a to b.
func (lr *LineRenderer) DrawLine(a, b f32.Vec2, c RGBA, width float32) {
	lr.DrawLines([]f32.Vec2{a, b}, c, width)
}

// Stats returns activity counters.
func (lr *LineRenderer) Stats() Stats { return lr.r.stats }

// lineCapacity sizes a batch of n polylines: 4n/3 vertices and 2n indices,
// and never less than one two-point strip.
func lineCapacity(n int) (vertices, indices int) {
	return max(4*n/3, 2), max(2*n, 3)
}

// lineShape emits line strips with restart indices.
type lineShape struct{}

func (lineShape) config() shapeConfig {
	return shapeConfig{
		name:       "line",
		shader:     lineShaderWGSL,
		stride:     lineStride,
		attributes: lineAttributes,
		topology:   gputypes.PrimitiveTopologyLineStrip,
		restart:    true,
		lineWidth:  true,
		capacity:   lineCapacity,
	}
}

func (lineShape) create(gfx.Device, gfx.DescriptorSet) error { return nil }

func (lineShape) release() {}

// geometry is one vertex per point plus the restart index.
func (lineShape) geometry(p *polyline) (int, int) {
	return len(p.points), len(p.points) + 1
}

// mustFlush reports a width change against a batch that already holds
// lines.
func (lineShape) mustFlush(b *batch, p *polyline) bool {
	return b.lineWidth != 0 && b.lineWidth != p.width
}

func (lineShape) emit(b *batch, p *polyline, xf vertexTransform) {
	b.lineWidth = p.width
	for _, pt := range p.points {
		idx := uint32(b.vertexCount)
		x, y := xf.apply(pt[0], pt[1])

		v := b.nextVertex()
		putFloat(v, 0, x)
		putFloat(v, 4, y)
		putUint(v, 8, p.color)
		b.putIndex(idx)
	}
	b.putIndex(restartIndex)
}

func (lineShape) prepare(*batch, gfx.DescriptorSet) {}

// record sets the batch line width. A non-empty batch always has one.
func (lineShape) record(b *batch, cmd gfx.CommandBuffer) {
	if b.lineWidth == 0 {
		panic("batch2d: flushing a line batch with no line width")
	}
	cmd.SetLineWidth(b.lineWidth)
}
