package batch2d

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d/gfx"
)

// Rect is one rectangle draw.
type Rect struct {
	// Position is the top-left corner in target pixels.
	Position f32.Vec2

	// Size is the width and height in pixels.
	Size f32.Vec2

	// Origin is the rotation center relative to Position.
	Origin f32.Vec2

	// Angle is the clockwise rotation in degrees.
	Angle float32

	// Color tints the texture. For untextured rects it is the fill color.
	Color RGBA

	// Texture is sampled across the rect. Nil draws a solid rect.
	Texture gfx.Texture
}

// Descriptor bindings of the rect shader.
const (
	rectSamplerBinding      = 1
	rectFirstTextureBinding = 2
)

// RectRenderer batches textured, optionally rotated rectangles into as few
// draw calls as possible. One batch references at most MaxTexturesPerSet
// distinct textures.
type RectRenderer struct {
	r *renderer[Rect]
}

// NewRectRenderer creates a rect renderer drawing into framebuffers of pass.
func NewRectRenderer(dev gfx.Device, pass gfx.RenderPass, opts ...Option) (*RectRenderer, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer[Rect](dev, pass, &rectShape{}, o)
	if err != nil {
		return nil, err
	}
	return &RectRenderer{r: r}, nil
}

// Destroy waits for the last submission and releases every GPU object.
// It panics during a drawing session.
func (rr *RectRenderer) Destroy() { rr.r.destroy() }

// BeginDrawing opens a drawing session on target with the default
// viewport. The first submission of the session waits on wait, which may
// be nil.
func (rr *RectRenderer) BeginDrawing(wait gfx.Semaphore, target gfx.Framebuffer) error {
	return rr.r.begin(wait, target, nil)
}

// BeginDrawingViewport is BeginDrawing with an explicit viewport.
func (rr *RectRenderer) BeginDrawingViewport(wait gfx.Semaphore, target gfx.Framebuffer, vp Viewport) error {
	return rr.r.begin(wait, target, &vp)
}

// EndDrawing submits the pending batch, signaling signal when the GPU is
// done, and closes the session. It returns the first error of the session.
func (rr *RectRenderer) EndDrawing(signal gfx.Semaphore) error {
	return rr.r.end(signal)
}

// DrawRect draws a solid axis-aligned rect.
func (rr *RectRenderer) DrawRect(pos, size f32.Vec2, c RGBA) {
	rr.r.draw(&Rect{Position: pos, Size: size, Color: c})
}

// DrawTexturedRect draws an axis-aligned rect sampling tex, tinted by c.
func (rr *RectRenderer) DrawTexturedRect(pos, size f32.Vec2, c RGBA, tex gfx.Texture) {
	rr.r.draw(&Rect{Position: pos, Size: size, Color: c, Texture: tex})
}

// DrawRotatedRect draws a solid rect rotated by angle degrees around its
// center.
func (rr *RectRenderer) DrawRotatedRect(pos, size f32.Vec2, angle float32, c RGBA) {
	rr.r.draw(&Rect{
		Position: pos,
		Size:     size,
		Origin:   f32.Vec2{size[0] / 2, size[1] / 2},
		Angle:    angle,
		Color:    c,
	})
}

// Draw draws r.
func (rr *RectRenderer) Draw(r Rect) { rr.r.draw(&r) }

// Stats returns activity counters.
func (rr *RectRenderer) Stats() Stats { return rr.r.stats }

// rectShape emits quads with a per-vertex texture slot.
type rectShape struct {
	white   gfx.Texture
	sampler gfx.Sampler

	// bound is the texture currently written at each slot of the set.
	bound [MaxTexturesPerSet]gfx.Texture
}

func (s *rectShape) config() shapeConfig {
	bindings := []gfx.DescriptorBinding{{
		Binding: rectSamplerBinding,
		Kind:    gfx.BindingSampler,
		Stages:  gputypes.ShaderStageFragment,
	}}
	for i := 0; i < MaxTexturesPerSet; i++ {
		bindings = append(bindings, gfx.DescriptorBinding{
			Binding: uint32(rectFirstTextureBinding + i),
			Kind:    gfx.BindingTexture,
			Stages:  gputypes.ShaderStageFragment,
		})
	}
	return shapeConfig{
		name:       "rect",
		shader:     rectShaderWGSL,
		stride:     rectStride,
		attributes: rectAttributes,
		topology:   gputypes.PrimitiveTopologyTriangleList,
		bindings:   bindings,
		capacity:   quadCapacity,
	}
}

// create makes the 1x1 white texture untextured rects sample and fills
// every texture slot with it.
func (s *rectShape) create(dev gfx.Device, set gfx.DescriptorSet) error {
	white, err := dev.CreateTexture(&gfx.TextureDescriptor{
		Label:  "rect_white",
		Width:  1,
		Height: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create white texture: %w", err)
	}
	if err := dev.Queue().WriteTexture(white, []byte{0xff, 0xff, 0xff, 0xff}); err != nil {
		white.Destroy()
		return fmt.Errorf("upload white texture: %w", err)
	}

	sampler, err := dev.CreateSampler(&gfx.SamplerDescriptor{
		Label:  "rect_sampler",
		Filter: gputypes.FilterModeLinear,
	})
	if err != nil {
		white.Destroy()
		return fmt.Errorf("create sampler: %w", err)
	}

	s.white, s.sampler = white, sampler
	set.UpdateSamplerBinding(rectSamplerBinding, sampler)
	for i := range s.bound {
		set.UpdateTextureBinding(uint32(rectFirstTextureBinding+i), white)
		s.bound[i] = white
	}
	return nil
}

func (s *rectShape) release() {
	s.sampler.Destroy()
	s.white.Destroy()
	s.sampler, s.white = nil, nil
	s.bound = [MaxTexturesPerSet]gfx.Texture{}
}

func (s *rectShape) texture(r *Rect) gfx.Texture {
	if r.Texture == nil {
		return s.white
	}
	return r.Texture
}

func (s *rectShape) geometry(*Rect) (int, int) { return 4, 6 }

// mustFlush reports a new texture arriving at a batch with no free slot.
func (s *rectShape) mustFlush(b *batch, r *Rect) bool {
	_, ok := b.hasTexture(s.texture(r))
	return !ok && b.isTexturesFull()
}

func (s *rectShape) emit(b *batch, r *Rect, xf vertexTransform) {
	slot := float32(b.textureIndex(s.texture(r)))
	color := r.Color.RGBA8()

	w, h := r.Size[0], r.Size[1]
	corners := [4]f32.Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}}
	uvs := [4]f32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	var sin, cos float32 = 0, 1
	if r.Angle != 0 {
		sin, cos = math32.Sincos(r.Angle * math32.Pi / 180)
	}
	cx := r.Position[0] + r.Origin[0]
	cy := r.Position[1] + r.Origin[1]

	base := uint32(b.vertexCount)
	for k, c := range corners {
		x := c[0] - r.Origin[0]
		y := c[1] - r.Origin[1]
		x, y = x*cos - y*sin, x*sin + y*cos
		px, py := xf.apply(cx+x, cy+y)

		v := b.nextVertex()
		putFloat(v, 0, px)
		putFloat(v, 4, py)
		putFloat(v, 8, uvs[k][0])
		putFloat(v, 12, uvs[k][1])
		putUint(v, 16, color)
		putFloat(v, 20, slot)
	}
	b.putQuad(base)
}

// prepare binds the batch textures to their slots and white to the rest,
// writing only slots that changed.
func (s *rectShape) prepare(b *batch, set gfx.DescriptorSet) {
	for i := range s.bound {
		t := s.white
		if i < len(b.textures) {
			t = b.textures[i]
		}
		if s.bound[i] != t {
			set.UpdateTextureBinding(uint32(rectFirstTextureBinding+i), t)
			s.bound[i] = t
		}
	}
}

func (s *rectShape) record(*batch, gfx.CommandBuffer) {}
