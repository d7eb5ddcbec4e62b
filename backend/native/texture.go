package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// Texture implements gfx.Texture with a HAL texture and its default view.
type Texture struct {
	dev    *Device
	raw    hal.Texture
	view   hal.TextureView
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
	usage  gputypes.TextureUsage
}

func (d *Device) createTexture(desc *gfx.TextureDescriptor) (*Texture, error) {
	raw, err := d.raw.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	view, err := d.raw.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          desc.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.raw.DestroyTexture(raw)
		return nil, fmt.Errorf("native: create texture view %q: %w", desc.Label, err)
	}
	return &Texture{
		dev:    d,
		raw:    raw,
		view:   view,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
	}, nil
}

// Size returns the texture size in texels.
func (t *Texture) Size() (width, height uint32) { return t.width, t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Destroy releases the view and the texture.
func (t *Texture) Destroy() {
	if t.raw == nil {
		return
	}
	t.dev.raw.DestroyTextureView(t.view)
	t.dev.raw.DestroyTexture(t.raw)
	t.view, t.raw = nil, nil
}

// Sampler implements gfx.Sampler.
type Sampler struct {
	dev *Device
	raw hal.Sampler
}

// Destroy releases the sampler.
func (s *Sampler) Destroy() {
	if s.raw == nil {
		return
	}
	s.dev.raw.DestroySampler(s.raw)
	s.raw = nil
}

// RenderPass holds the attachment format and load behavior used when a
// command buffer begins a HAL render pass.
type RenderPass struct {
	label  string
	format gputypes.TextureFormat
	loadOp gputypes.LoadOp
	clear  gputypes.Color
}

// Destroy is a no-op. A render pass owns no HAL object.
func (p *RenderPass) Destroy() {}

// Framebuffer targets the default view of a render attachment texture.
type Framebuffer struct {
	pass *RenderPass
	tex  *Texture
}

// Size returns the attachment size in pixels.
func (f *Framebuffer) Size() (width, height uint32) {
	if f.tex == nil {
		return 0, 0
	}
	return f.tex.Size()
}

// Destroy detaches the framebuffer from its texture.
func (f *Framebuffer) Destroy() {
	f.tex = nil
}
