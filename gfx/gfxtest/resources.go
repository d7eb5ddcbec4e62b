package gfxtest

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
)

// Buffer is a fake buffer backed by a Go slice.
type Buffer struct {
	resource

	Label  string
	Usage  gputypes.BufferUsage
	memory gfx.MemoryKind
	data   []byte

	// Uploads counts successful Copy calls.
	Uploads int
}

// Size returns the buffer size.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Memory returns the memory kind.
func (b *Buffer) Memory() gfx.MemoryKind { return b.memory }

// Map returns the backing slice of a host-visible buffer.
func (b *Buffer) Map() []byte {
	if b.memory != gfx.MemoryHostVisible {
		return nil
	}
	return b.data
}

// Copy writes data to the start of a device-local buffer.
func (b *Buffer) Copy(data []byte) error {
	if b.memory != gfx.MemoryDeviceLocal {
		return gfx.ErrNotHostVisible
	}
	if len(data) > len(b.data) {
		return gfx.ErrOutOfRange
	}
	if b.dev.queue.busy(func(c Command) bool { return c.Set != nil && c.Set.usesUniform(b) }) {
		b.dev.misuse = append(b.dev.misuse, fmt.Errorf("%w: upload to %q", ErrInFlight, b.Label))
	}
	copy(b.data, data)
	b.Uploads++
	return nil
}

// Bytes returns the buffer contents regardless of memory kind.
func (b *Buffer) Bytes() []byte { return b.data }

// Texture is a fake texture.
type Texture struct {
	resource

	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat

	// Data holds the last WriteTexture payload.
	Data []byte
}

// Size returns the texture size.
func (t *Texture) Size() (width, height uint32) { return t.Width, t.Height }

// Sampler is a fake sampler.
type Sampler struct {
	resource

	Filter gputypes.FilterMode
}

// Shader is a fake shader module.
type Shader struct {
	resource

	Label string
	WGSL  string
}

// Pipeline is a fake pipeline.
type Pipeline struct {
	resource

	Desc gfx.PipelineDescriptor
}

// DescriptorSetLayout is a fake descriptor set layout.
type DescriptorSetLayout struct {
	resource

	Bindings []gfx.DescriptorBinding
}

// DescriptorSet records the resources bound to each binding.
type DescriptorSet struct {
	resource

	Layout   *DescriptorSetLayout
	Uniforms map[uint32]*Buffer
	Textures map[uint32]*Texture
	Samplers map[uint32]*Sampler

	// Updates counts Update*Binding calls.
	Updates int
}

// UpdateUniformBinding records buf at binding.
func (s *DescriptorSet) UpdateUniformBinding(binding uint32, buf gfx.Buffer) {
	s.checkIdle()
	b, _ := buf.(*Buffer)
	s.Uniforms[binding] = b
	s.Updates++
}

// UpdateTextureBinding records tex at binding.
func (s *DescriptorSet) UpdateTextureBinding(binding uint32, tex gfx.Texture) {
	s.checkIdle()
	t, _ := tex.(*Texture)
	s.Textures[binding] = t
	s.Updates++
}

// UpdateSamplerBinding records sampler at binding.
func (s *DescriptorSet) UpdateSamplerBinding(binding uint32, sampler gfx.Sampler) {
	s.checkIdle()
	sm, _ := sampler.(*Sampler)
	s.Samplers[binding] = sm
	s.Updates++
}

// checkIdle records misuse when a pending submission bound the set.
func (s *DescriptorSet) checkIdle() {
	if s.dev.queue.busy(func(c Command) bool { return c.Set == s }) {
		s.dev.misuse = append(s.dev.misuse, fmt.Errorf("%w: descriptor set update", ErrInFlight))
	}
}

func (s *DescriptorSet) usesUniform(b *Buffer) bool {
	for _, u := range s.Uniforms {
		if u == b {
			return true
		}
	}
	return false
}

// complete reports whether every layout binding has a resource.
func (s *DescriptorSet) complete() bool {
	for _, b := range s.Layout.Bindings {
		var ok bool
		switch b.Kind {
		case gfx.BindingUniform:
			ok = s.Uniforms[b.Binding] != nil
		case gfx.BindingTexture:
			ok = s.Textures[b.Binding] != nil
		case gfx.BindingSampler:
			ok = s.Samplers[b.Binding] != nil
		}
		if !ok {
			return false
		}
	}
	return true
}

// snapshotTextures copies the current texture bindings.
func (s *DescriptorSet) snapshotTextures() map[uint32]*Texture {
	m := make(map[uint32]*Texture, len(s.Textures))
	for k, v := range s.Textures {
		m[k] = v
	}
	return m
}

// RenderPass is a fake render pass.
type RenderPass struct {
	resource

	Desc gfx.RenderPassDescriptor
}

// Framebuffer is a fake framebuffer.
type Framebuffer struct {
	resource

	Pass    *RenderPass
	Texture *Texture

	width, height uint32
}

// Size returns the framebuffer size.
func (f *Framebuffer) Size() (width, height uint32) { return f.width, f.height }

// Fence is a fake fence. With deferred completion it may guard a pending
// submission, which Wait completes.
type Fence struct {
	resource

	signaled bool
	inflight *inflight

	// Waits and Resets count calls.
	Waits  int
	Resets int
}

// Wait completes the guarded submission, and every one before it, and
// fails for a fence nothing will signal.
func (f *Fence) Wait() error {
	f.Waits++
	f.dev.trace(EventWait)
	if f.inflight != nil {
		f.dev.queue.retire(f.inflight)
	}
	if !f.signaled {
		return gfx.ErrFenceUnsignaled
	}
	return nil
}

// Reset unsignals the fence.
func (f *Fence) Reset() {
	f.Resets++
	if f.inflight != nil {
		f.dev.misuse = append(f.dev.misuse, fmt.Errorf("%w: fence reset", ErrInFlight))
		return
	}
	f.signaled = false
}

// Signaled reports the fence state.
func (f *Fence) Signaled() bool { return f.signaled }

// Semaphore is a fake binary semaphore.
type Semaphore struct {
	resource

	signaled bool
}

// Signaled reports whether the semaphore carries an unconsumed signal.
func (s *Semaphore) Signaled() bool { return s.signaled }
