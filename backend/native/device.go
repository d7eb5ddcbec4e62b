// Package native implements the gfx device abstraction on a gogpu/wgpu HAL
// device.
//
// Command buffers encode into a HAL command encoder as they are recorded.
// Buffer copies use the encoder when the queue supports command buffer
// copies and fall back to Queue.WriteBuffer from the staging mapping
// otherwise. Render passes begin with the load op of their gfx.RenderPass
// on every flush, so renderers should use LoadOpLoad and clear the target
// in a pass of its own. Fences track HAL submission indices. A single
// HAL queue executes submissions in order, so semaphores only record which
// submission signaled them.
//
// Usage with a gpucontext host:
//
//	dev, err := native.NewFromProvider(provider)
//	if err != nil {
//	    return err
//	}
//	pass, _ := dev.CreateRenderPass(&gfx.RenderPassDescriptor{
//	    Format: provider.SurfaceFormat(),
//	    LoadOp: gputypes.LoadOpLoad,
//	})
//	rects, err := batch2d.NewRectRenderer(dev, pass)
package native

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// Device implements gfx.Device on a HAL device and queue.
//
// A Device is not safe for concurrent use. Resources it creates are driven
// from the goroutine that owns the renderer using them.
type Device struct {
	raw   hal.Device
	queue *Queue
	log   *slog.Logger
	spirv bool
}

var _ gfx.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger of the device, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// WithSPIRV makes CreateShader translate WGSL to SPIR-V with naga before
// creating the shader module. Use it with HAL backends that only accept
// SPIR-V.
func WithSPIRV() Option {
	return func(d *Device) {
		d.spirv = true
	}
}

// New wraps a HAL device and the queue it was opened with.
func New(dev hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if dev == nil || queue == nil {
		return nil, ErrNilDevice
	}
	d := &Device{raw: dev, log: Logger()}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = &Queue{dev: d, raw: queue, copies: queue.SupportsCommandBufferCopies()}
	d.log.Debug("native: device created",
		"commandBufferCopies", d.queue.copies,
		"spirv", d.spirv,
	)
	return d, nil
}

// NewFromProvider wraps the HAL device and queue of a gpucontext provider.
// The provider's Device and Queue must be hal.Device and hal.Queue values.
func NewFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	if p == nil {
		return nil, ErrNilDevice
	}
	dev, ok := p.Device().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrUnsupportedProvider, p.Device())
	}
	queue, ok := p.Queue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrUnsupportedProvider, p.Queue())
	}
	d, err := New(dev, queue, opts...)
	if err != nil {
		return nil, err
	}
	info := p.AdapterInfo()
	d.log.Debug("native: adapter", "name", info.Name, "type", info.Type.String())
	return d, nil
}

// HAL returns the wrapped HAL device.
func (d *Device) HAL() hal.Device {
	return d.raw
}

// Queue returns the device queue.
func (d *Device) Queue() gfx.Queue {
	return d.queue
}

// CreateBuffer creates a buffer. Host-visible buffers are mapped for their
// whole lifetime. When the HAL cannot map the buffer, or maps it without
// coherency, the mapping is Go memory that is uploaded with
// Queue.WriteBuffer on every copy.
func (d *Device) CreateBuffer(desc *gfx.BufferDescriptor) (gfx.Buffer, error) {
	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}
	b := &Buffer{dev: d, raw: raw, label: desc.Label, size: desc.Size, memory: desc.Memory}
	if desc.Memory == gfx.MemoryHostVisible {
		b.mapStaging()
	}
	return b, nil
}

// CreateTexture creates a 2D texture and its default view.
func (d *Device) CreateTexture(desc *gfx.TextureDescriptor) (gfx.Texture, error) {
	t, err := d.createTexture(desc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateSampler creates a clamp-to-edge sampler.
func (d *Device) CreateSampler(desc *gfx.SamplerDescriptor) (gfx.Sampler, error) {
	raw, err := d.raw.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    desc.Filter,
		MinFilter:    desc.Filter,
		MipmapFilter: desc.Filter,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler %q: %w", desc.Label, err)
	}
	return &Sampler{dev: d, raw: raw}, nil
}

// CreateRenderPass records the attachment format and load behavior. HAL
// render passes are begun per command buffer, so no HAL object is created.
func (d *Device) CreateRenderPass(desc *gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	return &RenderPass{
		label:  desc.Label,
		format: desc.Format,
		loadOp: desc.LoadOp,
		clear:  desc.ClearColor,
	}, nil
}

// CreateFramebuffer wraps the default view of attachment. The framebuffer
// does not own the texture.
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, attachment gfx.Texture) (gfx.Framebuffer, error) {
	rp, ok := pass.(*RenderPass)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	tex, ok := attachment.(*Texture)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	if tex.raw == nil {
		return nil, ErrDestroyed
	}
	if tex.usage&gputypes.TextureUsageRenderAttachment == 0 {
		return nil, ErrNotRenderAttachment
	}
	if tex.format != rp.format {
		return nil, fmt.Errorf("%w: texture %v, pass %v", ErrFormatMismatch, tex.format, rp.format)
	}
	return &Framebuffer{pass: rp, tex: tex}, nil
}

// CreateCommandBuffer creates a command buffer with its own HAL encoder.
func (d *Device) CreateCommandBuffer() (gfx.CommandBuffer, error) {
	enc, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "batch2d"})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	return &CommandBuffer{dev: d, enc: enc}, nil
}

// CreateFence creates a fence, optionally already signaled.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	return &Fence{queue: d.queue, signaled: signaled}, nil
}

// CreateSemaphore creates an unsignaled semaphore.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	return &Semaphore{}, nil
}
