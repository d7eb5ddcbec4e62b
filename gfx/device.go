package gfx

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Device creates GPU resources.
//
// Implementations are not required to be safe for concurrent use. A
// renderer owns its resources and drives them from a single goroutine.
type Device interface {
	// CreateBuffer creates a buffer. Host-visible buffers are mapped before
	// CreateBuffer returns.
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// CreateTexture creates a 2D texture with a default view.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateSampler creates a clamp-to-edge sampler.
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)

	// CreateShader creates a shader module from WGSL source.
	CreateShader(desc *ShaderDescriptor) (Shader, error)

	// CreateDescriptorSetLayout creates a descriptor set layout.
	CreateDescriptorSetLayout(desc *DescriptorSetLayoutDescriptor) (DescriptorSetLayout, error)

	// CreateDescriptorSet allocates a descriptor set for the layout. All
	// bindings must be updated before the set is first bound.
	CreateDescriptorSet(layout DescriptorSetLayout) (DescriptorSet, error)

	// CreatePipeline creates a graphics pipeline.
	CreatePipeline(desc *PipelineDescriptor) (Pipeline, error)

	// CreateRenderPass creates a render pass description.
	CreateRenderPass(desc *RenderPassDescriptor) (RenderPass, error)

	// CreateFramebuffer creates a framebuffer that renders into the
	// texture. The texture must be a render attachment.
	CreateFramebuffer(pass RenderPass, attachment Texture) (Framebuffer, error)

	// CreateCommandBuffer creates a resettable command buffer.
	CreateCommandBuffer() (CommandBuffer, error)

	// CreateFence creates a fence, optionally already signaled.
	CreateFence(signaled bool) (Fence, error)

	// CreateSemaphore creates an unsignaled semaphore.
	CreateSemaphore() (Semaphore, error)

	// Queue returns the queue used to execute command buffers.
	Queue() Queue
}

// Queue executes recorded command buffers.
type Queue interface {
	// Execute submits cmd. The GPU waits for wait (if non-nil) before
	// executing, signals signal (if non-nil) and fence (if non-nil) when
	// done. Execute does not block on GPU completion.
	Execute(cmd CommandBuffer, wait, signal Semaphore, fence Fence) error

	// WriteTexture uploads tightly packed texel data covering the whole
	// texture.
	WriteTexture(tex Texture, data []byte) error
}

// Buffer is a GPU buffer.
type Buffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Memory returns the memory kind the buffer was created with.
	Memory() MemoryKind

	// Map returns the persistent mapping of a host-visible buffer, or nil
	// for device-local buffers.
	Map() []byte

	// Copy uploads data to the start of a device-local buffer. The upload
	// is ordered before the next Execute on the device queue.
	Copy(data []byte) error

	// Destroy releases the buffer.
	Destroy()
}

// CommandBuffer records GPU commands.
//
// Recording methods do not return errors. The first failure is kept and
// reported by End.
type CommandBuffer interface {
	// Reset discards previously recorded commands. The command buffer must
	// not be in use by a pending submission.
	Reset()

	// Begin starts recording.
	Begin()

	// Copy copies size bytes from the start of src to the start of dst.
	// Must be recorded outside a render pass.
	Copy(src, dst Buffer, size uint64)

	// SetScissor sets the scissor rectangle in framebuffer pixels.
	SetScissor(rect image.Rectangle)

	// SetViewport sets the viewport in framebuffer pixels.
	SetViewport(x, y, width, height float32)

	// SetLineWidth sets the rasterized line width for pipelines created
	// with DynamicLineWidth.
	SetLineWidth(width float32)

	// BindPipeline binds a graphics pipeline.
	BindPipeline(p Pipeline)

	// BindDescriptorSet binds set 0.
	BindDescriptorSet(set DescriptorSet)

	// BeginRenderPass begins the render pass targeting fb.
	BeginRenderPass(pass RenderPass, fb Framebuffer)

	// BindVertexBuffer binds the vertex buffer at slot 0.
	BindVertexBuffer(buf Buffer)

	// BindIndexBuffer binds the index buffer.
	BindIndexBuffer(buf Buffer, format gputypes.IndexFormat)

	// DrawIndexed draws count indices starting at index 0.
	DrawIndexed(count uint32)

	// EndRenderPass ends the current render pass.
	EndRenderPass()

	// End finishes recording and returns the first recording error.
	End() error

	// Destroy releases the command buffer.
	Destroy()
}

// Fence is a GPU to CPU completion signal.
type Fence interface {
	// Wait blocks until the fence is signaled. It does not time out.
	Wait() error

	// Reset returns the fence to the unsignaled state.
	Reset()

	// Destroy releases the fence.
	Destroy()
}

// Semaphore orders GPU submissions.
type Semaphore interface {
	Destroy()
}

// Shader is a compiled shader module.
type Shader interface {
	Destroy()
}

// Pipeline is a graphics pipeline.
type Pipeline interface {
	Destroy()
}

// DescriptorSetLayout describes the bindings of a descriptor set.
type DescriptorSetLayout interface {
	Destroy()
}

// DescriptorSet binds resources to shader bindings.
type DescriptorSet interface {
	// UpdateUniformBinding points a uniform binding at buf.
	UpdateUniformBinding(binding uint32, buf Buffer)

	// UpdateTextureBinding points a texture binding at tex.
	UpdateTextureBinding(binding uint32, tex Texture)

	// UpdateSamplerBinding points a sampler binding at s.
	UpdateSamplerBinding(binding uint32, s Sampler)

	// Destroy releases the set.
	Destroy()
}

// RenderPass describes the attachments and load/store behavior of a pass.
type RenderPass interface {
	Destroy()
}

// Framebuffer is a render target for a render pass.
type Framebuffer interface {
	// Size returns the framebuffer size in pixels.
	Size() (width, height uint32)

	// Destroy releases the framebuffer.
	Destroy()
}

// Texture is a sampled 2D texture.
type Texture interface {
	// Size returns the texture size in texels.
	Size() (width, height uint32)

	// Destroy releases the texture.
	Destroy()
}

// Sampler is a texture sampler.
type Sampler interface {
	Destroy()
}
