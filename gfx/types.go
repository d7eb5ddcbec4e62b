package gfx

import (
	"github.com/gogpu/gputypes"
)

// MemoryKind selects where a buffer lives.
type MemoryKind uint8

// Memory kinds.
const (
	// MemoryDeviceLocal is GPU memory the CPU never maps.
	MemoryDeviceLocal MemoryKind = iota

	// MemoryHostVisible is CPU-visible memory that stays mapped for the
	// lifetime of the buffer. Used for staging.
	MemoryHostVisible
)

// String returns the memory kind name.
func (k MemoryKind) String() string {
	switch k {
	case MemoryDeviceLocal:
		return "DeviceLocal"
	case MemoryHostVisible:
		return "HostVisible"
	default:
		return "Unknown"
	}
}

// BindingKind specifies the type of resource bound at a descriptor binding.
type BindingKind uint8

// Binding kinds.
const (
	// BindingUniform is a uniform buffer binding.
	BindingUniform BindingKind = iota + 1

	// BindingSampler is a filtering sampler binding.
	BindingSampler

	// BindingTexture is a sampled 2D float texture binding.
	BindingTexture
)

// String returns the binding kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "Uniform"
	case BindingSampler:
		return "Sampler"
	case BindingTexture:
		return "Texture"
	default:
		return "Unknown"
	}
}

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Memory selects host-visible staging or device-local memory.
	Memory MemoryKind

	// Usage is the set of ways the buffer will be used.
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// SamplerDescriptor describes a sampler.
type SamplerDescriptor struct {
	Label  string
	Filter gputypes.FilterMode
}

// ShaderDescriptor describes a shader module holding both the vertex and
// the fragment stage.
type ShaderDescriptor struct {
	// Label is an optional debug label.
	Label string

	// WGSL is the shader source.
	WGSL string
}

// DescriptorBinding describes one binding of a descriptor set layout.
type DescriptorBinding struct {
	// Binding is the binding number (must match @binding in the shader).
	Binding uint32

	// Kind is the type of resource bound here.
	Kind BindingKind

	// Stages is the set of shader stages that read the binding.
	Stages gputypes.ShaderStages
}

// DescriptorSetLayoutDescriptor describes a descriptor set layout.
type DescriptorSetLayoutDescriptor struct {
	Label    string
	Bindings []DescriptorBinding
}

// RenderPassDescriptor describes a render pass with a single color
// attachment.
type RenderPassDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Format is the color attachment format. Framebuffers used with the
	// pass must have the same format.
	Format gputypes.TextureFormat

	// LoadOp is applied to the attachment when the pass begins.
	LoadOp gputypes.LoadOp

	// ClearColor is used when LoadOp is gputypes.LoadOpClear.
	ClearColor gputypes.Color
}

// PipelineDescriptor describes a graphics pipeline.
type PipelineDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Shader holds both stages.
	Shader Shader

	// VertexEntry and FragmentEntry name the entry points.
	VertexEntry   string
	FragmentEntry string

	// Layout is the only descriptor set layout of the pipeline (set 0).
	Layout DescriptorSetLayout

	// Pass is the render pass the pipeline renders into.
	Pass RenderPass

	// Vertex describes the single vertex buffer.
	Vertex gputypes.VertexBufferLayout

	// Topology is the primitive topology.
	Topology gputypes.PrimitiveTopology

	// PrimitiveRestart enables strip restart on the maximum index value.
	// Only meaningful for strip topologies with 32-bit indices.
	PrimitiveRestart bool

	// DynamicLineWidth makes line width a command buffer state
	// (CommandBuffer.SetLineWidth).
	DynamicLineWidth bool

	// Blend is the color blend state. Nil disables blending.
	Blend *gputypes.BlendState
}
