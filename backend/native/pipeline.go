package native

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// DescriptorSetLayout implements gfx.DescriptorSetLayout on a HAL bind
// group layout.
type DescriptorSetLayout struct {
	dev      *Device
	raw      hal.BindGroupLayout
	label    string
	bindings []gfx.DescriptorBinding
}

// CreateDescriptorSetLayout creates a bind group layout.
func (d *Device) CreateDescriptorSetLayout(desc *gfx.DescriptorSetLayoutDescriptor) (gfx.DescriptorSetLayout, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Bindings))
	for _, b := range desc.Bindings {
		e := gputypes.BindGroupLayoutEntry{Binding: b.Binding, Visibility: b.Stages}
		switch b.Kind {
		case gfx.BindingUniform:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case gfx.BindingSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		case gfx.BindingTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		default:
			return nil, fmt.Errorf("native: layout %q: binding %d has unknown kind %v", desc.Label, b.Binding, b.Kind)
		}
		entries = append(entries, e)
	}
	raw, err := d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}
	return &DescriptorSetLayout{
		dev:      d,
		raw:      raw,
		label:    desc.Label,
		bindings: slices.Clone(desc.Bindings),
	}, nil
}

// Destroy releases the layout.
func (l *DescriptorSetLayout) Destroy() {
	if l.raw == nil {
		return
	}
	l.dev.raw.DestroyBindGroupLayout(l.raw)
	l.raw = nil
}

// DescriptorSet implements gfx.DescriptorSet. Updates are collected and the
// HAL bind group is rebuilt the next time the set is bound. The previous
// bind group is released at that point, so a set must not be updated while
// a submission that uses it is pending.
type DescriptorSet struct {
	dev       *Device
	layout    *DescriptorSetLayout
	resources map[uint32]gputypes.BindingResource
	group     hal.BindGroup
	dirty     bool
	err       error
}

// CreateDescriptorSet allocates an empty set for layout.
func (d *Device) CreateDescriptorSet(layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	l, ok := layout.(*DescriptorSetLayout)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	return &DescriptorSet{
		dev:       d,
		layout:    l,
		resources: make(map[uint32]gputypes.BindingResource, len(l.bindings)),
		dirty:     true,
	}, nil
}

// UpdateUniformBinding points binding at the whole of buf.
func (s *DescriptorSet) UpdateUniformBinding(binding uint32, buf gfx.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok || b.raw == nil {
		s.fail(binding, gfx.ErrForeignResource)
		return
	}
	s.set(binding, gputypes.BufferBinding{Buffer: b.raw.NativeHandle(), Size: b.size})
}

// UpdateTextureBinding points binding at the default view of tex.
func (s *DescriptorSet) UpdateTextureBinding(binding uint32, tex gfx.Texture) {
	t, ok := tex.(*Texture)
	if !ok || t.view == nil {
		s.fail(binding, gfx.ErrForeignResource)
		return
	}
	s.set(binding, gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()})
}

// UpdateSamplerBinding points binding at smp.
func (s *DescriptorSet) UpdateSamplerBinding(binding uint32, smp gfx.Sampler) {
	sm, ok := smp.(*Sampler)
	if !ok || sm.raw == nil {
		s.fail(binding, gfx.ErrForeignResource)
		return
	}
	s.set(binding, gputypes.SamplerBinding{Sampler: sm.raw.NativeHandle()})
}

func (s *DescriptorSet) set(binding uint32, r gputypes.BindingResource) {
	s.resources[binding] = r
	s.dirty = true
}

func (s *DescriptorSet) fail(binding uint32, err error) {
	if s.err == nil {
		s.err = fmt.Errorf("native: set %q binding %d: %w", s.layout.label, binding, err)
	}
}

// bindGroup returns the HAL bind group, rebuilding it after updates.
func (s *DescriptorSet) bindGroup() (hal.BindGroup, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.dirty && s.group != nil {
		return s.group, nil
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(s.layout.bindings))
	for _, b := range s.layout.bindings {
		r, ok := s.resources[b.Binding]
		if !ok {
			return nil, fmt.Errorf("%w: %q binding %d", ErrIncompleteSet, s.layout.label, b.Binding)
		}
		entries = append(entries, gputypes.BindGroupEntry{Binding: b.Binding, Resource: r})
	}
	group, err := s.dev.raw.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   s.layout.label,
		Layout:  s.layout.raw,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group %q: %w", s.layout.label, err)
	}
	if s.group != nil {
		s.dev.raw.DestroyBindGroup(s.group)
	}
	s.group = group
	s.dirty = false
	return group, nil
}

// Destroy releases the bind group.
func (s *DescriptorSet) Destroy() {
	if s.group != nil {
		s.dev.raw.DestroyBindGroup(s.group)
		s.group = nil
	}
	s.resources = nil
}

// Pipeline implements gfx.Pipeline on a HAL render pipeline.
type Pipeline struct {
	dev    *Device
	raw    hal.RenderPipeline
	layout hal.PipelineLayout
	label  string
}

// CreatePipeline creates the pipeline layout and the render pipeline.
// Primitive restart is implied by a strip index format on HAL devices.
// Line width is not dynamic state there; pipelines created with
// DynamicLineWidth rasterize one pixel wide lines.
func (d *Device) CreatePipeline(desc *gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	shader, ok := desc.Shader.(*Shader)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	layout, ok := desc.Layout.(*DescriptorSetLayout)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	pass, ok := desc.Pass.(*RenderPass)
	if !ok {
		return nil, gfx.ErrForeignResource
	}

	pipeLayout, err := d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []hal.BindGroupLayout{layout.raw},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}

	primitive := gputypes.PrimitiveState{
		Topology:  desc.Topology,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeNone,
	}
	if desc.PrimitiveRestart {
		format := gputypes.IndexFormatUint32
		primitive.StripIndexFormat = &format
	}
	if desc.DynamicLineWidth {
		d.log.Debug("native: line width is fixed at one pixel", "pipeline", desc.Label)
	}

	raw, err := d.raw.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader.raw,
			EntryPoint: desc.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{desc.Vertex},
		},
		Primitive: primitive,
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     shader.raw,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    pass.format,
				Blend:     desc.Blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		d.raw.DestroyPipelineLayout(pipeLayout)
		return nil, fmt.Errorf("native: create render pipeline %q: %w", desc.Label, err)
	}
	return &Pipeline{dev: d, raw: raw, layout: pipeLayout, label: desc.Label}, nil
}

// Destroy releases the pipeline and its layout.
func (p *Pipeline) Destroy() {
	if p.raw == nil {
		return
	}
	p.dev.raw.DestroyRenderPipeline(p.raw)
	p.dev.raw.DestroyPipelineLayout(p.layout)
	p.raw, p.layout = nil, nil
}
