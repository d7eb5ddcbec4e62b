package gfxtest

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
)

// Op identifies a recorded command.
type Op uint8

// Recorded operations.
const (
	OpCopy Op = iota + 1
	OpSetScissor
	OpSetViewport
	OpSetLineWidth
	OpBindPipeline
	OpBindDescriptorSet
	OpBeginRenderPass
	OpBindVertexBuffer
	OpBindIndexBuffer
	OpDrawIndexed
	OpEndRenderPass
)

var opNames = [...]string{
	OpCopy:              "Copy",
	OpSetScissor:        "SetScissor",
	OpSetViewport:       "SetViewport",
	OpSetLineWidth:      "SetLineWidth",
	OpBindPipeline:      "BindPipeline",
	OpBindDescriptorSet: "BindDescriptorSet",
	OpBeginRenderPass:   "BeginRenderPass",
	OpBindVertexBuffer:  "BindVertexBuffer",
	OpBindIndexBuffer:   "BindIndexBuffer",
	OpDrawIndexed:       "DrawIndexed",
	OpEndRenderPass:     "EndRenderPass",
}

// String returns the operation name.
func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// Command is one recorded command. Only the fields relevant to Op are set.
type Command struct {
	Op Op

	// Src and Dst are the copy buffers; Dst is also the bound vertex or
	// index buffer.
	Src, Dst *Buffer
	Size     uint64

	Scissor   image.Rectangle
	Viewport  [4]float32
	LineWidth float32

	Pipeline *Pipeline
	Set      *DescriptorSet

	// Textures is the texture bindings of Set when it was bound.
	Textures map[uint32]*Texture

	Pass        *RenderPass
	Framebuffer *Framebuffer

	IndexFormat gputypes.IndexFormat
	Count       uint32
}

type cmdState uint8

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
)

// CommandBuffer records commands for inspection.
type CommandBuffer struct {
	resource

	state    cmdState
	pending  bool
	inPass   bool
	pipeline *Pipeline
	width    bool
	err      error

	// Commands holds the commands recorded since the last Reset.
	Commands []Command

	// Resets counts Reset calls.
	Resets int
}

// Reset clears recorded commands.
func (c *CommandBuffer) Reset() {
	c.Resets++
	if c.pending {
		c.dev.misuse = append(c.dev.misuse, fmt.Errorf("%w: command buffer reset", ErrInFlight))
	}
	c.state = cmdInitial
	c.inPass = false
	c.pipeline = nil
	c.width = false
	c.err = nil
	c.Commands = nil
}

// Begin starts recording.
func (c *CommandBuffer) Begin() {
	if c.state == cmdRecording {
		c.setErr(fmt.Errorf("gfxtest: Begin while recording"))
		return
	}
	c.state = cmdRecording
}

// Copy records a buffer copy.
func (c *CommandBuffer) Copy(src, dst gfx.Buffer, size uint64) {
	s, _ := src.(*Buffer)
	d, _ := dst.(*Buffer)
	if s == nil || d == nil {
		c.setErr(gfx.ErrForeignResource)
		return
	}
	if c.inPass {
		c.setErr(fmt.Errorf("%w: Copy inside render pass", gfx.ErrRenderPassState))
		return
	}
	if size > s.Size() || size > d.Size() {
		c.setErr(gfx.ErrOutOfRange)
		return
	}
	c.record(Command{Op: OpCopy, Src: s, Dst: d, Size: size})
	c.dev.trace(EventCopy)
}

// SetScissor records the scissor rectangle.
func (c *CommandBuffer) SetScissor(rect image.Rectangle) {
	c.record(Command{Op: OpSetScissor, Scissor: rect})
}

// SetViewport records the viewport.
func (c *CommandBuffer) SetViewport(x, y, width, height float32) {
	c.record(Command{Op: OpSetViewport, Viewport: [4]float32{x, y, width, height}})
}

// SetLineWidth records the line width.
func (c *CommandBuffer) SetLineWidth(width float32) {
	c.width = true
	c.record(Command{Op: OpSetLineWidth, LineWidth: width})
}

// BindPipeline records a pipeline bind.
func (c *CommandBuffer) BindPipeline(p gfx.Pipeline) {
	pl, _ := p.(*Pipeline)
	c.pipeline = pl
	c.record(Command{Op: OpBindPipeline, Pipeline: pl})
}

// BindDescriptorSet records a descriptor set bind with a snapshot of its
// texture bindings.
func (c *CommandBuffer) BindDescriptorSet(set gfx.DescriptorSet) {
	s, _ := set.(*DescriptorSet)
	if s == nil {
		c.setErr(gfx.ErrForeignResource)
		return
	}
	if !s.complete() {
		c.setErr(ErrIncompleteSet)
		return
	}
	c.record(Command{Op: OpBindDescriptorSet, Set: s, Textures: s.snapshotTextures()})
}

// BeginRenderPass records the start of a render pass.
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer) {
	if c.inPass {
		c.setErr(fmt.Errorf("%w: nested render pass", gfx.ErrRenderPassState))
		return
	}
	f, _ := fb.(*Framebuffer)
	c.inPass = true
	c.record(Command{Op: OpBeginRenderPass, Pass: asPass(pass), Framebuffer: f})
}

// BindVertexBuffer records a vertex buffer bind.
func (c *CommandBuffer) BindVertexBuffer(buf gfx.Buffer) {
	b, _ := buf.(*Buffer)
	c.record(Command{Op: OpBindVertexBuffer, Dst: b})
}

// BindIndexBuffer records an index buffer bind.
func (c *CommandBuffer) BindIndexBuffer(buf gfx.Buffer, format gputypes.IndexFormat) {
	b, _ := buf.(*Buffer)
	c.record(Command{Op: OpBindIndexBuffer, Dst: b, IndexFormat: format})
}

// DrawIndexed records an indexed draw.
func (c *CommandBuffer) DrawIndexed(count uint32) {
	if !c.inPass {
		c.setErr(fmt.Errorf("%w: draw outside render pass", gfx.ErrRenderPassState))
		return
	}
	if c.pipeline != nil && c.pipeline.Desc.DynamicLineWidth && !c.width {
		c.setErr(ErrLineWidthUnset)
		return
	}
	c.record(Command{Op: OpDrawIndexed, Count: count})
}

// EndRenderPass records the end of the render pass.
func (c *CommandBuffer) EndRenderPass() {
	if !c.inPass {
		c.setErr(fmt.Errorf("%w: EndRenderPass without BeginRenderPass", gfx.ErrRenderPassState))
		return
	}
	c.inPass = false
	c.record(Command{Op: OpEndRenderPass})
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	if c.state != cmdRecording {
		return gfx.ErrNotRecording
	}
	if c.inPass {
		c.setErr(fmt.Errorf("%w: End inside render pass", gfx.ErrRenderPassState))
	}
	if c.err != nil {
		return c.err
	}
	c.state = cmdExecutable
	return nil
}

func (c *CommandBuffer) record(cmd Command) {
	if c.state != cmdRecording {
		c.setErr(gfx.ErrNotRecording)
		return
	}
	c.Commands = append(c.Commands, cmd)
}

func (c *CommandBuffer) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}
