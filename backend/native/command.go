package native

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

type cmdState uint8

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
	cmdSubmitted
)

// passState is render pass state set outside a pass. HAL encoders only
// accept it inside a pass, so it is applied when the pass begins.
type passState struct {
	pipeline *Pipeline
	group    hal.BindGroup
	viewport *[4]float32
	scissor  *image.Rectangle
}

func (s *passState) apply(rp hal.RenderPassEncoder) {
	if s.pipeline != nil {
		rp.SetPipeline(s.pipeline.raw)
	}
	if s.group != nil {
		rp.SetBindGroup(0, s.group, nil)
	}
	if v := s.viewport; v != nil {
		rp.SetViewport(v[0], v[1], v[2], v[3], 0, 1)
	}
	if r := s.scissor; r != nil {
		setScissor(rp, *r)
	}
}

func setScissor(rp hal.RenderPassEncoder, r image.Rectangle) {
	if r.Empty() {
		rp.SetScissorRect(uint32(max(r.Min.X, 0)), uint32(max(r.Min.Y, 0)), 0, 0)
		return
	}
	rp.SetScissorRect(uint32(r.Min.X), uint32(r.Min.Y), uint32(r.Dx()), uint32(r.Dy()))
}

// CommandBuffer implements gfx.CommandBuffer on a HAL command encoder.
//
// Commands are encoded as they are recorded. The encoded HAL command buffer
// is kept until Reset, which returns it to the encoder; Reset must
// therefore only be called once the submission that used it completed.
type CommandBuffer struct {
	dev   *Device
	enc   hal.CommandEncoder
	raw   hal.CommandBuffer
	rp    hal.RenderPassEncoder
	state cmdState
	pass  passState
	err   error

	// lineWidth is the last width requested with SetLineWidth.
	lineWidth float32
}

// Reset discards recorded commands and recycles the encoded buffer.
func (c *CommandBuffer) Reset() {
	if c.state == cmdRecording {
		if c.rp != nil {
			c.rp.End()
			c.rp = nil
		}
		c.enc.DiscardEncoding()
	}
	if c.raw != nil {
		c.enc.ResetAll([]hal.CommandBuffer{c.raw})
		c.raw = nil
	}
	c.state = cmdInitial
	c.pass = passState{}
	c.err = nil
}

// Begin starts encoding.
func (c *CommandBuffer) Begin() {
	if c.state != cmdInitial {
		c.Reset()
	}
	c.state = cmdRecording
	if err := c.enc.BeginEncoding("batch2d"); err != nil {
		c.fail(fmt.Errorf("native: begin encoding: %w", err))
	}
}

func (c *CommandBuffer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// passRule is where in relation to a render pass a command is valid.
type passRule uint8

const (
	anywhere passRule = iota
	insidePass
	outsidePass
)

// recording reports whether a command may be recorded, noting the error
// otherwise.
func (c *CommandBuffer) recording(rule passRule) bool {
	if c.err != nil {
		return false
	}
	if c.state != cmdRecording {
		c.fail(gfx.ErrNotRecording)
		return false
	}
	if (rule == insidePass && c.rp == nil) || (rule == outsidePass && c.rp != nil) {
		c.fail(gfx.ErrRenderPassState)
		return false
	}
	return true
}

// Copy copies size bytes from the staging buffer src to dst. The copy is
// encoded when the queue supports command buffer copies; otherwise the
// staging bytes are written to dst through the queue, which orders them
// before the next submission.
func (c *CommandBuffer) Copy(src, dst gfx.Buffer, size uint64) {
	if !c.recording(outsidePass) {
		return
	}
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		c.fail(gfx.ErrForeignResource)
		return
	}
	if size > s.size || size > d.size {
		c.fail(gfx.ErrOutOfRange)
		return
	}
	if s.raw == nil || d.raw == nil {
		c.fail(ErrDestroyed)
		return
	}
	if size == 0 {
		return
	}
	if c.dev.queue.copies && !s.shadow {
		c.enc.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{{Size: size}})
		return
	}
	if s.mapping == nil {
		c.fail(gfx.ErrNotHostVisible)
		return
	}
	if err := c.dev.queue.raw.WriteBuffer(d.raw, 0, s.mapping[:size]); err != nil {
		c.fail(fmt.Errorf("native: write %q: %w", d.label, err))
	}
}

// SetScissor sets the scissor rectangle.
func (c *CommandBuffer) SetScissor(rect image.Rectangle) {
	if !c.recording(anywhere) {
		return
	}
	c.pass.scissor = &rect
	if c.rp != nil {
		setScissor(c.rp, rect)
	}
}

// SetViewport sets the viewport with a depth range of 0 to 1.
func (c *CommandBuffer) SetViewport(x, y, width, height float32) {
	if !c.recording(anywhere) {
		return
	}
	c.pass.viewport = &[4]float32{x, y, width, height}
	if c.rp != nil {
		c.rp.SetViewport(x, y, width, height, 0, 1)
	}
}

// SetLineWidth has no HAL equivalent. HAL pipelines rasterize one pixel
// wide lines, so other widths are only logged.
func (c *CommandBuffer) SetLineWidth(width float32) {
	if !c.recording(anywhere) {
		return
	}
	if width != c.lineWidth && width != 1 {
		c.dev.log.Debug("native: line width ignored", "width", width)
	}
	c.lineWidth = width
}

// BindPipeline binds p.
func (c *CommandBuffer) BindPipeline(p gfx.Pipeline) {
	if !c.recording(anywhere) {
		return
	}
	pl, ok := p.(*Pipeline)
	if !ok {
		c.fail(gfx.ErrForeignResource)
		return
	}
	if pl.raw == nil {
		c.fail(ErrDestroyed)
		return
	}
	c.pass.pipeline = pl
	if c.rp != nil {
		c.rp.SetPipeline(pl.raw)
	}
}

// BindDescriptorSet binds set at group 0, building its bind group if the
// set changed since it was last bound.
func (c *CommandBuffer) BindDescriptorSet(set gfx.DescriptorSet) {
	if !c.recording(anywhere) {
		return
	}
	s, ok := set.(*DescriptorSet)
	if !ok {
		c.fail(gfx.ErrForeignResource)
		return
	}
	group, err := s.bindGroup()
	if err != nil {
		c.fail(err)
		return
	}
	c.pass.group = group
	if c.rp != nil {
		c.rp.SetBindGroup(0, group, nil)
	}
}

// BeginRenderPass begins a HAL render pass on the framebuffer view and
// applies the state recorded before it.
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer) {
	if !c.recording(outsidePass) {
		return
	}
	rp, ok1 := pass.(*RenderPass)
	f, ok2 := fb.(*Framebuffer)
	if !ok1 || !ok2 {
		c.fail(gfx.ErrForeignResource)
		return
	}
	if f.tex == nil || f.tex.view == nil {
		c.fail(ErrDestroyed)
		return
	}
	loadOp := rp.loadOp
	if loadOp == 0 {
		loadOp = gputypes.LoadOpLoad
	}
	c.rp = c.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: rp.label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.tex.view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: rp.clear,
		}},
	})
	c.pass.apply(c.rp)
}

// BindVertexBuffer binds buf at slot 0.
func (c *CommandBuffer) BindVertexBuffer(buf gfx.Buffer) {
	if !c.recording(insidePass) {
		return
	}
	b, ok := buf.(*Buffer)
	if !ok {
		c.fail(gfx.ErrForeignResource)
		return
	}
	c.rp.SetVertexBuffer(0, b.raw, 0)
}

// BindIndexBuffer binds buf as the index buffer.
func (c *CommandBuffer) BindIndexBuffer(buf gfx.Buffer, format gputypes.IndexFormat) {
	if !c.recording(insidePass) {
		return
	}
	b, ok := buf.(*Buffer)
	if !ok {
		c.fail(gfx.ErrForeignResource)
		return
	}
	c.rp.SetIndexBuffer(b.raw, format, 0)
}

// DrawIndexed draws count indices of one instance.
func (c *CommandBuffer) DrawIndexed(count uint32) {
	if !c.recording(insidePass) {
		return
	}
	if c.pass.pipeline == nil {
		c.fail(errors.New("native: draw without a pipeline"))
		return
	}
	c.rp.DrawIndexed(count, 1, 0, 0, 0)
}

// EndRenderPass ends the HAL render pass.
func (c *CommandBuffer) EndRenderPass() {
	if !c.recording(insidePass) {
		return
	}
	c.rp.End()
	c.rp = nil
}

// End finishes encoding. After a recording error the encoding is
// discarded and the error returned.
func (c *CommandBuffer) End() error {
	if c.state != cmdRecording {
		return gfx.ErrNotRecording
	}
	if c.err == nil && c.rp != nil {
		c.fail(gfx.ErrRenderPassState)
	}
	if c.err != nil {
		if c.rp != nil {
			c.rp.End()
			c.rp = nil
		}
		c.enc.DiscardEncoding()
		c.state = cmdInitial
		return c.err
	}
	raw, err := c.enc.EndEncoding()
	if err != nil {
		c.state = cmdInitial
		return fmt.Errorf("native: end encoding: %w", err)
	}
	c.raw = raw
	c.state = cmdExecutable
	return nil
}

// Destroy releases the encoder.
func (c *CommandBuffer) Destroy() {
	if c.enc == nil {
		return
	}
	c.Reset()
	c.enc.Destroy()
	c.enc = nil
}
