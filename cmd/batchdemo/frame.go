package main

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
)

var background = gputypes.Color{R: 0.1, G: 0.1, B: 0.12, A: 1}

// frame owns the render target. The renderers draw with a pass that loads
// the target, so each frame starts with a separate pass that only clears.
type frame struct {
	tex gfx.Texture

	clearPass   gfx.RenderPass
	clearTarget gfx.Framebuffer

	// drawPass and target are what the renderers use.
	drawPass gfx.RenderPass
	target   gfx.Framebuffer

	cmd     gfx.CommandBuffer
	fence   gfx.Fence
	cleared gfx.Semaphore
}

func newFrame(dev gfx.Device, width, height uint32) (f *frame, err error) {
	f = &frame{}
	defer func() {
		if err != nil {
			f.destroy()
		}
	}()

	if f.clearPass, err = dev.CreateRenderPass(&gfx.RenderPassDescriptor{
		Label:      "clear",
		Format:     gputypes.TextureFormatBGRA8Unorm,
		LoadOp:     gputypes.LoadOpClear,
		ClearColor: background,
	}); err != nil {
		return nil, fmt.Errorf("clear pass: %w", err)
	}
	if f.drawPass, err = dev.CreateRenderPass(&gfx.RenderPassDescriptor{
		Label:  "draw",
		Format: gputypes.TextureFormatBGRA8Unorm,
		LoadOp: gputypes.LoadOpLoad,
	}); err != nil {
		return nil, fmt.Errorf("draw pass: %w", err)
	}
	if f.tex, err = dev.CreateTexture(&gfx.TextureDescriptor{
		Label:  "frame",
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	}); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if f.clearTarget, err = dev.CreateFramebuffer(f.clearPass, f.tex); err != nil {
		return nil, fmt.Errorf("clear framebuffer: %w", err)
	}
	if f.target, err = dev.CreateFramebuffer(f.drawPass, f.tex); err != nil {
		return nil, fmt.Errorf("framebuffer: %w", err)
	}
	if f.cmd, err = dev.CreateCommandBuffer(); err != nil {
		return nil, fmt.Errorf("command buffer: %w", err)
	}
	if f.fence, err = dev.CreateFence(true); err != nil {
		return nil, fmt.Errorf("fence: %w", err)
	}
	if f.cleared, err = dev.CreateSemaphore(); err != nil {
		return nil, fmt.Errorf("semaphore: %w", err)
	}
	return f, nil
}

// clear submits the clear pass after wait and returns the semaphore the
// first renderer of the frame waits on.
func (f *frame) clear(queue gfx.Queue, wait gfx.Semaphore) (gfx.Semaphore, error) {
	if err := f.fence.Wait(); err != nil {
		return nil, err
	}
	f.cmd.Reset()
	f.cmd.Begin()
	f.cmd.BeginRenderPass(f.clearPass, f.clearTarget)
	f.cmd.EndRenderPass()
	if err := f.cmd.End(); err != nil {
		return nil, err
	}
	f.fence.Reset()
	if err := queue.Execute(f.cmd, wait, f.cleared, f.fence); err != nil {
		return nil, err
	}
	return f.cleared, nil
}

func (f *frame) destroy() {
	if f.fence != nil && f.fence.Wait() != nil {
		slog.Warn("frame: wait for clear pass failed")
	}
	for _, r := range []interface{ Destroy() }{
		f.cleared, f.fence, f.cmd, f.target, f.clearTarget, f.tex, f.drawPass, f.clearPass,
	} {
		if r != nil {
			r.Destroy()
		}
	}
}
