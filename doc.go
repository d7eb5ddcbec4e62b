// Package batch2d provides batched 2D renderers for rects, lines and
// circles on top of an explicit GPU API.
//
// # Overview
//
// Each renderer accumulates primitives on the CPU in host-visible staging
// buffers and submits them in as few draw calls as possible. A batch is
// flushed when its geometry is full, when a rect references more textures
// than one descriptor set holds, when a line changes width, or when the
// drawing session ends.
//
// # Quick Start
//
//	rects, err := batch2d.NewRectRenderer(dev, pass)
//	if err != nil {
//	    return err
//	}
//	defer rects.Destroy()
//
//	if err := rects.BeginDrawing(imageAvailable, framebuffer); err != nil {
//	    return err
//	}
//	rects.DrawRect(f32.Vec2{10, 10}, f32.Vec2{100, 50}, batch2d.Red)
//	rects.DrawRotatedRect(f32.Vec2{200, 80}, f32.Vec2{64, 64}, 45, batch2d.Blue)
//	if err := rects.EndDrawing(renderFinished); err != nil {
//	    return err
//	}
//
// # Synchronization
//
// Submissions of one session form a chain: the first waits on the
// semaphore passed to BeginDrawing, each later one waits on the semaphore
// its predecessor signals, and the last signals the semaphore passed to
// EndDrawing. Several renderers can therefore draw into the same
// framebuffer in sequence by handing the signal semaphore of one to
// BeginDrawing of the next.
//
// Every renderer also owns one fence. Before a batch is recorded the
// renderer waits for the fence, so at most one submission per renderer is
// in flight. The two batches of the batch ring let the CPU fill one batch
// while the previous one is being copied.
//
// # Coordinate System
//
//   - Origin (0,0) at the top-left of the render target
//   - X increases right, Y increases down
//   - Angles in degrees, positive rotates clockwise on screen
//
// # Backends
//
// Renderers talk to the GPU through the interfaces of package gfx. Package
// backend/native implements them on gogpu/wgpu HAL devices; package
// gfx/gfxtest is a recording implementation for tests.
package batch2d
