package gfx

import "errors"

// Errors shared by backends.
var (
	// ErrNotHostVisible is returned when a host mapping is requested from a
	// device-local buffer, or an upload targets a host-visible buffer.
	ErrNotHostVisible = errors.New("gfx: buffer memory kind does not allow this operation")

	// ErrOutOfRange is returned when a copy or upload exceeds a buffer.
	ErrOutOfRange = errors.New("gfx: range exceeds buffer size")

	// ErrForeignResource is returned when a resource created by another
	// backend is passed in.
	ErrForeignResource = errors.New("gfx: resource belongs to a different backend")

	// ErrFenceUnsignaled is returned by Fence.Wait when the fence was reset
	// and no submission will ever signal it.
	ErrFenceUnsignaled = errors.New("gfx: waiting on a reset fence with no pending submission")

	// ErrNotRecording is returned by CommandBuffer.End when Begin was not
	// called.
	ErrNotRecording = errors.New("gfx: command buffer is not recording")

	// ErrRenderPassState is returned when a command is recorded in the
	// wrong render pass state.
	ErrRenderPassState = errors.New("gfx: command recorded in wrong render pass state")
)
