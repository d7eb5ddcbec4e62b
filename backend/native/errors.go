package native

import "errors"

// Errors returned by the HAL backend.
var (
	// ErrNilDevice is returned by New without a HAL device or queue.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrUnsupportedProvider is returned by NewFromProvider when the
	// provider does not hand out gogpu/wgpu HAL objects.
	ErrUnsupportedProvider = errors.New("native: device provider does not expose a HAL device and queue")

	// ErrFenceSignaled is returned by Execute for a fence that was not reset.
	ErrFenceSignaled = errors.New("native: submitting with a signaled fence")

	// ErrFormatMismatch is returned by CreateFramebuffer when the attachment
	// format differs from the render pass format.
	ErrFormatMismatch = errors.New("native: attachment format does not match render pass")

	// ErrNotRenderAttachment is returned by CreateFramebuffer for a texture
	// created without gputypes.TextureUsageRenderAttachment.
	ErrNotRenderAttachment = errors.New("native: texture is not a render attachment")

	// ErrIncompleteSet is returned when a descriptor set with unset
	// bindings is bound.
	ErrIncompleteSet = errors.New("native: descriptor set has unset bindings")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("native: resource has been destroyed")
)
