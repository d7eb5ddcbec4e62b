package batch2d

import "errors"

// Errors returned by renderer constructors and drawing sessions.
var (
	// ErrInvalidTarget is returned by BeginDrawing for a nil or empty
	// framebuffer.
	ErrInvalidTarget = errors.New("batch2d: invalid render target")

	// ErrInvalidOption is returned by constructors for out-of-range options.
	ErrInvalidOption = errors.New("batch2d: invalid option")

	// ErrNilDevice is returned by constructors without a device or render
	// pass.
	ErrNilDevice = errors.New("batch2d: nil device or render pass")
)
