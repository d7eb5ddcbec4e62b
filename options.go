package batch2d

import (
	"fmt"
	"log/slog"
)

// Batch capacities used when no option overrides them.
const (
	// DefaultMaxPrimitives is the number of rects or circles per batch, and
	// the number of polylines per line batch.
	DefaultMaxPrimitives = 60000

	// MaxPrimitivesLimit bounds WithMaxPrimitives. It keeps vertex indices
	// below the 0xFFFFFFFF restart value and batch sizes within int.
	MaxPrimitivesLimit = 1 << 24

	// MaxTexturesPerSet is the number of texture slots of the rect shader.
	MaxTexturesPerSet = 8
)

// Option configures a renderer during creation.
//
// Example:
//
//	rects, err := batch2d.NewRectRenderer(dev, pass,
//	    batch2d.WithMaxPrimitives(4096),
//	    batch2d.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds renderer configuration.
type options struct {
	maxPrimitives int
	maxTextures   int
	logger        *slog.Logger
	label         string
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		maxPrimitives: DefaultMaxPrimitives,
		maxTextures:   MaxTexturesPerSet,
	}
}

// WithMaxPrimitives sets the number of primitives one batch holds, from 1
// to MaxPrimitivesLimit. Lower values flush more often and use less memory.
func WithMaxPrimitives(n int) Option {
	return func(o *options) {
		o.maxPrimitives = n
	}
}

// WithMaxTexturesPerSet sets how many distinct textures one rect batch may
// reference, from 1 to MaxTexturesPerSet. Other renderers ignore it.
func WithMaxTexturesPerSet(n int) Option {
	return func(o *options) {
		o.maxTextures = n
	}
}

// WithLogger sets the logger of one renderer. By default renderers use
// the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLabel prefixes the debug labels of GPU resources the renderer
// creates.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// buildOptions applies opts over the defaults and validates the result.
func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxPrimitives < 1 || o.maxPrimitives > MaxPrimitivesLimit {
		return o, fmt.Errorf("%w: max primitives %d (want 1..%d)", ErrInvalidOption, o.maxPrimitives, MaxPrimitivesLimit)
	}
	if o.maxTextures < 1 || o.maxTextures > MaxTexturesPerSet {
		return o, fmt.Errorf("%w: max textures per set %d (want 1..%d)", ErrInvalidOption, o.maxTextures, MaxTexturesPerSet)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return o, nil
}
