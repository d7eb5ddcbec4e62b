package native

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// Fence polling bounds.
const (
	minPoll = 50 * time.Microsecond
	maxPoll = 2 * time.Millisecond
)

// ErrNotExecutable is returned by Execute for a command buffer that was not
// ended, or that was already submitted.
var ErrNotExecutable = errors.New("native: command buffer is not executable")

// Queue implements gfx.Queue on a HAL queue.
type Queue struct {
	dev    *Device
	raw    hal.Queue
	copies bool
}

// Execute submits cmd. wait needs no HAL work because a single queue runs
// submissions in order. signal and fence record the submission index.
func (q *Queue) Execute(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	c, ok := cmd.(*CommandBuffer)
	if !ok {
		return gfx.ErrForeignResource
	}
	if c.state != cmdExecutable {
		return ErrNotExecutable
	}
	var f *Fence
	if fence != nil {
		if f, ok = fence.(*Fence); !ok {
			return gfx.ErrForeignResource
		}
		if f.signaled || f.pending != 0 {
			return ErrFenceSignaled
		}
	}
	var s *Semaphore
	if signal != nil {
		if s, ok = signal.(*Semaphore); !ok {
			return gfx.ErrForeignResource
		}
	}
	if wait != nil {
		if _, ok = wait.(*Semaphore); !ok {
			return gfx.ErrForeignResource
		}
	}

	index, err := q.raw.Submit([]hal.CommandBuffer{c.raw})
	if err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	c.state = cmdSubmitted
	if f != nil {
		f.pending = index
	}
	if s != nil {
		s.index = index
	}
	q.dev.log.Debug("native: submit", "index", index)
	return nil
}

// WriteTexture uploads tightly packed 4-byte texels covering the whole
// texture.
func (q *Queue) WriteTexture(tex gfx.Texture, data []byte) error {
	t, ok := tex.(*Texture)
	if !ok {
		return gfx.ErrForeignResource
	}
	if t.raw == nil {
		return ErrDestroyed
	}
	if uint64(len(data)) != uint64(t.width)*uint64(t.height)*4 {
		return gfx.ErrOutOfRange
	}
	err := q.raw.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{BytesPerRow: t.width * 4, RowsPerImage: t.height},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("native: write texture %q: %w", t.label, err)
	}
	return nil
}

// Fence implements gfx.Fence by tracking a HAL submission index.
type Fence struct {
	queue    *Queue
	signaled bool

	// pending is the submission index that will signal the fence, or 0.
	pending uint64
}

// Wait blocks until the submission that will signal the fence completed.
func (f *Fence) Wait() error {
	if f.signaled {
		return nil
	}
	if f.pending == 0 {
		return gfx.ErrFenceUnsignaled
	}
	delay := minPoll
	for f.queue.raw.PollCompleted() < f.pending {
		time.Sleep(delay)
		delay = min(delay*2, maxPoll)
	}
	f.signaled = true
	f.pending = 0
	return nil
}

// Signaled reports whether the fence is signaled without blocking.
func (f *Fence) Signaled() bool {
	if !f.signaled && f.pending != 0 && f.queue.raw.PollCompleted() >= f.pending {
		f.signaled = true
		f.pending = 0
	}
	return f.signaled
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() {
	f.signaled = false
	f.pending = 0
}

// Destroy is a no-op. The fence owns no HAL object.
func (f *Fence) Destroy() {}

// Semaphore implements gfx.Semaphore as an ordering token.
type Semaphore struct {
	index uint64
}

// SignaledBy returns the submission index that last signaled s, or 0.
func (s *Semaphore) SignaledBy() uint64 { return s.index }

// Destroy is a no-op.
func (s *Semaphore) Destroy() {}
