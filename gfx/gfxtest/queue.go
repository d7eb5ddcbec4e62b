package gfxtest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/batch2d/gfx"
)

// Submission is one executed command buffer.
type Submission struct {
	// Commands is a copy of the recorded commands.
	Commands []Command

	// Wait, Signal and Fence are the Execute arguments (nil when absent).
	Wait, Signal *Semaphore
	Fence        *Fence

	// Vertices holds the bytes copied into the bound vertex buffer by this
	// submission.
	Vertices []byte

	// Indices holds the indices consumed by the draw.
	Indices []uint32
}

// Find returns the commands with the given op, in order.
func (s *Submission) Find(op Op) []Command {
	var out []Command
	for _, c := range s.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// IndexCount returns the index count of the draw, or 0 without a draw.
func (s *Submission) IndexCount() uint32 {
	draws := s.Find(OpDrawIndexed)
	if len(draws) == 0 {
		return 0
	}
	return draws[0].Count
}

// LineWidth returns the line width set by the submission.
func (s *Submission) LineWidth() (float32, bool) {
	w := s.Find(OpSetLineWidth)
	if len(w) == 0 {
		return 0, false
	}
	return w[len(w)-1].LineWidth, true
}

// Textures returns the texture bindings captured when the descriptor set
// was bound, or nil.
func (s *Submission) Textures() map[uint32]*Texture {
	sets := s.Find(OpBindDescriptorSet)
	if len(sets) == 0 {
		return nil
	}
	return sets[len(sets)-1].Textures
}

// Queue executes command buffers. By default work completes inside
// Execute; with deferred completion it completes when a fence is waited on.
type Queue struct {
	dev     *Device
	pending []*inflight
}

// inflight is a submission the fake GPU has not finished.
type inflight struct {
	sub   *Submission
	cmd   *CommandBuffer
	fence *Fence

	// staging holds each copy source, in command order, as it was at
	// submission.
	staging [][]byte
}

// Execute validates synchronization state and queues the command buffer.
// The recorded copies run, and the drawn geometry is captured, when the
// submission completes.
func (q *Queue) Execute(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	c, ok := cmd.(*CommandBuffer)
	if !ok {
		return gfx.ErrForeignResource
	}
	if c.state != cmdExecutable {
		return ErrNotExecutable
	}
	if c.pending {
		return ErrInFlight
	}
	w, _ := wait.(*Semaphore)
	s, _ := signal.(*Semaphore)
	f, _ := fence.(*Fence)

	if w != nil && !w.signaled {
		return ErrWaitUnsignaled
	}
	if s != nil && s.signaled && s != w {
		return ErrSemaphoreSignaled
	}
	if f != nil && f.inflight != nil {
		return ErrInFlight
	}
	if f != nil && f.signaled {
		return ErrFenceSignaled
	}

	fl := &inflight{
		sub: &Submission{
			Commands: append([]Command(nil), c.Commands...),
			Wait:     w,
			Signal:   s,
			Fence:    f,
		},
		cmd:   c,
		fence: f,
	}
	for _, rc := range c.Commands {
		if rc.Op == OpCopy {
			fl.staging = append(fl.staging, append([]byte(nil), rc.Src.data[:rc.Size]...))
		}
	}

	if w != nil {
		w.signaled = false
	}
	if s != nil {
		s.signaled = true
	}
	c.pending = true
	q.dev.Submissions = append(q.dev.Submissions, fl.sub)
	q.dev.trace(EventExecute)

	if !q.dev.deferred {
		q.complete(fl)
		return nil
	}
	if f != nil {
		f.inflight = fl
	}
	q.pending = append(q.pending, fl)
	return nil
}

// retire completes every pending submission up to and including fl, in
// submission order.
func (q *Queue) retire(fl *inflight) {
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.complete(next)
		if next == fl {
			return
		}
	}
}

// complete runs the recorded copies and signals the fence.
func (q *Queue) complete(fl *inflight) {
	sub := fl.sub
	copied := make(map[*Buffer]uint64)
	var vertexBuf, indexBuf *Buffer
	var format uint32 = 4
	n := 0
	for _, rc := range sub.Commands {
		switch rc.Op {
		case OpCopy:
			before := fl.staging[n]
			n++
			if !bytes.Equal(rc.Src.data[:rc.Size], before) {
				q.dev.misuse = append(q.dev.misuse, fmt.Errorf("%w: %q", ErrStagingOverwritten, rc.Src.Label))
			}
			copy(rc.Dst.data[:rc.Size], rc.Src.data[:rc.Size])
			copied[rc.Dst] = rc.Size
		case OpBindVertexBuffer:
			vertexBuf = rc.Dst
		case OpBindIndexBuffer:
			indexBuf = rc.Dst
			format = rc.IndexFormat.Size()
		case OpDrawIndexed:
			if vertexBuf != nil {
				sub.Vertices = append([]byte(nil), vertexBuf.data[:copied[vertexBuf]]...)
			}
			if indexBuf != nil {
				sub.Indices = decodeIndices(indexBuf.data, rc.Count, format)
			}
		}
	}

	fl.cmd.pending = false
	if fl.fence != nil {
		fl.fence.inflight = nil
		fl.fence.signaled = true
	}
	q.dev.trace(EventComplete)
}

// busy reports whether a pending submission recorded a command matching fn.
func (q *Queue) busy(fn func(Command) bool) bool {
	for _, fl := range q.pending {
		for _, c := range fl.sub.Commands {
			if fn(c) {
				return true
			}
		}
	}
	return false
}

// WriteTexture stores data on the texture.
func (q *Queue) WriteTexture(tex gfx.Texture, data []byte) error {
	t, ok := tex.(*Texture)
	if !ok {
		return gfx.ErrForeignResource
	}
	if uint64(len(data)) != uint64(t.Width)*uint64(t.Height)*4 {
		return gfx.ErrOutOfRange
	}
	t.Data = append([]byte(nil), data...)
	return nil
}

func decodeIndices(data []byte, count, size uint32) []uint32 {
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		off := i * size
		if size == 2 {
			out = append(out, uint32(binary.LittleEndian.Uint16(data[off:])))
			continue
		}
		out = append(out, binary.LittleEndian.Uint32(data[off:]))
	}
	return out
}
