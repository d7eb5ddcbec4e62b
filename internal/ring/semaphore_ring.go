package ring

import (
	"fmt"

	"github.com/gogpu/batch2d/gfx"
)

// semaphoreSlots is the number of slots: slot 0 holds the caller's wait
// semaphore, slots 1 and 2 are owned and alternate.
const semaphoreSlots = 3

// SemaphoreRing chains the flushes of one drawing session on the GPU.
//
// Flush i waits on Current and signals Next; Advance then makes Next the
// semaphore flush i+1 waits on. The externally supplied semaphore in slot 0
// is waited on exactly once per session, by the first flush.
type SemaphoreRing struct {
	slots [semaphoreSlots]gfx.Semaphore
	index int
	open  bool
}

// NewSemaphoreRing creates the two owned semaphores.
func NewSemaphoreRing(dev gfx.Device) (*SemaphoreRing, error) {
	r := &SemaphoreRing{}
	for i := 1; i < semaphoreSlots; i++ {
		s, err := dev.CreateSemaphore()
		if err != nil {
			r.Destroy()
			return nil, fmt.Errorf("ring: create semaphore %d: %w", i, err)
		}
		r.slots[i] = s
	}
	return r, nil
}

// Begin opens a session whose first flush waits on wait. wait may be nil.
// Begin panics if a session is already open.
func (r *SemaphoreRing) Begin(wait gfx.Semaphore) {
	if r.open {
		panic("ring: SemaphoreRing.Begin called while a session is open")
	}
	r.open = true
	r.index = 0
	r.slots[0] = wait
}

// End closes the session and forgets the external semaphore.
func (r *SemaphoreRing) End() {
	r.slots[0] = nil
	r.open = false
}

// Open reports whether a session is open.
func (r *SemaphoreRing) Open() bool {
	return r.open
}

// Current returns the semaphore the next flush waits on.
func (r *SemaphoreRing) Current() gfx.Semaphore {
	return r.slots[r.index]
}

// Next returns the semaphore the next implicit flush signals.
func (r *SemaphoreRing) Next() gfx.Semaphore {
	return r.slots[nextIndex(r.index)]
}

// Advance rotates to the next owned slot.
func (r *SemaphoreRing) Advance() {
	r.index = nextIndex(r.index)
}

// Destroy releases the owned semaphores.
func (r *SemaphoreRing) Destroy() {
	for i := semaphoreSlots - 1; i >= 1; i-- {
		if r.slots[i] != nil {
			r.slots[i].Destroy()
			r.slots[i] = nil
		}
	}
}

// nextIndex cycles 0 -> 1 -> 2 -> 1 -> 2 ... Slot 0 is only reached
// through Begin.
func nextIndex(i int) int {
	i++
	if i == semaphoreSlots {
		return 1
	}
	return i
}
