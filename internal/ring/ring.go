// Package ring implements the fixed-size rotations used by the batch
// renderers: the batch ring and the semaphore ring.
package ring

// Depth is the number of batch slots. Two slots let the CPU fill one batch
// while the GPU still consumes the other.
const Depth = 2

// Ring rotates over Depth slots. Exactly one slot is current at any time.
//
// Ring never blocks. Whether the GPU has finished with the next slot is
// decided by the caller's fence before the slot is reused.
type Ring[T any] struct {
	slots [Depth]T
	index int
}

// New builds a ring, calling newSlot once per slot in order. If newSlot
// fails, release is called on the slots built so far, in reverse order.
func New[T any](newSlot func(i int) (T, error), release func(T)) (*Ring[T], error) {
	r := &Ring[T]{}
	for i := range r.slots {
		s, err := newSlot(i)
		if err != nil {
			if release != nil {
				for j := i - 1; j >= 0; j-- {
					release(r.slots[j])
				}
			}
			return nil, err
		}
		r.slots[i] = s
	}
	return r, nil
}

// Current returns the slot being written.
func (r *Ring[T]) Current() T {
	return r.slots[r.index]
}

// Index returns the position of the current slot.
func (r *Ring[T]) Index() int {
	return r.index
}

// Advance makes the next slot current.
func (r *Ring[T]) Advance() {
	r.index = (r.index + 1) % Depth
}

// Each calls fn for every slot, starting at slot 0.
func (r *Ring[T]) Each(fn func(T)) {
	for _, s := range r.slots {
		fn(s)
	}
}

// Destroy calls release for every slot in reverse order.
func (r *Ring[T]) Destroy(release func(T)) {
	for i := Depth - 1; i >= 0; i-- {
		release(r.slots[i])
	}
}
