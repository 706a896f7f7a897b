// Package buffer provides bounded FIFO buffers for session output.
package buffer

// Ring is a fixed-capacity ordered collection. Pushing onto a full ring
// evicts the oldest element.
//
// Ring is not safe for concurrent use; the owning session serializes access.
type Ring[T any] struct {
	items    []T
	head     int // index of the oldest element
	size     int
	capacity int
}

// NewRing creates a Ring holding at most capacity elements.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends v, evicting the oldest element when the ring is full.
// It reports whether an element was evicted.
func (r *Ring[T]) Push(v T) bool {
	if r.size < r.capacity {
		r.items[(r.head+r.size)%r.capacity] = v
		r.size++
		return false
	}

	r.items[r.head] = v
	r.head = (r.head + 1) % r.capacity
	return true
}

// Items returns a copy of the contents, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%r.capacity]
	}
	return out
}

// At returns the i-th element counting from the oldest.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("buffer: ring index out of range")
	}
	return r.items[(r.head+i)%r.capacity]
}

// Last returns the newest element.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.At(r.size - 1), true
}

// Clear drops all elements.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
