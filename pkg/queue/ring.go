// Package queue provides the circular buffers behind the pool monitors
package queue

import (
	"github.com/jzx17/pinpool/pkg/types"
)

// Policy decides what a full ring does on push
type Policy int

const (
	// Growable doubles the capacity of a full ring
	Growable Policy = iota
	// Fixed rejects a push into a full ring with ErrOverflow
	Fixed
)

// String returns the string representation of Policy
func (p Policy) String() string {
	switch p {
	case Growable:
		return "growable"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

const (
	// InitialTaskCapacity is the starting capacity of a task queue
	InitialTaskCapacity = 2

	// MaxCapacity bounds growth; doubling past it fails with ErrAllocation
	MaxCapacity = 1 << 30
)

// Ring is a FIFO circular buffer. Items live in the window
// [tail, tail+size) modulo capacity; head is the next free slot.
//
// Ring is not safe for concurrent use. Monitors own their ring and only
// touch it under their lock.
type Ring[T any] struct {
	buf    []T
	head   int
	tail   int
	size   int
	policy Policy
}

// NewRing creates a ring with the given capacity and policy
func NewRing[T any](capacity int, policy Policy) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, types.Errorf(types.ErrInvalidArgument, "ring capacity must be positive, got %d", capacity)
	}
	if capacity > MaxCapacity {
		return nil, types.Errorf(types.ErrAllocation, "ring capacity %d exceeds %d", capacity, MaxCapacity)
	}
	return &Ring[T]{
		buf:    make([]T, capacity),
		policy: policy,
	}, nil
}

// NewTaskQueue creates the growable queue of pending tasks
func NewTaskQueue() *Ring[types.Task] {
	r, _ := NewRing[types.Task](InitialTaskCapacity, Growable)
	return r
}

// NewWorkerQueue creates the fixed-capacity queue of free worker IDs
func NewWorkerQueue(capacity int) (*Ring[int], error) {
	return NewRing[int](capacity, Fixed)
}

// Push appends item at the head
func (r *Ring[T]) Push(item T) error {
	if r.size == len(r.buf) {
		if r.policy == Fixed {
			return types.Errorf(types.ErrOverflow, "ring is full at capacity %d", len(r.buf))
		}
		if err := r.grow(); err != nil {
			return err
		}
	}

	r.buf[r.head] = item
	r.head = (r.head + 1) % len(r.buf)
	r.size++
	return nil
}

// Pop removes and returns the item at the tail
func (r *Ring[T]) Pop() (T, error) {
	var zero T
	if r.size == 0 {
		return zero, types.ErrUnderflow
	}

	item := r.buf[r.tail]
	r.buf[r.tail] = zero
	r.tail = (r.tail + 1) % len(r.buf)
	r.size--
	return item, nil
}

// grow doubles the capacity, relinearizing the live window at offset 0.
// It only runs on a full ring, where head == tail.
func (r *Ring[T]) grow() error {
	capacity := len(r.buf)
	if capacity > MaxCapacity/2 {
		return types.Errorf(types.ErrAllocation, "cannot grow ring beyond %d", MaxCapacity)
	}

	buf := make([]T, capacity*2)
	n := copy(buf, r.buf[r.tail:])
	copy(buf[n:], r.buf[:r.tail])

	r.buf = buf
	r.tail = 0
	r.head = r.size
	return nil
}

// Len returns the number of queued items
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the current capacity
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Full reports whether the ring holds Cap items
func (r *Ring[T]) Full() bool {
	return r.size == len(r.buf)
}

// Policy returns the overflow policy
func (r *Ring[T]) Policy() Policy {
	return r.policy
}

// Reset drops every item and keeps the current capacity
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head, r.tail, r.size = 0, 0, 0
}
