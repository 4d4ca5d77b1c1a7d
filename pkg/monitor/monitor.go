// Package monitor turns the ring buffers into blocking, error-aware
// producer/consumer channels.
//
// A Monitor pairs a queue with a mutex, a condition variable and a sticky
// error flag. Producers and consumers never block on the queue itself:
// GetItem reports ErrUnderflow when nothing is available. Only the barrier
// waits (WaitUntilDrained, WaitUntilFull) block, and SignalError releases
// every current and future waiter.
package monitor

import (
	"sync"

	"github.com/jzx17/pinpool/internal/syncx"
	"github.com/jzx17/pinpool/pkg/queue"
	"github.com/jzx17/pinpool/pkg/types"
)

// Monitor guards a ring and exposes a wait on a condition over it
type Monitor[T any] struct {
	mu    syncx.Mutex
	cond  *sync.Cond
	items *queue.Ring[T]

	// reached is the condition waiters block on; evaluated under mu
	reached func(*queue.Ring[T]) bool

	// failed is sticky: once set it is never cleared
	failed bool
}

func newMonitor[T any](items *queue.Ring[T], reached func(*queue.Ring[T]) bool) *Monitor[T] {
	m := &Monitor[T]{
		items:   items,
		reached: reached,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// AddItem pushes item and wakes waiters if the condition now holds.
// A failed push leaves the queue untouched.
func (m *Monitor[T]) AddItem(item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.items.Push(item); err != nil {
		return err
	}
	if m.reached(m.items) {
		m.cond.Broadcast()
	}
	return nil
}

// GetItem pops the oldest item. ErrUnderflow means nothing is available
// right now.
func (m *Monitor[T]) GetItem() (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.items.Pop()
	if err != nil {
		return item, err
	}
	if m.reached(m.items) {
		m.cond.Broadcast()
	}
	return item, nil
}

// wait blocks until the condition holds or the error flag is set
func (m *Monitor[T]) wait() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.failed && !m.reached(m.items) {
		m.cond.Wait()
	}
	if m.failed {
		return types.ErrMonitorAborted
	}
	return nil
}

// SignalError sets the error flag and wakes every waiter. Queued items stay
// where they are.
func (m *Monitor[T]) SignalError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed = true
	m.cond.Broadcast()
}

// Failed reports whether SignalError has been called
func (m *Monitor[T]) Failed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// Len returns the number of queued items
func (m *Monitor[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Len()
}

// Cap returns the capacity of the underlying ring
func (m *Monitor[T]) Cap() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Cap()
}

// Close releases waiters and drops queued items
func (m *Monitor[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed = true
	m.items.Reset()
	m.cond.Broadcast()
}

// TaskMonitor holds tasks that were submitted while no worker was free
type TaskMonitor struct {
	*Monitor[types.Task]
}

// NewTaskMonitor creates a task monitor over a growable queue
func NewTaskMonitor() *TaskMonitor {
	return &TaskMonitor{
		Monitor: newMonitor(queue.NewTaskQueue(), func(r *queue.Ring[types.Task]) bool {
			return r.Len() == 0
		}),
	}
}

// WaitUntilDrained blocks until no task is pending. It returns
// ErrMonitorAborted if released by SignalError instead.
func (m *TaskMonitor) WaitUntilDrained() error {
	return m.wait()
}

// WorkerMonitor holds the IDs of workers waiting for a task
type WorkerMonitor struct {
	*Monitor[int]
}

// NewWorkerMonitor creates a worker monitor with room for capacity IDs
func NewWorkerMonitor(capacity int) (*WorkerMonitor, error) {
	items, err := queue.NewWorkerQueue(capacity)
	if err != nil {
		return nil, err
	}
	return &WorkerMonitor{
		Monitor: newMonitor(items, func(r *queue.Ring[int]) bool {
			return r.Full()
		}),
	}, nil
}

// WaitUntilFull blocks until every worker ID is queued. It returns
// ErrMonitorAborted if released by SignalError instead.
func (m *WorkerMonitor) WaitUntilFull() error {
	return m.wait()
}
