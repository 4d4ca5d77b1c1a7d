package worker

import "fmt"

// State defines the state of a Worker
type State int32

const (
	// StateStarted is the state of a freshly launched worker thread
	StateStarted State = iota
	// StateReady represents a worker waiting for a task
	StateReady
	// StateBusy represents a worker executing a task
	StateBusy
	// StateDone represents a worker holding a finished task until it is acknowledged
	StateDone
	// StateStopped represents a worker without a running thread
	StateStopped
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stateCell holds a worker's state. Reads go through get under the worker
// lock; writes only through the stateWriter owned by the control loop.
type stateCell struct {
	current State
}

func (c *stateCell) get() State {
	return c.current
}

// stateWriter is the single mutator of a stateCell. One is created per
// control loop run and never leaves it.
type stateWriter struct {
	cell *stateCell
}

// advance moves the cell to next, rejecting transitions the machine does not have
func (w stateWriter) advance(next State) {
	from := w.cell.current
	if !canTransition(from, next) {
		panic(fmt.Sprintf("worker: illegal state transition %s -> %s", from, next))
	}
	w.cell.current = next
}

func canTransition(from, to State) bool {
	if to == StateStopped {
		return from != StateStopped
	}
	switch from {
	case StateStopped:
		return to == StateStarted
	case StateStarted:
		return to == StateReady
	case StateReady:
		return to == StateBusy
	case StateBusy:
		return to == StateDone
	case StateDone:
		return to == StateReady
	}
	return false
}
