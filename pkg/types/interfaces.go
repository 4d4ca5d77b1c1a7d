// Package types defines core interfaces and types shared by the pool packages
package types

import "time"

// Task is a unit of work executed by a worker. The pool never inspects the
// task beyond calling Execute; inputs and outputs belong to the caller and
// must stay valid until the task has run.
type Task interface {
	// Execute runs the task synchronously on the worker's thread
	Execute()
}

// Validator is implemented by tasks that can check their own structure
// before they are handed to a worker
type Validator interface {
	// Validate returns an error wrapping ErrInvalidArgument when a required handle is missing
	Validate() error
}

// ValidateTask checks that task is present and, if it knows how, structurally complete
func ValidateTask(task Task) error {
	if task == nil {
		return Errorf(ErrInvalidArgument, "task is nil")
	}
	if v, ok := task.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// PoolStats defines basic statistics for a pool
type PoolStats struct {
	// PoolSize is the number of workers
	PoolSize int

	// FreeWorkers is the number of workers waiting for a task
	FreeWorkers int

	// PendingTasks is the number of tasks queued without a worker
	PendingTasks int

	// Submitted is the total number of accepted submissions
	Submitted int64

	// Completed is the total number of tasks that reached Done
	Completed int64

	// Panicked is the number of tasks that panicked
	Panicked int64

	// AverageExecutionTime is the mean task run time
	AverageExecutionTime time.Duration
}

// IsIdle reports whether every worker is free and nothing is queued
func (s PoolStats) IsIdle() bool {
	return s.PendingTasks == 0 && s.FreeWorkers == s.PoolSize
}
