//go:build deadlock

// Package syncx provides the mutex used by every lock domain of the pool.
// Building with -tags deadlock replaces it with a lock-order checking mutex.
package syncx

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Mutex reports lock-order inversions between the worker, dispatch and
// monitor lock domains, and acquisitions blocked for longer than the timeout
type Mutex = deadlock.Mutex

// DeadlockDetection reports whether lock-order checking is compiled in
const DeadlockDetection = true

func init() {
	// Worker locks are held across state callbacks, not across task execution
	deadlock.Opts.DeadlockTimeout = 10 * time.Second
}
