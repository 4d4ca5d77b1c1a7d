//go:build !deadlock

// Package syncx provides the mutex used by every lock domain of the pool.
// Building with -tags deadlock replaces it with a lock-order checking mutex.
package syncx

import "sync"

// Mutex is a sync.Mutex in regular builds
type Mutex = sync.Mutex

// DeadlockDetection reports whether lock-order checking is compiled in
const DeadlockDetection = false
