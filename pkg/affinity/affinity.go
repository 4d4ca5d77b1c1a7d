// Package affinity pins worker threads to CPU cores.
//
// Pinning applies to the calling OS thread, so callers lock their goroutine
// to its thread (runtime.LockOSThread) before calling Pin. Platform files
// provide the actual system call; platforms without one report
// ErrOSPrimitive.
package affinity

import (
	"runtime"

	"github.com/jzx17/pinpool/pkg/types"
)

// Strategy maps a worker ID to the CPU it should run on. ok == false leaves
// the worker unpinned.
type Strategy func(workerID int) (cpu int, ok bool)

// Pinner binds the calling OS thread to cpu
type Pinner func(cpu int) error

// Modulo spreads workers over the CPUs the process may run on: worker id
// runs on the (id mod n)th allowed CPU. Without affinity information it
// falls back to CPUs 0..NumCPU-1.
func Modulo() Strategy {
	if cpus := Allowed(); len(cpus) > 0 {
		return Spread(cpus)
	}
	return ModuloOf(runtime.NumCPU())
}

// Spread maps worker id to cpus[id mod len(cpus)]. An empty set leaves
// workers unpinned.
func Spread(cpus []int) Strategy {
	set := append([]int(nil), cpus...)
	return func(workerID int) (int, bool) {
		if len(set) == 0 {
			return 0, false
		}
		return set[workerID%len(set)], true
	}
}

// ModuloOf spreads workers over n CPUs
func ModuloOf(n int) Strategy {
	if n <= 0 {
		n = 1
	}
	return func(workerID int) (int, bool) {
		return workerID % n, true
	}
}

// None disables pinning
func None() Strategy {
	return func(int) (int, bool) {
		return 0, false
	}
}

// Fixed pins every worker to the same cpu
func Fixed(cpu int) Strategy {
	return func(int) (int, bool) {
		return cpu, true
	}
}

// Resolve applies strategy to workerID and validates the result
func Resolve(strategy Strategy, workerID int) (cpu int, ok bool, err error) {
	if strategy == nil {
		return 0, false, nil
	}
	cpu, ok = strategy(workerID)
	if ok && cpu < 0 {
		return 0, false, types.Errorf(types.ErrInvalidArgument, "worker %d mapped to negative cpu %d", workerID, cpu)
	}
	return cpu, ok, nil
}

// OnlineCPUs returns the number of CPUs the process may run on
func OnlineCPUs() int {
	if n := onlineCPUs(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Pin binds the calling OS thread to cpu
func Pin(cpu int) error {
	if cpu < 0 {
		return types.Errorf(types.ErrInvalidArgument, "negative cpu %d", cpu)
	}
	return pin(cpu)
}

// Allowed returns the CPUs the calling thread may run on, or nil when the
// platform cannot tell
func Allowed() []int {
	return allowed()
}
