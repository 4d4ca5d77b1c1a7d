package main

import (
	"time"

	"github.com/jzx17/pinpool/pkg/worker"
)

// spin keeps the CPU busy for d and records how many rounds it managed
func spin(d time.Duration, rounds *uint64) {
	deadline := time.Now().Add(d)
	var n uint64
	for time.Now().Before(deadline) {
		for i := 0; i < 1000; i++ {
			n++
		}
	}
	*rounds = n
}

// newWorkload creates n spin tasks with their own result slots
func newWorkload(n int, d time.Duration) ([]*worker.FuncTask[time.Duration, uint64], []uint64) {
	results := make([]uint64, n)
	tasks := make([]*worker.FuncTask[time.Duration, uint64], n)
	for i := range tasks {
		tasks[i] = worker.NewTask(spin, d, &results[i])
	}
	return tasks, results
}

// partition splits n items over parts producers as evenly as possible and
// returns the [start, end) range of part
func partition(n, parts, part int) (int, int) {
	size, rest := n/parts, n%parts
	start := part*size + min(part, rest)
	end := start + size
	if part < rest {
		end++
	}
	return start, end
}
