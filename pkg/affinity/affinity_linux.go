//go:build linux

package affinity

import (
	"errors"

	"github.com/jzx17/pinpool/pkg/types"
	"golang.org/x/sys/unix"
)

// cpuSetBits is the number of CPUs a unix.CPUSet can address
const cpuSetBits = 1024

// pin sets the affinity of the calling thread; pid 0 addresses the thread,
// not the whole process. The errno stays in the chain for errors.As.
func pin(cpu int) error {
	if cpu >= cpuSetBits {
		return types.Errorf(types.ErrInvalidArgument, "cpu %d exceeds cpu set size %d", cpu, cpuSetBits)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return types.NewPoolError("sched_setaffinity", errors.Join(types.ErrOSPrimitive, err)).
			WithContext("cpu", cpu)
	}
	return nil
}

func allowed() []int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; cpu < cpuSetBits; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus
}

func onlineCPUs() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0
	}
	return set.Count()
}
