//go:build !linux

package affinity

import (
	"runtime"

	"github.com/jzx17/pinpool/pkg/types"
)

func pin(cpu int) error {
	return types.NewPoolError("set_affinity",
		types.Errorf(types.ErrOSPrimitive, "cpu affinity not supported on %s", runtime.GOOS)).
		WithContext("cpu", cpu)
}

func allowed() []int { return nil }

func onlineCPUs() int { return 0 }
