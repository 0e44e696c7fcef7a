//go:build !linux && !darwin && !windows

package system

import (
	"fmt"
	"runtime"
)

func readMemory() (Memory, error) {
	return Memory{}, fmt.Errorf("reading memory on %s is not supported", runtime.GOOS)
}
