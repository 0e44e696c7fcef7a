package system

import (
	"fmt"
	"syscall"
	"unsafe"
)

var globalMemoryStatusEx = syscall.NewLazyDLL("kernel32.dll").NewProc("GlobalMemoryStatusEx")

// memoryStatus mirrors MEMORYSTATUSEX
type memoryStatus struct {
	length        uint32
	load          uint32
	totalPhys     uint64
	availPhys     uint64
	totalPageFile uint64
	availPageFile uint64
	totalVirtual  uint64
	availVirtual  uint64
	availExtended uint64
}

func readMemory() (Memory, error) {
	var st memoryStatus
	st.length = uint32(unsafe.Sizeof(st))
	if ret, _, err := globalMemoryStatusEx.Call(uintptr(unsafe.Pointer(&st))); ret == 0 {
		return Memory{}, fmt.Errorf("GlobalMemoryStatusEx: %w", err)
	}
	return Memory{Total: int64(st.totalPhys), Available: int64(st.availPhys)}, nil
}
