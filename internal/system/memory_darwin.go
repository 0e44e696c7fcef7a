package system

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func readMemory() (Memory, error) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return Memory{}, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	total, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return Memory{}, fmt.Errorf("parsing hw.memsize: %w", err)
	}

	vm, err := exec.Command("vm_stat").Output()
	if err != nil {
		return Memory{}, fmt.Errorf("vm_stat: %w", err)
	}
	return parseVMStat(total, string(vm)), nil
}
