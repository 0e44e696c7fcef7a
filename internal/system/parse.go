package system

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseMeminfo reads the MemTotal and MemAvailable lines of a
// /proc/meminfo listing. Values are in KiB.
func parseMeminfo(r io.Reader) (Memory, error) {
	var m Memory
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		kib, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			m.Total = kib << 10
		case "MemAvailable":
			m.Available = kib << 10
		}
	}
	if err := sc.Err(); err != nil {
		return Memory{}, fmt.Errorf("reading meminfo: %w", err)
	}
	return m, nil
}

// parseVMStat derives available memory from vm_stat output as free plus
// inactive pages
func parseVMStat(total int64, out string) Memory {
	pageSize := int64(4096)
	var free, inactive int64

	page := func(line string) int64 {
		_, v, _ := strings.Cut(line, ":")
		n, _ := strconv.ParseInt(strings.TrimSuffix(strings.TrimSpace(v), "."), 10, 64)
		return n
	}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Pages free:"):
			free = page(line)
		case strings.HasPrefix(line, "Pages inactive:"):
			inactive = page(line)
		case strings.Contains(line, "page size of"):
			f := strings.Fields(line[strings.Index(line, "page size of"):])
			if len(f) >= 4 {
				if n, err := strconv.ParseInt(f[3], 10, 64); err == nil {
					pageSize = n
				}
			}
		}
	}
	return Memory{Total: total, Available: (free + inactive) * pageSize}
}
