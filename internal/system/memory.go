// Package system reports host memory, which bounds how much buffer data
// the host device holds and how large a staging copy may grow.
package system

import "fmt"

// StagingReserve is the host RAM kept back from buffer staging for the
// OS and other processes
const StagingReserve int64 = 2 << 30

// MinBlockSize is the smallest storage block the host device will offer,
// whatever the RAM pressure
const MinBlockSize = 1 << 20

// Memory is a snapshot of host RAM in bytes
type Memory struct {
	Total     int64
	Available int64
}

// ReadMemory returns the current host memory snapshot
func ReadMemory() (Memory, error) {
	m, err := readMemory()
	if err != nil {
		return Memory{}, err
	}
	if m.Total <= 0 {
		return Memory{}, fmt.Errorf("could not determine total RAM")
	}
	if m.Available > m.Total {
		m.Available = m.Total
	}
	return m, nil
}

// Staging returns the RAM that host copies of device buffers may use
func (m Memory) Staging() int64 {
	if m.Available <= StagingReserve {
		return 0
	}
	return m.Available - StagingReserve
}

// CapBlock limits a storage block size to the staging RAM, but never
// below MinBlockSize
func (m Memory) CapBlock(size int) int {
	staging := m.Staging()
	if int64(size) <= staging {
		return size
	}
	if staging < MinBlockSize {
		if size < MinBlockSize {
			return size
		}
		return MinBlockSize
	}
	return int(staging)
}

// BlockLimit caps size by the current staging RAM. When memory cannot be
// read size is returned unchanged.
func BlockLimit(size int) int {
	m, err := ReadMemory()
	if err != nil {
		return size
	}
	return m.CapBlock(size)
}

// FormatBytes formats bytes as human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
