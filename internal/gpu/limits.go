package gpu

import (
	"fmt"
	"sync"

	"github.com/Mu-L/nn-vis/internal/logging"
)

// Limits holds the device limits that drive buffer sizing and binding
type Limits struct {
	// MaxStorageBlockSize is the largest storage block in bytes
	MaxStorageBlockSize int `mapstructure:"max_storage_block_size"`

	// MaxStorageBindings is the number of storage binding indices
	MaxStorageBindings int `mapstructure:"max_storage_bindings"`

	// MaxVertexAttribs is the number of vertex attribute locations
	MaxVertexAttribs int `mapstructure:"max_vertex_attribs"`
}

// DefaultHostLimits mirrors the minimums OpenGL 4.3 guarantees
var DefaultHostLimits = Limits{
	MaxStorageBlockSize: 1 << 27,
	MaxStorageBindings:  8,
	MaxVertexAttribs:    16,
}

// Validate checks that every limit is usable
func (l Limits) Validate() error {
	if l.MaxStorageBlockSize <= 0 {
		return fmt.Errorf("%w: max storage block size %d", ErrDeviceLimitQuery, l.MaxStorageBlockSize)
	}
	if l.MaxStorageBindings <= 0 {
		return fmt.Errorf("%w: max storage bindings %d", ErrDeviceLimitQuery, l.MaxStorageBindings)
	}
	if l.MaxVertexAttribs <= 0 {
		return fmt.Errorf("%w: max vertex attribs %d", ErrDeviceLimitQuery, l.MaxVertexAttribs)
	}
	return nil
}

var (
	limitsMu    sync.Mutex
	limitsCache = make(map[Device]Limits)
)

// CachedLimits returns the limits of dev, querying the device only the
// first time. The values are fixed for the lifetime of the device.
func CachedLimits(dev Device) (Limits, error) {
	limitsMu.Lock()
	defer limitsMu.Unlock()

	if l, ok := limitsCache[dev]; ok {
		return l, nil
	}

	l, err := dev.QueryLimits()
	if err != nil {
		return Limits{}, fmt.Errorf("querying %s limits: %w", dev.Name(), err)
	}
	if err := l.Validate(); err != nil {
		return Limits{}, fmt.Errorf("querying %s limits: %w", dev.Name(), err)
	}

	logging.Debugf("Device %s: max storage block %d bytes, %d storage bindings, %d vertex attribs",
		dev.Name(), l.MaxStorageBlockSize, l.MaxStorageBindings, l.MaxVertexAttribs)
	limitsCache[dev] = l
	return l, nil
}

// forgetLimits drops the cached limits of a freed device
func forgetLimits(dev Device) {
	limitsMu.Lock()
	defer limitsMu.Unlock()
	delete(limitsCache, dev)
}
