package gpu

import (
	"fmt"
	"strings"

	"github.com/Mu-L/nn-vis/internal/logging"
)

// Device is the graphics/compute device that owns buffer memory.
//
// Every call that touches a buffer names its binding target explicitly;
// implementations must not rely on whatever was bound by a previous call.
type Device interface {
	// Type returns the device type
	Type() DeviceType

	// Name returns a human-readable device name
	Name() string

	// QueryLimits reads the device limits. Callers should go through
	// CachedLimits so the device is only asked once.
	QueryLimits() (Limits, error)

	// CreateHandle allocates a new, empty block of device memory
	CreateHandle() (Handle, error)

	// Upload replaces the contents of h with data through the given target
	Upload(h Handle, target Target, data []byte) error

	// Download copies the first size bytes of h back to host memory
	Download(h Handle, target Target, size int) ([]byte, error)

	// Clear zeroes the contents of h without reallocating it
	Clear(h Handle, target Target, elem ElementType) error

	// BindStorage attaches h to the indexed storage block at index
	BindStorage(h Handle, index int) error

	// BindAttributes attaches h as a vertex attribute stream. Each
	// attribute is enabled at its location with the given record stride
	// in bytes; divisor 0 advances per vertex, n > 0 every n instances.
	BindAttributes(h Handle, attrs []Attribute, stride, divisor int) error

	// DeleteHandle releases the memory behind h
	DeleteHandle(h Handle) error

	// MemoryUsage returns current memory usage in bytes (used, total)
	MemoryUsage() (int64, int64)

	// Free releases the device and its context
	Free() error
}

// DeviceType represents the type of device
type DeviceType int

const (
	DeviceTypeHost DeviceType = iota
	DeviceTypeGPU
)

func (dt DeviceType) String() string {
	switch dt {
	case DeviceTypeHost:
		return "Host"
	case DeviceTypeGPU:
		return "GPU"
	default:
		return "Unknown"
	}
}

// Target selects the binding point a buffer operation goes through
type Target int

const (
	// TargetStorage is the shader storage buffer target
	TargetStorage Target = iota
	// TargetArray is the vertex array buffer target
	TargetArray
)

func (t Target) String() string {
	switch t {
	case TargetStorage:
		return "storage"
	case TargetArray:
		return "array"
	default:
		return "unknown"
	}
}

// ElementType is the scalar type stored in each word of a buffer
type ElementType int

const (
	Float32 ElementType = iota
	Int32
	Uint32
)

// Size returns the element size in bytes
func (e ElementType) Size() int {
	return 4
}

func (e ElementType) String() string {
	switch e {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	default:
		return "unknown"
	}
}

// Attribute describes one float vertex attribute inside a record
type Attribute struct {
	Location   int // attribute slot
	Components int // number of float components (1-4)
	Offset     int // byte offset inside the record
}

// GetDevice returns a device for the given backend name.
// Valid names are auto, host (or cpu) and gl (or gpu). The limits are
// only used by the host device; zero fields take the host defaults.
func GetDevice(backend string, limits Limits) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "auto":
		return GetDefaultDevice(limits)
	case "host", "cpu":
		return NewHostDevice(limits), nil
	case "gl", "gpu", "opengl":
		dev, err := NewGLDevice()
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		return nil, fmt.Errorf("unknown device backend: %s (valid: auto, host, gl)", backend)
	}
}

// GetDefaultDevice returns an OpenGL device when a context can be created
// and falls back to the host device otherwise.
func GetDefaultDevice(limits Limits) (Device, error) {
	dev, err := NewGLDevice()
	if err == nil {
		return dev, nil
	}
	logging.Debugf("OpenGL device unavailable, using host device: %v", err)
	return NewHostDevice(limits), nil
}
