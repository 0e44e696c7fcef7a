package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Mu-L/nn-vis/internal/system"
)

// HostDevice keeps buffer memory in host slices and records bindings
// instead of issuing them to a driver. It backs tests and machines
// without an OpenGL 4.3 context.
type HostDevice struct {
	name   string
	limits Limits

	mu      sync.RWMutex
	next    uint32
	mem     map[uint32][]byte
	storage map[int]Handle
	attribs map[int]AttributeBinding
	queries int
}

// AttributeBinding is a recorded vertex attribute binding
type AttributeBinding struct {
	Handle     Handle
	Components int
	Stride     int
	Offset     int
	Divisor    int
}

// NewHostDevice creates a host device with the given limits.
// Zero fields take the value from DefaultHostLimits, with the block size
// further capped by the host RAM free for staging; negative fields make
// QueryLimits fail.
func NewHostDevice(limits Limits) *HostDevice {
	if limits.MaxStorageBlockSize == 0 {
		limits.MaxStorageBlockSize = system.BlockLimit(DefaultHostLimits.MaxStorageBlockSize)
	}
	if limits.MaxStorageBindings == 0 {
		limits.MaxStorageBindings = DefaultHostLimits.MaxStorageBindings
	}
	if limits.MaxVertexAttribs == 0 {
		limits.MaxVertexAttribs = DefaultHostLimits.MaxVertexAttribs
	}
	return &HostDevice{
		name:    fmt.Sprintf("Host (%s)", runtime.GOARCH),
		limits:  limits,
		mem:     make(map[uint32][]byte),
		storage: make(map[int]Handle),
		attribs: make(map[int]AttributeBinding),
	}
}

func (d *HostDevice) Type() DeviceType { return DeviceTypeHost }
func (d *HostDevice) Name() string     { return d.name }

func (d *HostDevice) QueryLimits() (Limits, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries++
	if err := d.limits.Validate(); err != nil {
		return Limits{}, err
	}
	return d.limits, nil
}

// LimitQueries returns how many times QueryLimits has been called
func (d *HostDevice) LimitQueries() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.queries
}

func (d *HostDevice) CreateHandle() (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.mem[d.next] = nil
	return Handle{id: d.next}, nil
}

func (d *HostDevice) Upload(h Handle, target Target, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mem[h.id]; !ok {
		return fmt.Errorf("upload to %s buffer: %w", target, ErrUnknownHandle)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	d.mem[h.id] = buf
	return nil
}

func (d *HostDevice) Download(h Handle, target Target, size int) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	buf, ok := d.mem[h.id]
	if !ok {
		return nil, fmt.Errorf("download from %s buffer: %w", target, ErrUnknownHandle)
	}
	if size > len(buf) {
		return nil, fmt.Errorf("download %d bytes from %s buffer holding %d", size, target, len(buf))
	}
	out := make([]byte, size)
	copy(out, buf)
	return out, nil
}

func (d *HostDevice) Clear(h Handle, target Target, elem ElementType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.mem[h.id]
	if !ok {
		return fmt.Errorf("clear %s buffer: %w", target, ErrUnknownHandle)
	}
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (d *HostDevice) BindStorage(h Handle, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mem[h.id]; !ok {
		return fmt.Errorf("bind storage %d: %w", index, ErrUnknownHandle)
	}
	if index < 0 || index >= d.limits.MaxStorageBindings {
		return fmt.Errorf("storage binding %d of %d: %w", index, d.limits.MaxStorageBindings, ErrInvalidBindLocation)
	}
	d.storage[index] = h
	return nil
}

func (d *HostDevice) BindAttributes(h Handle, attrs []Attribute, stride, divisor int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mem[h.id]; !ok {
		return fmt.Errorf("bind attributes: %w", ErrUnknownHandle)
	}
	for _, a := range attrs {
		if a.Location < 0 || a.Location >= d.limits.MaxVertexAttribs {
			return fmt.Errorf("attribute location %d of %d: %w", a.Location, d.limits.MaxVertexAttribs, ErrInvalidBindLocation)
		}
	}
	for _, a := range attrs {
		d.attribs[a.Location] = AttributeBinding{
			Handle:     h,
			Components: a.Components,
			Stride:     stride,
			Offset:     a.Offset,
			Divisor:    divisor,
		}
	}
	return nil
}

// DeleteHandle releases h and, like a driver, unbinds it everywhere
func (d *HostDevice) DeleteHandle(h Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mem[h.id]; !ok {
		return fmt.Errorf("delete buffer: %w", ErrUnknownHandle)
	}
	delete(d.mem, h.id)
	for i, b := range d.storage {
		if b == h {
			delete(d.storage, i)
		}
	}
	for loc, a := range d.attribs {
		if a.Handle == h {
			delete(d.attribs, loc)
		}
	}
	return nil
}

// MemoryUsage returns the bytes held by live handles and the total
// system RAM
func (d *HostDevice) MemoryUsage() (int64, int64) {
	d.mu.RLock()
	var used int64
	for _, buf := range d.mem {
		used += int64(len(buf))
	}
	d.mu.RUnlock()

	m, err := system.ReadMemory()
	if err != nil {
		return used, 0
	}
	return used, m.Total
}

func (d *HostDevice) Free() error {
	d.mu.Lock()
	d.mem = make(map[uint32][]byte)
	d.storage = make(map[int]Handle)
	d.attribs = make(map[int]AttributeBinding)
	d.mu.Unlock()
	forgetLimits(d)
	return nil
}

// Contents returns a copy of the bytes held by h, or nil if h is unknown
func (d *HostDevice) Contents(h Handle) []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	buf, ok := d.mem[h.id]
	if !ok {
		return nil
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

// Live returns the number of handles that have not been deleted
func (d *HostDevice) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.mem)
}

// StorageBinding returns the handle bound at a storage index
func (d *HostDevice) StorageBinding(index int) (Handle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.storage[index]
	return h, ok
}

// AttributeAt returns the binding recorded for an attribute location
func (d *HostDevice) AttributeAt(location int) (AttributeBinding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.attribs[location]
	return a, ok
}
