package buffer

import (
	"fmt"

	"github.com/Mu-L/nn-vis/internal/gpu"
)

// Buffer owns exactly one block of device memory. A storage buffer can be
// bound as an indexed storage block and read back; any buffer can be bound
// as a vertex attribute stream.
type Buffer struct {
	dev     gpu.Device
	handle  gpu.Handle
	storage bool
	record  record

	size     int // bytes uploaded by the last load
	capacity int // device storage block limit, storage buffers only
	bindings int // device storage binding count, storage buffers only
	deleted  bool
}

// New allocates a buffer on dev. objectSize is the record size in words;
// offsets and widths describe the vertex attributes inside a record and
// default to a single vec4 at offset 0.
func New(dev gpu.Device, storage bool, objectSize int, offsets, widths []int) (*Buffer, error) {
	rec, err := newRecord(objectSize, offsets, widths)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		dev:     dev,
		storage: storage,
		record:  rec,
	}
	if storage {
		limits, err := gpu.CachedLimits(dev)
		if err != nil {
			return nil, err
		}
		b.capacity = limits.MaxStorageBlockSize
		b.bindings = limits.MaxStorageBindings
	}

	b.handle, err = dev.CreateHandle()
	if err != nil {
		return nil, fmt.Errorf("creating buffer: %w", err)
	}
	return b, nil
}

func (b *Buffer) target() gpu.Target {
	if b.storage {
		return gpu.TargetStorage
	}
	return gpu.TargetArray
}

// Load replaces the buffer contents with data. A storage buffer refuses
// data larger than one device storage block and uploads nothing.
func (b *Buffer) Load(data []byte) error {
	if b.deleted {
		return ErrDeleted
	}
	if b.storage && len(data) > b.capacity {
		return fmt.Errorf("loading %d bytes into storage buffer (max %d bytes): %w",
			len(data), b.capacity, gpu.ErrCapacityExceeded)
	}
	if err := b.dev.Upload(b.handle, b.target(), data); err != nil {
		return err
	}
	b.size = len(data)
	return nil
}

// LoadFloat32 loads a flat float slice
func (b *Buffer) LoadFloat32(data []float32) error {
	return b.Load(gpu.Float32Bytes(data))
}

// Read downloads the full contents of a storage buffer. Render-only
// buffers cannot be read back and return nil.
func (b *Buffer) Read() ([]byte, error) {
	if b.deleted {
		return nil, ErrDeleted
	}
	if !b.storage {
		return nil, nil
	}
	return b.dev.Download(b.handle, gpu.TargetStorage, b.size)
}

// ReadFloat32 reads the buffer as floats
func (b *Buffer) ReadFloat32() ([]float32, error) {
	data, err := b.Read()
	if err != nil {
		return nil, err
	}
	return gpu.BytesFloat32(data), nil
}

// Bind attaches the buffer for a draw or a dispatch. With rendering set,
// or for a render-only buffer, each attribute goes to location+i with the
// given divisor. Otherwise the buffer is bound as storage block location.
func (b *Buffer) Bind(location int, rendering bool, divisor int) error {
	if b.deleted {
		return ErrDeleted
	}
	if rendering || !b.storage {
		return b.record.bindAttributes(b.dev, b.handle, location, divisor)
	}
	return b.dev.BindStorage(b.handle, location)
}

// Clear zeroes the contents in place
func (b *Buffer) Clear() error {
	if b.deleted {
		return ErrDeleted
	}
	return b.dev.Clear(b.handle, b.target(), gpu.Float32)
}

// Delete releases the device memory. The buffer cannot be used afterwards.
func (b *Buffer) Delete() error {
	if b.deleted {
		return ErrDeleted
	}
	b.deleted = true
	return b.dev.DeleteHandle(b.handle)
}

// Size returns the number of bytes uploaded by the last load
func (b *Buffer) Size() int {
	return b.size
}

// Objects returns the number of records held by the buffer
func (b *Buffer) Objects() int {
	return b.record.objects(b.size)
}

// Storage reports whether this is a storage buffer
func (b *Buffer) Storage() bool {
	return b.storage
}
