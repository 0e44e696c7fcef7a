package buffer

import (
	"fmt"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/logging"
)

// SplitFunc returns the bytes of chunk number chunk of data. It must be
// pure, must not return more than budget bytes, and the chunks for
// 0..n-1 must cover data in order.
type SplitFunc func(data []byte, chunk, budget int) []byte

// RecordSplitter splits data on whole-record boundaries for records of
// objectSize words.
func RecordSplitter(objectSize int) SplitFunc {
	stride := objectSize * 4
	return func(data []byte, chunk, budget int) []byte {
		if stride <= 0 {
			return nil
		}
		per := budget / stride * stride
		start := chunk * per
		if per == 0 || start >= len(data) {
			return nil
		}
		end := start + per
		if end > len(data) {
			end = len(data)
		}
		return data[start:end]
	}
}

// OverflowingBuffer spreads a dataset that does not fit in one device
// storage block over as many blocks as needed. Chunk i always holds the
// i-th slice of the data.
//
// Handles are never released by a load: when a later load needs fewer
// chunks the extra handles are kept for reuse with a size of zero and are
// skipped by Read and BindConsecutive. Delete releases all of them.
type OverflowingBuffer struct {
	dev    gpu.Device
	record record
	split  SplitFunc
	elem   gpu.ElementType

	handles []gpu.Handle
	sizes   []int
	active  int
	total   int

	capacity    int
	maxBindings int
	deleted     bool
}

// NewOverflowing creates an overflowing buffer with one handle. A nil
// split uses RecordSplitter for the object size.
func NewOverflowing(dev gpu.Device, split SplitFunc, objectSize int, offsets, widths []int) (*OverflowingBuffer, error) {
	rec, err := newRecord(objectSize, offsets, widths)
	if err != nil {
		return nil, err
	}
	limits, err := gpu.CachedLimits(dev)
	if err != nil {
		return nil, err
	}
	if split == nil {
		split = RecordSplitter(rec.objectSize)
	}

	h, err := dev.CreateHandle()
	if err != nil {
		return nil, fmt.Errorf("creating buffer: %w", err)
	}
	return &OverflowingBuffer{
		dev:         dev,
		record:      rec,
		split:       split,
		handles:     []gpu.Handle{h},
		sizes:       []int{0},
		active:      1,
		capacity:    limits.MaxStorageBlockSize,
		maxBindings: limits.MaxStorageBindings,
	}, nil
}

// budget is the largest chunk that holds whole records and fits in one
// storage block
func (o *OverflowingBuffer) budget() int {
	stride := o.record.stride()
	if b := o.capacity / stride * stride; b > 0 {
		return b
	}
	return o.capacity
}

// grow allocates handles until there are at least n
func (o *OverflowingBuffer) grow(n int) error {
	for len(o.handles) < n {
		h, err := o.dev.CreateHandle()
		if err != nil {
			return fmt.Errorf("creating chunk %d: %w", len(o.handles), err)
		}
		o.handles = append(o.handles, h)
		o.sizes = append(o.sizes, 0)
	}
	return nil
}

// upload writes chunks to the first len(chunks) handles and marks the
// rest inactive. A failed upload has already overwritten earlier chunks,
// so the buffer is left empty rather than half old and half new.
func (o *OverflowingBuffer) upload(chunks [][]byte) error {
	if err := o.grow(len(chunks)); err != nil {
		return err
	}
	for i, c := range chunks {
		if err := o.dev.Upload(o.handles[i], gpu.TargetStorage, c); err != nil {
			o.reset()
			return fmt.Errorf("uploading chunk %d: %w", i, err)
		}
	}

	o.reset()
	for i, c := range chunks {
		o.sizes[i] = len(c)
		o.total += len(c)
	}
	o.active = len(chunks)
	return nil
}

// reset marks every chunk empty
func (o *OverflowingBuffer) reset() {
	for i := range o.sizes {
		o.sizes[i] = 0
	}
	o.active = 0
	o.total = 0
}

// Load uploads data, splitting it over several handles when it exceeds
// the device storage block size. Every chunk is produced and checked
// before anything is uploaded.
func (o *OverflowingBuffer) Load(data []byte) error {
	if o.deleted {
		return ErrDeleted
	}
	if len(data) <= o.capacity {
		return o.upload([][]byte{data})
	}

	budget := o.budget()
	n := (len(data) + budget - 1) / budget
	chunks := make([][]byte, n)
	sum := 0
	for i := range chunks {
		c := o.split(data, i, budget)
		if len(c) > budget {
			return fmt.Errorf("%w: chunk %d is %d bytes, budget %d: %w",
				ErrSplitContract, i, len(c), budget, gpu.ErrCapacityExceeded)
		}
		chunks[i] = c
		sum += len(c)
	}
	if sum != len(data) {
		return fmt.Errorf("%w: %d chunks cover %d of %d bytes", ErrSplitContract, n, sum, len(data))
	}

	logging.Debugf("Split %d bytes into %d buffers of at most %d bytes", len(data), n, budget)
	return o.upload(chunks)
}

// LoadFloat32 loads a flat float slice
func (o *OverflowingBuffer) LoadFloat32(data []float32) error {
	return o.Load(gpu.Float32Bytes(data))
}

// LoadEmpty allocates zero-filled memory for count records of elem words,
// for use as the output of a compute pass. Records are kept together in
// groups of groupSize; a group never straddles two chunks.
func (o *OverflowingBuffer) LoadEmpty(elem gpu.ElementType, count, groupSize int) error {
	if o.deleted {
		return ErrDeleted
	}
	if count < 0 {
		count = 0
	}
	if groupSize <= 0 {
		groupSize = 1
	}
	o.elem = elem

	stride := o.record.objectSize * elem.Size()
	total := count * stride
	if total <= o.capacity {
		return o.upload([][]byte{make([]byte, total)})
	}

	groupBytes := groupSize * stride
	perChunk := o.capacity / groupBytes
	if perChunk == 0 {
		return fmt.Errorf("group of %d records is %d bytes (max %d bytes): %w",
			groupSize, groupBytes, o.capacity, gpu.ErrCapacityExceeded)
	}
	groups := (count + groupSize - 1) / groupSize
	n := (groups + perChunk - 1) / perChunk
	logging.Infof("Data split into %d buffers", n)

	zeros := make([]byte, perChunk*groupBytes)
	chunks := make([][]byte, n)
	for i := range chunks {
		start := i * perChunk * groupBytes
		end := start + perChunk*groupBytes
		if end > total {
			end = total
		}
		chunks[i] = zeros[:end-start]
	}
	return o.upload(chunks)
}

// Read downloads every loaded chunk in order and concatenates them
func (o *OverflowingBuffer) Read() ([]byte, error) {
	if o.deleted {
		return nil, ErrDeleted
	}
	out := make([]byte, 0, o.total)
	for i := 0; i < o.active; i++ {
		data, err := o.dev.Download(o.handles[i], gpu.TargetStorage, o.sizes[i])
		if err != nil {
			return nil, fmt.Errorf("reading chunk %d: %w", i, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// ReadFloat32 reads the buffer as floats
func (o *OverflowingBuffer) ReadFloat32() ([]float32, error) {
	data, err := o.Read()
	if err != nil {
		return nil, err
	}
	return gpu.BytesFloat32(data), nil
}

// BindSingle binds one chunk, either as a vertex attribute stream starting
// at location or as storage block location. Callers iterate chunks this
// way when one draw or dispatch cannot span several buffers.
func (o *OverflowingBuffer) BindSingle(chunk, location int, rendering bool, divisor int) error {
	if o.deleted {
		return ErrDeleted
	}
	if chunk < 0 || chunk >= o.active {
		return fmt.Errorf("binding chunk %d of %d: %w", chunk, o.active, ErrChunkIndex)
	}
	if rendering {
		return o.record.bindAttributes(o.dev, o.handles[chunk], location, divisor)
	}
	return o.dev.BindStorage(o.handles[chunk], location)
}

// BindConsecutive binds every loaded chunk as storage blocks
// location, location+1, ... It fails without binding anything when the
// last index would exceed the device's storage binding count.
func (o *OverflowingBuffer) BindConsecutive(location int) error {
	if o.deleted {
		return ErrDeleted
	}
	if location < 0 || location+o.active > o.maxBindings {
		return fmt.Errorf("binding %d chunks at %d with %d storage bindings: %w",
			o.active, location, o.maxBindings, gpu.ErrInvalidBindLocation)
	}
	for i := 0; i < o.active; i++ {
		if err := o.dev.BindStorage(o.handles[i], location+i); err != nil {
			return err
		}
	}
	return nil
}

// Clear zeroes every owned handle
func (o *OverflowingBuffer) Clear() error {
	if o.deleted {
		return ErrDeleted
	}
	for i, h := range o.handles {
		if err := o.dev.Clear(h, gpu.TargetStorage, o.elem); err != nil {
			return fmt.Errorf("clearing chunk %d: %w", i, err)
		}
	}
	return nil
}

// Delete releases every owned handle, including retained ones
func (o *OverflowingBuffer) Delete() error {
	if o.deleted {
		return ErrDeleted
	}
	o.deleted = true

	var firstErr error
	for _, h := range o.handles {
		if err := o.dev.DeleteHandle(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.handles = nil
	o.sizes = nil
	o.active = 0
	o.total = 0
	return firstErr
}

// Objects returns the number of records held by one chunk
func (o *OverflowingBuffer) Objects(chunk int) int {
	if chunk < 0 || chunk >= len(o.sizes) {
		return 0
	}
	return o.record.objects(o.sizes[chunk])
}

// Chunks returns the number of chunks filled by the last load
func (o *OverflowingBuffer) Chunks() int {
	return o.active
}

// ChunkSize returns the byte size of one chunk
func (o *OverflowingBuffer) ChunkSize(chunk int) int {
	if chunk < 0 || chunk >= len(o.sizes) {
		return 0
	}
	return o.sizes[chunk]
}

// Handles returns the number of handles owned, including retained ones
func (o *OverflowingBuffer) Handles() int {
	return len(o.handles)
}

// Size returns the total bytes loaded
func (o *OverflowingBuffer) Size() int {
	return o.total
}

// MaxBindings returns the cached number of storage binding indices
func (o *OverflowingBuffer) MaxBindings() int {
	return o.maxBindings
}
