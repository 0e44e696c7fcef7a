package buffer

import (
	"errors"
	"fmt"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/layout"
)

var (
	// ErrDeleted is returned by every operation on a deleted buffer
	ErrDeleted = errors.New("buffer has been deleted")

	// ErrChunkIndex is returned for a chunk index outside the loaded chunks
	ErrChunkIndex = errors.New("chunk index out of range")

	// ErrSplitContract is returned when a splitting function returns a
	// chunk larger than its budget or the chunks do not cover the data
	ErrSplitContract = errors.New("splitting function contract violated")
)

// record is the fixed shape of one object in a buffer and how it is
// exposed as vertex attributes
type record struct {
	objectSize int
	offsets    []int
	widths     []int
}

func newRecord(objectSize int, offsets, widths []int) (record, error) {
	if objectSize <= 0 {
		objectSize = layout.WordsPerAttribute
	}
	if offsets == nil {
		offsets = []int{0}
	}
	if widths == nil {
		widths = []int{layout.WordsPerAttribute}
	}
	if len(offsets) != len(widths) {
		return record{}, fmt.Errorf("%d attribute offsets but %d widths", len(offsets), len(widths))
	}
	for i, off := range offsets {
		if off < 0 || off+widths[i] > objectSize {
			return record{}, fmt.Errorf("attribute %d (offset %d, width %d) outside object of %d words",
				i, off, widths[i], objectSize)
		}
	}
	return record{objectSize: objectSize, offsets: offsets, widths: widths}, nil
}

// stride returns the record size in bytes
func (r record) stride() int {
	return r.objectSize * layout.WordSize
}

func (r record) objects(size int) int {
	return size / r.stride()
}

// attributes returns one attribute per offset/width pair, in consecutive
// locations starting at location
func (r record) attributes(location int) []gpu.Attribute {
	attrs := make([]gpu.Attribute, len(r.offsets))
	for i, off := range r.offsets {
		attrs[i] = gpu.Attribute{
			Location:   location + i,
			Components: r.widths[i],
			Offset:     off * layout.WordSize,
		}
	}
	return attrs
}

func (r record) bindAttributes(dev gpu.Device, h gpu.Handle, location, divisor int) error {
	return dev.BindAttributes(h, r.attributes(location), r.stride(), divisor)
}
