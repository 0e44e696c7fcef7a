package buffer

import (
	"fmt"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/logging"
)

// SwappingBuffer holds two blocks of device memory for ping-pong passes:
// a pass reads "current" and writes "previous", then Swap exchanges the
// roles without moving any memory.
type SwappingBuffer struct {
	Buffer

	previous     gpu.Handle
	previousSize int
}

// NewSwapping allocates both halves of a swapping buffer
func NewSwapping(dev gpu.Device, storage bool, objectSize int, offsets, widths []int) (*SwappingBuffer, error) {
	b, err := New(dev, storage, objectSize, offsets, widths)
	if err != nil {
		return nil, err
	}

	prev, err := dev.CreateHandle()
	if err != nil {
		if delErr := dev.DeleteHandle(b.handle); delErr != nil {
			logging.Warnf("Releasing half-built swapping buffer: %v", delErr)
		}
		return nil, fmt.Errorf("creating swap buffer: %w", err)
	}
	return &SwappingBuffer{Buffer: *b, previous: prev}, nil
}

// Swap exchanges the current and previous roles
func (s *SwappingBuffer) Swap() {
	s.handle, s.previous = s.previous, s.handle
	s.size, s.previousSize = s.previousSize, s.size
}

// Load replaces the current contents. When the previous half has a
// different size it is reallocated zero-filled to match, so a pass can
// write its output there.
func (s *SwappingBuffer) Load(data []byte) error {
	if err := s.Buffer.Load(data); err != nil {
		return err
	}
	if s.previousSize != len(data) {
		if err := s.dev.Upload(s.previous, s.target(), make([]byte, len(data))); err != nil {
			return err
		}
		s.previousSize = len(data)
	}
	return nil
}

// LoadFloat32 loads a flat float slice into the current half
func (s *SwappingBuffer) LoadFloat32(data []float32) error {
	return s.Load(gpu.Float32Bytes(data))
}

// Bind attaches the buffer. As storage, current is bound at location and
// previous at location+1, and when location+1 is past the device's last
// storage binding nothing is bound. For rendering only current is bound.
func (s *SwappingBuffer) Bind(location int, rendering bool, divisor int) error {
	if s.deleted {
		return ErrDeleted
	}
	if rendering || !s.storage {
		return s.Buffer.Bind(location, rendering, divisor)
	}
	if location < 0 || location+2 > s.bindings {
		return fmt.Errorf("binding swapping buffer at %d with %d storage bindings: %w",
			location, s.bindings, gpu.ErrInvalidBindLocation)
	}
	if err := s.dev.BindStorage(s.handle, location); err != nil {
		return err
	}
	return s.dev.BindStorage(s.previous, location+1)
}

// Clear zeroes both halves
func (s *SwappingBuffer) Clear() error {
	if err := s.Buffer.Clear(); err != nil {
		return err
	}
	return s.dev.Clear(s.previous, s.target(), gpu.Float32)
}

// Delete releases both halves
func (s *SwappingBuffer) Delete() error {
	if err := s.Buffer.Delete(); err != nil {
		return err
	}
	return s.dev.DeleteHandle(s.previous)
}
