package gpu

// Handle identifies one block of device memory. The underlying id never
// leaves this package; buffers hold handles and hand them back to the
// device that created them.
type Handle struct {
	id uint32
}

// Valid reports whether h refers to allocated memory
func (h Handle) Valid() bool {
	return h.id != 0
}
