package gpu

import "errors"

var (
	// ErrCapacityExceeded is returned when data does not fit in one
	// storage block of the device
	ErrCapacityExceeded = errors.New("data exceeds device storage block size")

	// ErrDeviceLimitQuery is returned when the device limits cannot be read
	ErrDeviceLimitQuery = errors.New("device limit query failed")

	// ErrInvalidBindLocation is returned when a binding index or attribute
	// location is beyond what the device supports
	ErrInvalidBindLocation = errors.New("invalid bind location")

	// ErrUnknownHandle is returned for handles the device does not own
	ErrUnknownHandle = errors.New("unknown buffer handle")
)
