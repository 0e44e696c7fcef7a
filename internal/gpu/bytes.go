package gpu

import "unsafe"

// Float32Bytes returns the native-endian bytes of v without copying
func Float32Bytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

// BytesFloat32 copies b into a new float32 slice. Trailing bytes that do
// not form a whole float are dropped.
func BytesFloat32(b []byte) []float32 {
	n := len(b) / 4
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*4), b)
	return out
}
