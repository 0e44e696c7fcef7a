//go:build !gl || !cgo

package gpu

import "fmt"

// GLDevice stub for builds without the gl tag
type GLDevice struct{}

// NewGLDevice returns an error when OpenGL support is not compiled in
func NewGLDevice() (*GLDevice, error) {
	return nil, fmt.Errorf("OpenGL support requires CGO and the gl build tag (build with: go build -tags gl)")
}

func (d *GLDevice) Type() DeviceType             { return DeviceTypeGPU }
func (d *GLDevice) Name() string                 { return "OpenGL (unavailable)" }
func (d *GLDevice) QueryLimits() (Limits, error) { return Limits{}, ErrDeviceLimitQuery }
func (d *GLDevice) CreateHandle() (Handle, error) {
	return Handle{}, fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) Upload(h Handle, target Target, data []byte) error {
	return fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) Download(h Handle, target Target, size int) ([]byte, error) {
	return nil, fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) Clear(h Handle, target Target, elem ElementType) error {
	return fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) BindStorage(h Handle, index int) error {
	return fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) BindAttributes(h Handle, attrs []Attribute, stride, divisor int) error {
	return fmt.Errorf("OpenGL not available")
}
func (d *GLDevice) DeleteHandle(h Handle) error { return fmt.Errorf("OpenGL not available") }
func (d *GLDevice) MemoryUsage() (int64, int64) { return 0, 0 }
func (d *GLDevice) Free() error                 { return nil }
