package gpu

import (
	"errors"
	"testing"
)

func TestGetDefaultDevice(t *testing.T) {
	dev, err := GetDefaultDevice(Limits{})
	if err != nil {
		t.Fatalf("GetDefaultDevice failed: %v", err)
	}
	defer dev.Free()

	if dev.Name() == "" {
		t.Error("Device name is empty")
	}
	t.Logf("Default device: %s (type: %v)", dev.Name(), dev.Type())
}

func TestGetHostDevice(t *testing.T) {
	for _, name := range []string{"host", "cpu", " HOST "} {
		dev, err := GetDevice(name, Limits{})
		if err != nil {
			t.Fatalf("GetDevice(%q) failed: %v", name, err)
		}
		if dev.Type() != DeviceTypeHost {
			t.Errorf("GetDevice(%q): expected host device, got %v", name, dev.Type())
		}
		dev.Free()
	}
}

func TestGetDeviceUnknown(t *testing.T) {
	if _, err := GetDevice("vulkan", Limits{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestGetGLDevice(t *testing.T) {
	dev, err := GetDevice("gl", Limits{})
	if err != nil {
		t.Skipf("OpenGL device not available: %v", err)
	}
	defer dev.Free()

	if dev.Type() != DeviceTypeGPU {
		t.Errorf("Expected GPU device, got %v", dev.Type())
	}

	l, err := CachedLimits(dev)
	if err != nil {
		t.Fatalf("CachedLimits failed: %v", err)
	}
	t.Logf("OpenGL device %s: %+v", dev.Name(), l)
}

func TestDeviceTypeString(t *testing.T) {
	tests := []struct {
		dt   DeviceType
		want string
	}{
		{DeviceTypeHost, "Host"},
		{DeviceTypeGPU, "GPU"},
		{DeviceType(999), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.dt.String()
		if got != tt.want {
			t.Errorf("DeviceType(%d).String() = %s, want %s", tt.dt, got, tt.want)
		}
	}
}

func TestTargetAndElementStrings(t *testing.T) {
	if TargetStorage.String() != "storage" || TargetArray.String() != "array" {
		t.Errorf("unexpected target names: %s, %s", TargetStorage, TargetArray)
	}
	for _, e := range []ElementType{Float32, Int32, Uint32} {
		if e.Size() != 4 {
			t.Errorf("%s size = %d, want 4", e, e.Size())
		}
	}
}

func TestCachedLimitsQueriesOnce(t *testing.T) {
	dev := NewHostDevice(Limits{MaxStorageBlockSize: 1000, MaxStorageBindings: 4})
	defer dev.Free()

	for i := 0; i < 5; i++ {
		l, err := CachedLimits(dev)
		if err != nil {
			t.Fatalf("CachedLimits failed: %v", err)
		}
		if l.MaxStorageBlockSize != 1000 || l.MaxStorageBindings != 4 {
			t.Fatalf("unexpected limits: %+v", l)
		}
		if l.MaxVertexAttribs != DefaultHostLimits.MaxVertexAttribs {
			t.Errorf("MaxVertexAttribs = %d, want default %d", l.MaxVertexAttribs, DefaultHostLimits.MaxVertexAttribs)
		}
	}

	if n := dev.LimitQueries(); n != 1 {
		t.Errorf("device queried %d times, want 1", n)
	}
}

func TestCachedLimitsFailure(t *testing.T) {
	dev := NewHostDevice(Limits{MaxStorageBlockSize: -1})
	defer dev.Free()

	_, err := CachedLimits(dev)
	if !errors.Is(err, ErrDeviceLimitQuery) {
		t.Fatalf("expected ErrDeviceLimitQuery, got %v", err)
	}
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{1, -2.5, 3.25, 0}
	b := Float32Bytes(in)
	if len(b) != 16 {
		t.Fatalf("len = %d, want 16", len(b))
	}

	out := BytesFloat32(b)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("value %d: got %v, want %v", i, out[i], in[i])
		}
	}

	if Float32Bytes(nil) != nil {
		t.Error("expected nil bytes for nil input")
	}
	if BytesFloat32([]byte{1, 2, 3}) != nil {
		t.Error("expected nil floats for a partial word")
	}
}
