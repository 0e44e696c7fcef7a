package buffer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/logging"
)

var errInjected = errors.New("injected device failure")

// faultyDevice wraps a host device and fails selected calls. creates and
// uploads count the calls allowed to succeed; negative means unlimited.
type faultyDevice struct {
	*gpu.HostDevice
	creates   int
	uploads   int
	deleteErr error
}

func newFaultyDevice(t *testing.T, capacity, bindings int) *faultyDevice {
	return &faultyDevice{HostDevice: newDevice(t, capacity, bindings), creates: -1, uploads: -1}
}

func (d *faultyDevice) CreateHandle() (gpu.Handle, error) {
	if d.creates == 0 {
		return gpu.Handle{}, errInjected
	}
	d.creates--
	return d.HostDevice.CreateHandle()
}

func (d *faultyDevice) Upload(h gpu.Handle, target gpu.Target, data []byte) error {
	if d.uploads == 0 {
		return errInjected
	}
	d.uploads--
	return d.HostDevice.Upload(h, target, data)
}

func (d *faultyDevice) DeleteHandle(h gpu.Handle) error {
	if err := d.HostDevice.DeleteHandle(h); err != nil {
		return err
	}
	return d.deleteErr
}

func TestOverflowingFailedUploadLeavesBufferEmpty(t *testing.T) {
	dev := newFaultyDevice(t, 1000, 8)
	o, err := NewOverflowing(dev, nil, 12, nil, nil)
	if err != nil {
		t.Fatalf("NewOverflowing failed: %v", err)
	}
	if err := o.Load(records(45, 12)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// second chunk of the next load fails after the first was replaced
	next := records(50, 12)[48*5:]
	dev.uploads = 1
	if err := o.Load(next); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if o.Chunks() != 0 || o.Size() != 0 {
		t.Errorf("Chunks = %d, Size = %d after failed load; want 0, 0", o.Chunks(), o.Size())
	}
	for i := 0; i < o.Handles(); i++ {
		if o.ChunkSize(i) != 0 {
			t.Errorf("chunk %d keeps size %d", i, o.ChunkSize(i))
		}
	}
	if got, err := o.Read(); err != nil || len(got) != 0 {
		t.Errorf("Read after failed load = %d bytes, %v", len(got), err)
	}
	if o.Handles() != 3 {
		t.Errorf("Handles = %d, want 3 retained", o.Handles())
	}

	dev.uploads = -1
	if err := o.Load(next); err != nil {
		t.Fatalf("Load after failure: %v", err)
	}
	if got, _ := o.Read(); !bytes.Equal(got, next) {
		t.Error("Read after recovery did not reproduce the data")
	}
}

func TestNewSwappingReleasesFirstHalf(t *testing.T) {
	dev := newFaultyDevice(t, 4096, 8)
	dev.creates = 1

	if _, err := NewSwapping(dev, true, 4, nil, nil); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if dev.Live() != 0 {
		t.Errorf("Live = %d, want the first half released", dev.Live())
	}
}

func TestNewSwappingLogsReleaseFailure(t *testing.T) {
	if err := logging.Init("warn", "", false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	var out bytes.Buffer
	logging.Get().SetOutput(&out)

	dev := newFaultyDevice(t, 4096, 8)
	dev.creates = 1
	dev.deleteErr = errors.New("driver lost buffer")

	if _, err := NewSwapping(dev, true, 4, nil, nil); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if !strings.Contains(out.String(), "driver lost buffer") {
		t.Errorf("release failure not logged: %q", out.String())
	}
}
