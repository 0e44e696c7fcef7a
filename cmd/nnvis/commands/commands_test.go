package commands

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/network"
)

// writeConfig writes a host-device config with a small storage block so
// edge records overflow into several chunks
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `network:
  layers: [4, 9, 4]
  num_classes: 4
device:
  backend: host
  max_storage_block_size: 4096
  max_storage_bindings: 2
logging:
  file: ""
  console: false
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"device", []string{"device"}, false},
		{"layout", []string{"layout"}, false},
		{"custom layout", []string{"layout", "--fields", "4", "--extra", "6"}, false},
		{"upload", []string{"upload"}, false},
		{"upload layers", []string{"upload", "--layers", "3,5,2"}, false},
		{"unknown backend", []string{"device", "--device", "vulkan"}, true},
		{"version", []string{"version"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd.SetArgs(append(tt.args, "--config", cfgPath))
			err := rootCmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestLayoutRow(t *testing.T) {
	row := layoutRow("edge", 8, 8)
	want := []string{"edge", "8+8", "16", "0", "64 B", "[0 4 8 12]"}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("column %d = %q, want %q", i, row[i], w)
		}
	}

	row = layoutRow("custom", 4, 6)
	if row[2] != "12" || row[3] != "2" {
		t.Errorf("4+6 fields: object size %s, padding %s", row[2], row[3])
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Buffer", "Chunks"}, [][]string{{"edges", "3"}, {"nodes", "1"}})
	for _, want := range []string{"Buffer", "Chunks", "edges", "nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	var edgesLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "edges") {
			edgesLine = line
		}
	}
	if !strings.Contains(edgesLine, "3") {
		t.Errorf("edges row does not hold its chunk count: %q", edgesLine)
	}
}

func TestUploadStepsReleaseBuffers(t *testing.T) {
	dev := gpu.NewHostDevice(gpu.Limits{MaxStorageBlockSize: 4096, MaxStorageBindings: 2})
	defer dev.Free()

	net, err := network.Generate([]int{4, 9, 4}, 4, network.Placement{LayerDistance: 1, LayerWidth: 1},
		rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	nodes, err := uploadNodes(dev, net)
	if err != nil {
		t.Fatalf("uploadNodes failed: %v", err)
	}
	edges, err := uploadEdges(dev, net, 10)
	if err != nil {
		t.Fatalf("uploadEdges failed: %v", err)
	}
	samples, err := uploadSamples(dev, net)
	if err != nil {
		t.Fatalf("uploadSamples failed: %v", err)
	}
	if edges.chunks != 2 || edges.objects != 72 {
		t.Errorf("edges: %d chunks, %d objects; want 2, 72", edges.chunks, edges.objects)
	}

	for _, r := range []report{nodes, edges, samples} {
		if err := r.release(); err != nil {
			t.Errorf("releasing %s: %v", r.name, err)
		}
	}
	if dev.Live() != 0 {
		t.Errorf("Live = %d after release, want 0", dev.Live())
	}
	if used, _ := dev.MemoryUsage(); used != 0 {
		t.Errorf("%d bytes held after release", used)
	}
}

func TestUploadStepReleasesOnFailure(t *testing.T) {
	// 17 node records of 48 bytes do not fit in one 512-byte block
	dev := gpu.NewHostDevice(gpu.Limits{MaxStorageBlockSize: 512})
	defer dev.Free()

	net, _ := network.Generate([]int{4, 9, 4}, 4, network.Placement{}, rand.New(rand.NewSource(1)))
	if _, err := uploadNodes(dev, net); err == nil {
		t.Fatal("expected capacity error")
	}
	if dev.Live() != 0 {
		t.Errorf("Live = %d after failed upload, want 0", dev.Live())
	}
}
