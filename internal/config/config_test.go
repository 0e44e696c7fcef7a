package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty layers", func(c *Config) { c.Network.Layers = nil }},
		{"zero layer", func(c *Config) { c.Network.Layers = []int{4, 0} }},
		{"no classes", func(c *Config) { c.Network.NumClasses = 0 }},
		{"prune", func(c *Config) { c.Network.PrunePercentage = 1.5 }},
		{"container", func(c *Config) { c.Network.EdgeContainerSize = 0 }},
		{"backend", func(c *Config) { c.Device.Backend = "metal" }},
		{"limits", func(c *Config) { c.Device.MaxStorageBindings = -1 }},
		{"level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `network:
  layers: [2, 3, 2]
  num_classes: 2
  edge_container_size: 4
  prune_percentage: 0.25
device:
  backend: host
  max_storage_block_size: 2048
logging:
  level: debug
  file: ""
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Network.Layers) != 3 || cfg.Network.Layers[1] != 3 {
		t.Errorf("Layers = %v", cfg.Network.Layers)
	}
	if cfg.Network.NumClasses != 2 || cfg.Network.EdgeContainerSize != 4 {
		t.Errorf("network = %+v", cfg.Network)
	}
	if cfg.Device.Backend != "host" || cfg.Device.MaxStorageBlockSize != 2048 {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.Network.PrunePercentage != 0.25 {
		t.Errorf("PrunePercentage = %v, want 0.25", cfg.Network.PrunePercentage)
	}
	if cfg.Network.LayerDistance != 1 || cfg.Network.Seed != 1 {
		t.Errorf("defaults not kept: %+v", cfg.Network)
	}
}

func TestLoadEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  file: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NNVIS_DEVICE_BACKEND", "host")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device.Backend != "host" {
		t.Errorf("Backend = %q, want host from environment", cfg.Device.Backend)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("device:\n  backend: vulkan\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown backend")
	}
}
