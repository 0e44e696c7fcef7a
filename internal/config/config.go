package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Network NetworkConfig `mapstructure:"network"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// NetworkConfig describes the network that is generated and uploaded
type NetworkConfig struct {
	Layers            []int   `mapstructure:"layers"`
	NumClasses        int     `mapstructure:"num_classes"`
	LayerDistance     float32 `mapstructure:"layer_distance"`
	LayerWidth        float32 `mapstructure:"layer_width"`
	PrunePercentage   float32 `mapstructure:"prune_percentage"`
	EdgeContainerSize int     `mapstructure:"edge_container_size"`
	Seed              int64   `mapstructure:"seed"`
}

// DeviceConfig selects the backend. The limits apply to the host device;
// zero keeps the built-in default.
type DeviceConfig struct {
	Backend             string `mapstructure:"backend"`
	MaxStorageBlockSize int    `mapstructure:"max_storage_block_size"`
	MaxStorageBindings  int    `mapstructure:"max_storage_bindings"`
	MaxVertexAttribs    int    `mapstructure:"max_vertex_attribs"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// Backends are the accepted device.backend values
var Backends = []string{"auto", "host", "gl"}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Network: NetworkConfig{
			Layers:            []int{4, 9, 4},
			NumClasses:        4,
			LayerDistance:     1.0,
			LayerWidth:        1.0,
			PrunePercentage:   0.0,
			EdgeContainerSize: 1000,
			Seed:              1,
		},
		Device: DeviceConfig{
			Backend: "auto",
		},
		Logging: LoggingConfig{
			Level:   "warn",
			File:    filepath.Join(home, ".nnvis", "nnvis.log"),
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".nnvis"))
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("NNVIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Logging.File = expandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	n := c.Network
	if len(n.Layers) == 0 {
		return errors.New("network.layers must not be empty")
	}
	for i, size := range n.Layers {
		if size <= 0 {
			return fmt.Errorf("network.layers[%d] must be positive", i)
		}
	}
	if n.NumClasses <= 0 {
		return errors.New("network.num_classes must be positive")
	}
	if n.PrunePercentage < 0 || n.PrunePercentage > 1 {
		return errors.New("network.prune_percentage must be between 0.0 and 1.0")
	}
	if n.EdgeContainerSize <= 0 {
		return errors.New("network.edge_container_size must be positive")
	}

	if !contains(Backends, c.Device.Backend) {
		return fmt.Errorf("device.backend must be one of: %v", Backends)
	}
	if c.Device.MaxStorageBlockSize < 0 || c.Device.MaxStorageBindings < 0 || c.Device.MaxVertexAttribs < 0 {
		return errors.New("device limits must not be negative")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("network.layers", cfg.Network.Layers)
	v.SetDefault("network.num_classes", cfg.Network.NumClasses)
	v.SetDefault("network.layer_distance", cfg.Network.LayerDistance)
	v.SetDefault("network.layer_width", cfg.Network.LayerWidth)
	v.SetDefault("network.prune_percentage", cfg.Network.PrunePercentage)
	v.SetDefault("network.edge_container_size", cfg.Network.EdgeContainerSize)
	v.SetDefault("network.seed", cfg.Network.Seed)

	v.SetDefault("device.backend", cfg.Device.Backend)
	v.SetDefault("device.max_storage_block_size", cfg.Device.MaxStorageBlockSize)
	v.SetDefault("device.max_storage_bindings", cfg.Device.MaxStorageBindings)
	v.SetDefault("device.max_vertex_attribs", cfg.Device.MaxVertexAttribs)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
