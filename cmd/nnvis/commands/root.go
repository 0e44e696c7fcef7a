package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mu-L/nn-vis/internal/config"
	"github.com/Mu-L/nn-vis/internal/logging"
)

var (
	cfgFile string
	verbose bool
	quiet   bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nnvis",
	Short: "GPU buffer tooling for neural network visualization",
	Long: `nnvis builds the node and edge records of a layered neural network
and moves them through GPU buffers: single storage or vertex buffers,
double-buffered swapping buffers, and overflowing buffers that split
datasets larger than one storage block over several buffers.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nnvis/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode")
	rootCmd.PersistentFlags().String("device", "", "device backend: auto, host, gl (overrides device.backend)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
}

// initConfig loads the configuration and sets up logging
func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if backend := viper.GetString("device"); backend != "" {
		cfg.Device.Backend = backend
	}

	level := cfg.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	if err := logging.Init(level, cfg.Logging.File, cfg.Logging.Console); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return logging.Init(level, "", cfg.Logging.Console)
	}
	return nil
}
