package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/system"
)

var deviceInfoCmd = &cobra.Command{
	Use:   "device",
	Short: "Show device information",
	Long: `Display the selected buffer device and the limits that drive buffer
sizing: the largest storage block, the number of storage binding indices
and the number of vertex attribute locations.`,
	RunE: runDeviceInfo,
}

func init() {
	rootCmd.AddCommand(deviceInfoCmd)
}

func runDeviceInfo(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("nnvis Device Information"))
	fmt.Printf("Backend: %s\n\n", cfg.Device.Backend)

	dev, err := GetDeviceFromConfig(cfg.Device)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Device Error: %v", err)))
		return err
	}
	defer dev.Free()

	fmt.Println(okStyle.Render("Device: " + GetDeviceName(dev)))
	fmt.Printf("   Type: %s\n", dev.Type())
	fmt.Printf("   Platform: %s/%s\n\n", runtime.GOOS, runtime.GOARCH)

	limits, err := gpu.CachedLimits(dev)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Limit query failed: %v", err)))
		return err
	}
	fmt.Println(renderTable([]string{"Limit", "Value"}, [][]string{
		{"Max storage block size", system.FormatBytes(int64(limits.MaxStorageBlockSize))},
		{"Storage bindings", fmt.Sprint(limits.MaxStorageBindings)},
		{"Vertex attributes", fmt.Sprint(limits.MaxVertexAttribs)},
	}))

	used, total := dev.MemoryUsage()
	fmt.Println("Memory:")
	fmt.Printf("   Buffers: %s\n", system.FormatBytes(used))
	if total > 0 {
		fmt.Printf("   Total: %s\n", system.FormatBytes(total))
	}
	if m, err := system.ReadMemory(); err == nil {
		fmt.Printf("   Staging RAM: %s\n", system.FormatBytes(m.Staging()))
	}
	fmt.Printf("   CPUs: %d\n", runtime.NumCPU())

	return nil
}
