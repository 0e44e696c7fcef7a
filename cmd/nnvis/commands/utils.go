package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Mu-L/nn-vis/internal/config"
	"github.com/Mu-L/nn-vis/internal/gpu"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7B68EE")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D4FF"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7FFF00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// GetDeviceFromConfig returns the device selected by the device section
func GetDeviceFromConfig(c config.DeviceConfig) (gpu.Device, error) {
	limits := gpu.Limits{
		MaxStorageBlockSize: c.MaxStorageBlockSize,
		MaxStorageBindings:  c.MaxStorageBindings,
		MaxVertexAttribs:    c.MaxVertexAttribs,
	}

	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	dev, err := gpu.GetDevice(backend, limits)
	if err != nil {
		if backend == "gl" {
			return nil, fmt.Errorf("OpenGL not available: %w\nUse --device host to run without a GPU", err)
		}
		return nil, err
	}
	return dev, nil
}

// GetDeviceName returns a human-readable device name
func GetDeviceName(dev gpu.Device) string {
	switch dev.Type() {
	case gpu.DeviceTypeHost:
		return fmt.Sprintf("%s (host memory)", dev.Name())
	case gpu.DeviceTypeGPU:
		return fmt.Sprintf("%s (OpenGL)", dev.Name())
	default:
		return dev.Name()
	}
}

// renderTable renders a bordered table with a styled header row
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	return t.Render()
}
