package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mu-L/nn-vis/internal/layout"
	"github.com/Mu-L/nn-vis/internal/network"
)

var (
	layoutFields int
	layoutExtra  int
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show the aligned record layout for a field count",
	Long: `Compute the record size, padding and vec4 attribute offsets for
records of --fields variable fields plus --extra fixed fields. Without
flags the node and edge layouts of the configured network are shown.`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().IntVar(&layoutFields, "fields", -1, "number of variable fields")
	layoutCmd.Flags().IntVar(&layoutExtra, "extra", 0, "number of fixed extra fields")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	var rows [][]string

	if layoutFields >= 0 {
		rows = append(rows, layoutRow("custom", layoutFields, layoutExtra))
	} else {
		classes := cfg.Network.NumClasses
		rows = append(rows,
			layoutRow("node", classes, network.AdditionalNodeData),
			layoutRow("edge", 2*classes, network.AdditionalEdgeData),
			layoutRow("sample", 8, 0),
		)
	}

	fmt.Println(titleStyle.Render("Record layouts"))
	fmt.Println(renderTable([]string{"Record", "Fields", "Object size", "Padding", "Stride", "Offsets"}, rows))
	return nil
}

func layoutRow(name string, fields, extra int) []string {
	l := layout.Attributes(fields, extra)
	return []string{
		name,
		fmt.Sprintf("%d+%d", fields, extra),
		fmt.Sprint(l.ObjectSize),
		fmt.Sprint(layout.Padding(fields, extra)),
		fmt.Sprintf("%d B", l.Stride()),
		fmt.Sprint(l.Offsets),
	}
}
