package layout_test

import (
	"fmt"

	"github.com/Mu-L/nn-vis/internal/layout"
)

func ExampleAttributes() {
	l := layout.Attributes(4, 6)
	fmt.Println(l.ObjectSize, layout.Padding(4, 6), l.Offsets, l.Widths)
	// Output: 12 2 [0 4 8] [4 4 4]
}
