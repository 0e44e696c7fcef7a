package buffer_test

import (
	"fmt"
	"log"

	"github.com/Mu-L/nn-vis/internal/buffer"
	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/layout"
)

// Example of spreading records over several storage blocks
func Example_overflowing() {
	// A device whose storage blocks hold 1000 bytes
	dev := gpu.NewHostDevice(gpu.Limits{MaxStorageBlockSize: 1000})
	defer dev.Free()

	// 4 class fields + 6 extra fields pad to 12 words (48 bytes)
	l := layout.Attributes(4, 6)
	o, err := buffer.NewOverflowing(dev, nil, l.ObjectSize, l.Offsets, l.Widths)
	if err != nil {
		log.Fatal(err)
	}
	defer o.Delete()

	// 45 records do not fit in one block
	if err := o.LoadFloat32(make([]float32, 45*l.ObjectSize)); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < o.Chunks(); i++ {
		fmt.Printf("chunk %d: %d records, %d bytes\n", i, o.Objects(i), o.ChunkSize(i))
	}

	// Output:
	// chunk 0: 20 records, 960 bytes
	// chunk 1: 20 records, 960 bytes
	// chunk 2: 5 records, 240 bytes
}

// Example of double buffering for iterative compute passes
func Example_swapping() {
	dev := gpu.NewHostDevice(gpu.Limits{})
	defer dev.Free()

	s, err := buffer.NewSwapping(dev, true, 4, nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Delete()

	s.LoadFloat32([]float32{1, 2, 3, 4})
	s.Swap()
	s.LoadFloat32([]float32{5, 6, 7, 8})

	// storage: current at 0, previous at 1
	s.Bind(0, false, 0)

	current, _ := s.ReadFloat32()
	s.Swap()
	previous, _ := s.ReadFloat32()
	fmt.Println(current, previous)

	// Output:
	// [5 6 7 8] [1 2 3 4]
}
