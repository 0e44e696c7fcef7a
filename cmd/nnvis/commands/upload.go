package commands

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/Mu-L/nn-vis/internal/buffer"
	"github.com/Mu-L/nn-vis/internal/gpu"
	"github.com/Mu-L/nn-vis/internal/logging"
	"github.com/Mu-L/nn-vis/internal/network"
	"github.com/Mu-L/nn-vis/internal/system"
)

var uploadLayers []int

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Generate the configured network and round-trip it through GPU buffers",
	Long: `Generate the configured network and upload it: node records to a
storage buffer, edge records to an overflowing buffer split over as many
storage blocks as the device needs, and edge sample positions to a
swapping buffer. Every buffer is bound, read back and compared with the
uploaded data.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().IntSliceVar(&uploadLayers, "layers", nil, "layer sizes (overrides network.layers)")
	rootCmd.AddCommand(uploadCmd)
}

// report is one row of the upload summary
type report struct {
	name    string
	kind    string
	chunks  int
	objects int
	size    int

	// release deletes the buffer behind the row
	release func() error
}

func runUpload(cmd *cobra.Command, args []string) error {
	nc := cfg.Network
	if len(uploadLayers) > 0 {
		nc.Layers = uploadLayers
	}

	dev, err := GetDeviceFromConfig(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Free()

	rng := rand.New(rand.NewSource(nc.Seed))
	placement := network.Placement{LayerDistance: nc.LayerDistance, LayerWidth: nc.LayerWidth}
	net, err := network.Generate(nc.Layers, nc.NumClasses, placement, rng)
	if err != nil {
		return err
	}
	if pruned := net.Prune(nc.PrunePercentage); pruned > 0 {
		logging.Infof("Pruned %d edges below %.0f%% importance", pruned, nc.PrunePercentage*100)
	}

	var reports []report
	defer func() {
		// buffers left over by a failed step
		for _, r := range reports {
			r.release()
		}
	}()
	for _, step := range []func() (report, error){
		func() (report, error) { return uploadNodes(dev, net) },
		func() (report, error) { return uploadEdges(dev, net, nc.EdgeContainerSize) },
		func() (report, error) { return uploadSamples(dev, net) },
	} {
		r, err := step()
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	var rows [][]string
	for _, r := range reports {
		rows = append(rows, []string{
			r.name, r.kind, fmt.Sprint(r.chunks), fmt.Sprint(r.objects), system.FormatBytes(int64(r.size)),
		})
	}
	used, _ := dev.MemoryUsage()

	released := reports
	reports = nil
	for _, r := range released {
		if err := r.release(); err != nil {
			return fmt.Errorf("deleting %s buffer: %w", r.name, err)
		}
	}
	left, _ := dev.MemoryUsage()

	fmt.Println(titleStyle.Render(fmt.Sprintf("Uploaded network %v to %s", nc.Layers, GetDeviceName(dev))))
	fmt.Println(renderTable([]string{"Buffer", "Kind", "Chunks", "Objects", "Size"}, rows))
	fmt.Println(okStyle.Render(fmt.Sprintf("All buffers verified: %s uploaded, %s held after delete",
		system.FormatBytes(used), system.FormatBytes(left))))
	return nil
}

func uploadNodes(dev gpu.Device, net *network.Network) (r report, err error) {
	l := network.NodeLayout(net.NumClasses)
	b, err := buffer.New(dev, true, l.ObjectSize, l.Offsets, l.Widths)
	if err != nil {
		return report{}, err
	}
	defer releaseOnError(&err, b.Delete)

	data := network.NodeRecords(net.Nodes())
	if err := b.LoadFloat32(data); err != nil {
		return report{}, fmt.Errorf("loading nodes: %w", err)
	}
	if err := b.Bind(0, false, 0); err != nil {
		return report{}, fmt.Errorf("binding nodes: %w", err)
	}
	if err := verify("nodes", gpu.Float32Bytes(data), b.Read); err != nil {
		return report{}, err
	}
	return report{"nodes", "buffer", 1, b.Objects(), b.Size(), b.Delete}, nil
}

func uploadEdges(dev gpu.Device, net *network.Network, containerSize int) (r report, err error) {
	l := network.EdgeLayout(net.NumClasses)
	o, err := buffer.NewOverflowing(dev, nil, l.ObjectSize, l.Offsets, l.Widths)
	if err != nil {
		return report{}, err
	}
	defer releaseOnError(&err, o.Delete)

	var data []float32
	for layer, containers := range network.SplitEdges(net.Edges, containerSize) {
		logging.Debugf("Edge layer %d split into %d containers", layer, len(containers))
		for _, c := range containers {
			data = append(data, network.EdgeRecords(c)...)
		}
	}

	if err := o.LoadFloat32(data); err != nil {
		return report{}, fmt.Errorf("loading edges: %w", err)
	}

	// bind all chunks at once when the device has enough binding
	// indices, otherwise one at a time as a compute pass per chunk would
	err = o.BindConsecutive(1)
	if errors.Is(err, gpu.ErrInvalidBindLocation) {
		logging.Infof("%d edge chunks exceed %d storage bindings, binding singly", o.Chunks(), o.MaxBindings())
		err = nil
		for i := 0; i < o.Chunks() && err == nil; i++ {
			err = o.BindSingle(i, 1, false, 0)
		}
	}
	if err != nil {
		return report{}, fmt.Errorf("binding edges: %w", err)
	}

	if err := verify("edges", gpu.Float32Bytes(data), o.Read); err != nil {
		return report{}, err
	}

	objects := 0
	for i := 0; i < o.Chunks(); i++ {
		objects += o.Objects(i)
	}
	return report{"edges", "overflowing", o.Chunks(), objects, o.Size(), o.Delete}, nil
}

func uploadSamples(dev gpu.Device, net *network.Network) (r report, err error) {
	l := network.SampleLayout()
	s, err := buffer.NewSwapping(dev, true, l.ObjectSize, l.Offsets, l.Widths)
	if err != nil {
		return report{}, err
	}
	defer releaseOnError(&err, s.Delete)

	// two generations: the current samples become the previous ones
	data := network.EdgeSamples(net.AllEdges())
	if err := s.LoadFloat32(data); err != nil {
		return report{}, fmt.Errorf("loading samples: %w", err)
	}
	s.Swap()
	if err := s.LoadFloat32(data); err != nil {
		return report{}, fmt.Errorf("loading samples: %w", err)
	}
	if err := s.Bind(0, true, 0); err != nil {
		return report{}, fmt.Errorf("binding samples: %w", err)
	}
	if err := verify("samples", gpu.Float32Bytes(data), s.Read); err != nil {
		return report{}, err
	}
	return report{"samples", "swapping", 2, s.Objects(), s.Size(), s.Delete}, nil
}

// releaseOnError deletes a buffer when the step that created it fails
func releaseOnError(err *error, release func() error) {
	if *err == nil {
		return
	}
	if delErr := release(); delErr != nil {
		logging.Warnf("Deleting buffer after failed upload: %v", delErr)
	}
}

func verify(name string, want []byte, read func() ([]byte, error)) error {
	got, err := read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%s read back %d bytes that differ from the %d uploaded", name, len(got), len(want))
	}
	logging.Debugf("Verified %d bytes of %s", len(got), name)
	return nil
}
