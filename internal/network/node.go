// Package network builds the node and edge records of a layered neural
// network in the flat, vec4-aligned form the buffers upload.
package network

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats"

	"github.com/Mu-L/nn-vis/internal/layout"
)

// AdditionalNodeData is the number of words in a node record besides
// its class importances: position (4), importance and layer node id.
const AdditionalNodeData = 6

// Node is one neuron and its record.
//
// Record layout: [x, y, z, 1, class_0 .. class_{n-1}, importance, id]
// followed by zero padding up to the node object size.
type Node struct {
	Position mgl32.Vec3
	Data     []float32
}

// NewNode creates a node at pos. Class importances are normalised to sum
// to one and the node importance is the largest of them.
func NewNode(pos mgl32.Vec3, classes []float64, layerNodeID int) Node {
	n := len(classes)
	norm := make([]float64, n)
	copy(norm, classes)
	importance := 0.0
	if sum := floats.Sum(norm); n > 0 && sum > 0 {
		floats.Scale(1/sum, norm)
		importance = floats.Max(norm)
	}

	data := make([]float32, 0, layout.ObjectSize(n, AdditionalNodeData))
	data = append(data, pos.X(), pos.Y(), pos.Z(), 1)
	for _, c := range norm {
		data = append(data, float32(c))
	}
	data = append(data, float32(importance), float32(layerNodeID))
	for i := layout.Padding(n, AdditionalNodeData); i > 0; i-- {
		data = append(data, 0)
	}
	return Node{Position: pos, Data: data}
}

// Classes returns the node's class importances
func (n Node) Classes(numClasses int) []float32 {
	return n.Data[4 : 4+numClasses]
}

// Importance returns the node importance
func (n Node) Importance(numClasses int) float32 {
	return n.Data[numClasses+4]
}

// LayerNodeID returns the index of the node within its layer
func (n Node) LayerNodeID(numClasses int) float32 {
	return n.Data[numClasses+5]
}

// Placement positions nodes: layers are LayerDistance apart along x and
// each layer's nodes sit on a square grid LayerWidth across in the y/z
// plane. The network is centred on the origin.
type Placement struct {
	LayerDistance float32
	LayerWidth    float32
}

// Position returns the position of node index of count in layer of layers
func (p Placement) Position(layer, layers, index, count int) mgl32.Vec3 {
	x := (float32(layer) - float32(layers-1)/2) * p.LayerDistance

	side := int(math.Ceil(math.Sqrt(float64(count))))
	if side <= 1 {
		return mgl32.Vec3{x, 0, 0}
	}
	spacing := p.LayerWidth / float32(side-1)
	row, col := index/side, index%side
	half := p.LayerWidth / 2
	return mgl32.Vec3{x, float32(row)*spacing - half, float32(col)*spacing - half}
}

// NodeRecords flattens node records in order
func NodeRecords(nodes []Node) []float32 {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]float32, 0, len(nodes)*len(nodes[0].Data))
	for _, n := range nodes {
		out = append(out, n.Data...)
	}
	return out
}

// NodeLayout returns the record layout of nodes with numClasses classes
func NodeLayout(numClasses int) layout.Layout {
	return layout.Attributes(numClasses, AdditionalNodeData)
}
