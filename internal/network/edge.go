package network

import "github.com/Mu-L/nn-vis/internal/layout"

// AdditionalEdgeData is the number of words in an edge record besides
// the class importances of its two nodes.
const AdditionalEdgeData = 8

// DefaultContainerSize is the number of edges per container when none
// is configured
const DefaultContainerSize = 1000

// Edge is one connection between nodes of neighbouring layers.
//
// Data: [2, layer, layer edge id, importance, start id, end id,
// start importance, end importance, start classes, end classes] followed
// by padding. Sample: [start x, y, z, 1, end x, y, z, 0].
type Edge struct {
	Data   []float32
	Sample []float32
}

// NewEdge creates the edge from start to end
func NewEdge(numClasses int, start, end Node, layer, layerEdgeID int, importance float32) Edge {
	padding := layout.Padding(2*numClasses, AdditionalEdgeData)
	data := make([]float32, 0, 2*numClasses+AdditionalEdgeData+padding)
	data = append(data,
		2, float32(layer), float32(layerEdgeID), importance,
		start.LayerNodeID(numClasses), end.LayerNodeID(numClasses),
		start.Importance(numClasses), end.Importance(numClasses))
	data = append(data, start.Classes(numClasses)...)
	data = append(data, end.Classes(numClasses)...)
	for ; padding > 0; padding-- {
		data = append(data, 0)
	}

	s, e := start.Position, end.Position
	return Edge{
		Data:   data,
		Sample: []float32{s.X(), s.Y(), s.Z(), 1, e.X(), e.Y(), e.Z(), 0},
	}
}

// Importance returns the edge importance
func (e Edge) Importance() float32 {
	return e.Data[3]
}

// SplitEdges groups each layer's edges into containers of at most size
// edges, keeping their order. A size of zero or less uses
// DefaultContainerSize.
func SplitEdges(edges [][]Edge, size int) [][][]Edge {
	if size <= 0 {
		size = DefaultContainerSize
	}
	out := make([][][]Edge, len(edges))
	for i, layer := range edges {
		if len(layer) <= size {
			out[i] = [][]Edge{layer}
			continue
		}
		for start := 0; start < len(layer); start += size {
			end := start + size
			if end > len(layer) {
				end = len(layer)
			}
			out[i] = append(out[i], layer[start:end])
		}
	}
	return out
}

// EdgeRecords flattens edge records in order
func EdgeRecords(edges []Edge) []float32 {
	if len(edges) == 0 {
		return nil
	}
	out := make([]float32, 0, len(edges)*len(edges[0].Data))
	for _, e := range edges {
		out = append(out, e.Data...)
	}
	return out
}

// EdgeSamples flattens edge sample positions in order
func EdgeSamples(edges []Edge) []float32 {
	out := make([]float32, 0, len(edges)*8)
	for _, e := range edges {
		out = append(out, e.Sample...)
	}
	return out
}

// EdgeLayout returns the record layout of edges with numClasses classes
func EdgeLayout(numClasses int) layout.Layout {
	return layout.Attributes(2*numClasses, AdditionalEdgeData)
}

// SampleLayout returns the layout of edge samples: two vec4 positions
func SampleLayout() layout.Layout {
	return layout.Attributes(8, 0)
}
