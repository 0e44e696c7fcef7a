package network

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrShape is returned when layer sizes or importance weights do not
// describe a valid network
var ErrShape = errors.New("invalid network shape")

// Network is a layered, fully connected network. Edges[i] connects
// Layers[i] to Layers[i+1]; edge j*len(Layers[i+1])+k joins node j to
// node k.
type Network struct {
	NumClasses int
	Layers     [][]Node
	Edges      [][]Edge
}

// Generate creates a network with random class importances and random
// edge importances drawn from rng
func Generate(layers []int, numClasses int, p Placement, rng *rand.Rand) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers: %w", ErrShape)
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("%d classes: %w", numClasses, ErrShape)
	}

	n := &Network{NumClasses: numClasses, Layers: make([][]Node, len(layers))}
	for l, count := range layers {
		if count <= 0 {
			return nil, fmt.Errorf("layer %d has %d nodes: %w", l, count, ErrShape)
		}
		nodes := make([]Node, count)
		for i := range nodes {
			classes := make([]float64, numClasses)
			for c := range classes {
				classes[c] = rng.Float64()
			}
			nodes[i] = NewNode(p.Position(l, len(layers), i, count), classes, i)
		}
		n.Layers[l] = nodes
	}

	n.connect(func(layer, from, to int) float32 {
		return rng.Float32()
	})
	return n, nil
}

// WithImportance replaces the edge importances with weights, indexed
// [layer][start node][end node]
func (n *Network) WithImportance(weights [][][]float32) error {
	if len(weights) != len(n.Layers)-1 {
		return fmt.Errorf("%d weight layers for %d node layers: %w", len(weights), len(n.Layers), ErrShape)
	}
	for l, w := range weights {
		if len(w) != len(n.Layers[l]) {
			return fmt.Errorf("weight layer %d has %d rows, want %d: %w", l, len(w), len(n.Layers[l]), ErrShape)
		}
		for j, row := range w {
			if len(row) != len(n.Layers[l+1]) {
				return fmt.Errorf("weight layer %d row %d has %d columns, want %d: %w",
					l, j, len(row), len(n.Layers[l+1]), ErrShape)
			}
		}
	}

	n.connect(func(layer, from, to int) float32 {
		return weights[layer][from][to]
	})
	return nil
}

func (n *Network) connect(importance func(layer, from, to int) float32) {
	n.Edges = make([][]Edge, len(n.Layers)-1)
	for l := range n.Edges {
		next := n.Layers[l+1]
		edges := make([]Edge, 0, len(n.Layers[l])*len(next))
		for j, start := range n.Layers[l] {
			for k, end := range next {
				edges = append(edges, NewEdge(n.NumClasses, start, end, l, j*len(next)+k, importance(l, j, k)))
			}
		}
		n.Edges[l] = edges
	}
}

// Nodes returns every node, layer by layer
func (n *Network) Nodes() []Node {
	var out []Node
	for _, l := range n.Layers {
		out = append(out, l...)
	}
	return out
}

// AllEdges returns every edge, layer by layer
func (n *Network) AllEdges() []Edge {
	var out []Edge
	for _, l := range n.Edges {
		out = append(out, l...)
	}
	return out
}

// Prune zeroes the importance of edges below the given fraction of the
// largest edge importance and returns how many were pruned
func (n *Network) Prune(fraction float32) int {
	if fraction <= 0 {
		return 0
	}
	var top float32
	for _, e := range n.AllEdges() {
		if e.Importance() > top {
			top = e.Importance()
		}
	}
	pruned := 0
	threshold := top * fraction
	for _, layer := range n.Edges {
		for _, e := range layer {
			if e.Data[3] < threshold {
				e.Data[3] = 0
				pruned++
			}
		}
	}
	return pruned
}
