package network

import (
	"fmt"
	"math"

	"github.com/lvlath/go/matrix"
)

// ComputeShortestPaths turns the adjacency table into an all-pairs shortest
// distance table. The sparse arbitrary-id adjacency is packed into a dense
// id->index matrix (+Inf marks absent edges), handed to lvlath's
// Floyd-Warshall solver, and the finite results are unpacked back. Call once
// after loading; the table is read-only afterwards.
func (n *Network) ComputeShortestPaths() error {
	nodes := n.nodeIDs()
	if len(nodes) == 0 {
		return nil
	}
	index := make(map[int]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	m, err := matrix.NewPreparedDense(len(nodes), len(nodes), matrix.WithAllowInfDistances())
	if err != nil {
		return fmt.Errorf("shortest paths: new matrix: %w", err)
	}
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			if err := m.Set(i, j, math.Inf(1)); err != nil {
				return fmt.Errorf("shortest paths: init matrix: %w", err)
			}
		}
	}
	for a, row := range n.dist {
		for b, d := range row {
			i, j := index[a], index[b]
			if i == j {
				continue
			}
			cur, err := m.At(i, j)
			if err != nil {
				return fmt.Errorf("shortest paths: read matrix: %w", err)
			}
			if d < cur {
				if err := m.Set(i, j, d); err != nil {
					return fmt.Errorf("shortest paths: fill matrix: %w", err)
				}
			}
		}
	}

	if err := matrix.FloydWarshall(m); err != nil {
		return fmt.Errorf("shortest paths: %w", err)
	}

	for i, a := range nodes {
		n.setDist(a, a, 0)
		for j, b := range nodes {
			v, err := m.At(i, j)
			if err != nil {
				return fmt.Errorf("shortest paths: read result: %w", err)
			}
			if !math.IsInf(v, 1) {
				n.setDist(a, b, v)
			}
		}
	}
	return nil
}
