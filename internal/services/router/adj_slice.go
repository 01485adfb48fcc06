package router

import (
	"github.com/velodex/route-advisor/internal/domain"
)

// poolEdge holds pools for one asset-pair edge.
type poolEdge struct {
	pools []*domain.Pool
}

// adjSlice is a 2D slice for O(1) adjacency lookup using asset IDs.
// Usage: adjSlice[fromID][toID] -> poolEdge.
type adjSlice struct {
	edges    [][]poolEdge
	capacity int
}

func newAdjSlice(initialCapacity int) *adjSlice {
	if initialCapacity < 64 {
		initialCapacity = 64
	}
	edges := make([][]poolEdge, initialCapacity)
	for i := range edges {
		edges[i] = make([]poolEdge, initialCapacity)
	}
	return &adjSlice{
		edges:    edges,
		capacity: initialCapacity,
	}
}

func (a *adjSlice) ensureCapacity(id AssetID) {
	needed := int(id) + 1
	if needed <= a.capacity {
		return
	}

	newCap := a.capacity * 2
	if newCap < needed {
		newCap = needed
	}

	newEdges := make([][]poolEdge, newCap)
	for i := range newEdges {
		newEdges[i] = make([]poolEdge, newCap)
	}
	for i := 0; i < a.capacity; i++ {
		copy(newEdges[i], a.edges[i])
	}

	a.edges = newEdges
	a.capacity = newCap
}

func (a *adjSlice) set(from, to AssetID, pools []*domain.Pool) {
	a.ensureCapacity(from)
	a.ensureCapacity(to)
	a.edges[from][to] = poolEdge{pools: pools}
}

func (a *adjSlice) get(from, to AssetID) []*domain.Pool {
	if int(from) >= a.capacity || int(to) >= a.capacity {
		return nil
	}
	return a.edges[from][to].pools
}

// getNeighborsInto appends neighbor IDs to buf (zero allocation hot path).
func (a *adjSlice) getNeighborsInto(from AssetID, buf []AssetID) []AssetID {
	if int(from) >= a.capacity {
		return buf
	}
	for j := 0; j < a.capacity; j++ {
		if len(a.edges[from][j].pools) > 0 {
			buf = append(buf, AssetID(j))
		}
	}
	return buf
}
