package router

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

// MaxPoolsPerPair limits pools kept per asset pair; beyond this the extra
// venues are strictly worse for routing than the deep ones already kept.
const MaxPoolsPerPair = 8

const ROUTER_SERVICE = "router.Graph"

type adjMap = map[common.Address]map[common.Address][]*domain.Pool
type poolsMap = map[common.Address]*domain.Pool

// graphSnapshot is the immutable view searches run against. Readers load it
// once per request; a concurrent update produces a fresh snapshot and never
// touches a published one.
type graphSnapshot struct {
	adj      adjMap
	pools    poolsMap
	adjFast  *adjSlice
	registry *AssetRegistry
}

// Graph is the liquidity graph: node = asset, edge = pool. Reads are
// lock-free against an atomically swapped snapshot; the sync feed is the
// only writer and serializes on a single mutex held for the duration of one
// mutation (bounded, no I/O inside).
type Graph struct {
	container.BaseDIInstance

	mu sync.Mutex // writers only

	snapshot atomic.Value // *graphSnapshot

	// Mutable state, protected by mu.
	adj   adjMap
	pools poolsMap

	registry *AssetRegistry

	poolCount      atomic.Int64
	lastUpdateUnix atomic.Int64
}

func (g *Graph) ID() string {
	return ROUTER_SERVICE
}

func (g *Graph) Configure(c container.IContainer) error {
	g.init()
	return nil
}

func (g *Graph) Start() error { return nil }
func (g *Graph) Stop() error  { return nil }

// NewGraph builds a standalone graph, used by tests and embedders that do
// not run the DI container.
func NewGraph() *Graph {
	g := &Graph{}
	g.init()
	return g
}

func (g *Graph) init() {
	g.adj = make(adjMap)
	g.pools = make(poolsMap)
	g.registry = NewAssetRegistry()
	g.rebuildSnapshot()
}

func (g *Graph) getSnapshot() *graphSnapshot {
	return g.snapshot.Load().(*graphSnapshot)
}

func (g *Graph) Registry() *AssetRegistry {
	return g.registry
}

// UpsertPool inserts a new pool edge or replaces an existing one. It is the
// collaborator surface for pool discovery; both endpoints must be set.
func (g *Graph) UpsertPool(pool *domain.Pool) error {
	if pool == nil || pool.Address == (common.Address{}) ||
		pool.AssetA == (common.Address{}) || pool.AssetB == (common.Address{}) ||
		pool.AssetA == pool.AssetB {
		return fmt.Errorf("%w: malformed pool edge", ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.upsertLocked(pool)
	g.rebuildSnapshot()
	return nil
}

// UpsertBatch loads many pools with a single snapshot rebuild. Used by the
// persistence adapter at boot.
func (g *Graph) UpsertBatch(pools []*domain.Pool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, pool := range pools {
		if pool == nil || pool.AssetA == pool.AssetB {
			continue
		}
		g.upsertLocked(pool)
	}
	g.rebuildSnapshot()
}

// upsertLocked mutates the writer-side maps. Must be called with mu held.
func (g *Graph) upsertLocked(pool *domain.Pool) {
	if old, exists := g.pools[pool.Address]; exists {
		g.removeEdge(old.AssetA, old.AssetB, old.Address)
		g.removeEdge(old.AssetB, old.AssetA, old.Address)
	}
	g.pools[pool.Address] = pool
	g.registry.GetOrCreate(pool.AssetA)
	g.registry.GetOrCreate(pool.AssetB)
	g.addEdge(pool.AssetA, pool.AssetB, pool)
	g.addEdge(pool.AssetB, pool.AssetA, pool)
	if pool.LastUpdateUnix > g.lastUpdateUnix.Load() {
		g.lastUpdateUnix.Store(pool.LastUpdateUnix)
	}
}

// UpdatePoolState applies a feed state delta to one pool. The published
// snapshot is patched copy-on-write: a reader holding the old snapshot keeps
// seeing the old pool value; nothing is mutated in place, so there is no torn
// read. Updates to distinct pools only contend on the short writer mutex,
// never on reader state.
func (g *Graph) UpdatePoolState(address common.Address, state domain.PoolState) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	old, exists := g.pools[address]
	if !exists {
		return fmt.Errorf("%w: unknown pool %s", ErrInvalidInput, address.Hex())
	}

	next := old.WithState(state)
	g.pools[address] = next
	g.replaceEdgePool(old.AssetA, old.AssetB, next)
	g.replaceEdgePool(old.AssetB, old.AssetA, next)
	g.patchSnapshot(old, next)
	if state.LastUpdateUnix > g.lastUpdateUnix.Load() {
		g.lastUpdateUnix.Store(state.LastUpdateUnix)
	}
	metrics.PoolUpdates.Inc()
	return nil
}

// RemovePool drops a pool edge, e.g. when the feed reports it drained.
func (g *Graph) RemovePool(address common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pool, exists := g.pools[address]
	if !exists {
		return
	}
	delete(g.pools, address)
	g.removeEdge(pool.AssetA, pool.AssetB, address)
	g.removeEdge(pool.AssetB, pool.AssetA, address)
	g.rebuildSnapshot()
}

func (g *Graph) addEdge(from, to common.Address, pool *domain.Pool) {
	if g.adj[from] == nil {
		g.adj[from] = make(map[common.Address][]*domain.Pool)
	}
	g.adj[from][to] = append(g.adj[from][to], pool)
}

// replaceEdgePool swaps the writer-side adjacency pointer for an updated
// pool, keeping future full rebuilds in step with the patched snapshot.
// Must be called with mu held.
func (g *Graph) replaceEdgePool(from, to common.Address, next *domain.Pool) {
	neighbors, ok := g.adj[from]
	if !ok {
		return
	}
	for i, p := range neighbors[to] {
		if p.Address == next.Address {
			neighbors[to][i] = next
		}
	}
}

func (g *Graph) removeEdge(from, to, poolAddress common.Address) {
	neighbors, ok := g.adj[from]
	if !ok {
		return
	}
	pools, ok := neighbors[to]
	if !ok {
		return
	}
	kept := make([]*domain.Pool, 0, len(pools))
	for _, p := range pools {
		if p.Address != poolAddress {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(neighbors, to)
	} else {
		neighbors[to] = kept
	}
	if len(neighbors) == 0 {
		delete(g.adj, from)
	}
}

// rebuildSnapshot publishes a fresh immutable snapshot from the writer-side
// maps. Must be called with mu held.
func (g *Graph) rebuildSnapshot() {
	metrics.GraphSnapshotRebuilds.Inc()

	newPools := make(poolsMap, len(g.pools))
	for addr, pool := range g.pools {
		newPools[addr] = pool
	}

	assetCount := g.registry.Size()
	if assetCount < 64 {
		assetCount = 64
	}
	newAdjFast := newAdjSlice(assetCount)

	newAdj := make(adjMap, len(g.adj))
	for from, neighbors := range g.adj {
		newNeighbors := make(map[common.Address][]*domain.Pool, len(neighbors))
		fromID := g.registry.GetOrCreate(from)
		for to, pools := range neighbors {
			edge := make([]*domain.Pool, len(pools))
			copy(edge, pools)
			sortPoolsByLiquidity(edge)
			if len(edge) > MaxPoolsPerPair {
				edge = edge[:MaxPoolsPerPair]
			}
			newNeighbors[to] = edge
			newAdjFast.set(fromID, g.registry.GetOrCreate(to), edge)
		}
		newAdj[from] = newNeighbors
	}

	g.snapshot.Store(&graphSnapshot{
		adj:      newAdj,
		pools:    newPools,
		adjFast:  newAdjFast,
		registry: g.registry,
	})
	g.poolCount.Store(int64(len(g.pools)))
	metrics.PoolCount.Set(float64(len(g.pools)))
	metrics.AssetCount.Set(float64(g.registry.Size()))
}

// patchSnapshot swaps one pool pointer in a copy of the published snapshot,
// avoiding a full rebuild for the common single-pool state update. Must be
// called with mu held.
func (g *Graph) patchSnapshot(old, next *domain.Pool) {
	metrics.GraphIncrementalUpdates.Inc()
	snap := g.getSnapshot()

	newPools := make(poolsMap, len(snap.pools))
	for addr, pool := range snap.pools {
		newPools[addr] = pool
	}
	newPools[next.Address] = next

	newAdj := make(adjMap, len(snap.adj))
	for from, neighbors := range snap.adj {
		newAdj[from] = neighbors
	}
	patchEdge := func(from, to common.Address) {
		neighbors, ok := newAdj[from]
		if !ok {
			return
		}
		pools, ok := neighbors[to]
		if !ok {
			return
		}
		patched := make([]*domain.Pool, len(pools))
		copy(patched, pools)
		for i, p := range patched {
			if p.Address == next.Address {
				patched[i] = next
			}
		}
		newNeighbors := make(map[common.Address][]*domain.Pool, len(neighbors))
		for to2, pools2 := range neighbors {
			newNeighbors[to2] = pools2
		}
		newNeighbors[to] = patched
		newAdj[from] = newNeighbors
	}
	patchEdge(old.AssetA, old.AssetB)
	patchEdge(old.AssetB, old.AssetA)

	// adjFast is rebuilt rather than patched: the slice headers are shared
	// with the old snapshot, and a fresh build over the small per-pair edges
	// is cheap relative to chasing aliased backing arrays.
	assetCount := snap.registry.Size()
	if assetCount < 64 {
		assetCount = 64
	}
	newAdjFast := newAdjSlice(assetCount)
	for from, neighbors := range newAdj {
		fromID, ok := snap.registry.GetID(from)
		if !ok {
			continue
		}
		for to, pools := range neighbors {
			toID, ok := snap.registry.GetID(to)
			if !ok {
				continue
			}
			newAdjFast.set(fromID, toID, pools)
		}
	}

	g.snapshot.Store(&graphSnapshot{
		adj:      newAdj,
		pools:    newPools,
		adjFast:  newAdjFast,
		registry: snap.registry,
	})
}

func sortPoolsByLiquidity(pools []*domain.Pool) {
	if len(pools) <= 1 {
		return
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].LiquidityU64 > pools[j].LiquidityU64
	})
}

// GetPool returns a pool by address (lock-free read from snapshot).
func (g *Graph) GetPool(address common.Address) *domain.Pool {
	return g.getSnapshot().pools[address]
}

// AllPools returns every pool in the current snapshot.
func (g *Graph) AllPools() []*domain.Pool {
	snap := g.getSnapshot()
	pools := make([]*domain.Pool, 0, len(snap.pools))
	for _, p := range snap.pools {
		pools = append(pools, p)
	}
	return pools
}

// DirectPools returns pools connecting two assets, deepest liquidity first.
func (g *Graph) DirectPools(a, b common.Address) []*domain.Pool {
	snap := g.getSnapshot()
	if idA, ok := snap.registry.GetID(a); ok {
		if idB, ok := snap.registry.GetID(b); ok {
			return snap.adjFast.get(idA, idB)
		}
	}
	return nil
}

// PoolsForAsset returns all pools incident to an asset, deepest first.
func (g *Graph) PoolsForAsset(asset common.Address) []*domain.Pool {
	snap := g.getSnapshot()
	neighbors, ok := snap.adj[asset]
	if !ok {
		return nil
	}
	var out []*domain.Pool
	for _, pools := range neighbors {
		out = append(out, pools...)
	}
	sortPoolsByLiquidity(out)
	return out
}

// HasPath reports whether any pool path of at most maxHops hops connects
// the pair. Bounded BFS, used to fail fast before running a full search.
func (g *Graph) HasPath(a, b common.Address, maxHops int) bool {
	snap := g.getSnapshot()
	fromID, okA := snap.registry.GetID(a)
	toID, okB := snap.registry.GetID(b)
	if !okA || !okB || maxHops < 1 {
		return false
	}
	if snap.adjFast.get(fromID, toID) != nil {
		return true
	}

	visited := map[AssetID]struct{}{fromID: {}}
	frontier := []AssetID{fromID}
	var buf []AssetID

	for depth := 1; depth <= maxHops && len(frontier) > 0; depth++ {
		var next []AssetID
		for _, id := range frontier {
			buf = snap.adjFast.getNeighborsInto(id, buf[:0])
			for _, n := range buf {
				if n == toID {
					return true
				}
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = struct{}{}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return false
}

// GraphStats is the health-endpoint view of the graph.
type GraphStats struct {
	AssetCount     int   `json:"asset_count"`
	PoolCount      int   `json:"pool_count"`
	LastUpdateUnix int64 `json:"last_update_unix"`
}

func (g *Graph) Stats() GraphStats {
	return GraphStats{
		AssetCount:     g.registry.Size(),
		PoolCount:      int(g.poolCount.Load()),
		LastUpdateUnix: g.lastUpdateUnix.Load(),
	}
}
