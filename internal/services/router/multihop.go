package router

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

// Search tunables. Defaults live in config; zero values here fall back to
// the package defaults below.
type SearchParams struct {
	MaxHops    int
	TopK       int
	PruneRatio float64  // arrivals below PruneRatio * best-at-asset are dropped
	Dust       *big.Int // intermediate hop outputs below this are dropped
}

const (
	DefaultMaxHops    = 4
	DefaultTopK       = 8
	DefaultPruneRatio = 0.95

	// ctx is polled every this many expansions; checking per pop would cost
	// more than the expansions it saves.
	ctxPollInterval = 64
)

func (p SearchParams) normalized() SearchParams {
	if p.MaxHops < 1 {
		p.MaxHops = DefaultMaxHops
	}
	if p.MaxHops > DefaultMaxHops {
		p.MaxHops = DefaultMaxHops
	}
	if p.TopK < 1 {
		p.TopK = DefaultTopK
	}
	if p.PruneRatio <= 0 || p.PruneRatio >= 1 {
		p.PruneRatio = DefaultPruneRatio
	}
	return p
}

// searchState is one partial path on the frontier.
type searchState struct {
	asset  AssetID
	amount *big.Int
	hops   []domain.Hop
}

func (s *searchState) onPath(id AssetID, origin AssetID, reg *AssetRegistry) bool {
	if id == origin {
		return true
	}
	for i := range s.hops {
		outID, ok := reg.GetID(s.hops[i].AssetOut)
		if ok && outID == id {
			return true
		}
	}
	return false
}

// frontierHeap orders partial paths by current amount, largest first. The
// amount at an intermediate asset is a heuristic, not a bound, since amounts
// at different assets are in different units; per-asset pruning is what keeps
// the expansion honest.
type frontierHeap []*searchState

func (h frontierHeap) Len() int            { return len(h) }
func (h frontierHeap) Less(i, j int) bool  { return h[i].amount.Cmp(h[j].amount) > 0 }
func (h frontierHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x interface{}) { *h = append(*h, x.(*searchState)) }
func (h *frontierHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}

// TopKRoutes runs a best-first expansion from assetIn and returns up to
// params.TopK distinct routes to assetOut, best output first. Routes are
// cycle-free and at most params.MaxHops long. A context deadline cuts the
// search short and returns whatever complete routes were found by then.
func (g *Graph) TopKRoutes(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int, params SearchParams) ([]*domain.Route, error) {
	start := time.Now()
	defer func() {
		metrics.MultiHopDuration.Observe(time.Since(start).Seconds())
	}()
	params = params.normalized()

	snap := g.getSnapshot()
	originID, okIn := snap.registry.GetID(assetIn)
	targetID, okOut := snap.registry.GetID(assetOut)
	if !okIn || !okOut {
		return nil, fmt.Errorf("%w: unknown asset", ErrInvalidInput)
	}

	// bestAtAsset tracks the largest amount seen arriving at each asset.
	// Later arrivals below PruneRatio of that are dominated closely enough
	// that expanding them almost never changes the final top-K.
	bestAtAsset := make(map[AssetID]*big.Int)
	bestAtAsset[originID] = amountIn

	frontier := &frontierHeap{{asset: originID, amount: amountIn}}
	heap.Init(frontier)

	var routes []*domain.Route
	var neighborBuf []AssetID
	pops := 0
	poolsEvaluated := 0

	for frontier.Len() > 0 && len(routes) < params.TopK {
		pops++
		if pops%ctxPollInterval == 0 && ctx.Err() != nil {
			break
		}

		state := heap.Pop(frontier).(*searchState)

		if state.asset == targetID && len(state.hops) > 0 {
			routes = append(routes, &domain.Route{Hops: state.hops})
			continue
		}
		if len(state.hops) >= params.MaxHops {
			continue
		}

		neighborBuf = snap.adjFast.getNeighborsInto(state.asset, neighborBuf[:0])
		for _, nextID := range neighborBuf {
			if nextID != targetID && state.onPath(nextID, originID, snap.registry) {
				continue
			}
			fromAddr := snap.registry.GetAddress(state.asset)
			for _, pool := range snap.adjFast.get(state.asset, nextID) {
				poolsEvaluated++
				hop, err := SimulateSwap(pool, fromAddr, state.amount)
				if err != nil {
					continue
				}
				if params.Dust != nil && nextID != targetID && hop.AmountOut.Cmp(params.Dust) < 0 {
					continue
				}
				if pruned(bestAtAsset, nextID, hop.AmountOut, params.PruneRatio) {
					continue
				}
				hops := make([]domain.Hop, len(state.hops)+1)
				copy(hops, state.hops)
				hops[len(state.hops)] = *hop
				heap.Push(frontier, &searchState{
					asset:  nextID,
					amount: hop.AmountOut,
					hops:   hops,
				})
			}
		}
	}
	metrics.PoolsEvaluated.Observe(float64(poolsEvaluated))

	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no path %s -> %s within %d hops", ErrNoRouteFound, assetIn.Hex(), assetOut.Hex(), params.MaxHops)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].AmountOut().Cmp(routes[j].AmountOut()) > 0
	})
	return routes, nil
}

// pruned applies the per-asset dominance filter and records new bests.
func pruned(bestAtAsset map[AssetID]*big.Int, asset AssetID, amount *big.Int, ratio float64) bool {
	best, seen := bestAtAsset[asset]
	if !seen || amount.Cmp(best) > 0 {
		bestAtAsset[asset] = amount
		return false
	}
	// amount < ratio * best, compared in integers: amount * 100 < best * ratioPct.
	ratioPct := int64(math.Round(ratio * 100))
	lhs := new(big.Int).Mul(amount, big.NewInt(100))
	rhs := new(big.Int).Mul(best, big.NewInt(ratioPct))
	return lhs.Cmp(rhs) < 0
}
