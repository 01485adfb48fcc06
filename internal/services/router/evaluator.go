package router

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/velodex/route-advisor/internal/domain"
)

// EvaluateRoutes fans the search out across hop bounds 1..params.MaxHops,
// one goroutine per bound, and merges the results best output first. Each
// bounded search is independent, so a slow deep search never delays the
// shallow ones; whatever finished before the context deadline is merged and
// reported as degraded.
//
// The second return is true when the deadline cut the search short and the
// result may be missing better routes.
func (g *Graph) EvaluateRoutes(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int, params SearchParams) ([]*domain.Route, bool, error) {
	params = params.normalized()

	results := make([][]*domain.Route, params.MaxHops)
	errs := make([]error, params.MaxHops)

	if params.MaxHops <= 2 {
		// Goroutine overhead beats the win for one or two tiny searches.
		for h := 1; h <= params.MaxHops; h++ {
			bounded := params
			bounded.MaxHops = h
			results[h-1], errs[h-1] = g.TopKRoutes(ctx, assetIn, assetOut, amountIn, bounded)
		}
	} else {
		var wg sync.WaitGroup
		for h := 1; h <= params.MaxHops; h++ {
			wg.Add(1)
			go func(h int) {
				defer wg.Done()
				bounded := params
				bounded.MaxHops = h
				results[h-1], errs[h-1] = g.TopKRoutes(ctx, assetIn, assetOut, amountIn, bounded)
			}(h)
		}
		wg.Wait()
	}

	merged := mergeRoutes(results, params.TopK)
	degraded := ctx.Err() != nil

	if len(merged) == 0 {
		for _, err := range errs {
			if err != nil && !errors.Is(err, ErrNoRouteFound) {
				return nil, degraded, err
			}
		}
		return nil, degraded, errs[len(errs)-1]
	}
	return merged, degraded, nil
}

// mergeRoutes flattens per-bound results, drops duplicate pool paths (a
// 2-hop route found by both the 2-bound and 4-bound searches), and keeps
// the topK by output.
func mergeRoutes(results [][]*domain.Route, topK int) []*domain.Route {
	seen := make(map[string]struct{})
	var merged []*domain.Route
	for _, routes := range results {
		for _, route := range routes {
			sig := routeSignature(route)
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			merged = append(merged, route)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].AmountOut().Cmp(merged[j].AmountOut()) > 0
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

func routeSignature(route *domain.Route) string {
	var b strings.Builder
	for i := range route.Hops {
		b.Write(route.Hops[i].PoolAddress[:])
	}
	return b.String()
}
