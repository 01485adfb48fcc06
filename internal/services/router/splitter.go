package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

// Split tunables.
const (
	MaxSplitLegs = 3
	SplitStepPct = 10

	// Candidate routes considered for splitting. Beyond the few best routes
	// the marginal legs are too shallow to ever win a composition.
	maxSplitCandidates = 4
)

// GasPricer converts gas units into a cost denominated in the output asset,
// letting the splitter trade extra route gas against extra output. A nil
// pricer values gas at zero and the splitter optimizes raw output.
type GasPricer func(gasUnits uint64) *big.Int

// BestSplit searches discrete splits of amountIn across the candidate
// routes and returns the composition with the highest gas-adjusted output.
// Percentages move in 10% steps across at most maxSplits legs. The
// single-route baseline (everything on the best candidate) is always part
// of the comparison, so a split is only ever returned when it strictly
// beats routing the full amount down one path.
//
// Legs never share a pool: two legs draining the same pool would each be
// simulated against its full liquidity and the combined quote would
// overstate the real output.
func BestSplit(ctx context.Context, candidates []*domain.Route, amountIn *big.Int, maxSplits int, gasPricer GasPricer) (*domain.SplitRoute, error) {
	start := time.Now()
	defer func() {
		metrics.SplitRouteDuration.Observe(time.Since(start).Seconds())
	}()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate routes", ErrNoRouteFound)
	}
	if maxSplits < 1 {
		maxSplits = 1
	}
	if maxSplits > MaxSplitLegs {
		maxSplits = MaxSplitLegs
	}
	if len(candidates) > maxSplitCandidates {
		candidates = candidates[:maxSplitCandidates]
	}

	var (
		best    *domain.SplitRoute
		bestNet *big.Int
		tried   int
	)
	consider := func(routeIdx []int, pcts []uint8) {
		tried++
		split, net := evaluateSplit(candidates, routeIdx, pcts, amountIn, gasPricer)
		if split == nil {
			return
		}
		if best == nil || net.Cmp(bestNet) > 0 {
			best, bestNet = split, net
		}
	}

	// Baseline and every other single-route assignment.
	for i := range candidates {
		consider([]int{i}, []uint8{100})
	}

	if maxSplits >= 2 {
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				if sharePool(candidates[i], candidates[j]) {
					continue
				}
				for p := SplitStepPct; p <= 100-SplitStepPct; p += SplitStepPct {
					if ctx.Err() != nil {
						break
					}
					consider([]int{i, j}, []uint8{uint8(p), uint8(100 - p)})
				}
			}
		}
	}

	if maxSplits >= 3 {
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				for k := j + 1; k < len(candidates); k++ {
					if sharePool(candidates[i], candidates[j]) ||
						sharePool(candidates[i], candidates[k]) ||
						sharePool(candidates[j], candidates[k]) {
						continue
					}
					for a := SplitStepPct; a <= 100-2*SplitStepPct; a += SplitStepPct {
						for b := SplitStepPct; a+b <= 100-SplitStepPct; b += SplitStepPct {
							if ctx.Err() != nil {
								break
							}
							consider([]int{i, j, k}, []uint8{uint8(a), uint8(b), uint8(100 - a - b)})
						}
					}
				}
			}
		}
	}

	metrics.SplitCompositionsEvaluated.Observe(float64(tried))
	if best == nil {
		return nil, fmt.Errorf("%w: no viable split composition", ErrNoRouteFound)
	}
	return best, nil
}

// evaluateSplit re-simulates each leg at its fractional amount. Outputs are
// not linear in input, so legs must be priced at their actual size rather
// than scaled from the full-amount quote. Returns the split and its
// gas-adjusted output, or nil if any leg fails to simulate.
func evaluateSplit(candidates []*domain.Route, routeIdx []int, pcts []uint8, amountIn *big.Int, gasPricer GasPricer) (*domain.SplitRoute, *big.Int) {
	legs := make([]domain.WeightedRoute, 0, len(routeIdx))
	totalOut := new(big.Int)
	totalGas := uint64(0)
	assigned := new(big.Int)
	hundred := big.NewInt(100)

	for n, idx := range routeIdx {
		tmpl := candidates[idx]
		var legAmount *big.Int
		if n == len(routeIdx)-1 {
			// Last leg absorbs rounding so the legs sum to amountIn exactly.
			legAmount = new(big.Int).Sub(amountIn, assigned)
		} else {
			legAmount = new(big.Int).Div(new(big.Int).Mul(amountIn, big.NewInt(int64(pcts[n]))), hundred)
		}
		if legAmount.Sign() <= 0 {
			return nil, nil
		}
		assigned.Add(assigned, legAmount)

		route, err := SimulatePath(tmpl.Pools(), tmpl.AssetIn(), legAmount)
		if err != nil {
			return nil, nil
		}
		legs = append(legs, domain.WeightedRoute{Route: *route, Percent: pcts[n]})
		totalOut.Add(totalOut, route.AmountOut())
		totalGas += route.GasUnits()
	}

	net := new(big.Int).Set(totalOut)
	if gasPricer != nil {
		if cost := gasPricer(totalGas); cost != nil {
			net.Sub(net, cost)
		}
	}
	return &domain.SplitRoute{Legs: legs}, net
}

// sharePool reports whether two routes touch any common pool.
func sharePool(a, b *domain.Route) bool {
	for i := range a.Hops {
		for j := range b.Hops {
			if a.Hops[i].PoolAddress == b.Hops[j].PoolAddress {
				return true
			}
		}
	}
	return false
}
