package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Hop is one swap through a single pool inside a route.
type Hop struct {
	Pool           *Pool          `json:"-"`
	PoolAddress    common.Address `json:"poolAddress"`
	AssetIn        common.Address `json:"assetIn"`
	AssetOut       common.Address `json:"assetOut"`
	AmountIn       *big.Int       `json:"amountIn"`
	AmountOut      *big.Int       `json:"amountOut"`
	FeePPM         uint32         `json:"feePPM"`
	GasUnits       uint64         `json:"gasUnits"`
	PriceImpactPct float64        `json:"priceImpactPct"`
}

// Route is an ordered hop chain converting AssetIn into AssetOut.
// Aggregate amounts are always derived from the hop chain, never stored
// separately from it.
type Route struct {
	Hops []Hop `json:"hops"`
}

func (r *Route) AssetIn() common.Address {
	if len(r.Hops) == 0 {
		return common.Address{}
	}
	return r.Hops[0].AssetIn
}

func (r *Route) AssetOut() common.Address {
	if len(r.Hops) == 0 {
		return common.Address{}
	}
	return r.Hops[len(r.Hops)-1].AssetOut
}

func (r *Route) AmountIn() *big.Int {
	if len(r.Hops) == 0 {
		return new(big.Int)
	}
	return r.Hops[0].AmountIn
}

func (r *Route) AmountOut() *big.Int {
	if len(r.Hops) == 0 {
		return new(big.Int)
	}
	return r.Hops[len(r.Hops)-1].AmountOut
}

func (r *Route) GasUnits() uint64 {
	var total uint64
	for i := range r.Hops {
		total += r.Hops[i].GasUnits
	}
	return total
}

// PriceImpactPct sums per-hop impacts, capped at 100.
func (r *Route) PriceImpactPct() float64 {
	var total float64
	for i := range r.Hops {
		total += r.Hops[i].PriceImpactPct
	}
	if total > 100 {
		return 100
	}
	return total
}

// Path returns the asset chain including both endpoints.
func (r *Route) Path() []common.Address {
	if len(r.Hops) == 0 {
		return nil
	}
	path := make([]common.Address, 0, len(r.Hops)+1)
	path = append(path, r.Hops[0].AssetIn)
	for i := range r.Hops {
		path = append(path, r.Hops[i].AssetOut)
	}
	return path
}

// Pools returns the pool sequence of the route, in hop order.
func (r *Route) Pools() []*Pool {
	pools := make([]*Pool, len(r.Hops))
	for i := range r.Hops {
		pools[i] = r.Hops[i].Pool
	}
	return pools
}

// WeightedRoute is one leg of a split, weighted in whole percent.
type WeightedRoute struct {
	Route   Route `json:"route"`
	Percent uint8 `json:"percent"`
}

// SplitRoute partitions an input amount across routes; weights sum to 100.
type SplitRoute struct {
	Legs []WeightedRoute `json:"legs"`
}

func (s *SplitRoute) AmountIn() *big.Int {
	total := new(big.Int)
	for i := range s.Legs {
		total.Add(total, s.Legs[i].Route.AmountIn())
	}
	return total
}

func (s *SplitRoute) AmountOut() *big.Int {
	total := new(big.Int)
	for i := range s.Legs {
		total.Add(total, s.Legs[i].Route.AmountOut())
	}
	return total
}

func (s *SplitRoute) GasUnits() uint64 {
	var total uint64
	for i := range s.Legs {
		total += s.Legs[i].Route.GasUnits()
	}
	return total
}

// PriceImpactPct is the percent-weighted average over legs, capped at 100.
func (s *SplitRoute) PriceImpactPct() float64 {
	var total float64
	for i := range s.Legs {
		total += s.Legs[i].Route.PriceImpactPct() * float64(s.Legs[i].Percent)
	}
	total /= 100
	if total > 100 {
		return 100
	}
	return total
}

// Description renders a short human-readable summary such as
// "60% 0xA->0xB->0xC + 40% 0xA->0xC".
func (s *SplitRoute) Description(symbolFor func(common.Address) string) string {
	parts := make([]string, 0, len(s.Legs))
	for i := range s.Legs {
		path := s.Legs[i].Route.Path()
		names := make([]string, len(path))
		for j, addr := range path {
			names[j] = symbolFor(addr)
		}
		leg := strings.Join(names, "->")
		if len(s.Legs) > 1 {
			leg = fmt.Sprintf("%d%% %s", s.Legs[i].Percent, leg)
		}
		parts = append(parts, leg)
	}
	return strings.Join(parts, " + ")
}

// Quote is the advisory result handed back to callers. Quotes never promise
// execution at the stated amounts.
type Quote struct {
	AssetIn          common.Address `json:"assetIn"`
	AssetOut         common.Address `json:"assetOut"`
	AmountIn         *big.Int       `json:"amountIn"`
	AmountOut        *big.Int       `json:"amountOut"`
	AmountOutMin     *big.Int       `json:"amountOutMin"`
	PriceImpactPct   float64        `json:"priceImpactPct"`
	GasEstimateUnits uint64         `json:"gasEstimateUnits"`
	RouteDescription string         `json:"routeDescription"`
	Split            SplitRoute     `json:"route"`
	Cached           bool           `json:"cached"`
	Degraded         bool           `json:"degraded,omitempty"`
	Timestamp        int64          `json:"timestamp"`
}
