package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type PoolRegistry map[common.Address]*Pool

// Fee tiers in parts per million.
const (
	FeeTierLowest uint32 = 100
	FeeTierLow    uint32 = 500
	FeeTierMedium uint32 = 3000
	FeeTierHigh   uint32 = 10000
)

// Pool is one liquidity venue connecting exactly two assets at a fee tier.
// Search code only ever sees pools through a graph snapshot; the sync feed
// replaces the whole value on every state change, it never mutates in place.
type Pool struct {
	Address      common.Address `json:"address"`
	AssetA       common.Address `json:"assetA"`
	AssetB       common.Address `json:"assetB"`
	FeePPM       uint32         `json:"feePPM"`
	TickSpacing  int32          `json:"tickSpacing"`
	Liquidity    *uint256.Int   `json:"liquidity"`
	SqrtPriceX96 *uint256.Int   `json:"sqrtPriceX96"`
	CurrentTick  int32          `json:"currentTick"`
	// Hook is the optional extension contract; zero address means none.
	Hook           common.Address `json:"hook"`
	LastUpdateUnix int64          `json:"lastUpdateUnix"`

	// uint64 shadow of Liquidity for cheap comparisons on the hot path.
	// Kept in sync by SetLiquidity; clamped to MaxUint64 for larger values.
	LiquidityU64 uint64 `json:"-"`
}

// PoolState is the mutable slice of a pool delivered by the sync feed.
type PoolState struct {
	Liquidity      *uint256.Int
	SqrtPriceX96   *uint256.Int
	CurrentTick    int32
	LastUpdateUnix int64
}

func (p *Pool) HasHook() bool {
	return p.Hook != (common.Address{})
}

// Other returns the opposite asset of the pair, or the zero address when
// the given asset is not an endpoint of this pool.
func (p *Pool) Other(asset common.Address) common.Address {
	switch asset {
	case p.AssetA:
		return p.AssetB
	case p.AssetB:
		return p.AssetA
	}
	return common.Address{}
}

func (p *Pool) Connects(a, b common.Address) bool {
	return (p.AssetA == a && p.AssetB == b) || (p.AssetA == b && p.AssetB == a)
}

func (p *Pool) SetLiquidity(liquidity *uint256.Int) {
	p.Liquidity = liquidity
	if liquidity == nil {
		p.LiquidityU64 = 0
	} else if liquidity.IsUint64() {
		p.LiquidityU64 = liquidity.Uint64()
	} else {
		p.LiquidityU64 = ^uint64(0)
	}
}

// WithState returns a copy of the pool carrying the new feed state. The
// receiver is left untouched so concurrent readers of an older snapshot
// never observe a torn write.
func (p *Pool) WithState(state PoolState) *Pool {
	next := *p
	next.SqrtPriceX96 = state.SqrtPriceX96
	next.CurrentTick = state.CurrentTick
	next.LastUpdateUnix = state.LastUpdateUnix
	next.SetLiquidity(state.Liquidity)
	return &next
}
