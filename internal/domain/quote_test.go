package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func hop(in, out common.Address, amountIn, amountOut int64, gas uint64, impact float64) Hop {
	return Hop{
		AssetIn:        in,
		AssetOut:       out,
		AmountIn:       big.NewInt(amountIn),
		AmountOut:      big.NewInt(amountOut),
		GasUnits:       gas,
		PriceImpactPct: impact,
	}
}

func TestRouteDerivedFields(t *testing.T) {
	route := Route{Hops: []Hop{
		hop(weth, usdc, 1000, 990, 120_000, 0.5),
		hop(usdc, dai, 990, 975, 135_000, 0.7),
	}}

	require.Equal(t, weth, route.AssetIn())
	require.Equal(t, dai, route.AssetOut())
	require.Equal(t, big.NewInt(1000), route.AmountIn())
	require.Equal(t, big.NewInt(975), route.AmountOut())
	require.Equal(t, uint64(255_000), route.GasUnits())
	require.InDelta(t, 1.2, route.PriceImpactPct(), 1e-9)
	require.Equal(t, []common.Address{weth, usdc, dai}, route.Path())
}

func TestRouteImpactCapped(t *testing.T) {
	route := Route{Hops: []Hop{
		hop(weth, usdc, 1000, 10, 0, 99),
		hop(usdc, dai, 10, 1, 0, 90),
	}}
	require.Equal(t, 100.0, route.PriceImpactPct())
}

func TestEmptyRoute(t *testing.T) {
	var route Route
	require.Equal(t, common.Address{}, route.AssetIn())
	require.Zero(t, route.AmountOut().Sign())
	require.Nil(t, route.Path())
}

func TestSplitRouteAggregates(t *testing.T) {
	split := SplitRoute{Legs: []WeightedRoute{
		{Percent: 60, Route: Route{Hops: []Hop{hop(weth, usdc, 600, 590, 120_000, 1.0)}}},
		{Percent: 40, Route: Route{Hops: []Hop{hop(weth, dai, 400, 380, 145_000, 2.0)}}},
	}}

	require.Equal(t, big.NewInt(1000), split.AmountIn())
	require.Equal(t, big.NewInt(970), split.AmountOut())
	require.Equal(t, uint64(265_000), split.GasUnits())
	// 60% of 1.0 + 40% of 2.0
	require.InDelta(t, 1.4, split.PriceImpactPct(), 1e-9)
}

func TestSplitRouteDescription(t *testing.T) {
	symbols := map[common.Address]string{weth: "WETH", usdc: "USDC", dai: "DAI"}
	symbolFor := func(addr common.Address) string { return symbols[addr] }

	split := SplitRoute{Legs: []WeightedRoute{
		{Percent: 60, Route: Route{Hops: []Hop{
			hop(weth, usdc, 600, 590, 0, 0),
			hop(usdc, dai, 590, 580, 0, 0),
		}}},
		{Percent: 40, Route: Route{Hops: []Hop{hop(weth, dai, 400, 380, 0, 0)}}},
	}}
	require.Equal(t, "60% WETH->USDC->DAI + 40% WETH->DAI", split.Description(symbolFor))

	single := SplitRoute{Legs: []WeightedRoute{
		{Percent: 100, Route: Route{Hops: []Hop{hop(weth, dai, 1000, 990, 0, 0)}}},
	}}
	require.Equal(t, "WETH->DAI", single.Description(symbolFor))
}

func TestPoolHelpers(t *testing.T) {
	pool := &Pool{AssetA: weth, AssetB: usdc}

	require.Equal(t, usdc, pool.Other(weth))
	require.Equal(t, weth, pool.Other(usdc))
	require.Equal(t, common.Address{}, pool.Other(dai))

	require.True(t, pool.Connects(weth, usdc))
	require.True(t, pool.Connects(usdc, weth))
	require.False(t, pool.Connects(weth, dai))

	require.False(t, pool.HasHook())
	pool.Hook = common.BytesToAddress([]byte{1})
	require.True(t, pool.HasHook())
}

func TestPoolLiquidityShadow(t *testing.T) {
	pool := &Pool{AssetA: weth, AssetB: usdc}

	pool.SetLiquidity(uint256.NewInt(12345))
	require.Equal(t, uint64(12345), pool.LiquidityU64)

	// Values past uint64 clamp the shadow instead of wrapping.
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	pool.SetLiquidity(huge)
	require.Equal(t, ^uint64(0), pool.LiquidityU64)

	pool.SetLiquidity(nil)
	require.Zero(t, pool.LiquidityU64)
}

func TestPoolWithStateLeavesReceiverUntouched(t *testing.T) {
	pool := &Pool{AssetA: weth, AssetB: usdc, CurrentTick: 1, LastUpdateUnix: 10}
	pool.SetLiquidity(uint256.NewInt(100))

	next := pool.WithState(PoolState{
		Liquidity:      uint256.NewInt(200),
		SqrtPriceX96:   uint256.NewInt(33),
		CurrentTick:    2,
		LastUpdateUnix: 20,
	})

	require.Equal(t, uint64(100), pool.LiquidityU64)
	require.Equal(t, int32(1), pool.CurrentTick)
	require.Equal(t, uint64(200), next.LiquidityU64)
	require.Equal(t, int32(2), next.CurrentTick)
	require.Equal(t, int64(20), next.LastUpdateUnix)
}
