package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/velodex/route-advisor/internal/domain"
)

var (
	testWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	testWBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
)

func makePool(seed byte, a, b common.Address, feePPM uint32, liquidity uint64) *domain.Pool {
	pool := &domain.Pool{
		Address:        common.BytesToAddress([]byte{0xA0, seed}),
		AssetA:         a,
		AssetB:         b,
		FeePPM:         feePPM,
		TickSpacing:    60,
		SqrtPriceX96:   uint256.NewInt(1).Lsh(uint256.NewInt(1), 96),
		LastUpdateUnix: 1700000000,
	}
	pool.SetLiquidity(uint256.NewInt(liquidity))
	return pool
}

func TestSimulateSwapBasics(t *testing.T) {
	pool := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000_000)

	hop, err := SimulateSwap(pool, testWETH, big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, testUSDC, hop.AssetOut)
	require.Equal(t, pool.Address, hop.PoolAddress)

	// Output is below input (fee + curve) and below pool liquidity.
	require.Negative(t, hop.AmountOut.Cmp(hop.AmountIn))
	require.Negative(t, hop.AmountOut.Cmp(pool.Liquidity.ToBig()))
	require.Greater(t, hop.PriceImpactPct, 0.0)
}

func TestSimulateSwapMonotonicInAmount(t *testing.T) {
	pool := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000_000)

	prev := big.NewInt(0)
	for _, amount := range []int64{1000, 10_000, 1_000_000, 100_000_000, 10_000_000_000} {
		hop, err := SimulateSwap(pool, testWETH, big.NewInt(amount))
		require.NoError(t, err)
		require.Positive(t, hop.AmountOut.Cmp(prev), "output must grow with input")
		prev = hop.AmountOut
	}
}

func TestSimulateSwapMonotonicInLiquidity(t *testing.T) {
	amount := big.NewInt(50_000_000)
	prev := big.NewInt(0)
	for _, liquidity := range []uint64{1_000_000, 100_000_000, 10_000_000_000} {
		pool := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, liquidity)
		hop, err := SimulateSwap(pool, testWETH, amount)
		require.NoError(t, err)
		require.Positive(t, hop.AmountOut.Cmp(prev), "deeper pool must quote more")
		prev = hop.AmountOut
	}
}

func TestSimulateSwapOutputBoundedByLiquidity(t *testing.T) {
	pool := makePool(1, testWETH, testUSDC, domain.FeeTierLow, 1_000)

	// An absurdly large input still cannot drain more than the pool holds.
	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	hop, err := SimulateSwap(pool, testWETH, huge)
	require.NoError(t, err)
	require.Negative(t, hop.AmountOut.Cmp(pool.Liquidity.ToBig()))
}

func TestSimulateSwapFeeReducesOutput(t *testing.T) {
	amount := big.NewInt(10_000_000)
	cheap := makePool(1, testWETH, testUSDC, domain.FeeTierLowest, 1_000_000_000)
	pricey := makePool(2, testWETH, testUSDC, domain.FeeTierHigh, 1_000_000_000)

	lowFeeHop, err := SimulateSwap(cheap, testWETH, amount)
	require.NoError(t, err)
	highFeeHop, err := SimulateSwap(pricey, testWETH, amount)
	require.NoError(t, err)
	require.Positive(t, lowFeeHop.AmountOut.Cmp(highFeeHop.AmountOut))
}

func TestPriceImpactPctMeasuresDeviationEitherWay(t *testing.T) {
	require.InDelta(t, 50.0, priceImpactPct(big.NewInt(100), big.NewInt(50)), 1e-9)
	// A favorable fill is the same distance from par as an unfavorable one.
	require.InDelta(t, 50.0, priceImpactPct(big.NewInt(100), big.NewInt(150)), 1e-9)
	require.Equal(t, 100.0, priceImpactPct(big.NewInt(100), big.NewInt(500)))
	require.Equal(t, 0.0, priceImpactPct(big.NewInt(0), big.NewInt(1)))
}

func TestSimulateSwapRejectsBadInput(t *testing.T) {
	pool := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000_000)

	_, err := SimulateSwap(pool, testWETH, big.NewInt(0))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SimulateSwap(pool, testWETH, big.NewInt(-5))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SimulateSwap(pool, testDAI, big.NewInt(1000))
	require.ErrorIs(t, err, ErrInvalidInput)

	drained := makePool(2, testWETH, testUSDC, domain.FeeTierMedium, 0)
	_, err = SimulateSwap(drained, testWETH, big.NewInt(1000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestEstimateSwapGas(t *testing.T) {
	plain := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000)
	require.Equal(t, uint64(GasSwapBase), EstimateSwapGas(plain))

	hooked := makePool(2, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000)
	hooked.Hook = common.BytesToAddress([]byte{0xff})
	require.Equal(t, uint64(GasSwapBase+GasHookOverhead), EstimateSwapGas(hooked))

	exotic := makePool(3, testWETH, testUSDC, domain.FeeTierHigh, 1_000_000)
	exotic.Hook = common.BytesToAddress([]byte{0xff})
	require.Equal(t, uint64(GasSwapBase+GasHookOverhead+GasHighFeeOverhead), EstimateSwapGas(exotic))
}

func TestSimulatePathThreadsAmounts(t *testing.T) {
	first := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000_000)
	second := makePool(2, testUSDC, testDAI, domain.FeeTierLow, 1_000_000_000)

	route, err := SimulatePath([]*domain.Pool{first, second}, testWETH, big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Len(t, route.Hops, 2)
	require.Equal(t, route.Hops[0].AmountOut, route.Hops[1].AmountIn)
	require.Equal(t, testWETH, route.AssetIn())
	require.Equal(t, testDAI, route.AssetOut())
}

func BenchmarkSimulateSwap(b *testing.B) {
	pool := makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 1_000_000_000)
	amountIn := big.NewInt(1_000_000_000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = SimulateSwap(pool, testWETH, amountIn)
	}
}
