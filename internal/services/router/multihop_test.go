package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/velodex/route-advisor/internal/domain"
)

// buildTriangleGraph wires WETH-USDC and USDC-DAI but no direct WETH-DAI
// pool, so WETH -> DAI is only reachable in two hops.
func buildTriangleGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.UpsertPool(makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 2_000_000_000)))
	require.NoError(t, g.UpsertPool(makePool(2, testUSDC, testDAI, domain.FeeTierLow, 2_000_000_000)))
	return g
}

func TestTopKRoutesFindsTwoHopPath(t *testing.T) {
	g := buildTriangleGraph(t)

	routes, err := g.TopKRoutes(context.Background(), testWETH, testDAI, big.NewInt(1_000_000), SearchParams{MaxHops: 2})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Hops, 2)
	require.Equal(t, []common.Address{testWETH, testUSDC, testDAI}, routes[0].Path())
}

func TestTopKRoutesRespectsHopBudget(t *testing.T) {
	g := buildTriangleGraph(t)

	_, err := g.TopKRoutes(context.Background(), testWETH, testDAI, big.NewInt(1_000_000), SearchParams{MaxHops: 1})
	require.ErrorIs(t, err, ErrNoRouteFound)
}

func TestTopKRoutesUnknownAsset(t *testing.T) {
	g := buildTriangleGraph(t)

	_, err := g.TopKRoutes(context.Background(), testWETH, testWBTC, big.NewInt(1_000_000), SearchParams{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTopKRoutesSortedAndCycleFree(t *testing.T) {
	g := NewGraph()
	// Dense mesh: direct pool plus two bridges, all viable.
	require.NoError(t, g.UpsertPool(makePool(1, testWETH, testDAI, domain.FeeTierHigh, 500_000_000)))
	require.NoError(t, g.UpsertPool(makePool(2, testWETH, testUSDC, domain.FeeTierLow, 2_000_000_000)))
	require.NoError(t, g.UpsertPool(makePool(3, testUSDC, testDAI, domain.FeeTierLow, 2_000_000_000)))
	require.NoError(t, g.UpsertPool(makePool(4, testWETH, testWBTC, domain.FeeTierMedium, 1_000_000_000)))
	require.NoError(t, g.UpsertPool(makePool(5, testWBTC, testDAI, domain.FeeTierMedium, 1_000_000_000)))

	routes, err := g.TopKRoutes(context.Background(), testWETH, testDAI, big.NewInt(10_000_000), SearchParams{MaxHops: 4, TopK: 8})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(routes), 3)

	for i := 1; i < len(routes); i++ {
		require.LessOrEqual(t, routes[i].AmountOut().Cmp(routes[i-1].AmountOut()), 0, "routes must be sorted best first")
	}
	for _, route := range routes {
		require.LessOrEqual(t, len(route.Hops), 4)
		seen := map[common.Address]bool{}
		for _, asset := range route.Path() {
			require.False(t, seen[asset], "route must not revisit an asset")
			seen[asset] = true
		}
	}
}

func TestTopKRoutesDustFilterPrunesShallowBridge(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.UpsertPool(makePool(1, testWETH, testUSDC, domain.FeeTierMedium, 50))) // dust bridge
	require.NoError(t, g.UpsertPool(makePool(2, testUSDC, testDAI, domain.FeeTierLow, 2_000_000_000)))

	_, err := g.TopKRoutes(context.Background(), testWETH, testDAI, big.NewInt(1_000_000), SearchParams{
		MaxHops: 2,
		Dust:    big.NewInt(1000),
	})
	require.ErrorIs(t, err, ErrNoRouteFound)
}

func TestTopKRoutesTopKLimit(t *testing.T) {
	g := NewGraph()
	// Four parallel direct pools at different fee tiers.
	for i, fee := range []uint32{domain.FeeTierLowest, domain.FeeTierLow, domain.FeeTierMedium, domain.FeeTierHigh} {
		require.NoError(t, g.UpsertPool(makePool(byte(i+1), testWETH, testDAI, fee, 1_000_000_000)))
	}

	routes, err := g.TopKRoutes(context.Background(), testWETH, testDAI, big.NewInt(1_000_000), SearchParams{MaxHops: 1, TopK: 2})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	// Best route uses the cheapest fee tier.
	require.Equal(t, domain.FeeTierLowest, routes[0].Hops[0].FeePPM)
}

func TestEvaluateRoutesMergesHopBounds(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.UpsertPool(makePool(1, testWETH, testDAI, domain.FeeTierHigh, 500_000_000)))
	require.NoError(t, g.UpsertPool(makePool(2, testWETH, testUSDC, domain.FeeTierLow, 2_000_000_000)))
	require.NoError(t, g.UpsertPool(makePool(3, testUSDC, testDAI, domain.FeeTierLow, 2_000_000_000)))

	routes, degraded, err := g.EvaluateRoutes(context.Background(), testWETH, testDAI, big.NewInt(10_000_000), SearchParams{MaxHops: 4, TopK: 8})
	require.NoError(t, err)
	require.False(t, degraded)

	// Both the direct and the bridged route survive the merge, deduplicated.
	paths := map[int]int{}
	for _, route := range routes {
		paths[len(route.Hops)]++
	}
	require.Equal(t, 1, paths[1])
	require.Equal(t, 1, paths[2])
}

func TestEvaluateRoutesDegradedOnExpiredContext(t *testing.T) {
	g := buildTriangleGraph(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, degraded, _ := g.EvaluateRoutes(ctx, testWETH, testDAI, big.NewInt(1_000_000), SearchParams{MaxHops: 4})
	require.True(t, degraded)
}

func TestEvaluateRoutesNoRoute(t *testing.T) {
	g := buildTriangleGraph(t)
	// WBTC is registered but only connects to its own island.
	island := common.BytesToAddress([]byte{0xE2})
	require.NoError(t, g.UpsertPool(makePool(8, testWBTC, island, domain.FeeTierMedium, 1_000_000_000)))

	_, _, err := g.EvaluateRoutes(context.Background(), testWETH, testWBTC, big.NewInt(1_000_000), SearchParams{MaxHops: 4})
	require.ErrorIs(t, err, ErrNoRouteFound)
}

func BenchmarkTopKRoutes(b *testing.B) {
	g := NewGraph()
	assets := make([]common.Address, 20)
	for i := range assets {
		assets[i] = common.BytesToAddress([]byte{0x30, byte(i)})
	}
	seed := byte(0)
	for i := 0; i < len(assets); i++ {
		for j := i + 1; j < i+4 && j < len(assets); j++ {
			seed++
			pool := makePool(seed, assets[i], assets[j], domain.FeeTierMedium, 1_000_000_000)
			if err := g.UpsertPool(pool); err != nil {
				b.Fatal(err)
			}
		}
	}
	amount := big.NewInt(1_000_000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = g.TopKRoutes(context.Background(), assets[0], assets[len(assets)-1], amount, SearchParams{MaxHops: 4, TopK: 4})
	}
}
