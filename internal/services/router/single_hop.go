package router

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

// BestDirect quotes the single best direct pool between the pair. Every
// connecting pool is simulated; ties between venues are broken by whichever
// simulates the higher output, so a deep 0.05% pool can lose to a shallow
// 0.01% pool for small amounts and win for large ones.
func (g *Graph) BestDirect(assetIn, assetOut common.Address, amountIn *big.Int) (*domain.Route, error) {
	start := time.Now()
	defer func() {
		metrics.DirectQuoteDuration.Observe(time.Since(start).Seconds())
	}()

	pools := g.DirectPools(assetIn, assetOut)
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: no direct pool for %s -> %s", ErrNoRouteFound, assetIn.Hex(), assetOut.Hex())
	}
	metrics.PoolsEvaluated.Observe(float64(len(pools)))

	var best *domain.Route
	var lastErr error
	for _, pool := range pools {
		hop, err := SimulateSwap(pool, assetIn, amountIn)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || hop.AmountOut.Cmp(best.AmountOut()) > 0 {
			best = &domain.Route{Hops: []domain.Hop{*hop}}
		}
	}
	if best == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: no viable direct pool for %s -> %s", ErrNoRouteFound, assetIn.Hex(), assetOut.Hex())
	}
	return best, nil
}
