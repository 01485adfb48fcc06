package router

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/velodex/route-advisor/internal/domain"
)

const feeDenominatorPPM = 1_000_000

// Gas model. Advisory only: flat base per swap, plus surcharges for hooked
// pools and exotic-fee pools, which run extra contract code on-chain.
const (
	GasSwapBase        = 120_000
	GasHookOverhead    = 25_000
	GasHighFeeOverhead = 15_000
)

// SimulateSwap prices a single swap through one pool without touching chain
// state. The curve is a constant-product equivalent parameterized by the
// pool's active liquidity:
//
//	effIn = amountIn * (1e6 - feePPM) / 1e6
//	out   = L * effIn / (L + effIn)
//
// Output is strictly increasing in both amountIn and L, and always below L,
// so a simulated route can never promise more than the pool holds.
func SimulateSwap(pool *domain.Pool, assetIn common.Address, amountIn *big.Int) (*domain.Hop, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidInput)
	}
	assetOut := pool.Other(assetIn)
	if assetOut == (common.Address{}) {
		return nil, fmt.Errorf("%w: asset %s is not an endpoint of pool %s", ErrInvalidInput, assetIn.Hex(), pool.Address.Hex())
	}
	if pool.Liquidity == nil || pool.Liquidity.IsZero() {
		return nil, fmt.Errorf("%w: pool %s has no active liquidity", ErrInsufficientLiquidity, pool.Address.Hex())
	}

	in, overflow := uint256.FromBig(amountIn)
	if overflow {
		return nil, fmt.Errorf("%w: amount exceeds 256 bits", ErrInvalidAmount)
	}

	// effIn = in * (1e6 - fee) / 1e6
	feeKeep := uint256.NewInt(uint64(feeDenominatorPPM - pool.FeePPM))
	ppm := uint256.NewInt(feeDenominatorPPM)
	effIn, overflow := new(uint256.Int).MulDivOverflow(in, feeKeep, ppm)
	if overflow || effIn.IsZero() {
		if overflow {
			return nil, fmt.Errorf("%w: amount exceeds 256 bits", ErrInvalidAmount)
		}
		return nil, fmt.Errorf("%w: amount rounds to zero after fees", ErrInsufficientLiquidity)
	}

	// out = L * effIn / (L + effIn)
	denom := new(uint256.Int).Add(pool.Liquidity, effIn)
	out, overflow := new(uint256.Int).MulDivOverflow(pool.Liquidity, effIn, denom)
	if overflow {
		return nil, fmt.Errorf("%w: amount exceeds 256 bits", ErrInvalidAmount)
	}
	if out.IsZero() {
		return nil, fmt.Errorf("%w: output rounds to zero", ErrInsufficientLiquidity)
	}

	amountOut := out.ToBig()
	return &domain.Hop{
		Pool:           pool,
		PoolAddress:    pool.Address,
		AssetIn:        assetIn,
		AssetOut:       assetOut,
		AmountIn:       new(big.Int).Set(amountIn),
		AmountOut:      amountOut,
		FeePPM:         pool.FeePPM,
		GasUnits:       EstimateSwapGas(pool),
		PriceImpactPct: priceImpactPct(amountIn, amountOut),
	}, nil
}

// priceImpactPct measures execution deviation from 1:1 notional, in
// percent: |1 - out/in| * 100, capped at 100. Fee and curve slippage both
// count, in either direction.
func priceImpactPct(amountIn, amountOut *big.Int) float64 {
	in, _ := new(big.Float).SetInt(amountIn).Float64()
	out, _ := new(big.Float).SetInt(amountOut).Float64()
	if in <= 0 {
		return 0
	}
	impact := math.Abs(1-out/in) * 100
	if impact > 100 {
		return 100
	}
	return impact
}

// EstimateSwapGas returns the advisory gas cost of one swap through a pool.
func EstimateSwapGas(pool *domain.Pool) uint64 {
	gas := uint64(GasSwapBase)
	if pool.HasHook() {
		gas += GasHookOverhead
	}
	if pool.FeePPM >= domain.FeeTierHigh {
		gas += GasHighFeeOverhead
	}
	return gas
}

// SimulatePath prices a whole hop sequence, threading each hop's output into
// the next hop's input. Path is the pool sequence; assetIn is the entry
// asset for the first pool.
func SimulatePath(pools []*domain.Pool, assetIn common.Address, amountIn *big.Int) (*domain.Route, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	hops := make([]domain.Hop, 0, len(pools))
	current := assetIn
	amount := amountIn
	for _, pool := range pools {
		hop, err := SimulateSwap(pool, current, amount)
		if err != nil {
			return nil, err
		}
		hops = append(hops, *hop)
		current = hop.AssetOut
		amount = hop.AmountOut
	}
	return &domain.Route{Hops: hops}, nil
}
