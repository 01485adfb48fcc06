package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

const (
	DefaultSlippageBps = 50
	MaxSlippageBps     = 10_000
	bpsDenominator     = 10_000
)

// QuoteRequest is a normalized quote query. Zero MaxHops and MaxSplits mean
// "use the default"; SlippageBps is taken literally, so zero means no
// tolerance at all, and an absent query parameter is defaulted by the HTTP
// layer before the request gets here.
type QuoteRequest struct {
	AssetIn     common.Address
	AssetOut    common.Address
	AmountIn    *big.Int
	SlippageBps int
	MaxHops     int
	MaxSplits   int
}

func (q *QuoteRequest) Normalize() error {
	if q.AssetIn == (common.Address{}) || q.AssetOut == (common.Address{}) {
		return fmt.Errorf("%w: missing asset address", ErrInvalidInput)
	}
	if q.AssetIn == q.AssetOut {
		return fmt.Errorf("%w: asset_in equals asset_out", ErrInvalidInput)
	}
	if q.AmountIn == nil || q.AmountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount_in must be positive", ErrInvalidAmount)
	}
	if q.SlippageBps < 0 || q.SlippageBps > MaxSlippageBps {
		return fmt.Errorf("%w: slippage_bps out of range", ErrInvalidInput)
	}
	if q.MaxHops == 0 {
		q.MaxHops = DefaultMaxHops
	} else if q.MaxHops < 1 {
		q.MaxHops = 1
	} else if q.MaxHops > DefaultMaxHops {
		q.MaxHops = DefaultMaxHops
	}
	if q.MaxSplits == 0 {
		q.MaxSplits = MaxSplitLegs
	} else if q.MaxSplits < 1 {
		q.MaxSplits = 1
	} else if q.MaxSplits > MaxSplitLegs {
		q.MaxSplits = MaxSplitLegs
	}
	return nil
}

// RouterOptions carries the search tunables injected from config.
type RouterOptions struct {
	TopK       int
	PruneRatio float64
	Dust       *big.Int
	GasPricer  GasPricer
	CacheTTL   time.Duration
	CacheSize  int // per shard

	// Deadline bounds one GetQuote end to end, independent of the caller's
	// context. Zero leaves only the caller's deadline in force.
	Deadline time.Duration
}

// Router is the quote facade: validate, consult the cache, pick a strategy,
// apply slippage, populate the cache. It owns no graph state; everything it
// reads comes from the graph's immutable snapshot, so any number of
// GetQuote calls run concurrently without coordination.
type Router struct {
	graph *Graph
	cache *QuoteCache
	opts  RouterOptions
	log   zerolog.Logger
}

func NewRouter(graph *Graph, opts RouterOptions, log zerolog.Logger) *Router {
	if opts.TopK < 1 {
		opts.TopK = DefaultTopK
	}
	if opts.PruneRatio <= 0 || opts.PruneRatio >= 1 {
		opts.PruneRatio = DefaultPruneRatio
	}
	return &Router{
		graph: graph,
		cache: NewQuoteCache(opts.CacheTTL, opts.CacheSize),
		opts:  opts,
		log:   log.With().Str("component", "router").Logger(),
	}
}

func (r *Router) Cache() *QuoteCache {
	return r.cache
}

// GetQuote answers a quote request. Strategy selection:
//
//   - max_hops == 1: direct pools only.
//   - max_splits == 1: best single route from the multi-hop search.
//   - otherwise: split optimization over the top candidate routes, which
//     still includes the unsplit best route as its baseline.
//
// A deadline that expires mid-search degrades the answer instead of failing
// it: the best route found so far is returned with Degraded set.
func (r *Router) GetQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	start := time.Now()
	strategy := "multi_hop"

	if err := req.Normalize(); err != nil {
		metrics.QuoteRequests.WithLabelValues("invalid", "error").Inc()
		return nil, err
	}
	// Well-formed but never-seen assets are a caller error, not a routing
	// miss; reject them before touching the cache or the search.
	for _, asset := range []common.Address{req.AssetIn, req.AssetOut} {
		if _, ok := r.graph.Registry().GetID(asset); !ok {
			metrics.QuoteRequests.WithLabelValues("invalid", "error").Inc()
			return nil, fmt.Errorf("%w: unknown asset %s", ErrInvalidInput, asset.Hex())
		}
	}

	if r.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Deadline)
		defer cancel()
	}

	key := CacheKey(req.AssetIn, req.AssetOut, req.AmountIn, req.SlippageBps, req.MaxHops, req.MaxSplits)
	if cached, ok := r.cache.Get(key); ok {
		hit := *cached
		hit.Cached = true
		metrics.QuoteRequests.WithLabelValues("cached", "success").Inc()
		return &hit, nil
	}

	if !r.graph.HasPath(req.AssetIn, req.AssetOut, req.MaxHops) {
		metrics.QuoteRequests.WithLabelValues(strategy, "no_route").Inc()
		return nil, fmt.Errorf("%w: %s -> %s within %d hops", ErrNoRouteFound, req.AssetIn.Hex(), req.AssetOut.Hex(), req.MaxHops)
	}

	params := SearchParams{
		MaxHops:    req.MaxHops,
		TopK:       r.opts.TopK,
		PruneRatio: r.opts.PruneRatio,
		Dust:       r.opts.Dust,
	}

	var quote *domain.Quote
	degraded := false

	if req.MaxHops == 1 {
		strategy = "single_hop"
		route, err := r.graph.BestDirect(req.AssetIn, req.AssetOut, req.AmountIn)
		if err != nil {
			metrics.QuoteRequests.WithLabelValues(strategy, "no_route").Inc()
			return nil, err
		}
		quote = r.buildQuote(req, &domain.SplitRoute{Legs: []domain.WeightedRoute{{Route: *route, Percent: 100}}})
	} else {
		candidates, wasDegraded, err := r.graph.EvaluateRoutes(ctx, req.AssetIn, req.AssetOut, req.AmountIn, params)
		if err != nil {
			metrics.QuoteRequests.WithLabelValues(strategy, "no_route").Inc()
			return nil, err
		}
		degraded = wasDegraded

		if req.MaxSplits > 1 && len(candidates) > 1 {
			strategy = "split"
			split, err := BestSplit(ctx, candidates, req.AmountIn, req.MaxSplits, r.opts.GasPricer)
			if err != nil {
				metrics.QuoteRequests.WithLabelValues(strategy, "no_route").Inc()
				return nil, err
			}
			quote = r.buildQuote(req, split)
		} else {
			quote = r.buildQuote(req, &domain.SplitRoute{Legs: []domain.WeightedRoute{{Route: *candidates[0], Percent: 100}}})
		}
	}

	quote.Degraded = degraded
	if degraded {
		metrics.DegradedQuotes.Inc()
	} else {
		// Degraded quotes stay out of the cache; the next request should
		// get the full search, not a pinned partial answer.
		r.cache.Set(key, quote)
	}

	metrics.QuoteRequests.WithLabelValues(strategy, "success").Inc()
	metrics.QuoteDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	metrics.ObservePriceImpact(quote.PriceImpactPct)

	r.log.Debug().
		Str("asset_in", req.AssetIn.Hex()).
		Str("asset_out", req.AssetOut.Hex()).
		Str("amount_in", req.AmountIn.String()).
		Str("amount_out", quote.AmountOut.String()).
		Str("strategy", strategy).
		Bool("degraded", degraded).
		Dur("took", time.Since(start)).
		Msg("quote served")
	return quote, nil
}

func (r *Router) buildQuote(req QuoteRequest, split *domain.SplitRoute) *domain.Quote {
	amountOut := split.AmountOut()
	minOut := applySlippage(amountOut, req.SlippageBps)
	return &domain.Quote{
		AssetIn:          req.AssetIn,
		AssetOut:         req.AssetOut,
		AmountIn:         split.AmountIn(),
		AmountOut:        amountOut,
		AmountOutMin:     minOut,
		PriceImpactPct:   split.PriceImpactPct(),
		GasEstimateUnits: split.GasUnits(),
		RouteDescription: split.Description(r.graph.Registry().Symbol),
		Split:            *split,
		Timestamp:        time.Now().Unix(),
	}
}

// applySlippage computes the minimum acceptable output after the caller's
// slippage tolerance: out * (10000 - bps) / 10000, floored.
func applySlippage(amountOut *big.Int, slippageBps int) *big.Int {
	keep := big.NewInt(int64(bpsDenominator - slippageBps))
	min := new(big.Int).Mul(amountOut, keep)
	return min.Div(min, big.NewInt(bpsDenominator))
}
