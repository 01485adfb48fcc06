package http

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/velodex/route-advisor/internal/advisor"
	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/http/httputil"
	"github.com/velodex/route-advisor/internal/services/router"
)

type QuoteHandler struct {
	advisorSvc *advisor.Service
}

func NewQuoteHandler(advisorSvc *advisor.Service) *QuoteHandler {
	return &QuoteHandler{advisorSvc: advisorSvc}
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

// QuoteParams are the query parameters of GET /quote.
type QuoteParams struct {
	// Input asset contract address (0x-prefixed hex).
	AssetIn string `form:"asset_in" binding:"required"`

	// Output asset contract address (0x-prefixed hex).
	AssetOut string `form:"asset_out" binding:"required"`

	// Amount in the input asset's smallest units, decimal string.
	AmountIn string `form:"amount_in" binding:"required"`

	// Slippage tolerance in basis points. Absent defaults to 50 (0.5%);
	// an explicit 0 means no tolerance, hence the pointer.
	SlippageBps *int `form:"slippage_bps"`

	// Maximum route length in hops. Default 4, clamped to [1, 4].
	MaxHops int `form:"max_hops"`

	// Maximum number of split legs. Default 3, clamped to [1, 3].
	MaxSplits int `form:"max_splits"`
}

// HopInfo describes a single hop of one route leg.
type HopInfo struct {
	PoolAddress    string  `json:"poolAddress"`
	AssetIn        string  `json:"assetIn"`
	AssetOut       string  `json:"assetOut"`
	AmountIn       string  `json:"amountIn"`
	AmountOut      string  `json:"amountOut"`
	FeePPM         uint32  `json:"feePPM"`
	PriceImpactPct float64 `json:"priceImpactPct"`
}

// LegInfo describes one weighted leg of the returned split.
type LegInfo struct {
	Percent uint8     `json:"percent"`
	Hops    []HopInfo `json:"hops"`
}

// QuoteResponse is the wire form of a served quote.
type QuoteResponse struct {
	AssetIn          string    `json:"assetIn"`
	AssetOut         string    `json:"assetOut"`
	AmountIn         string    `json:"amountIn"`
	AmountOut        string    `json:"amountOut"`
	AmountOutMin     string    `json:"amountOutMin"`
	PriceImpactPct   string    `json:"priceImpactPct"`
	GasEstimateUnits uint64    `json:"gasEstimateUnits"`
	Route            string    `json:"route"`
	Legs             []LegInfo `json:"legs"`
	Cached           bool      `json:"cached"`
	Degraded         bool      `json:"degraded,omitempty"`
	Timestamp        int64     `json:"timestamp"`
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	var params QuoteParams
	if err := c.ShouldBindQuery(&params); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	if !common.IsHexAddress(params.AssetIn) || !common.IsHexAddress(params.AssetOut) {
		httputil.BadRequest(c, "asset_in and asset_out must be hex addresses")
		return
	}
	amountIn, ok := new(big.Int).SetString(params.AmountIn, 10)
	if !ok {
		httputil.BadRequest(c, "amount_in must be a decimal integer")
		return
	}

	slippageBps := router.DefaultSlippageBps
	if params.SlippageBps != nil {
		slippageBps = *params.SlippageBps
	}

	quote, err := h.advisorSvc.GetQuote(c.Request.Context(), router.QuoteRequest{
		AssetIn:     common.HexToAddress(params.AssetIn),
		AssetOut:    common.HexToAddress(params.AssetOut),
		AmountIn:    amountIn,
		SlippageBps: slippageBps,
		MaxHops:     params.MaxHops,
		MaxSplits:   params.MaxSplits,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.Success(c, toQuoteResponse(quote))
}

func toQuoteResponse(quote *domain.Quote) QuoteResponse {
	legs := make([]LegInfo, 0, len(quote.Split.Legs))
	for _, leg := range quote.Split.Legs {
		hops := make([]HopInfo, 0, len(leg.Route.Hops))
		for _, hop := range leg.Route.Hops {
			hops = append(hops, HopInfo{
				PoolAddress:    hop.PoolAddress.Hex(),
				AssetIn:        hop.AssetIn.Hex(),
				AssetOut:       hop.AssetOut.Hex(),
				AmountIn:       hop.AmountIn.String(),
				AmountOut:      hop.AmountOut.String(),
				FeePPM:         hop.FeePPM,
				PriceImpactPct: hop.PriceImpactPct,
			})
		}
		legs = append(legs, LegInfo{Percent: leg.Percent, Hops: hops})
	}

	return QuoteResponse{
		AssetIn:          quote.AssetIn.Hex(),
		AssetOut:         quote.AssetOut.Hex(),
		AmountIn:         quote.AmountIn.String(),
		AmountOut:        quote.AmountOut.String(),
		AmountOutMin:     quote.AmountOutMin.String(),
		PriceImpactPct:   fmt.Sprintf("%.4f", quote.PriceImpactPct),
		GasEstimateUnits: quote.GasEstimateUnits,
		Route:            quote.RouteDescription,
		Legs:             legs,
		Cached:           quote.Cached,
		Degraded:         quote.Degraded,
		Timestamp:        quote.Timestamp,
	}
}
