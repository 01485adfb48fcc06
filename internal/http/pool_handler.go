package http

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/velodex/route-advisor/internal/advisor"
	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/http/httputil"
	"github.com/velodex/route-advisor/internal/services/router"
)

// PoolHandler exposes the pool set. Reads are public; writes sit on the
// admin group and exist for the feed adapter and operational tooling.
type PoolHandler struct {
	advisorSvc *advisor.Service
}

func NewPoolHandler(advisorSvc *advisor.Service) *PoolHandler {
	return &PoolHandler{advisorSvc: advisorSvc}
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPools)
	admin.POST("", h.upsertPool)
	admin.PUT("/:address/state", h.updatePoolState)
	admin.DELETE("/:address", h.removePool)
	admin.POST("/assets", h.registerAsset)
}

type PoolPayload struct {
	Address      string `json:"address" binding:"required"`
	AssetA       string `json:"assetA" binding:"required"`
	AssetB       string `json:"assetB" binding:"required"`
	FeePPM       uint32 `json:"feePPM"`
	TickSpacing  int32  `json:"tickSpacing"`
	Liquidity    string `json:"liquidity" binding:"required"`
	SqrtPriceX96 string `json:"sqrtPriceX96"`
	CurrentTick  int32  `json:"currentTick"`
	Hook         string `json:"hook"`
	Timestamp    int64  `json:"timestamp"`
}

type PoolStatePayload struct {
	Liquidity    string `json:"liquidity" binding:"required"`
	SqrtPriceX96 string `json:"sqrtPriceX96"`
	CurrentTick  int32  `json:"currentTick"`
	Timestamp    int64  `json:"timestamp"`
}

type AssetPayload struct {
	Address         string `json:"address" binding:"required"`
	Symbol          string `json:"symbol" binding:"required"`
	Decimals        uint8  `json:"decimals"`
	IsNativeWrapper bool   `json:"isNativeWrapper"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	pools := h.advisorSvc.Pools()
	out := make([]PoolPayload, 0, len(pools))
	for _, p := range pools {
		payload := PoolPayload{
			Address:     p.Address.Hex(),
			AssetA:      p.AssetA.Hex(),
			AssetB:      p.AssetB.Hex(),
			FeePPM:      p.FeePPM,
			TickSpacing: p.TickSpacing,
			CurrentTick: p.CurrentTick,
			Timestamp:   p.LastUpdateUnix,
		}
		if p.Liquidity != nil {
			payload.Liquidity = p.Liquidity.Dec()
		}
		if p.SqrtPriceX96 != nil {
			payload.SqrtPriceX96 = p.SqrtPriceX96.Dec()
		}
		if p.HasHook() {
			payload.Hook = p.Hook.Hex()
		}
		out = append(out, payload)
	}
	httputil.Success(c, gin.H{"pools": out, "count": len(out)})
}

func (h *PoolHandler) upsertPool(c *gin.Context) {
	var payload PoolPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	pool, err := payloadToPool(&payload)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if err := h.advisorSvc.UpsertPool(pool); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"address": pool.Address.Hex()})
}

func (h *PoolHandler) updatePoolState(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		httputil.BadRequest(c, "invalid pool address")
		return
	}
	var payload PoolStatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	liquidity, err := uint256.FromDecimal(payload.Liquidity)
	if err != nil {
		httputil.BadRequest(c, "invalid liquidity")
		return
	}
	state := domain.PoolState{
		Liquidity:      liquidity,
		CurrentTick:    payload.CurrentTick,
		LastUpdateUnix: payload.Timestamp,
	}
	if payload.SqrtPriceX96 != "" {
		sqrtPrice, err := uint256.FromDecimal(payload.SqrtPriceX96)
		if err != nil {
			httputil.BadRequest(c, "invalid sqrtPriceX96")
			return
		}
		state.SqrtPriceX96 = sqrtPrice
	}

	if err := h.advisorSvc.UpdatePoolState(common.HexToAddress(address), state); err != nil {
		if errors.Is(err, router.ErrInvalidInput) {
			httputil.NotFound(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"address": address})
}

func (h *PoolHandler) removePool(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		httputil.BadRequest(c, "invalid pool address")
		return
	}
	h.advisorSvc.RemovePool(common.HexToAddress(address))
	httputil.Success(c, gin.H{"address": address})
}

func (h *PoolHandler) registerAsset(c *gin.Context) {
	var payload AssetPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if !common.IsHexAddress(payload.Address) {
		httputil.BadRequest(c, "invalid asset address")
		return
	}
	h.advisorSvc.RegisterAsset(&domain.Asset{
		Address:         common.HexToAddress(payload.Address),
		Symbol:          payload.Symbol,
		Decimals:        payload.Decimals,
		IsNativeWrapper: payload.IsNativeWrapper,
	})
	httputil.Success(c, gin.H{"address": payload.Address})
}

func payloadToPool(payload *PoolPayload) (*domain.Pool, error) {
	if !common.IsHexAddress(payload.Address) || !common.IsHexAddress(payload.AssetA) || !common.IsHexAddress(payload.AssetB) {
		return nil, errors.New("pool and asset addresses must be hex")
	}
	liquidity, err := uint256.FromDecimal(payload.Liquidity)
	if err != nil {
		return nil, errors.New("invalid liquidity")
	}
	pool := &domain.Pool{
		Address:        common.HexToAddress(payload.Address),
		AssetA:         common.HexToAddress(payload.AssetA),
		AssetB:         common.HexToAddress(payload.AssetB),
		FeePPM:         payload.FeePPM,
		TickSpacing:    payload.TickSpacing,
		CurrentTick:    payload.CurrentTick,
		LastUpdateUnix: payload.Timestamp,
	}
	pool.SetLiquidity(liquidity)
	if payload.SqrtPriceX96 != "" {
		sqrtPrice, err := uint256.FromDecimal(payload.SqrtPriceX96)
		if err != nil {
			return nil, errors.New("invalid sqrtPriceX96")
		}
		pool.SqrtPriceX96 = sqrtPrice
	}
	if payload.Hook != "" {
		if !common.IsHexAddress(payload.Hook) {
			return nil, errors.New("invalid hook address")
		}
		pool.Hook = common.HexToAddress(payload.Hook)
	}
	return pool, nil
}
