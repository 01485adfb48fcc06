package advisor

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/velodex/route-advisor/internal/adapters/persistence"
	cmn "github.com/velodex/route-advisor/internal/common"
	"github.com/velodex/route-advisor/internal/config"
	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/services/router"
)

const ADVISOR_SERVICE = "advisor-service"

// Error aliases
var (
	ErrInvalidInput          = router.ErrInvalidInput
	ErrNoRouteFound          = router.ErrNoRouteFound
	ErrInvalidAmount         = router.ErrInvalidAmount
	ErrInsufficientLiquidity = router.ErrInsufficientLiquidity
)

// Service is the advisory facade the HTTP layer and the sync feed talk to.
// It owns the router and persistence; the graph itself is a sibling DI
// instance so feed adapters can also resolve it directly.
type Service struct {
	container.BaseDIInstance
	logger *cmn.ServiceLogger

	graph   *router.Graph
	router  *router.Router
	storage *persistence.Storage

	generalCfg *config.GeneralConfig
	routerCfg  *config.RouterConfig
	storeCfg   *config.StoreConfig

	persistStop chan struct{}
}

func (svc *Service) ID() string {
	return ADVISOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = cmn.NewServiceLogger(svc)
	svc.generalCfg = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	svc.routerCfg = c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	svc.storeCfg = c.GetConfig(config.STORE_CONFIG_KEY).(*config.StoreConfig)
	svc.graph = c.Instance(router.ROUTER_SERVICE).(*router.Graph)

	var gasPricer router.GasPricer
	if svc.routerCfg.GasPriceWei > 0 {
		weiPerGas := big.NewInt(int64(svc.routerCfg.GasPriceWei))
		gasPricer = func(gasUnits uint64) *big.Int {
			return new(big.Int).Mul(weiPerGas, new(big.Int).SetUint64(gasUnits))
		}
	}

	svc.router = router.NewRouter(svc.graph, router.RouterOptions{
		TopK:       svc.routerCfg.TopK,
		PruneRatio: svc.routerCfg.PruneRatio,
		Dust:       svc.routerCfg.Dust(),
		GasPricer:  gasPricer,
		CacheTTL:   time.Duration(svc.routerCfg.CacheTTLMs) * time.Millisecond,
		CacheSize:  svc.routerCfg.CacheSizePerShard,
		Deadline:   time.Duration(svc.routerCfg.DeadlineMs) * time.Millisecond,
	}, log.Logger)
	return nil
}

func (svc *Service) Start() error {
	if !svc.storeCfg.PersistenceEnabled {
		log.Info().Msg("[advisorService] persistence disabled")
		return nil
	}

	storage, err := persistence.NewStorage(svc.storeCfg.DBPath)
	if err != nil {
		return err
	}
	svc.storage = storage

	pools, err := storage.LoadPools()
	if err != nil {
		return err
	}
	if len(pools) > 0 {
		svc.graph.UpsertBatch(pools)
		log.Info().Int("pools", len(pools)).Msg("[advisorService] restored pools from disk")
	}

	svc.persistStop = make(chan struct{})
	go svc.persistLoop()
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage == nil {
		return nil
	}
	if svc.persistStop != nil {
		close(svc.persistStop)
	}
	if err := svc.storage.SavePoolBatch(svc.graph.AllPools()); err != nil {
		log.Error().Err(err).Msg("[advisorService] final pool save failed")
	}
	return svc.storage.Close()
}

// persistLoop batch-saves the pool set on a timer so a crash loses at most
// one interval of feed updates.
func (svc *Service) persistLoop() {
	interval := time.Duration(svc.storeCfg.PersistInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-svc.persistStop:
			return
		case <-ticker.C:
			if err := svc.storage.SavePoolBatch(svc.graph.AllPools()); err != nil {
				log.Error().Err(err).Msg("[advisorService] periodic pool save failed")
			}
		}
	}
}

func (svc *Service) GetQuote(ctx context.Context, req router.QuoteRequest) (*domain.Quote, error) {
	return svc.router.GetQuote(ctx, req)
}

// materialLiquidityDeltaPct is the relative liquidity move beyond which
// cached quotes are considered stale and dropped rather than aged out.
const materialLiquidityDeltaPct = 5

func (svc *Service) UpsertPool(pool *domain.Pool) error {
	if err := svc.graph.UpsertPool(pool); err != nil {
		return err
	}
	// Topology changed; any cached route may now be beatable.
	svc.router.Cache().Purge()
	return nil
}

func (svc *Service) UpdatePoolState(address common.Address, state domain.PoolState) error {
	old := svc.graph.GetPool(address)
	if err := svc.graph.UpdatePoolState(address, state); err != nil {
		return err
	}
	if updated := svc.graph.GetPool(address); old != nil && updated != nil &&
		isMaterialLiquidityChange(old.LiquidityU64, updated.LiquidityU64) {
		svc.router.Cache().Purge()
	}
	return nil
}

func (svc *Service) RemovePool(address common.Address) {
	svc.graph.RemovePool(address)
	svc.router.Cache().Purge()
}

func isMaterialLiquidityChange(before, after uint64) bool {
	var delta uint64
	if after > before {
		delta = after - before
	} else {
		delta = before - after
	}
	if before == 0 {
		return delta > 0
	}
	return delta*100 > before*materialLiquidityDeltaPct
}

func (svc *Service) RegisterAsset(asset *domain.Asset) {
	svc.graph.Registry().SetAsset(asset)
}

func (svc *Service) GraphStats() router.GraphStats {
	return svc.graph.Stats()
}

func (svc *Service) ChainID() uint64 {
	return svc.generalCfg.ChainID
}

func (svc *Service) Pools() []*domain.Pool {
	return svc.graph.AllPools()
}
