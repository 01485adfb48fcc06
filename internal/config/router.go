package config

import (
	"errors"
	"math/big"
)

type RouterConfig struct {
	// TopK is how many candidate routes the multi-hop search keeps.
	// Default: 8
	TopK int

	// PruneRatio drops arrivals at an asset below this fraction of the best
	// arrival seen there. Default: 0.95
	PruneRatio float64

	// DustWei prunes intermediate hop outputs below this many wei of the
	// intermediate asset. Default: 1000
	DustWei int

	// CacheTTLMs is the quote cache TTL in milliseconds. Default: 3000
	CacheTTLMs int

	// CacheSizePerShard bounds each of the 16 cache shards. Default: 256
	CacheSizePerShard int

	// GasPriceWei prices a gas unit in output-asset wei for split
	// optimization. Zero disables gas-aware ranking. Default: 0
	GasPriceWei int

	// DeadlineMs bounds one quote request end to end; a search that runs
	// past it returns the best routes found so far, marked degraded.
	// Zero disables the server-side budget. Default: 200
	DeadlineMs int
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.TopK = getEnvOrDefaultInt("ROUTER_TOP_K", 8)
	c.PruneRatio = getEnvOrDefaultFloat("ROUTER_PRUNE_RATIO", 0.95)
	c.DustWei = getEnvOrDefaultInt("ROUTER_DUST_WEI", 1000)
	c.CacheTTLMs = getEnvOrDefaultInt("ROUTER_CACHE_TTL_MS", 3000)
	c.CacheSizePerShard = getEnvOrDefaultInt("ROUTER_CACHE_SIZE_PER_SHARD", 256)
	c.GasPriceWei = getEnvOrDefaultInt("ROUTER_GAS_PRICE_WEI", 0)
	c.DeadlineMs = getEnvOrDefaultInt("ROUTER_DEADLINE_MS", 200)
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.TopK < 1 {
		return errors.New("ROUTER_TOP_K must be at least 1")
	}
	if c.PruneRatio <= 0 || c.PruneRatio >= 1 {
		return errors.New("ROUTER_PRUNE_RATIO must be in (0, 1)")
	}
	if c.CacheTTLMs < 0 || c.CacheSizePerShard < 1 {
		return errors.New("invalid router cache config")
	}
	if c.DeadlineMs < 0 {
		return errors.New("ROUTER_DEADLINE_MS must not be negative")
	}
	return nil
}

func (c *RouterConfig) Dust() *big.Int {
	if c.DustWei <= 0 {
		return nil
	}
	return big.NewInt(int64(c.DustWei))
}
