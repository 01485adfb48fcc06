package router

import (
	"container/list"
	"math/big"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

const (
	cacheShardCount = 16
	cacheShardMask  = cacheShardCount - 1

	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211

	DefaultCacheTTL          = 3 * time.Second
	DefaultCacheSizePerShard = 256
)

// QuoteCache is a sharded TTL+LRU cache of served quotes. Sixteen shards
// keyed by FNV-1a keep concurrent requests for different pairs off each
// other's locks. Expiry is lazy: an entry past its TTL is dropped on the
// read that finds it.
type QuoteCache struct {
	shards   [cacheShardCount]cacheShard
	ttl      time.Duration
	capacity int // per shard
	size     atomic.Int64
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type cacheEntry struct {
	key       string
	quote     *domain.Quote
	expiresAt time.Time
}

func NewQuoteCache(ttl time.Duration, sizePerShard int) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if sizePerShard <= 0 {
		sizePerShard = DefaultCacheSizePerShard
	}
	c := &QuoteCache{ttl: ttl, capacity: sizePerShard}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*list.Element)
		c.shards[i].order = list.New()
	}
	return c
}

func (c *QuoteCache) shardFor(key string) *cacheShard {
	hash := uint64(fnvOffset64)
	for i := 0; i < len(key); i++ {
		hash ^= uint64(key[i])
		hash *= fnvPrime64
	}
	return &c.shards[hash&cacheShardMask]
}

func (c *QuoteCache) Get(key string) (*domain.Quote, bool) {
	shard := c.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	elem, ok := shard.entries[key]
	if !ok {
		metrics.QuoteCacheMisses.Inc()
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		shard.order.Remove(elem)
		delete(shard.entries, key)
		c.size.Add(-1)
		metrics.QuoteCacheMisses.Inc()
		return nil, false
	}
	shard.order.MoveToFront(elem)
	metrics.QuoteCacheHits.Inc()
	return entry.quote, true
}

func (c *QuoteCache) Set(key string, quote *domain.Quote) {
	shard := c.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if elem, ok := shard.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.quote = quote
		entry.expiresAt = time.Now().Add(c.ttl)
		shard.order.MoveToFront(elem)
		return
	}
	shard.entries[key] = shard.order.PushFront(&cacheEntry{
		key:       key,
		quote:     quote,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.size.Add(1)
	if shard.order.Len() > c.capacity {
		oldest := shard.order.Back()
		if oldest != nil {
			shard.order.Remove(oldest)
			delete(shard.entries, oldest.Value.(*cacheEntry).key)
			c.size.Add(-1)
			metrics.QuoteCacheEvictions.Inc()
		}
	}
	metrics.QuoteCacheSize.Set(float64(c.size.Load()))
}

// Size counts live entries, including expired ones not yet lazily collected.
func (c *QuoteCache) Size() int {
	return int(c.size.Load())
}

func (c *QuoteCache) Purge() {
	for i := range c.shards {
		shard := &c.shards[i]
		shard.mu.Lock()
		c.size.Add(int64(-len(shard.entries)))
		shard.entries = make(map[string]*list.Element)
		shard.order.Init()
		shard.mu.Unlock()
	}
	metrics.QuoteCacheSize.Set(0)
}

// CacheKey builds the lookup key for a quote request. The amount goes in
// bucketed, so requests differing only in the trailing digits of the amount
// share an entry.
func CacheKey(assetIn, assetOut common.Address, amountIn *big.Int, slippageBps, maxHops, maxSplits int) string {
	return assetIn.Hex() + ":" + assetOut.Hex() + ":" + BucketAmount(amountIn) +
		":" + strconv.Itoa(slippageBps) + ":" + strconv.Itoa(maxHops) + ":" + strconv.Itoa(maxSplits)
}

// BucketAmount truncates an amount to three significant figures, e.g.
// 123456789 -> 123000000. Quotes for nearby amounts are close enough that
// serving the bucketed quote stays inside the advisory error margin.
func BucketAmount(amount *big.Int) string {
	if amount == nil || amount.Sign() <= 0 {
		return "0"
	}
	digits := amount.String()
	if len(digits) <= 3 {
		return digits
	}
	out := []byte(digits)
	for i := 3; i < len(out); i++ {
		out[i] = '0'
	}
	return string(out)
}
