package router

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velodex/route-advisor/internal/domain"
)

func TestQuoteCacheRoundtrip(t *testing.T) {
	cache := NewQuoteCache(time.Minute, 16)
	key := CacheKey(testWETH, testUSDC, big.NewInt(1_000_000), 50, 4, 3)
	quote := &domain.Quote{AssetIn: testWETH, AssetOut: testUSDC, AmountOut: big.NewInt(42)}

	_, ok := cache.Get(key)
	require.False(t, ok)

	cache.Set(key, quote)
	got, ok := cache.Get(key)
	require.True(t, ok)
	require.Equal(t, quote, got)
	require.Equal(t, 1, cache.Size())

	cache.Purge()
	_, ok = cache.Get(key)
	require.False(t, ok)
	require.Equal(t, 0, cache.Size())
}

func TestQuoteCacheTTLExpiry(t *testing.T) {
	cache := NewQuoteCache(10*time.Millisecond, 16)
	key := CacheKey(testWETH, testUSDC, big.NewInt(1_000_000), 50, 4, 3)
	cache.Set(key, &domain.Quote{AmountOut: big.NewInt(1)})

	_, ok := cache.Get(key)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(key)
	require.False(t, ok, "expired entry must be dropped on read")
}

func TestQuoteCacheLRUEviction(t *testing.T) {
	cache := NewQuoteCache(time.Minute, 2)

	// Pick keys landing in the same shard so the per-shard bound kicks in.
	keys := make([]string, 0, 3)
	for i := 0; len(keys) < 3; i++ {
		key := fmt.Sprintf("key-%d", i)
		if cache.shardFor(key) == &cache.shards[0] {
			keys = append(keys, key)
		}
	}

	cache.Set(keys[0], &domain.Quote{AmountOut: big.NewInt(0)})
	cache.Set(keys[1], &domain.Quote{AmountOut: big.NewInt(1)})

	// Touch keys[0] so keys[1] is the eviction victim.
	_, ok := cache.Get(keys[0])
	require.True(t, ok)

	cache.Set(keys[2], &domain.Quote{AmountOut: big.NewInt(2)})

	_, ok = cache.Get(keys[0])
	require.True(t, ok)
	_, ok = cache.Get(keys[1])
	require.False(t, ok)
	_, ok = cache.Get(keys[2])
	require.True(t, ok)
}

func TestBucketAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"7":          "7",
		"123":        "123",
		"1234":       "1230",
		"123456789":  "123000000",
		"999999":     "999000",
		"1000000001": "1000000000",
	}
	for in, want := range cases {
		amount, ok := new(big.Int).SetString(in, 10)
		require.True(t, ok)
		require.Equal(t, want, BucketAmount(amount), "bucket(%s)", in)
	}
	require.Equal(t, "0", BucketAmount(nil))
	require.Equal(t, "0", BucketAmount(big.NewInt(-5)))
}

func TestCacheKeyBucketsNearbyAmounts(t *testing.T) {
	a := CacheKey(testWETH, testUSDC, big.NewInt(1_234_567), 50, 4, 3)
	b := CacheKey(testWETH, testUSDC, big.NewInt(1_239_999), 50, 4, 3)
	c := CacheKey(testWETH, testUSDC, big.NewInt(1_300_000), 50, 4, 3)
	require.Equal(t, a, b, "amounts equal after truncation share a key")
	require.NotEqual(t, a, c)

	// Any differing tunable splits the key.
	require.NotEqual(t, a, CacheKey(testWETH, testUSDC, big.NewInt(1_234_567), 100, 4, 3))
	require.NotEqual(t, a, CacheKey(testWETH, testUSDC, big.NewInt(1_234_567), 50, 2, 3))
	require.NotEqual(t, a, CacheKey(testWETH, testUSDC, big.NewInt(1_234_567), 50, 4, 1))
	require.NotEqual(t, a, CacheKey(testUSDC, testWETH, big.NewInt(1_234_567), 50, 4, 3))
}
