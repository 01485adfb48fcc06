package router

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/velodex/route-advisor/internal/domain"
)

func TestAssetRegistryStableIDs(t *testing.T) {
	r := NewAssetRegistry()

	id1 := r.GetOrCreate(testWETH)
	id2 := r.GetOrCreate(testUSDC)
	require.NotEqual(t, id1, id2)
	require.Equal(t, id1, r.GetOrCreate(testWETH), "same address keeps its ID")
	require.Equal(t, 2, r.Size())

	got, ok := r.GetID(testWETH)
	require.True(t, ok)
	require.Equal(t, id1, got)
	require.Equal(t, testWETH, r.GetAddress(id1))

	_, ok = r.GetID(testDAI)
	require.False(t, ok)
	require.Equal(t, common.Address{}, r.GetAddress(AssetID(99)))
}

func TestAssetRegistryMetadata(t *testing.T) {
	r := NewAssetRegistry()

	require.Equal(t, testWETH.Hex(), r.Symbol(testWETH), "unknown asset falls back to hex")

	r.SetAsset(&domain.Asset{Address: testWETH, Symbol: "WETH", Decimals: 18, IsNativeWrapper: true})
	require.Equal(t, "WETH", r.Symbol(testWETH))
	require.Equal(t, uint8(18), r.GetAsset(testWETH).Decimals)

	// First write wins.
	r.SetAsset(&domain.Asset{Address: testWETH, Symbol: "FAKE"})
	require.Equal(t, "WETH", r.Symbol(testWETH))
}

func TestAssetRegistryConcurrentGetOrCreate(t *testing.T) {
	r := NewAssetRegistry()
	addrs := make([]common.Address, 64)
	for i := range addrs {
		addrs[i] = common.BytesToAddress([]byte{0x40, byte(i)})
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, addr := range addrs {
				r.GetOrCreate(addr)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, len(addrs), r.Size())
	require.Len(t, r.AllAddresses(), len(addrs))

	seen := map[AssetID]bool{}
	for _, addr := range addrs {
		id, ok := r.GetID(addr)
		require.True(t, ok)
		require.False(t, seen[id], "IDs must be unique")
		seen[id] = true
		require.Equal(t, addr, r.GetAddress(id))
	}
}
