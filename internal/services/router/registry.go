package router

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"github.com/velodex/route-advisor/internal/domain"
)

// AssetID is a compact integer identifier for assets, used for index-based
// adjacency so searches never chase pointers across the graph.
type AssetID uint32

// InvalidAssetID represents an unknown asset.
const InvalidAssetID AssetID = 0xFFFFFFFF

// AssetRegistry maps addresses to dense integer IDs for O(1) array access.
// IDs are append-only; an asset keeps its ID for the process lifetime.
type AssetRegistry struct {
	mu     sync.RWMutex
	toID   map[common.Address]AssetID
	toAddr []common.Address
	assets []*domain.Asset // indexed by AssetID, nil until metadata arrives
	nextID atomic.Uint32
}

func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		toID:   make(map[common.Address]AssetID, 1024),
		toAddr: make([]common.Address, 0, 1024),
		assets: make([]*domain.Asset, 0, 1024),
	}
}

// GetOrCreate returns the ID for an address, creating one if needed.
func (r *AssetRegistry) GetOrCreate(addr common.Address) AssetID {
	r.mu.RLock()
	if id, ok := r.toID[addr]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.toID[addr]; ok {
		return id
	}

	id := AssetID(r.nextID.Add(1) - 1)
	r.toID[addr] = id
	r.toAddr = append(r.toAddr, addr)
	r.assets = append(r.assets, nil)
	return id
}

func (r *AssetRegistry) GetID(addr common.Address) (AssetID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.toID[addr]
	return id, ok
}

func (r *AssetRegistry) GetAddress(id AssetID) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.toAddr) {
		return common.Address{}
	}
	return r.toAddr[id]
}

// SetAsset attaches metadata to an already-registered asset. First write
// wins: assets are immutable after creation.
func (r *AssetRegistry) SetAsset(asset *domain.Asset) {
	id := r.GetOrCreate(asset.Address)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assets[id] == nil {
		r.assets[id] = asset
	}
}

func (r *AssetRegistry) GetAsset(addr common.Address) *domain.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.toID[addr]
	if !ok || r.assets[id] == nil {
		return nil
	}
	return r.assets[id]
}

// Symbol returns the asset symbol, falling back to the short hex form.
func (r *AssetRegistry) Symbol(addr common.Address) string {
	if a := r.GetAsset(addr); a != nil && a.Symbol != "" {
		return a.Symbol
	}
	return addr.Hex()
}

func (r *AssetRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.toAddr)
}

func (r *AssetRegistry) AllAddresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]common.Address, len(r.toAddr))
	copy(result, r.toAddr)
	return result
}
