package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/velodex/route-advisor/internal/domain"
	"github.com/velodex/route-advisor/internal/metrics"
)

const (
	PoolsBucket = "pools"

	DefaultDBPath = "./data/advisor.db"
)

// StoredPool is the on-disk pool record. Uint256 fields ride as decimal
// strings so the file survives schema-agnostic tooling.
type StoredPool struct {
	Address        string `json:"address"`
	AssetA         string `json:"assetA"`
	AssetB         string `json:"assetB"`
	FeePPM         uint32 `json:"feePPM"`
	TickSpacing    int32  `json:"tickSpacing"`
	Liquidity      string `json:"liquidity"`
	SqrtPriceX96   string `json:"sqrtPriceX96"`
	CurrentTick    int32  `json:"currentTick"`
	Hook           string `json:"hook,omitempty"`
	LastUpdateUnix int64  `json:"lastUpdateUnix"`
}

// Storage persists graph pools across restarts so a fresh process can serve
// quotes before the sync feed has replayed the whole pool set.
type Storage struct {
	db     *bolt.DB
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(PoolsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create pools bucket: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("[storage] opened database")
	return &Storage{db: db, dbPath: dbPath}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PoolsBucket)).Put(pool.Address.Bytes(), data)
	})
}

// SavePoolBatch writes all pools in one transaction.
func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(PoolsBucket))
		for _, pool := range pools {
			data, err := sonic.Marshal(poolToStored(pool))
			if err != nil {
				return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.Hex(), err)
			}
			if err := bucket.Put(pool.Address.Bytes(), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.PoolsPersisted.Set(float64(len(pools)))
	return nil
}

func (s *Storage) DeletePool(address common.Address) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PoolsBucket)).Delete(address.Bytes())
	})
}

// LoadPools reads every stored pool. Records that no longer parse are
// skipped with a warning rather than failing the whole boot.
func (s *Storage) LoadPools() ([]*domain.Pool, error) {
	var pools []*domain.Pool
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PoolsBucket)).ForEach(func(k, v []byte) error {
			var stored StoredPool
			if err := sonic.Unmarshal(v, &stored); err != nil {
				log.Warn().Err(err).Hex("key", k).Msg("[storage] skipping unreadable pool record")
				return nil
			}
			pool, err := storedToPool(&stored)
			if err != nil {
				log.Warn().Err(err).Str("address", stored.Address).Msg("[storage] skipping invalid pool record")
				return nil
			}
			pools = append(pools, pool)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.PoolsRestored.Set(float64(len(pools)))
	return pools, nil
}

func poolToStored(pool *domain.Pool) *StoredPool {
	stored := &StoredPool{
		Address:        pool.Address.Hex(),
		AssetA:         pool.AssetA.Hex(),
		AssetB:         pool.AssetB.Hex(),
		FeePPM:         pool.FeePPM,
		TickSpacing:    pool.TickSpacing,
		CurrentTick:    pool.CurrentTick,
		LastUpdateUnix: pool.LastUpdateUnix,
	}
	if pool.Liquidity != nil {
		stored.Liquidity = pool.Liquidity.Dec()
	}
	if pool.SqrtPriceX96 != nil {
		stored.SqrtPriceX96 = pool.SqrtPriceX96.Dec()
	}
	if pool.HasHook() {
		stored.Hook = pool.Hook.Hex()
	}
	return stored
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	pool := &domain.Pool{
		Address:        common.HexToAddress(stored.Address),
		AssetA:         common.HexToAddress(stored.AssetA),
		AssetB:         common.HexToAddress(stored.AssetB),
		FeePPM:         stored.FeePPM,
		TickSpacing:    stored.TickSpacing,
		CurrentTick:    stored.CurrentTick,
		LastUpdateUnix: stored.LastUpdateUnix,
	}
	if stored.Hook != "" {
		pool.Hook = common.HexToAddress(stored.Hook)
	}
	if stored.Liquidity != "" {
		liquidity, err := uint256.FromDecimal(stored.Liquidity)
		if err != nil {
			return nil, fmt.Errorf("bad liquidity %q: %w", stored.Liquidity, err)
		}
		pool.SetLiquidity(liquidity)
	}
	if stored.SqrtPriceX96 != "" {
		sqrtPrice, err := uint256.FromDecimal(stored.SqrtPriceX96)
		if err != nil {
			return nil, fmt.Errorf("bad sqrtPriceX96 %q: %w", stored.SqrtPriceX96, err)
		}
		pool.SqrtPriceX96 = sqrtPrice
	}
	return pool, nil
}
