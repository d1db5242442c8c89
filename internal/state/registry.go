package state

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
)

// Registry is typed access to the Pools, PoolShares and TotalPoolShares regions.
// It holds no invariants of its own; callers enforce them.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// GetPool returns the pool record stored at pool, if any.
func (r *Registry) GetPool(ctx context.Context, pool common.Address) (model.Pool, bool, error) {
	data, ok, err := r.store.Get(ctx, PoolKey(pool))
	if err != nil {
		return model.Pool{}, false, fmt.Errorf("read pool %s: %w", pool.Hex(), err)
	}
	if !ok {
		return model.Pool{}, false, nil
	}
	record, err := decodePool(data)
	if err != nil {
		return model.Pool{}, false, err
	}
	return record, true, nil
}

func (r *Registry) PutPool(pool common.Address, record model.Pool) {
	r.store.Put(PoolKey(pool), encodePool(record))
}

// GetShare returns the provider's share balance, zero when absent.
func (r *Registry) GetShare(ctx context.Context, pool, provider common.Address) (*uint256.Int, error) {
	data, ok, err := r.store.Get(ctx, ShareKey(pool, provider))
	if err != nil {
		return nil, fmt.Errorf("read share %s/%s: %w", pool.Hex(), provider.Hex(), err)
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return DecodeAmount(data)
}

func (r *Registry) SetShare(pool, provider common.Address, amount *uint256.Int) {
	r.store.Put(ShareKey(pool, provider), EncodeAmount(amount))
}

// GetTotalShares returns the pool's total issued shares, if recorded.
func (r *Registry) GetTotalShares(ctx context.Context, pool common.Address) (*uint256.Int, bool, error) {
	data, ok, err := r.store.Get(ctx, TotalSharesKey(pool))
	if err != nil {
		return nil, false, fmt.Errorf("read total shares %s: %w", pool.Hex(), err)
	}
	if !ok {
		return nil, false, nil
	}
	total, err := DecodeAmount(data)
	if err != nil {
		return nil, false, err
	}
	return total, true, nil
}

func (r *Registry) SetTotalShares(pool common.Address, amount *uint256.Int) {
	r.store.Put(TotalSharesKey(pool), EncodeAmount(amount))
}
