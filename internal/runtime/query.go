package runtime

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/amm"
	"poolLedger/internal/ledger"
	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

// Reads run against committed state only.

func (r *Runtime) readView() (*state.Registry, *ledger.Ledger) {
	view := state.NewOverlay(r.backend)
	return state.NewRegistry(view), ledger.New(view)
}

func (r *Runtime) Pool(ctx context.Context, pool common.Address) (model.Pool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registry, _ := r.readView()
	return registry.GetPool(ctx, pool)
}

func (r *Runtime) Share(ctx context.Context, pool, provider common.Address) (*uint256.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registry, _ := r.readView()
	return registry.GetShare(ctx, pool, provider)
}

func (r *Runtime) TotalShares(ctx context.Context, pool common.Address) (*uint256.Int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registry, _ := r.readView()
	return registry.GetTotalShares(ctx, pool)
}

// Balance returns zero for an account without a record.
func (r *Runtime) Balance(ctx context.Context, asset model.AssetID, account common.Address) (*uint256.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, tokens := r.readView()
	balance, ok, err := tokens.Balance(ctx, asset, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return balance, nil
}

func (r *Runtime) PoolInfo(ctx context.Context, pool common.Address) (amm.PoolInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registry, tokens := r.readView()
	pallet, err := amm.NewPallet(registry, tokens, nil, r.params)
	if err != nil {
		return amm.PoolInfo{}, err
	}
	return pallet.Info(ctx, pool)
}

// Logs returns the committed event log.
func (r *Runtime) Logs(ctx context.Context) ([]model.LogRecord, error) {
	return r.backend.Logs(ctx)
}
