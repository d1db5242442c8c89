package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
	"poolLedger/internal/safemath"
)

func isZero(x *uint256.Int) bool {
	return x == nil || x.IsZero()
}

func add(x, y *uint256.Int) (*uint256.Int, error) { return safemath.Add(x, y) }
func sub(x, y *uint256.Int) (*uint256.Int, error) { return safemath.Sub(x, y) }
func mul(x, y *uint256.Int) (*uint256.Int, error) { return safemath.Mul(x, y) }

func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	return safemath.MulDiv(x, y, d)
}

// checkBalance fails unless account holds at least needed of asset.
func (p *Pallet) checkBalance(ctx context.Context, asset model.AssetID, account common.Address, needed *uint256.Int) error {
	balance, ok, err := p.tokens.Balance(ctx, asset, account)
	if err != nil {
		return err
	}
	if !ok || balance.Lt(needed) {
		return ErrNotEnoughBalance
	}
	return nil
}

func (p *Pallet) mustGetPool(ctx context.Context, pool common.Address) (model.Pool, error) {
	record, ok, err := p.registry.GetPool(ctx, pool)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, ErrNoSuchPool
	}
	return record, nil
}

// liveBalances reads the pool's holdings of both assets from the token ledger.
// A missing or zero balance on either side is ErrEmptyPool.
func (p *Pallet) liveBalances(ctx context.Context, pool common.Address, origin, dest model.AssetID) (*uint256.Int, *uint256.Int, error) {
	originBalance, ok, err := p.tokens.Balance(ctx, origin, pool)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrEmptyPool
	}
	destBalance, ok, err := p.tokens.Balance(ctx, dest, pool)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrEmptyPool
	}
	if originBalance.IsZero() || destBalance.IsZero() {
		return nil, nil, ErrEmptyPool
	}
	return originBalance, destBalance, nil
}

// totalShares returns the pool's share supply; a missing or zero supply means
// the pool cannot price shares and is reported as ErrNoSuchPool.
func (p *Pallet) totalShares(ctx context.Context, pool common.Address) (*uint256.Int, error) {
	total, ok, err := p.registry.GetTotalShares(ctx, pool)
	if err != nil {
		return nil, err
	}
	if !ok || total.IsZero() {
		return nil, ErrNoSuchPool
	}
	return total, nil
}

// resyncInvariant stores the live product of the pool's balances.
func (p *Pallet) resyncInvariant(ctx context.Context, pool common.Address, record model.Pool, origin, dest model.AssetID) error {
	originBalance, ok, err := p.tokens.Balance(ctx, origin, pool)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmptyPool
	}
	destBalance, ok, err := p.tokens.Balance(ctx, dest, pool)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmptyPool
	}
	invariant, err := mul(originBalance, destBalance)
	if err != nil {
		return err
	}
	record.Invariant = invariant
	p.registry.PutPool(pool, record)
	return nil
}

func (p *Pallet) transfer(ctx context.Context, from, to common.Address, asset model.AssetID, amount *uint256.Int) error {
	if err := p.tokens.SafeTransfer(ctx, from, from, to, asset, amount); err != nil {
		return fmt.Errorf("transfer %s of asset %d from %s: %w", amount.Dec(), asset, from.Hex(), err)
	}
	return nil
}

func (p *Pallet) emit(event model.Event) {
	if p.events != nil {
		p.events.Emit(event)
	}
}
