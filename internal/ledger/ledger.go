// Package ledger is a multi-asset balance ledger kept in the same staged store
// as the pool registry, so transfers commit or roll back with the call.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
	"poolLedger/internal/safemath"
	"poolLedger/internal/state"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnauthorized        = errors.New("authorizer is not the debited account")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Ledger holds per-asset account balances.
type Ledger struct {
	store state.Store
}

func New(store state.Store) *Ledger {
	return &Ledger{store: store}
}

// Balance returns the account's balance of asset and whether a record exists.
func (l *Ledger) Balance(ctx context.Context, asset model.AssetID, account common.Address) (*uint256.Int, bool, error) {
	data, ok, err := l.store.Get(ctx, state.BalanceKey(asset, account))
	if err != nil {
		return nil, false, fmt.Errorf("read balance %d/%s: %w", asset, account.Hex(), err)
	}
	if !ok {
		return nil, false, nil
	}
	balance, err := state.DecodeAmount(data)
	if err != nil {
		return nil, false, err
	}
	return balance, true, nil
}

// Mint credits amount of asset to an account.
func (l *Ledger) Mint(ctx context.Context, asset model.AssetID, to common.Address, amount *uint256.Int) error {
	return l.credit(ctx, asset, to, amount)
}

// SafeTransfer moves amount of asset from one account to another. It fails
// without side effects when from cannot cover the amount.
func (l *Ledger) SafeTransfer(ctx context.Context, authorizer, from, to common.Address, asset model.AssetID, amount *uint256.Int) error {
	if authorizer != from {
		return ErrUnauthorized
	}

	balance, ok, err := l.Balance(ctx, asset, from)
	if err != nil {
		return err
	}
	if !ok {
		balance = new(uint256.Int)
	}
	remaining, err := safemath.Sub(balance, amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s of asset %d, needs %s", ErrInsufficientBalance, from.Hex(), balance.Dec(), asset, amount.Dec())
	}
	l.store.Put(state.BalanceKey(asset, from), state.EncodeAmount(remaining))

	return l.credit(ctx, asset, to, amount)
}

func (l *Ledger) credit(ctx context.Context, asset model.AssetID, to common.Address, amount *uint256.Int) error {
	balance, ok, err := l.Balance(ctx, asset, to)
	if err != nil {
		return err
	}
	if !ok {
		balance = new(uint256.Int)
	}
	updated, err := safemath.Add(balance, amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	l.store.Put(state.BalanceKey(asset, to), state.EncodeAmount(updated))
	return nil
}
