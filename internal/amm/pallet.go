// Package amm implements constant-product pools: creation, swaps, and
// proportional liquidity deposits and withdrawals.
//
// Pallet writes only through its state.Store and TokenLedger. It relies on
// the caller to commit those writes when an operation returns nil and to
// discard them otherwise.
package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

// TokenLedger is the asset custody the pools draw on.
type TokenLedger interface {
	Balance(ctx context.Context, asset model.AssetID, account common.Address) (*uint256.Int, bool, error)
	SafeTransfer(ctx context.Context, authorizer, from, to common.Address, asset model.AssetID, amount *uint256.Int) error
}

// EventSink receives events of successful operations.
type EventSink interface {
	Emit(event model.Event)
}

// Pallet executes pool operations against a registry and a token ledger.
type Pallet struct {
	registry *state.Registry
	tokens   TokenLedger
	events   EventSink
	params   Params
}

func NewPallet(registry *state.Registry, tokens TokenLedger, events EventSink, params Params) (*Pallet, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token ledger is nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Pallet{
		registry: registry,
		tokens:   tokens,
		events:   events,
		params:   params,
	}, nil
}

// Params returns the pallet's configuration constants.
func (p *Pallet) Params() Params {
	return p.params
}

// Registry exposes the pool registry the pallet writes to.
func (p *Pallet) Registry() *state.Registry {
	return p.registry
}

// Init creates a pool at the given address funded by the creator.
func (p *Pallet) Init(
	ctx context.Context,
	creator common.Address,
	pool common.Address,
	assetA model.AssetID,
	amountA *uint256.Int,
	assetB model.AssetID,
	amountB *uint256.Int,
) error {
	if isZero(amountA) || isZero(amountB) {
		return ErrDepositingZeroAmount
	}
	_, exists, err := p.registry.GetPool(ctx, pool)
	if err != nil {
		return err
	}
	if exists {
		return ErrPoolAlreadyExists
	}
	if assetA == assetB {
		return ErrSameAssetPool
	}
	if err := p.checkBalance(ctx, assetA, creator, amountA); err != nil {
		return err
	}
	if err := p.checkBalance(ctx, assetB, creator, amountB); err != nil {
		return err
	}

	invariant, err := mul(amountA, amountB)
	if err != nil {
		return err
	}

	if err := p.transfer(ctx, creator, pool, assetA, amountA); err != nil {
		return err
	}
	if err := p.transfer(ctx, creator, pool, assetB, amountB); err != nil {
		return err
	}

	p.registry.PutPool(pool, model.Pool{AssetA: assetA, AssetB: assetB, Invariant: invariant})
	p.registry.SetShare(pool, creator, p.params.DefaultShare)
	p.registry.SetTotalShares(pool, p.params.DefaultShare)

	p.emit(model.PoolCreated{
		Creator: creator,
		Pool:    pool,
		AssetA:  assetA,
		AssetB:  assetB,
	})
	return nil
}

// Swap sells amount of tokenID to the pool for its counterpart asset.
// Pricing uses the invariant cached at the last Init, Deposit or Withdraw,
// and a swap never rewrites it.
func (p *Pallet) Swap(
	ctx context.Context,
	operator common.Address,
	pool common.Address,
	tokenID model.AssetID,
	amount *uint256.Int,
) error {
	if isZero(amount) {
		return ErrDepositingZeroAmount
	}
	record, err := p.mustGetPool(ctx, pool)
	if err != nil {
		return err
	}
	if err := p.checkBalance(ctx, tokenID, operator, amount); err != nil {
		return err
	}
	counterpart, ok := record.Counterpart(tokenID)
	if !ok {
		return ErrNoSuchTokenInPool
	}
	origin, dest, err := p.liveBalances(ctx, pool, tokenID, counterpart)
	if err != nil {
		return err
	}

	out, err := QuoteSwap(record.Invariant, origin, dest, amount, p.params)
	if err != nil {
		return err
	}

	if err := p.transfer(ctx, operator, pool, tokenID, amount); err != nil {
		return err
	}
	if err := p.transfer(ctx, pool, operator, counterpart, out); err != nil {
		return err
	}

	p.emit(model.Swapped{
		Operator:  operator,
		Pool:      pool,
		AssetIn:   tokenID,
		AmountIn:  amount,
		AssetOut:  counterpart,
		AmountOut: out,
	})
	return nil
}

// Deposit adds amount of tokenID plus the ratio-preserving amount of the
// counterpart asset, minting shares in proportion to amount.
func (p *Pallet) Deposit(
	ctx context.Context,
	operator common.Address,
	pool common.Address,
	tokenID model.AssetID,
	amount *uint256.Int,
) error {
	if isZero(amount) {
		return ErrDepositingZeroAmount
	}
	record, err := p.mustGetPool(ctx, pool)
	if err != nil {
		return err
	}
	if err := p.checkBalance(ctx, tokenID, operator, amount); err != nil {
		return err
	}
	counterpart, ok := record.Counterpart(tokenID)
	if !ok {
		return ErrNoSuchTokenInPool
	}
	origin, dest, err := p.liveBalances(ctx, pool, tokenID, counterpart)
	if err != nil {
		return err
	}

	counterAmount, err := mulDiv(amount, dest, origin)
	if err != nil {
		return err
	}
	if err := p.checkBalance(ctx, counterpart, operator, counterAmount); err != nil {
		return err
	}

	total, err := p.totalShares(ctx, pool)
	if err != nil {
		return err
	}
	share, err := p.registry.GetShare(ctx, pool, operator)
	if err != nil {
		return err
	}
	delta, err := mulDiv(amount, total, origin)
	if err != nil {
		return err
	}
	newTotal, err := add(total, delta)
	if err != nil {
		return err
	}
	newShare, err := add(share, delta)
	if err != nil {
		return err
	}

	if err := p.transfer(ctx, operator, pool, tokenID, amount); err != nil {
		return err
	}
	if err := p.transfer(ctx, operator, pool, counterpart, counterAmount); err != nil {
		return err
	}
	if err := p.resyncInvariant(ctx, pool, record, tokenID, counterpart); err != nil {
		return err
	}

	p.registry.SetTotalShares(pool, newTotal)
	p.registry.SetShare(pool, operator, newShare)

	p.emit(model.Deposited{
		Operator: operator,
		Pool:     pool,
		AssetA:   tokenID,
		AmountA:  amount,
		AssetB:   counterpart,
		AmountB:  counterAmount,
	})
	return nil
}

// Withdraw removes amount of tokenID plus the ratio-preserving amount of the
// counterpart asset, burning shares in proportion to amount. Withdrawing more
// than the caller's shares cover fails with ErrOverflow.
func (p *Pallet) Withdraw(
	ctx context.Context,
	operator common.Address,
	pool common.Address,
	tokenID model.AssetID,
	amount *uint256.Int,
) error {
	if isZero(amount) {
		return ErrWithdrawingZeroAmount
	}
	record, err := p.mustGetPool(ctx, pool)
	if err != nil {
		return err
	}
	counterpart, ok := record.Counterpart(tokenID)
	if !ok {
		return ErrNoSuchTokenInPool
	}
	origin, dest, err := p.liveBalances(ctx, pool, tokenID, counterpart)
	if err != nil {
		return err
	}

	counterAmount, err := mulDiv(amount, dest, origin)
	if err != nil {
		return err
	}

	total, err := p.totalShares(ctx, pool)
	if err != nil {
		return err
	}
	share, err := p.registry.GetShare(ctx, pool, operator)
	if err != nil {
		return err
	}
	delta, err := mulDiv(amount, total, origin)
	if err != nil {
		return err
	}
	newTotal, err := sub(total, delta)
	if err != nil {
		return err
	}
	newShare, err := sub(share, delta)
	if err != nil {
		return err
	}

	p.registry.SetTotalShares(pool, newTotal)
	p.registry.SetShare(pool, operator, newShare)

	if err := p.transfer(ctx, pool, operator, tokenID, amount); err != nil {
		return err
	}
	if err := p.transfer(ctx, pool, operator, counterpart, counterAmount); err != nil {
		return err
	}
	if err := p.resyncInvariant(ctx, pool, record, tokenID, counterpart); err != nil {
		return err
	}

	p.emit(model.Withdrawed{
		Operator: operator,
		Pool:     pool,
		AssetA:   tokenID,
		AmountA:  amount,
		AssetB:   counterpart,
		AmountB:  counterAmount,
	})
	return nil
}
