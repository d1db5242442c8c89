package amm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
)

// PoolInfo is a read-only view of a pool for display.
type PoolInfo struct {
	Address     common.Address
	Pool        model.Pool
	TotalShares *uint256.Int
	BalanceA    *uint256.Int
	BalanceB    *uint256.Int
	// LiveProduct is BalanceA * BalanceB. It drifts from Pool.Invariant after
	// swaps until the next deposit or withdrawal resynchronizes it.
	LiveProduct *uint256.Int
	// PriceA is the spot price of one unit of AssetA in AssetB.
	PriceA  decimal.Decimal
	PriceB  decimal.Decimal
	FeeRate decimal.Decimal
}

// Info assembles a PoolInfo from the registry and live ledger balances.
func (p *Pallet) Info(ctx context.Context, pool common.Address) (PoolInfo, error) {
	record, err := p.mustGetPool(ctx, pool)
	if err != nil {
		return PoolInfo{}, err
	}
	total, ok, err := p.registry.GetTotalShares(ctx, pool)
	if err != nil {
		return PoolInfo{}, err
	}
	if !ok {
		total = new(uint256.Int)
	}
	balanceA, err := p.balanceOrZero(ctx, record.AssetA, pool)
	if err != nil {
		return PoolInfo{}, err
	}
	balanceB, err := p.balanceOrZero(ctx, record.AssetB, pool)
	if err != nil {
		return PoolInfo{}, err
	}
	live, err := mul(balanceA, balanceB)
	if err != nil {
		return PoolInfo{}, err
	}

	return PoolInfo{
		Address:     pool,
		Pool:        record,
		TotalShares: total,
		BalanceA:    balanceA,
		BalanceB:    balanceB,
		LiveProduct: live,
		PriceA:      ratio(balanceB, balanceA),
		PriceB:      ratio(balanceA, balanceB),
		FeeRate:     ratio(p.params.Fee, p.params.HundredPercent),
	}, nil
}

func (p *Pallet) balanceOrZero(ctx context.Context, asset model.AssetID, account common.Address) (*uint256.Int, error) {
	balance, ok, err := p.tokens.Balance(ctx, asset, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return balance, nil
}

func ratio(num, den *uint256.Int) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return toDecimal(num).Div(toDecimal(den))
}

func toDecimal(x *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(x.ToBig(), 0)
}
