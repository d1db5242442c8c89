package amm

import (
	"github.com/holiman/uint256"

	"poolLedger/internal/safemath"
)

// QuoteSwap prices selling amount of the origin asset against a pool whose
// cached invariant is invariant and whose live balances are origin and dest:
//
//	partial = invariant / (origin + amount)
//	raw     = dest - partial
//	out     = raw * (HundredPercent - Fee) / HundredPercent
func QuoteSwap(invariant, origin, dest, amount *uint256.Int, params Params) (*uint256.Int, error) {
	denominator, err := safemath.Add(origin, amount)
	if err != nil {
		return nil, err
	}
	partial, err := safemath.Div(invariant, denominator)
	if err != nil {
		return nil, err
	}
	raw, err := safemath.Sub(dest, partial)
	if err != nil {
		return nil, err
	}
	keep, err := safemath.Sub(params.HundredPercent, params.Fee)
	if err != nil {
		return nil, err
	}
	return safemath.MulDiv(raw, keep, params.HundredPercent)
}
