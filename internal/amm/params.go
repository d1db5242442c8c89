package amm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var ErrInvalidParams = errors.New("invalid pool params")

// Params are the fixed configuration constants of the exchange.
type Params struct {
	// DefaultShare is minted to a pool's creator regardless of the deposit size.
	DefaultShare *uint256.Int
	// HundredPercent is the denominator of Fee.
	HundredPercent *uint256.Int
	// Fee is taken from every swap output, in HundredPercent units.
	Fee *uint256.Int
}

// DefaultParams returns a 10000 share creator grant and a 0.3% swap fee.
func DefaultParams() Params {
	return Params{
		DefaultShare:   uint256.NewInt(10000),
		HundredPercent: uint256.NewInt(1000),
		Fee:            uint256.NewInt(3),
	}
}

func (p Params) Validate() error {
	if p.DefaultShare == nil || p.HundredPercent == nil || p.Fee == nil {
		return fmt.Errorf("%w: missing value", ErrInvalidParams)
	}
	if p.DefaultShare.IsZero() {
		return fmt.Errorf("%w: default share must be > 0", ErrInvalidParams)
	}
	if p.HundredPercent.IsZero() {
		return fmt.Errorf("%w: hundred percent must be > 0", ErrInvalidParams)
	}
	if !p.Fee.Lt(p.HundredPercent) {
		return fmt.Errorf("%w: fee %s must be below hundred percent %s", ErrInvalidParams, p.Fee.Dec(), p.HundredPercent.Dec())
	}
	return nil
}
