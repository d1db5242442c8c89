package amm

import (
	"errors"

	"poolLedger/internal/safemath"
)

// Errors returned by pool operations. Every one aborts the call.
var (
	// ErrOverflow covers checked-arithmetic failures, including a withdrawal
	// larger than the caller's shares.
	ErrOverflow              = safemath.ErrOverflow
	ErrDepositingZeroAmount  = errors.New("depositing zero amount")
	ErrWithdrawingZeroAmount = errors.New("withdrawing zero amount")
	ErrPoolAlreadyExists     = errors.New("pool already exists")
	ErrNoSuchPool            = errors.New("no such pool")
	ErrNotEnoughBalance      = errors.New("not enough balance")
	ErrNoSuchTokenInPool     = errors.New("no such token in pool")
	ErrEmptyPool             = errors.New("empty pool")
	ErrSameAssetPool         = errors.New("same asset pool")
)

// IsDomainError reports whether err is one of the pool operation errors above.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrOverflow,
		ErrDepositingZeroAmount,
		ErrWithdrawingZeroAmount,
		ErrPoolAlreadyExists,
		ErrNoSuchPool,
		ErrNotEnoughBalance,
		ErrNoSuchTokenInPool,
		ErrEmptyPool,
		ErrSameAssetPool,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
