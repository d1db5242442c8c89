// Package safemath provides checked arithmetic over 256-bit unsigned integers.
// Every operation returns a fresh value or ErrOverflow; inputs are never mutated.
package safemath

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow reports an overflow, an underflow, or a division by zero.
var ErrOverflow = errors.New("overflow")

// Add returns x + y.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub returns x - y, failing when y > x.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Mul returns x * y.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Div returns the truncated quotient x / y.
func Div(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Div(x, y), nil
}

// MulDiv returns x * y / d with both steps checked.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	product, err := Mul(x, y)
	if err != nil {
		return nil, err
	}
	return Div(product, d)
}
