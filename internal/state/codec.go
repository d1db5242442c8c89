package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"poolLedger/internal/model"
)

// ErrCorrupt reports a stored value with an unexpected encoding.
var ErrCorrupt = errors.New("corrupt state value")

const (
	amountLen = 32
	poolLen   = 8 + 8 + amountLen
)

// EncodeAmount returns the fixed 32-byte big-endian form of amount.
func EncodeAmount(amount *uint256.Int) []byte {
	b := amount.Bytes32()
	return b[:]
}

// DecodeAmount parses a value written by EncodeAmount.
func DecodeAmount(data []byte) (*uint256.Int, error) {
	if len(data) != amountLen {
		return nil, fmt.Errorf("%w: amount length %d", ErrCorrupt, len(data))
	}
	return new(uint256.Int).SetBytes(data), nil
}

func encodePool(pool model.Pool) []byte {
	buf := make([]byte, poolLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(pool.AssetA))
	binary.BigEndian.PutUint64(buf[8:16], uint64(pool.AssetB))
	invariant := pool.Invariant
	if invariant == nil {
		invariant = new(uint256.Int)
	}
	copy(buf[16:], EncodeAmount(invariant))
	return buf
}

func decodePool(data []byte) (model.Pool, error) {
	if len(data) != poolLen {
		return model.Pool{}, fmt.Errorf("%w: pool length %d", ErrCorrupt, len(data))
	}
	return model.Pool{
		AssetA:    model.AssetID(binary.BigEndian.Uint64(data[0:8])),
		AssetB:    model.AssetID(binary.BigEndian.Uint64(data[8:16])),
		Invariant: new(uint256.Int).SetBytes(data[16:]),
	}, nil
}
