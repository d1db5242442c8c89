package amm

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"poolLedger/internal/model"
)

var poolAddressDomain = []byte("amm-pool")

// DerivePoolAddress returns a deterministic pool account for a creator and
// asset pair. The pair is order-insensitive. Pool operations never require an
// address to be derived this way.
func DerivePoolAddress(creator common.Address, assetA, assetB model.AssetID) common.Address {
	lo, hi := assetA, assetB
	if hi < lo {
		lo, hi = hi, lo
	}
	var pair [16]byte
	binary.BigEndian.PutUint64(pair[0:8], uint64(lo))
	binary.BigEndian.PutUint64(pair[8:16], uint64(hi))

	hash := crypto.Keccak256(poolAddressDomain, creator.Bytes(), pair[:])
	return common.BytesToAddress(hash[12:])
}
