package model

import "github.com/holiman/uint256"

// AssetID identifies a fungible asset in the token ledger.
type AssetID uint64

// Pool is the registry record for a two-asset pool.
// Invariant is the product cached at the last Init, Deposit or Withdraw.
type Pool struct {
	AssetA    AssetID
	AssetB    AssetID
	Invariant *uint256.Int
}

// Has reports whether asset is one of the pool's two assets.
func (p Pool) Has(asset AssetID) bool {
	return asset == p.AssetA || asset == p.AssetB
}

// Counterpart returns the pool asset paired with asset.
func (p Pool) Counterpart(asset AssetID) (AssetID, bool) {
	switch asset {
	case p.AssetA:
		return p.AssetB, true
	case p.AssetB:
		return p.AssetA, true
	default:
		return 0, false
	}
}
