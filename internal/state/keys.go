package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"

	"poolLedger/internal/model"
)

// Storage region prefixes.
var (
	poolPrefix    = []byte("pool")
	sharePrefix   = []byte("shar")
	totalPrefix   = []byte("totl")
	balancePrefix = []byte("bal_")
	seqPrefix     = []byte("seq_")
)

const digestLen = 16

// makeStorageKey lays out prefix || blake3(prefix || parts)[:16] || parts.
// Keeping the raw parts after the digest leaves keys enumerable by region.
func makeStorageKey(prefix []byte, parts ...[]byte) []byte {
	h := blake3.New()
	h.Write(prefix)
	size := len(prefix) + digestLen
	for _, part := range parts {
		h.Write(part)
		size += len(part)
	}
	digest := h.Sum(nil)

	key := make([]byte, 0, size)
	key = append(key, prefix...)
	key = append(key, digest[:digestLen]...)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}

func assetBytes(asset model.AssetID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(asset))
	return buf[:]
}

// PoolKey addresses a record in the Pools region.
func PoolKey(pool common.Address) []byte {
	return makeStorageKey(poolPrefix, pool.Bytes())
}

// ShareKey addresses a record in the PoolShares region.
func ShareKey(pool, provider common.Address) []byte {
	return makeStorageKey(sharePrefix, pool.Bytes(), provider.Bytes())
}

// TotalSharesKey addresses a record in the TotalPoolShares region.
func TotalSharesKey(pool common.Address) []byte {
	return makeStorageKey(totalPrefix, pool.Bytes())
}

// BalanceKey addresses a token ledger balance.
func BalanceKey(asset model.AssetID, account common.Address) []byte {
	return makeStorageKey(balancePrefix, assetBytes(asset), account.Bytes())
}

// SeqKey addresses the committed call counter.
func SeqKey() []byte {
	return makeStorageKey(seqPrefix)
}
