// Package eventlog encodes pool events as ABI logs and decodes them back.
package eventlog

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "assetA", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "assetB", "type": "uint64"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "assetIn", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint64", "name": "assetOut", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"}
    ],
    "name": "Swapped",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "assetA", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountA", "type": "uint256"},
      {"indexed": false, "internalType": "uint64", "name": "assetB", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountB", "type": "uint256"}
    ],
    "name": "Deposited",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "assetA", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountA", "type": "uint256"},
      {"indexed": false, "internalType": "uint64", "name": "assetB", "type": "uint64"},
      {"indexed": false, "internalType": "uint256", "name": "amountB", "type": "uint256"}
    ],
    "name": "Withdrawed",
    "type": "event"
  }
]`

var (
	poolABI     abi.ABI
	poolABIOnce sync.Once
	poolABIErr  error
)

// PoolABI returns the parsed pool event ABI.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}
