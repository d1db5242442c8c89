package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event names as they appear in encoded logs.
const (
	EventPoolCreated = "PoolCreated"
	EventSwapped     = "Swapped"
	EventDeposited   = "Deposited"
	EventWithdrawed  = "Withdrawed"
)

// Event is a domain event emitted by a successful pool operation.
type Event interface {
	EventName() string
	PoolAddress() common.Address
}

// PoolCreated is emitted by Init.
type PoolCreated struct {
	Creator common.Address
	Pool    common.Address
	AssetA  AssetID
	AssetB  AssetID
}

// Swapped is emitted by Swap.
type Swapped struct {
	Operator  common.Address
	Pool      common.Address
	AssetIn   AssetID
	AmountIn  *uint256.Int
	AssetOut  AssetID
	AmountOut *uint256.Int
}

// Deposited is emitted by Deposit. AssetA is the asset the operator named.
type Deposited struct {
	Operator common.Address
	Pool     common.Address
	AssetA   AssetID
	AmountA  *uint256.Int
	AssetB   AssetID
	AmountB  *uint256.Int
}

// Withdrawed is emitted by Withdraw. AssetA is the asset the operator named.
type Withdrawed struct {
	Operator common.Address
	Pool     common.Address
	AssetA   AssetID
	AmountA  *uint256.Int
	AssetB   AssetID
	AmountB  *uint256.Int
}

func (PoolCreated) EventName() string { return EventPoolCreated }
func (Swapped) EventName() string     { return EventSwapped }
func (Deposited) EventName() string   { return EventDeposited }
func (Withdrawed) EventName() string  { return EventWithdrawed }

func (e PoolCreated) PoolAddress() common.Address { return e.Pool }
func (e Swapped) PoolAddress() common.Address     { return e.Pool }
func (e Deposited) PoolAddress() common.Address   { return e.Pool }
func (e Withdrawed) PoolAddress() common.Address  { return e.Pool }

// PoolCreatedEventData is the decoded PoolCreated payload.
type PoolCreatedEventData struct {
	Creator string  `json:"creator"`
	Pool    string  `json:"pool"`
	AssetA  AssetID `json:"asset_a"`
	AssetB  AssetID `json:"asset_b"`
}

// SwappedEventData is the decoded Swapped payload.
type SwappedEventData struct {
	Operator  string  `json:"operator"`
	Pool      string  `json:"pool"`
	AssetIn   AssetID `json:"asset_in"`
	AmountIn  string  `json:"amount_in"`
	AssetOut  AssetID `json:"asset_out"`
	AmountOut string  `json:"amount_out"`
}

// LiquidityEventData is the decoded Deposited or Withdrawed payload.
type LiquidityEventData struct {
	Operator string  `json:"operator"`
	Pool     string  `json:"pool"`
	AssetA   AssetID `json:"asset_a"`
	AmountA  string  `json:"amount_a"`
	AssetB   AssetID `json:"asset_b"`
	AmountB  string  `json:"amount_b"`
}
