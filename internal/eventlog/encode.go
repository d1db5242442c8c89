package eventlog

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
)

// Encode converts a pool event into a LogRecord. seq and call identify the
// committed call; index orders the event within it.
func Encode(event model.Event, seq uint64, call string, index uint64, timestamp uint64) (model.LogRecord, error) {
	parsed, err := PoolABI()
	if err != nil {
		return model.LogRecord{}, err
	}
	abiEvent, ok := parsed.Events[event.EventName()]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unknown event %s", event.EventName())
	}

	var (
		account common.Address
		values  []interface{}
	)
	switch e := event.(type) {
	case model.PoolCreated:
		account = e.Creator
		values = []interface{}{uint64(e.AssetA), uint64(e.AssetB)}
	case model.Swapped:
		account = e.Operator
		values = []interface{}{uint64(e.AssetIn), toBig(e.AmountIn), uint64(e.AssetOut), toBig(e.AmountOut)}
	case model.Deposited:
		account = e.Operator
		values = []interface{}{uint64(e.AssetA), toBig(e.AmountA), uint64(e.AssetB), toBig(e.AmountB)}
	case model.Withdrawed:
		account = e.Operator
		values = []interface{}{uint64(e.AssetA), toBig(e.AmountA), uint64(e.AssetB), toBig(e.AmountB)}
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported event type %T", event)
	}

	data, err := abiEvent.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", abiEvent.Name, err)
	}

	pool := event.PoolAddress()
	return model.LogRecord{
		Seq:      seq,
		Call:     call,
		LogIndex: index,
		Address:  pool.Hex(),
		Topics: []string{
			abiEvent.ID.Hex(),
			topicFromAddress(account).Hex(),
			topicFromAddress(pool).Hex(),
		},
		Data:      hexutil.Encode(data),
		Timestamp: timestamp,
	}, nil
}

func toBig(x *uint256.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x.ToBig()
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
