package eventlog

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolLedger/internal/model"
)

// Decoder turns pool LogRecords back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(parsed.Events))
	for name, event := range parsed.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{poolABI: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent whose Decoded field holds one
// of the model event payloads.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	event := d.poolABI.Events[name]
	account, pool, err := d.parseAccounts(event, log.Topics)
	if err != nil {
		return nil, err
	}
	if pool != common.HexToAddress(log.Address) {
		return nil, fmt.Errorf("pool topic %s does not match log address %s", pool.Hex(), log.Address)
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventPoolCreated:
		decoded, err = decodePoolCreated(account, pool, values)
	case model.EventSwapped:
		decoded, err = decodeSwapped(account, pool, values)
	case model.EventDeposited, model.EventWithdrawed:
		decoded, err = decodeLiquidity(account, pool, values)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}

	return &model.TypedEvent{
		Seq:       log.Seq,
		Call:      log.Call,
		LogIndex:  log.LogIndex,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
	}, nil
}

func (d *Decoder) parseAccounts(event abi.Event, topics []string) (common.Address, common.Address, error) {
	indexedArgs := indexedArguments(event.Inputs)
	if len(topics) != len(indexedArgs)+1 {
		return common.Address{}, common.Address{}, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	out := make(map[string]interface{}, len(indexedArgs))
	if err := abi.ParseTopicsIntoMap(out, indexedArgs, hashes); err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse topics: %w", err)
	}
	account, err := asAddress(out[indexedArgs[0].Name])
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	pool, err := asAddress(out["pool"])
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return account, pool, nil
}

func decodePoolCreated(creator, pool common.Address, values []interface{}) (model.PoolCreatedEventData, error) {
	if len(values) != 2 {
		return model.PoolCreatedEventData{}, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	assetA, err := asUint64(values[0])
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	assetB, err := asUint64(values[1])
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	return model.PoolCreatedEventData{
		Creator: creator.Hex(),
		Pool:    pool.Hex(),
		AssetA:  model.AssetID(assetA),
		AssetB:  model.AssetID(assetB),
	}, nil
}

func decodeSwapped(operator, pool common.Address, values []interface{}) (model.SwappedEventData, error) {
	if len(values) != 4 {
		return model.SwappedEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	assetIn, amountIn, err := assetAmount(values[0], values[1])
	if err != nil {
		return model.SwappedEventData{}, err
	}
	assetOut, amountOut, err := assetAmount(values[2], values[3])
	if err != nil {
		return model.SwappedEventData{}, err
	}
	return model.SwappedEventData{
		Operator:  operator.Hex(),
		Pool:      pool.Hex(),
		AssetIn:   assetIn,
		AmountIn:  amountIn,
		AssetOut:  assetOut,
		AmountOut: amountOut,
	}, nil
}

func decodeLiquidity(operator, pool common.Address, values []interface{}) (model.LiquidityEventData, error) {
	if len(values) != 4 {
		return model.LiquidityEventData{}, fmt.Errorf("unexpected liquidity values: %d", len(values))
	}
	assetA, amountA, err := assetAmount(values[0], values[1])
	if err != nil {
		return model.LiquidityEventData{}, err
	}
	assetB, amountB, err := assetAmount(values[2], values[3])
	if err != nil {
		return model.LiquidityEventData{}, err
	}
	return model.LiquidityEventData{
		Operator: operator.Hex(),
		Pool:     pool.Hex(),
		AssetA:   assetA,
		AmountA:  amountA,
		AssetB:   assetB,
		AmountB:  amountB,
	}, nil
}

func assetAmount(assetValue, amountValue interface{}) (model.AssetID, string, error) {
	asset, err := asUint64(assetValue)
	if err != nil {
		return 0, "", err
	}
	amount, err := asBigInt(amountValue)
	if err != nil {
		return 0, "", err
	}
	return model.AssetID(asset), amount.String(), nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address type %T", value)
	}
	return addr, nil
}

func asUint64(value interface{}) (uint64, error) {
	v, ok := value.(uint64)
	if !ok {
		return 0, fmt.Errorf("unexpected uint64 type %T", value)
	}
	return v, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	v, ok := value.(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("unexpected integer type %T", value)
	}
	return v, nil
}
