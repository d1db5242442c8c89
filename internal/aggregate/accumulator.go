package aggregate

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"poolLedger/internal/model"
	"poolLedger/internal/safemath"
)

// Accumulator holds aggregate values for a pool window. Asset0 is the lower
// asset id of the pool's pair.
type Accumulator struct {
	PoolAddress   string
	WindowStart   uint64
	WindowEnd     uint64
	Asset0        model.AssetID
	Asset1        model.AssetID
	pairKnown     bool
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	Volume0       *uint256.Int
	Volume1       *uint256.Int
	Output0       *uint256.Int
	Output1       *uint256.Int
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Address,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     new(uint256.Int),
		Volume1:     new(uint256.Int),
		Output0:     new(uint256.Int),
		Output1:     new(uint256.Int),
	}
}

func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	switch record.EventName {
	case model.EventPoolCreated:
		var created model.PoolCreatedEventData
		if err := json.Unmarshal(record.Decoded, &created); err != nil {
			return fmt.Errorf("decode pool created: %w", err)
		}
		return a.setPair(created.AssetA, created.AssetB)
	case model.EventSwapped:
		var swap model.SwappedEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventDeposited, model.EventWithdrawed:
		var liquidity model.LiquidityEventData
		if err := json.Unmarshal(record.Decoded, &liquidity); err != nil {
			return fmt.Errorf("decode %s: %w", record.EventName, err)
		}
		if err := a.setPair(liquidity.AssetA, liquidity.AssetB); err != nil {
			return err
		}
		if record.EventName == model.EventDeposited {
			a.DepositCount++
		} else {
			a.WithdrawCount++
		}
		return nil
	default:
		return nil
	}
}

func (a *Accumulator) setPair(x, y model.AssetID) error {
	lo, hi := orderedPair(x, y)
	if !a.pairKnown {
		a.Asset0, a.Asset1, a.pairKnown = lo, hi, true
		return nil
	}
	if a.Asset0 != lo || a.Asset1 != hi {
		return fmt.Errorf("pool %s pair changed from %d/%d to %d/%d", a.PoolAddress, a.Asset0, a.Asset1, lo, hi)
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwappedEventData) error {
	if err := a.setPair(swap.AssetIn, swap.AssetOut); err != nil {
		return err
	}
	amountIn, err := parseAmount(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseAmount(swap.AmountOut)
	if err != nil {
		return err
	}

	volume, output := &a.Volume0, &a.Output1
	if swap.AssetIn == a.Asset1 {
		volume, output = &a.Volume1, &a.Output0
	}
	if *volume, err = safemath.Add(*volume, amountIn); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	if *output, err = safemath.Add(*output, amountOut); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	a.SwapCount++
	return nil
}

// Metrics renders the accumulated window.
func (a *Accumulator) Metrics(windowSeconds uint64) model.PoolWindowMetrics {
	return model.PoolWindowMetrics{
		PoolAddress:    a.PoolAddress,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    unixTime(a.WindowStart),
		WindowEnd:      unixTime(a.WindowEnd),
		Asset0:         a.Asset0,
		Asset1:         a.Asset1,
		SwapCount:      a.SwapCount,
		DepositCount:   a.DepositCount,
		WithdrawCount:  a.WithdrawCount,
		Volume0:        a.Volume0.Dec(),
		Volume1:        a.Volume1.Dec(),
		Output0:        a.Output0.Dec(),
		Output1:        a.Output1.Dec(),
	}
}
