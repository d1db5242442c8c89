// Package runtime hosts pool calls: each call runs against staged state and
// is committed to the backend, together with its event logs, only on success.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolLedger/internal/amm"
	"poolLedger/internal/eventlog"
	"poolLedger/internal/ledger"
	"poolLedger/internal/model"
	"poolLedger/internal/state"
	"poolLedger/internal/storage"
)

// Options tune commit behavior.
type Options struct {
	CommitRetries int
	CommitBackoff time.Duration
	// Now stamps committed logs; defaults to time.Now.
	Now func() time.Time
}

// Receipt describes a committed call.
type Receipt struct {
	Seq    uint64
	Call   string
	Events []model.Event
	Logs   []model.LogRecord
	Writes int
}

// Tx is the view a call body gets of the staged state.
type Tx struct {
	Seq    uint64
	Pallet *amm.Pallet
	Ledger *ledger.Ledger
}

// Runtime serializes calls over one backend.
type Runtime struct {
	mu      sync.Mutex
	backend storage.Backend
	params  amm.Params
	opts    Options
	logger  *zap.Logger
}

func New(backend storage.Backend, params amm.Params, opts Options, logger *zap.Logger) (*Runtime, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runtime{
		backend: backend,
		params:  params,
		opts:    opts,
		logger:  logger,
	}, nil
}

type eventCollector struct {
	events []model.Event
}

func (c *eventCollector) Emit(event model.Event) {
	c.events = append(c.events, event)
}

// Execute runs fn against a fresh staging overlay. If fn returns an error the
// overlay is dropped and nothing reaches the backend; otherwise its writes and
// the encoded events are committed in one backend call.
func (r *Runtime) Execute(ctx context.Context, call string, fn func(tx *Tx) error) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	overlay := state.NewOverlay(r.backend)
	seq, err := state.NextSeq(ctx, overlay)
	if err != nil {
		return Receipt{}, err
	}
	tokens := ledger.New(overlay)
	events := &eventCollector{}
	pallet, err := amm.NewPallet(state.NewRegistry(overlay), tokens, events, r.params)
	if err != nil {
		return Receipt{}, err
	}

	if err := fn(&Tx{Seq: seq, Pallet: pallet, Ledger: tokens}); err != nil {
		if isRejection(err) {
			r.logger.Info("call rejected", zap.String("call", call), zap.Error(err))
		} else {
			r.logger.Error("call failed", zap.String("call", call), zap.Error(err))
		}
		return Receipt{}, err
	}

	timestamp := uint64(r.opts.Now().Unix())
	logs := make([]model.LogRecord, 0, len(events.events))
	for i, event := range events.events {
		record, err := eventlog.Encode(event, seq, call, uint64(i), timestamp)
		if err != nil {
			return Receipt{}, fmt.Errorf("encode %s event: %w", event.EventName(), err)
		}
		logs = append(logs, record)
	}

	writes := overlay.Writes()
	if err := r.commit(ctx, call, seq, writes, logs); err != nil {
		r.logger.Error("commit failed", zap.String("call", call), zap.Uint64("seq", seq), zap.Error(err))
		return Receipt{}, fmt.Errorf("commit call %s (seq %d): %w", call, seq, err)
	}

	r.logger.Debug("call committed",
		zap.String("call", call),
		zap.Uint64("seq", seq),
		zap.Int("events", len(logs)),
		zap.Int("writes", len(writes)),
	)
	return Receipt{
		Seq:    seq,
		Call:   call,
		Events: events.events,
		Logs:   logs,
		Writes: len(writes),
	}, nil
}

func isRejection(err error) bool {
	return amm.IsDomainError(err) ||
		errors.Is(err, ledger.ErrInsufficientBalance) ||
		errors.Is(err, ledger.ErrUnauthorized) ||
		errors.Is(err, ledger.ErrBalanceOverflow)
}

// Params returns the pool constants calls run with.
func (r *Runtime) Params() amm.Params {
	return r.params
}

func (r *Runtime) Init(ctx context.Context, creator, pool common.Address, assetA model.AssetID, amountA *uint256.Int, assetB model.AssetID, amountB *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "init", func(tx *Tx) error {
		return tx.Pallet.Init(ctx, creator, pool, assetA, amountA, assetB, amountB)
	})
}

func (r *Runtime) Swap(ctx context.Context, operator, pool common.Address, tokenID model.AssetID, amount *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "swap", func(tx *Tx) error {
		return tx.Pallet.Swap(ctx, operator, pool, tokenID, amount)
	})
}

func (r *Runtime) Deposit(ctx context.Context, operator, pool common.Address, tokenID model.AssetID, amount *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "deposit", func(tx *Tx) error {
		return tx.Pallet.Deposit(ctx, operator, pool, tokenID, amount)
	})
}

func (r *Runtime) Withdraw(ctx context.Context, operator, pool common.Address, tokenID model.AssetID, amount *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "withdraw", func(tx *Tx) error {
		return tx.Pallet.Withdraw(ctx, operator, pool, tokenID, amount)
	})
}

// Mint credits new units of an asset.
func (r *Runtime) Mint(ctx context.Context, asset model.AssetID, to common.Address, amount *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "mint", func(tx *Tx) error {
		return tx.Ledger.Mint(ctx, asset, to, amount)
	})
}

// Transfer moves units of an asset on behalf of from.
func (r *Runtime) Transfer(ctx context.Context, from, to common.Address, asset model.AssetID, amount *uint256.Int) (Receipt, error) {
	return r.Execute(ctx, "transfer", func(tx *Tx) error {
		return tx.Ledger.SafeTransfer(ctx, from, from, to, asset, amount)
	})
}
