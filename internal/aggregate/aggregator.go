package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"poolLedger/internal/model"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom is a unix timestamp. When set, the saved cursor is
	// ignored and every window from the one holding it is rebuilt.
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator folds typed pool events into per-window metrics.
//
// Windows are aligned across pools and events arrive in seq order with
// non-decreasing timestamps, so the first event of a later window closes the
// current window for every pool at once. Only that one open window is ever
// provisional: it is emitted at the end of a run and rebuilt whole by the
// next one.
type Aggregator struct {
	cfg    Config
	sink   MetricsSink
	logger *zap.Logger

	open      map[string]*Accumulator
	openStart uint64
	// openSeq is the seq of the first event in the open window, zero until
	// one arrives.
	openSeq uint64
}

func NewAggregator(cfg Config, sink MetricsSink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
	}
}

// Run aggregates a typed events JSONL file, resuming from the saved cursor.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	start, err := a.startCursor(ctx)
	if err != nil {
		return err
	}
	a.open = make(map[string]*Accumulator)
	a.openStart = start.WindowStart
	a.openSeq = 0

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	var total, windows, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		recordStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		if record.Seq <= start.Seq || recordStart < a.openStart {
			skipped++
			continue
		}

		if recordStart > a.openStart {
			closed := a.closeWindow(recordStart)
			windows += len(closed)
			batch = append(batch, closed...)
		}
		if a.openSeq == 0 {
			a.openSeq = record.Seq
		}

		key := poolKey(record.Address)
		acc := a.open[key]
		if acc == nil {
			acc = NewAccumulator(record, a.openStart, a.openStart+a.cfg.WindowSeconds)
			a.open[key] = acc
		}
		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.Uint64("seq", record.Seq), zap.String("pool", record.Address), zap.String("event", record.EventName))
			continue
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flush(ctx, batch, start); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	provisional := a.metrics()
	batch = append(batch, provisional...)
	if err := a.flush(ctx, batch, start); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("open_pools", len(provisional)),
		zap.Uint64("open_window_start", a.openStart),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (a *Aggregator) startCursor(ctx context.Context) (model.AggregateCursor, error) {
	if a.cfg.RecomputeFrom > 0 {
		return model.AggregateCursor{WindowStart: windowStart(a.cfg.RecomputeFrom, a.cfg.WindowSeconds)}, nil
	}
	if a.cfg.StateStore == nil {
		return model.AggregateCursor{}, nil
	}
	cursor, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return model.AggregateCursor{}, err
	}
	if !ok {
		return model.AggregateCursor{}, nil
	}
	return cursor, nil
}

// closeWindow finalizes the open window for every pool and opens the one at
// next.
func (a *Aggregator) closeWindow(next uint64) []model.PoolWindowMetrics {
	closed := a.metrics()
	a.open = make(map[string]*Accumulator)
	a.openStart = next
	a.openSeq = 0
	return closed
}

// metrics renders the open window. A pool that never learned its pair is
// dropped; that only happens when every one of its events failed to apply.
func (a *Aggregator) metrics() []model.PoolWindowMetrics {
	out := make([]model.PoolWindowMetrics, 0, len(a.open))
	for _, acc := range a.open {
		if !acc.pairKnown {
			a.logger.Warn("window without pool pair", zap.String("pool", acc.PoolAddress))
			continue
		}
		out = append(out, acc.Metrics(a.cfg.WindowSeconds))
	}
	sortMetrics(out)
	return out
}

// flush writes batch and then advances the cursor to the open window.
func (a *Aggregator) flush(ctx context.Context, batch []model.PoolWindowMetrics, start model.AggregateCursor) error {
	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	if a.cfg.StateStore == nil {
		return nil
	}
	cursor := start
	if a.openSeq > 0 {
		cursor = model.AggregateCursor{Seq: a.openSeq - 1, WindowStart: a.openStart}
	}
	return a.cfg.StateStore.Save(ctx, cursor)
}
