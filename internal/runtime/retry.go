package runtime

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
	"poolLedger/internal/storage"
)

// permanent reports commit errors that another attempt cannot fix.
func permanent(err error) bool {
	return errors.Is(err, state.ErrCorrupt) ||
		errors.Is(err, storage.ErrLogTruncated) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// commit hands one call's writes and logs to the backend, doubling the
// backoff after each failed attempt. A repeated commit of the same call is
// harmless: writes are absolute and logs are keyed by (seq, log_index).
func (r *Runtime) commit(ctx context.Context, call string, seq uint64, writes []state.Write, logs []model.LogRecord) error {
	retries := r.opts.CommitRetries
	if retries < 0 {
		retries = 0
	}
	delay := r.opts.CommitBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		err := r.backend.Commit(ctx, writes, logs)
		if err == nil {
			return nil
		}
		if permanent(err) || attempt > retries {
			return err
		}
		r.logger.Warn("commit attempt failed",
			zap.String("call", call),
			zap.Uint64("seq", seq),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
