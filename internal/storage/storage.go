// Package storage persists committed state and event logs.
package storage

import (
	"context"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

// LogSource lists committed log records in (seq, log_index) order.
type LogSource interface {
	Logs(ctx context.Context) ([]model.LogRecord, error)
}

// Backend is durable key-value state with an event log. Commit applies every
// write and log of one call or none of them; repeating a Commit with the same
// arguments leaves the backend unchanged.
type Backend interface {
	state.Reader
	LogSource
	Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error
	Close() error
}
