package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS amm_state (
	key bytea PRIMARY KEY,
	value bytea NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS amm_events (
	seq bigint NOT NULL,
	log_index bigint NOT NULL,
	call text NOT NULL,
	address text NOT NULL,
	topics text[] NOT NULL,
	data text NOT NULL,
	ts bigint NOT NULL,
	PRIMARY KEY (seq, log_index)
);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address text NOT NULL,
	window_size_seconds bigint NOT NULL,
	window_start_ts timestamptz NOT NULL,
	window_end_ts timestamptz NOT NULL,
	asset0 bigint NOT NULL,
	asset1 bigint NOT NULL,
	swap_count bigint NOT NULL,
	deposit_count bigint NOT NULL,
	withdraw_count bigint NOT NULL,
	volume0 numeric NOT NULL,
	volume1 numeric NOT NULL,
	output0 numeric NOT NULL,
	output1 numeric NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);
CREATE TABLE IF NOT EXISTS aggregate_state (
	name text PRIMARY KEY,
	cursor_seq bigint NOT NULL,
	window_start bigint NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for pool state, event logs and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the tables the store uses if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	row := s.pool.QueryRow(ctx, `SELECT value FROM amm_state WHERE key=$1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Commit writes a call's state changes and event logs in one transaction.
func (s *Store) Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error {
	if len(writes) == 0 && len(logs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, w := range writes {
		batch.Queue(`
			INSERT INTO amm_state (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, w.Key, w.Value)
	}
	for _, record := range logs {
		batch.Queue(`
			INSERT INTO amm_events (seq, log_index, call, address, topics, data, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (seq, log_index) DO NOTHING
		`,
			int64(record.Seq),
			int64(record.LogIndex),
			record.Call,
			record.Address,
			record.Topics,
			record.Data,
			int64(record.Timestamp),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Logs returns every committed event log ordered by (seq, log_index).
func (s *Store) Logs(ctx context.Context) ([]model.LogRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, log_index, call, address, topics, data, ts
		FROM amm_events
		ORDER BY seq, log_index
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LogRecord
	for rows.Next() {
		var (
			seq, index, ts int64
			record         model.LogRecord
		)
		if err := rows.Scan(&seq, &index, &record.Call, &record.Address, &record.Topics, &record.Data, &ts); err != nil {
			return nil, err
		}
		record.Seq = uint64(seq)
		record.LogIndex = uint64(index)
		record.Timestamp = uint64(ts)
		out = append(out, record)
	}
	return out, rows.Err()
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				asset0, asset1, swap_count, deposit_count, withdraw_count,
				volume0, volume1, output0, output1, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				output0 = EXCLUDED.output0,
				output1 = EXCLUDED.output1,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.Asset0),
			int64(m.Asset1),
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.Volume0,
			m.Volume1,
			m.Output0,
			m.Output1,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadCursor returns the aggregation cursor saved under name.
func (s *Store) LoadCursor(ctx context.Context, name string) (model.AggregateCursor, bool, error) {
	if name == "" {
		return model.AggregateCursor{}, false, fmt.Errorf("cursor name required")
	}
	var seq, windowStart int64
	row := s.pool.QueryRow(ctx, `SELECT cursor_seq, window_start FROM aggregate_state WHERE name=$1`, name)
	if err := row.Scan(&seq, &windowStart); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AggregateCursor{}, false, nil
		}
		return model.AggregateCursor{}, false, fmt.Errorf("load cursor %s: %w", name, err)
	}
	return model.AggregateCursor{Seq: uint64(seq), WindowStart: uint64(windowStart)}, true, nil
}

// SaveCursor upserts the aggregation cursor under name.
func (s *Store) SaveCursor(ctx context.Context, name string, cursor model.AggregateCursor) error {
	if name == "" {
		return fmt.Errorf("cursor name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregate_state (name, cursor_seq, window_start, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET cursor_seq = EXCLUDED.cursor_seq, window_start = EXCLUDED.window_start, updated_at = now()
	`, name, int64(cursor.Seq), int64(cursor.WindowStart))
	if err != nil {
		return fmt.Errorf("save cursor %s: %w", name, err)
	}
	return nil
}
