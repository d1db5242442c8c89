package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

// SnapshotBackend keeps state in a JSON snapshot file and logs in a JSONL
// file. A commit first writes its logs after the committed end of the log
// file, then renames a new snapshot into place carrying both the state and
// the new log length. The rename is the commit point: logs past the recorded
// length belong to no committed call and are never read.
type SnapshotBackend struct {
	path    string
	logs    *JsonlStorage
	mu      sync.RWMutex
	entries map[string][]byte
	logSize int64
}

type snapshotRecord struct {
	Entries   map[string]string `json:"entries"`
	LogSize   int64             `json:"log_size"`
	UpdatedAt string            `json:"updated_at"`
}

// OpenSnapshotBackend loads the snapshot at path, if any.
func OpenSnapshotBackend(path string, logs *JsonlStorage) (*SnapshotBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("state file is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log storage is nil")
	}
	b := &SnapshotBackend{
		path:    path,
		logs:    logs,
		entries: make(map[string][]byte),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SnapshotBackend) load() error {
	stat, err := os.Stat(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	for k, v := range rec.Entries {
		key, err := hexutil.Decode(k)
		if err != nil {
			return fmt.Errorf("snapshot key %q: %w", k, err)
		}
		value, err := hexutil.Decode(v)
		if err != nil {
			return fmt.Errorf("snapshot value for %q: %w", k, err)
		}
		b.entries[string(key)] = value
	}

	size, err := b.logs.Size()
	if err != nil {
		return err
	}
	if size < rec.LogSize {
		return fmt.Errorf("%w: %d bytes, %d committed", ErrLogTruncated, size, rec.LogSize)
	}
	b.logSize = rec.LogSize
	return nil
}

func (b *SnapshotBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.entries[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (b *SnapshotBackend) Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string][]byte, len(b.entries)+len(writes))
	for k, v := range b.entries {
		next[k] = v
	}
	for _, w := range writes {
		next[string(w.Key)] = append([]byte(nil), w.Value...)
	}

	logSize, err := b.logs.AppendAt(b.logSize, logs)
	if err != nil {
		return fmt.Errorf("append logs: %w", err)
	}
	if err := b.save(next, logSize); err != nil {
		return err
	}
	b.entries = next
	b.logSize = logSize
	return nil
}

func (b *SnapshotBackend) save(entries map[string][]byte, logSize int64) error {
	dir := filepath.Dir(b.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	rec := snapshotRecord{
		Entries:   make(map[string]string, len(entries)),
		LogSize:   logSize,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range entries {
		rec.Entries[hexutil.Encode([]byte(k))] = hexutil.Encode(v)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := b.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Logs returns the committed log records.
func (b *SnapshotBackend) Logs(ctx context.Context) ([]model.LogRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.logs.LogsUpTo(ctx, b.logSize)
}

func (b *SnapshotBackend) Close() error {
	return nil
}
