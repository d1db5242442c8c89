package storage

import (
	"context"
	"sort"
	"sync"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

// MemoryBackend keeps state and logs in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
	logs    []model.LogRecord
	seen    map[logID]struct{}
}

type logID struct {
	seq   uint64
	index uint64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string][]byte),
		seen:    make(map[logID]struct{}),
	}
}

func (m *MemoryBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryBackend) Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		m.entries[string(w.Key)] = append([]byte(nil), w.Value...)
	}
	m.logs = appendNewLogs(m.logs, m.seen, logs)
	return nil
}

func (m *MemoryBackend) Logs(ctx context.Context) ([]model.LogRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.LogRecord, len(m.logs))
	copy(out, m.logs)
	return out, nil
}

// Len reports the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryBackend) Close() error {
	return nil
}

// appendNewLogs appends logs whose (seq, log_index) is not yet in seen.
func appendNewLogs(dst []model.LogRecord, seen map[logID]struct{}, logs []model.LogRecord) []model.LogRecord {
	for _, record := range logs {
		id := logID{seq: record.Seq, index: record.LogIndex}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, record)
	}
	return dst
}

func sortLogs(logs []model.LogRecord) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Seq != logs[j].Seq {
			return logs[i].Seq < logs[j].Seq
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})
}
