package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"poolLedger/internal/model"
)

// ErrLogTruncated reports a log file shorter than its committed length.
var ErrLogTruncated = errors.New("event log shorter than committed length")

// JsonlStorage keeps log records as JSON lines. The owner tracks how many
// bytes are committed; anything past that offset is an unfinished append and
// is overwritten by the next one.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// Size returns the file length, zero when the file does not exist.
func (s *JsonlStorage) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	return stat.Size(), nil
}

// AppendAt cuts the file back to offset, writes logs there and syncs. It
// returns the offset just past the new records.
func (s *JsonlStorage) AppendAt(offset int64, logs []model.LogRecord) (int64, error) {
	if len(logs) == 0 {
		return offset, nil
	}

	var buf bytes.Buffer
	for _, record := range logs {
		line, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("marshal log record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat output file: %w", err)
	}
	if stat.Size() < offset {
		return 0, fmt.Errorf("%w: %d bytes, %d committed", ErrLogTruncated, stat.Size(), offset)
	}
	if err := file.Truncate(offset); err != nil {
		return 0, fmt.Errorf("truncate output file: %w", err)
	}
	if _, err := file.WriteAt(buf.Bytes(), offset); err != nil {
		return 0, fmt.Errorf("write log records: %w", err)
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("sync output file: %w", err)
	}
	return offset + int64(buf.Len()), nil
}

// LogsUpTo reads the records in the first size bytes of the file.
func (s *JsonlStorage) LogsUpTo(ctx context.Context, size int64) ([]model.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) && size == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	return readLogs(io.LimitReader(file, size))
}

// ReadLogs parses a whole log record JSONL file, dropping duplicate
// (seq, log_index) lines and ordering the result. A missing file has no logs.
func ReadLogs(path string) ([]model.LogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	return readLogs(file)
}

func readLogs(r io.Reader) ([]model.LogRecord, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var logs []model.LogRecord
	seen := make(map[logID]struct{})
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNo, err)
		}
		logs = appendNewLogs(logs, seen, []model.LogRecord{record})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log file: %w", err)
	}
	sortLogs(logs)
	return logs, nil
}
