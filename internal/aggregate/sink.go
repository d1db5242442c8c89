package aggregate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"poolLedger/internal/model"
)

// MetricsSink receives flushed window metrics. The Postgres store implements
// it with upserts.
type MetricsSink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// JsonlMetricsSink appends window metrics to a JSONL file. An open window is
// written again by the next run; the later line for a pool and window wins.
type JsonlMetricsSink struct {
	Path string
}

func (s *JsonlMetricsSink) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}

	file, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, m := range metrics {
		if err := encoder.Encode(m); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush metrics: %w", err)
	}
	return nil
}
