package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"poolLedger/internal/model"
	"poolLedger/internal/storage/postgres"
)

// StateStore persists the aggregation cursor between runs.
type StateStore interface {
	Load(ctx context.Context) (model.AggregateCursor, bool, error)
	Save(ctx context.Context, cursor model.AggregateCursor) error
}

// FileStateStore keeps the cursor in a local JSON file.
type FileStateStore struct {
	Path string
}

type cursorFile struct {
	model.AggregateCursor
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (model.AggregateCursor, bool, error) {
	if s == nil || s.Path == "" {
		return model.AggregateCursor{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.AggregateCursor{}, false, nil
		}
		return model.AggregateCursor{}, false, fmt.Errorf("read cursor: %w", err)
	}

	var rec cursorFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.AggregateCursor{}, false, fmt.Errorf("parse cursor %s: %w", s.Path, err)
	}
	return rec.AggregateCursor, true, nil
}

// Save replaces the cursor file through a temp file and rename.
func (s *FileStateStore) Save(ctx context.Context, cursor model.AggregateCursor) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor dir: %w", err)
		}
	}

	data, err := json.Marshal(cursorFile{
		AggregateCursor: cursor,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cursor tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}

// DBStateStore keeps the cursor in the aggregate_state table under Name,
// one row per window size.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (model.AggregateCursor, bool, error) {
	if s == nil || s.Store == nil {
		return model.AggregateCursor{}, false, nil
	}
	return s.Store.LoadCursor(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, cursor model.AggregateCursor) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveCursor(ctx, s.Name, cursor)
}
