package postgres

import (
	"context"
	"os"
	"testing"

	"poolLedger/internal/model"
	"poolLedger/internal/state"
)

func TestStoreCommitRoundTrip(t *testing.T) {
	dsn := os.Getenv("AMM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AMM_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	key := []byte("store-test-key")
	logs := []model.LogRecord{{
		Seq:       1 << 40,
		Call:      "test",
		Address:   "0x1111111111111111111111111111111111111111",
		Topics:    []string{"0x01"},
		Data:      "0x",
		Timestamp: 1,
	}}
	for i := 0; i < 2; i++ {
		if err := store.Commit(ctx, []state.Write{{Key: key, Value: []byte{byte(i)}}}, logs); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	value, ok, err := store.Get(ctx, key)
	if err != nil || !ok || len(value) != 1 || value[0] != 1 {
		t.Fatalf("get mismatch: %v %v %v", value, ok, err)
	}

	stored, err := store.Logs(ctx)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	count := 0
	for _, record := range stored {
		if record.Seq == 1<<40 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one stored log, got %d", count)
	}

	cursor := model.AggregateCursor{Seq: 41, WindowStart: 1200}
	if err := store.SaveCursor(ctx, "store-test", cursor); err != nil {
		t.Fatalf("save cursor: %v", err)
	}
	loaded, ok, err := store.LoadCursor(ctx, "store-test")
	if err != nil || !ok || loaded != cursor {
		t.Fatalf("cursor mismatch: %+v %v %v", loaded, ok, err)
	}
}
