package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/amm"
	"poolLedger/internal/model"
	"poolLedger/internal/state"
	"poolLedger/internal/storage"
)

var (
	account1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	account2 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	poolAddr = common.HexToAddress("0x0000000000000000000000000000000012b9b0a1")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func newRuntime(t *testing.T, backend storage.Backend) *Runtime {
	t.Helper()
	fixed := time.Unix(1700000000, 0)
	rt, err := New(backend, amm.DefaultParams(), Options{
		CommitRetries: 2,
		CommitBackoff: time.Millisecond,
		Now:           func() time.Time { return fixed },
	}, nil)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func seedPool(t *testing.T, ctx context.Context, rt *Runtime) {
	t.Helper()
	for _, asset := range []model.AssetID{0, 1} {
		if _, err := rt.Mint(ctx, asset, account1, u(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if _, err := rt.Transfer(ctx, account1, account2, 0, u(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := rt.Init(ctx, account1, poolAddr, 0, u(50), 1, u(50)); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestRuntimeCommitsCalls(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	rt := newRuntime(t, backend)
	seedPool(t, ctx, rt)

	pool, ok, err := rt.Pool(ctx, poolAddr)
	if err != nil || !ok {
		t.Fatalf("pool: %v %v", ok, err)
	}
	if pool.AssetA != 0 || pool.AssetB != 1 || pool.Invariant.Uint64() != 2500 {
		t.Fatalf("pool mismatch: %+v", pool)
	}
	share, err := rt.Share(ctx, poolAddr, account1)
	if err != nil || share.Uint64() != 10000 {
		t.Fatalf("share mismatch: %v %v", share, err)
	}

	receipt, err := rt.Swap(ctx, account2, poolAddr, 0, u(10))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if receipt.Seq != 5 || receipt.Call != "swap" {
		t.Fatalf("receipt mismatch: %+v", receipt)
	}
	if len(receipt.Logs) != 1 || receipt.Logs[0].Timestamp != 1700000000 || receipt.Logs[0].Seq != 5 {
		t.Fatalf("receipt logs mismatch: %+v", receipt.Logs)
	}

	got, err := rt.Balance(ctx, 1, account2)
	if err != nil || got.Uint64() != 8 {
		t.Fatalf("swap output mismatch: %v %v", got, err)
	}
	zero, err := rt.Balance(ctx, 0, account2)
	if err != nil || !zero.IsZero() {
		t.Fatalf("input not spent: %v %v", zero, err)
	}

	logs, err := rt.Logs(ctx)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Call != "init" || logs[1].Call != "swap" {
		t.Fatalf("committed logs mismatch: %+v", logs)
	}
}

func TestRuntimeRejectedCallLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	rt := newRuntime(t, backend)

	if _, err := rt.Swap(ctx, account2, poolAddr, 0, u(10)); !errors.Is(err, amm.ErrNoSuchPool) {
		t.Fatalf("expected no such pool, got %v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("rejected call created %d entries", backend.Len())
	}

	seedPool(t, ctx, rt)
	before := backend.Len()
	logsBefore, _ := rt.Logs(ctx)

	if _, err := rt.Withdraw(ctx, account1, poolAddr, 1, u(51)); !errors.Is(err, amm.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if backend.Len() != before {
		t.Fatalf("rejected withdraw changed entry count")
	}
	logsAfter, _ := rt.Logs(ctx)
	if len(logsAfter) != len(logsBefore) {
		t.Fatalf("rejected withdraw emitted logs")
	}

	// The rejected call did not consume a sequence number.
	receipt, err := rt.Mint(ctx, 3, account1, u(1))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if receipt.Seq != 5 {
		t.Fatalf("expected seq 5, got %d", receipt.Seq)
	}
}

func TestRuntimeRollsBackPartialWork(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	rt := newRuntime(t, backend)
	seedPool(t, ctx, rt)

	// A multi-step call that fails midway keeps none of its earlier steps.
	_, err := rt.Execute(ctx, "batch", func(tx *Tx) error {
		if err := tx.Ledger.Mint(ctx, 0, account2, u(1000)); err != nil {
			return err
		}
		if err := tx.Pallet.Deposit(ctx, account2, poolAddr, 0, u(20)); err != nil {
			return err
		}
		return tx.Pallet.Deposit(ctx, account2, poolAddr, 1, u(20))
	})
	if !errors.Is(err, amm.ErrNotEnoughBalance) {
		t.Fatalf("expected not enough balance, got %v", err)
	}

	balance, err := rt.Balance(ctx, 0, account2)
	if err != nil || balance.Uint64() != 10 {
		t.Fatalf("mint leaked from failed call: %v %v", balance, err)
	}
	total, ok, err := rt.TotalShares(ctx, poolAddr)
	if err != nil || !ok || total.Uint64() != 10000 {
		t.Fatalf("shares leaked from failed call: %v %v %v", total, ok, err)
	}
}

type flakyBackend struct {
	*storage.MemoryBackend
	failures int
	attempts int
}

func (f *flakyBackend) Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error {
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.MemoryBackend.Commit(ctx, writes, logs)
}

func TestRuntimeRetriesCommit(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: storage.NewMemoryBackend(), failures: 2}
	rt := newRuntime(t, backend)

	if _, err := rt.Mint(ctx, 0, account1, u(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if backend.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", backend.attempts)
	}

	backend.failures = 5
	if _, err := rt.Mint(ctx, 0, account1, u(5)); err == nil {
		t.Fatalf("expected commit failure")
	}
	balance, err := rt.Balance(ctx, 0, account1)
	if err != nil || balance.Uint64() != 5 {
		t.Fatalf("failed commit changed balance: %v %v", balance, err)
	}
}

func TestRuntimePoolInfo(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t, storage.NewMemoryBackend())
	seedPool(t, ctx, rt)

	info, err := rt.PoolInfo(ctx, poolAddr)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.BalanceA.Uint64() != 50 || info.PriceA.String() != "1" {
		t.Fatalf("info mismatch: %+v", info)
	}
	if _, err := rt.PoolInfo(ctx, account2); !errors.Is(err, amm.ErrNoSuchPool) {
		t.Fatalf("expected no such pool, got %v", err)
	}
}

type scriptedBackend struct {
	*storage.MemoryBackend
	attempts int
	fail     func(ctx context.Context, attempt int) error
}

func (b *scriptedBackend) Commit(ctx context.Context, writes []state.Write, logs []model.LogRecord) error {
	b.attempts++
	if err := b.fail(ctx, b.attempts); err != nil {
		return err
	}
	return b.MemoryBackend.Commit(ctx, writes, logs)
}

func TestRuntimeCommitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &scriptedBackend{
		MemoryBackend: storage.NewMemoryBackend(),
		fail: func(context.Context, int) error {
			cancel()
			return errors.New("connection reset")
		},
	}
	rt := newRuntime(t, backend)

	if _, err := rt.Mint(ctx, 0, account1, u(5)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if backend.attempts != 1 {
		t.Fatalf("expected one attempt, got %d", backend.attempts)
	}
}

func TestRuntimeCommitStopsOnCorruptState(t *testing.T) {
	ctx := context.Background()
	backend := &scriptedBackend{
		MemoryBackend: storage.NewMemoryBackend(),
		fail: func(context.Context, int) error {
			return fmt.Errorf("decode stored value: %w", state.ErrCorrupt)
		},
	}
	rt := newRuntime(t, backend)

	if _, err := rt.Mint(ctx, 0, account1, u(5)); !errors.Is(err, state.ErrCorrupt) {
		t.Fatalf("expected corrupt state, got %v", err)
	}
	if backend.attempts != 1 {
		t.Fatalf("corrupt state retried: %d attempts", backend.attempts)
	}
}

func TestRuntimeSnapshotLogFailureLeavesNoState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	logPath := filepath.Join(dir, "events")
	if err := os.Mkdir(logPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	backend, err := storage.OpenSnapshotBackend(statePath, storage.NewJsonlStorage(logPath))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rt := newRuntime(t, backend)

	// Mints emit no events, so they commit without touching the log file.
	for _, asset := range []model.AssetID{0, 1} {
		if _, err := rt.Mint(ctx, asset, account1, u(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if _, err := rt.Init(ctx, account1, poolAddr, 0, u(50), 1, u(50)); err == nil {
		t.Fatalf("expected init commit to fail")
	}
	if _, ok, err := rt.Pool(ctx, poolAddr); err != nil || ok {
		t.Fatalf("failed init visible: %v %v", ok, err)
	}
	balance, err := rt.Balance(ctx, 0, account1)
	if err != nil || balance.Uint64() != 100 {
		t.Fatalf("failed init moved tokens: %v %v", balance, err)
	}

	reopened, err := storage.OpenSnapshotBackend(statePath, storage.NewJsonlStorage(logPath))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok, err := newRuntime(t, reopened).Pool(ctx, poolAddr); err != nil || ok {
		t.Fatalf("failed init persisted: %v %v", ok, err)
	}
	if logs, err := reopened.Logs(ctx); err != nil || len(logs) != 0 {
		t.Fatalf("unexpected logs: %+v %v", logs, err)
	}
}
