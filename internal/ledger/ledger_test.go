package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/state"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestMintAndTransfer(t *testing.T) {
	ctx := context.Background()
	l := New(state.NewOverlay(nil))

	if _, ok, err := l.Balance(ctx, 0, alice); err != nil || ok {
		t.Fatalf("fresh account should have no record: %v %v", ok, err)
	}

	if err := l.Mint(ctx, 0, alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.SafeTransfer(ctx, alice, alice, bob, 0, uint256.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, ok, err := l.Balance(ctx, 0, alice)
	if err != nil || !ok || got.Uint64() != 90 {
		t.Fatalf("alice balance mismatch: %v %v %v", got, ok, err)
	}
	got, ok, err = l.Balance(ctx, 0, bob)
	if err != nil || !ok || got.Uint64() != 10 {
		t.Fatalf("bob balance mismatch: %v %v %v", got, ok, err)
	}
	if _, ok, _ := l.Balance(ctx, 1, bob); ok {
		t.Fatalf("other asset should be untouched")
	}
}

func TestTransferRejectsShortfall(t *testing.T) {
	ctx := context.Background()
	overlay := state.NewOverlay(nil)
	l := New(overlay)

	if err := l.Mint(ctx, 0, alice, uint256.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	before := overlay.Len()

	err := l.SafeTransfer(ctx, alice, alice, bob, 0, uint256.NewInt(6))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if overlay.Len() != before {
		t.Fatalf("failed transfer staged writes")
	}
}

func TestTransferRequiresAuthorizer(t *testing.T) {
	ctx := context.Background()
	l := New(state.NewOverlay(nil))
	if err := l.Mint(ctx, 0, alice, uint256.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.SafeTransfer(ctx, bob, alice, bob, 0, uint256.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	ctx := context.Background()
	l := New(state.NewOverlay(nil))
	if err := l.Mint(ctx, 3, alice, uint256.NewInt(7)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.SafeTransfer(ctx, alice, alice, alice, 3, uint256.NewInt(7)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	got, _, _ := l.Balance(ctx, 3, alice)
	if got.Uint64() != 7 {
		t.Fatalf("self transfer changed balance: %s", got.Dec())
	}
}

func TestMintOverflow(t *testing.T) {
	ctx := context.Background()
	l := New(state.NewOverlay(nil))
	max := new(uint256.Int).SetAllOne()
	if err := l.Mint(ctx, 0, alice, max); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Mint(ctx, 0, alice, uint256.NewInt(1)); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}
