package state

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolLedger/internal/model"
)

type mapReader map[string][]byte

func (m mapReader) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	value, ok := m[string(key)]
	return value, ok, nil
}

type failingReader struct{}

func (failingReader) Get(context.Context, []byte) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

var (
	poolAddr     = common.HexToAddress("0x00000000000000000000000000000000012b9f89")
	providerAddr = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

func TestKeysAreDisjointAcrossRegions(t *testing.T) {
	keys := [][]byte{
		PoolKey(poolAddr),
		ShareKey(poolAddr, providerAddr),
		TotalSharesKey(poolAddr),
		BalanceKey(0, poolAddr),
		SeqKey(),
	}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if bytes.Equal(keys[i], keys[j]) {
				t.Fatalf("keys %d and %d collide", i, j)
			}
		}
	}

	if !bytes.HasPrefix(PoolKey(poolAddr), poolPrefix) {
		t.Fatalf("pool key missing region prefix")
	}
	if !bytes.HasSuffix(ShareKey(poolAddr, providerAddr), providerAddr.Bytes()) {
		t.Fatalf("share key should end with provider bytes")
	}
	if bytes.Equal(ShareKey(poolAddr, providerAddr), ShareKey(providerAddr, poolAddr)) {
		t.Fatalf("share key must depend on argument order")
	}
}

func TestOverlayStagesWrites(t *testing.T) {
	base := mapReader{"a": []byte("base")}
	overlay := NewOverlay(base)
	ctx := context.Background()

	got, ok, err := overlay.Get(ctx, []byte("a"))
	if err != nil || !ok || string(got) != "base" {
		t.Fatalf("base read mismatch: %q %v %v", got, ok, err)
	}

	overlay.Put([]byte("b"), []byte("one"))
	overlay.Put([]byte("a"), []byte("staged"))
	overlay.Put([]byte("b"), []byte("two"))

	got, _, _ = overlay.Get(ctx, []byte("a"))
	if string(got) != "staged" {
		t.Fatalf("staged read mismatch: %q", got)
	}
	if string(base["a"]) != "base" {
		t.Fatalf("base mutated")
	}

	writes := overlay.Writes()
	if len(writes) != 2 || overlay.Len() != 2 {
		t.Fatalf("expected two writes, got %d", len(writes))
	}
	if string(writes[0].Key) != "b" || string(writes[0].Value) != "two" {
		t.Fatalf("first write mismatch: %+v", writes[0])
	}
	if string(writes[1].Key) != "a" {
		t.Fatalf("second write mismatch: %+v", writes[1])
	}
}

func TestOverlayGetReturnsCopy(t *testing.T) {
	overlay := NewOverlay(nil)
	ctx := context.Background()
	overlay.Put([]byte("k"), []byte{1, 2})

	got, _, _ := overlay.Get(ctx, []byte("k"))
	got[0] = 9

	again, _, _ := overlay.Get(ctx, []byte("k"))
	if again[0] != 1 {
		t.Fatalf("read mutated staged value: %v", again)
	}
	if writes := overlay.Writes(); writes[0].Value[0] != 1 {
		t.Fatalf("read mutated pending write: %v", writes[0].Value)
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry(NewOverlay(mapReader{}))
	ctx := context.Background()

	if _, ok, err := reg.GetPool(ctx, poolAddr); err != nil || ok {
		t.Fatalf("expected no pool, got ok=%v err=%v", ok, err)
	}
	share, err := reg.GetShare(ctx, poolAddr, providerAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !share.IsZero() {
		t.Fatalf("missing share should read as zero, got %s", share.Dec())
	}
	if _, ok, err := reg.GetTotalShares(ctx, poolAddr); err != nil || ok {
		t.Fatalf("expected no total, got ok=%v err=%v", ok, err)
	}
}

func TestRegistryPersistsRecords(t *testing.T) {
	reg := NewRegistry(NewOverlay(nil))
	ctx := context.Background()

	reg.PutPool(poolAddr, model.Pool{AssetA: 0, AssetB: 1, Invariant: uint256.NewInt(2500)})
	reg.SetShare(poolAddr, providerAddr, uint256.NewInt(10000))
	reg.SetTotalShares(poolAddr, uint256.NewInt(10000))

	pool, ok, err := reg.GetPool(ctx, poolAddr)
	if err != nil || !ok {
		t.Fatalf("pool missing: %v", err)
	}
	if pool.AssetA != 0 || pool.AssetB != 1 || pool.Invariant.Uint64() != 2500 {
		t.Fatalf("pool mismatch: %+v", pool)
	}

	share, err := reg.GetShare(ctx, poolAddr, providerAddr)
	if err != nil || share.Uint64() != 10000 {
		t.Fatalf("share mismatch: %v %v", share, err)
	}
	total, ok, err := reg.GetTotalShares(ctx, poolAddr)
	if err != nil || !ok || total.Uint64() != 10000 {
		t.Fatalf("total mismatch: %v %v %v", total, ok, err)
	}
}

func TestRegistryWrapsBackendErrors(t *testing.T) {
	reg := NewRegistry(NewOverlay(failingReader{}))
	if _, _, err := reg.GetPool(context.Background(), poolAddr); err == nil {
		t.Fatalf("expected backend error")
	}
	if _, err := reg.GetShare(context.Background(), poolAddr, providerAddr); err == nil {
		t.Fatalf("expected backend error")
	}
}

func TestRegistryRejectsCorruptValues(t *testing.T) {
	base := mapReader{string(PoolKey(poolAddr)): []byte{1, 2, 3}}
	reg := NewRegistry(NewOverlay(base))
	if _, _, err := reg.GetPool(context.Background(), poolAddr); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestNextSeq(t *testing.T) {
	overlay := NewOverlay(nil)
	ctx := context.Background()
	for want := uint64(1); want <= 3; want++ {
		got, err := NextSeq(ctx, overlay)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("seq mismatch: %d != %d", got, want)
		}
	}
}
