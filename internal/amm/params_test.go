package amm

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	cases := []Params{
		{},
		{DefaultShare: u(0), HundredPercent: u(1000), Fee: u(3)},
		{DefaultShare: u(1), HundredPercent: u(0), Fee: u(0)},
		{DefaultShare: u(1), HundredPercent: u(1000), Fee: u(1000)},
	}
	for i, params := range cases {
		if err := params.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("case %d: expected invalid params, got %v", i, err)
		}
	}
}

func TestDerivePoolAddress(t *testing.T) {
	creator := common.HexToAddress("0x0000000000000000000000000000000000000001")
	other := common.HexToAddress("0x0000000000000000000000000000000000000002")

	a := DerivePoolAddress(creator, 0, 1)
	if a != DerivePoolAddress(creator, 1, 0) {
		t.Fatalf("derivation should ignore asset order")
	}
	if a == DerivePoolAddress(other, 0, 1) {
		t.Fatalf("derivation should depend on creator")
	}
	if a == DerivePoolAddress(creator, 0, 2) {
		t.Fatalf("derivation should depend on assets")
	}
	if a == (common.Address{}) {
		t.Fatalf("derived zero address")
	}
}

func TestPoolInfo(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount1(t)
	if err := env.pallet.Init(env.ctx, account1, poolAddr, 0, u(50), 1, u(100)); err != nil {
		t.Fatalf("init: %v", err)
	}

	info, err := env.pallet.Info(env.ctx, poolAddr)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.PriceA.String() != "2" {
		t.Fatalf("price A mismatch: %s", info.PriceA)
	}
	if info.PriceB.String() != "0.5" {
		t.Fatalf("price B mismatch: %s", info.PriceB)
	}
	if info.FeeRate.String() != "0.003" {
		t.Fatalf("fee rate mismatch: %s", info.FeeRate)
	}
	if !info.LiveProduct.Eq(uint256.NewInt(5000)) || info.TotalShares.Uint64() != 10000 {
		t.Fatalf("info mismatch: %+v", info)
	}

	if _, err := env.pallet.Info(env.ctx, account2); !errors.Is(err, ErrNoSuchPool) {
		t.Fatalf("expected no such pool, got %v", err)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrEmptyPool) || !IsDomainError(ErrOverflow) {
		t.Fatalf("domain errors not recognised")
	}
	if IsDomainError(errors.New("disk full")) {
		t.Fatalf("foreign error recognised as domain error")
	}
}
