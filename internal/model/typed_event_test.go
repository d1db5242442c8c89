package model

import (
	"encoding/json"
	"testing"
)

func TestSwappedEventDataJSONStringFields(t *testing.T) {
	payload := SwappedEventData{
		Operator:  "0x1111111111111111111111111111111111111111",
		Pool:      "0x2222222222222222222222222222222222222222",
		AssetIn:   0,
		AmountIn:  "12345678901234567890123456789",
		AssetOut:  1,
		AmountOut: "42",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["amount_in"].(string); !ok {
		t.Fatalf("amount_in should be string")
	}
	if _, ok := decoded["amount_out"].(string); !ok {
		t.Fatalf("amount_out should be string")
	}
	if _, ok := decoded["asset_in"].(float64); !ok {
		t.Fatalf("asset_in should be numeric")
	}
}

func TestPoolCounterpart(t *testing.T) {
	pool := Pool{AssetA: 3, AssetB: 9}

	if other, ok := pool.Counterpart(3); !ok || other != 9 {
		t.Fatalf("counterpart of A mismatch: %d %v", other, ok)
	}
	if other, ok := pool.Counterpart(9); !ok || other != 3 {
		t.Fatalf("counterpart of B mismatch: %d %v", other, ok)
	}
	if _, ok := pool.Counterpart(4); ok {
		t.Fatalf("foreign asset should have no counterpart")
	}
	if pool.Has(4) {
		t.Fatalf("foreign asset reported as pool member")
	}
}
