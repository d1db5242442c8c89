package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"poolLedger/internal/amm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateFile != "./data/state.json" || cfg.EventsOut != "./data/events.jsonl" {
		t.Fatalf("path defaults mismatch: %+v", cfg)
	}
	if cfg.CommitRetries != 3 || cfg.CommitBackoff != 200*time.Millisecond {
		t.Fatalf("commit defaults mismatch: %+v", cfg)
	}

	params, err := cfg.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !reflect.DeepEqual(params, amm.DefaultParams()) {
		t.Fatalf("params mismatch: %+v", params)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "amm.yaml")
	content := "fee: \"5\"\nhundred-percent: \"10000\"\nstate-file: /tmp/from-file.json\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_EVENTS_OUT", "/tmp/from-env.jsonl")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state-file", "", "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level", "debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgPath, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateFile != "/tmp/from-file.json" {
		t.Fatalf("state file mismatch: %s", cfg.StateFile)
	}
	if cfg.EventsOut != "/tmp/from-env.jsonl" {
		t.Fatalf("events out mismatch: %s", cfg.EventsOut)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level mismatch: %s", cfg.LogLevel)
	}

	params, err := cfg.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.Fee.Uint64() != 5 || params.HundredPercent.Uint64() != 10000 {
		t.Fatalf("params mismatch: %+v", params)
	}
}

func TestParamsValidation(t *testing.T) {
	cases := []Config{
		{DefaultShare: "10000", HundredPercent: "1000", Fee: "1000"},
		{DefaultShare: "0", HundredPercent: "1000", Fee: "3"},
		{DefaultShare: "10000", HundredPercent: "0", Fee: "0"},
	}
	for i, cfg := range cases {
		if _, err := cfg.Params(); !errors.Is(err, amm.ErrInvalidParams) {
			t.Fatalf("case %d: expected invalid params, got %v", i, err)
		}
	}

	bad := Config{DefaultShare: "ten", HundredPercent: "1000", Fee: "3"}
	if _, err := bad.Params(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseAmount(t *testing.T) {
	max := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	value, err := ParseAmount(max)
	if err != nil || value.Dec() != max {
		t.Fatalf("max amount mismatch: %v %v", value, err)
	}
	if _, err := ParseAmount(max + "0"); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := ParseAmount("-1"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestLoadEventsFilters(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("pool", nil, "")
	flags.String("name", "", "")
	if err := flags.Parse([]string{"--pool", "0xabc, 0xdef", "--name", "Swapped,"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadEvents("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Pools, []string{"0xabc", "0xdef"}) {
		t.Fatalf("pools mismatch: %v", cfg.Pools)
	}
	if !reflect.DeepEqual(cfg.Names, []string{"Swapped"}) {
		t.Fatalf("names mismatch: %v", cfg.Names)
	}
}

func TestWindowSeconds(t *testing.T) {
	cases := map[string]uint64{"5m": 300, "300": 300, "1h": 3600}
	for input, want := range cases {
		got, err := AggregateConfig{Window: input}.WindowSeconds()
		if err != nil || got != want {
			t.Fatalf("window %s: got %d, %v", input, got, err)
		}
	}
	if _, err := (AggregateConfig{Window: "soon"}).WindowSeconds(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-01T00:00:00Z")
	if err != nil || ts != 1704067200 {
		t.Fatalf("rfc3339 mismatch: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("1700000000")
	if err != nil || ts != 1700000000 {
		t.Fatalf("unix mismatch: %d %v", ts, err)
	}
}
