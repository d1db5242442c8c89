package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// AggregateConfig holds configuration for aggregation.
type AggregateConfig struct {
	Input         string
	Out           string
	Window        string
	PGDSN         string
	BatchSize     int
	CursorFile    string
	RecomputeFrom string
	LogLevel      string
}

// LoadAggregate merges config file, environment variables, and flags into AggregateConfig.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v := newViper()

	v.SetDefault("in", "./data/typed_events.jsonl")
	v.SetDefault("out", "./data/pool_metrics.jsonl")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("log-level", "info")
	v.SetDefault("window", "5m")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return AggregateConfig{}, err
	}

	cfg := AggregateConfig{
		Input:         v.GetString("in"),
		Out:           v.GetString("out"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		CursorFile:    v.GetString("cursor-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// WindowSeconds parses the window as a duration ("5m") or whole seconds ("300").
func (c AggregateConfig) WindowSeconds() (uint64, error) {
	if isNumeric(c.Window) {
		return strconv.ParseUint(c.Window, 10, 64)
	}
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, err
	}
	if d < time.Second {
		return 0, nil
	}
	return uint64(d / time.Second), nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
