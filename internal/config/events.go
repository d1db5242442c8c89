package config

import (
	"github.com/spf13/pflag"
)

// EventsConfig holds configuration for the events command.
type EventsConfig struct {
	In       string
	Out      string
	Errors   string
	PGDSN    string
	LogLevel string
	Pools    []string
	Names    []string
}

// LoadEvents merges config file, environment variables, and flags into EventsConfig.
// An empty In reads the committed log from the configured backend.
func LoadEvents(cfgFile string, flags *pflag.FlagSet) (EventsConfig, error) {
	v := newViper()

	v.SetDefault("out", "./data/typed_events.jsonl")
	v.SetDefault("errors", "./data/decode_errors.jsonl")
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return EventsConfig{}, err
	}

	cfg := EventsConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Errors:   v.GetString("errors"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
		Pools:    getStringSlice(v, "pool"),
		Names:    getStringSlice(v, "name"),
	}

	return cfg, nil
}
