package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolLedger/internal/amm"
)

const envPrefix = "AMM"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	StateFile      string
	EventsOut      string
	PGDSN          string
	LogLevel       string
	DefaultShare   string
	HundredPercent string
	Fee            string
	CommitRetries  int
	CommitBackoff  time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetDefault("state-file", "./data/state.json")
	v.SetDefault("events-out", "./data/events.jsonl")
	v.SetDefault("log-level", "info")
	v.SetDefault("default-share", "10000")
	v.SetDefault("hundred-percent", "1000")
	v.SetDefault("fee", "3")
	v.SetDefault("commit-retries", 3)
	v.SetDefault("commit-backoff", 200*time.Millisecond)

	if err := readConfig(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		StateFile:      v.GetString("state-file"),
		EventsOut:      v.GetString("events-out"),
		PGDSN:          v.GetString("pg-dsn"),
		LogLevel:       v.GetString("log-level"),
		DefaultShare:   v.GetString("default-share"),
		HundredPercent: v.GetString("hundred-percent"),
		Fee:            v.GetString("fee"),
		CommitRetries:  v.GetInt("commit-retries"),
		CommitBackoff:  v.GetDuration("commit-backoff"),
	}

	return cfg, nil
}

// Params parses the pool constants.
func (c Config) Params() (amm.Params, error) {
	defaultShare, err := parseAmount("default-share", c.DefaultShare)
	if err != nil {
		return amm.Params{}, err
	}
	hundredPercent, err := parseAmount("hundred-percent", c.HundredPercent)
	if err != nil {
		return amm.Params{}, err
	}
	fee, err := parseAmount("fee", c.Fee)
	if err != nil {
		return amm.Params{}, err
	}
	params := amm.Params{
		DefaultShare:   defaultShare,
		HundredPercent: hundredPercent,
		Fee:            fee,
	}
	if err := params.Validate(); err != nil {
		return amm.Params{}, err
	}
	return params, nil
}

// ParseAmount parses a non-negative decimal amount of up to 256 bits.
func ParseAmount(input string) (*uint256.Int, error) {
	return parseAmount("amount", input)
}

func parseAmount(key, input string) (*uint256.Int, error) {
	value, err := uint256.FromDecimal(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", key, input, err)
	}
	return value, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func readConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
