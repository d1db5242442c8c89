package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolLedger/internal/config"
	"poolLedger/internal/runtime"
	"poolLedger/internal/storage"
	"poolLedger/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant-product pool ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("state-file", "./data/state.json", "state snapshot path (file backend)")
	root.PersistentFlags().String("events-out", "./data/events.jsonl", "committed event log JSONL (file backend)")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN; selects the Postgres backend when set")

	root.AddCommand(newTokenCmd())
	root.AddCommand(newPoolCmd())
	root.AddCommand(newEventsCmd())
	root.AddCommand(newAggregateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is an opened runtime plus the resources behind it.
type session struct {
	cfg     config.Config
	logger  *zap.Logger
	backend storage.Backend
	rt      *runtime.Runtime
}

func (s *session) Close() {
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Warn("close backend", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rt, err := runtime.New(backend, params, runtime.Options{
		CommitRetries: cfg.CommitRetries,
		CommitBackoff: cfg.CommitBackoff,
	}, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, backend: backend, rt: rt}, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Backend, error) {
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Debug("backend open", zap.String("kind", "postgres"), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
		return store, nil
	}

	backend, err := storage.OpenSnapshotBackend(cfg.StateFile, storage.NewJsonlStorage(cfg.EventsOut))
	if err != nil {
		return nil, err
	}
	logger.Debug("backend open",
		zap.String("kind", "snapshot"),
		zap.String("state_file", cfg.StateFile),
		zap.String("events_out", cfg.EventsOut),
	)
	return backend, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
