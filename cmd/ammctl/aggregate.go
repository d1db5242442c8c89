package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/aggregate"
	"poolLedger/internal/config"
	"poolLedger/internal/storage/postgres"
)

func newAggregateCmd() *cobra.Command {
	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate typed events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "./data/typed_events.jsonl", "input typed events JSONL")
	aggregateCmd.Flags().String("out", "./data/pool_metrics.jsonl", "output metrics JSONL when no Postgres DSN is set")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	aggregateCmd.Flags().String("cursor-file", "", "optional local file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	return aggregateCmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	windowSeconds, err := cfg.WindowSeconds()
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sink       aggregate.MetricsSink
		stateStore aggregate.StateStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
		stateStore = &aggregate.DBStateStore{Store: store, Name: fmt.Sprintf("aggregator:%d", windowSeconds)}
	} else {
		if cfg.Out == "" {
			return fmt.Errorf("output path is required without a pg dsn")
		}
		sink = &aggregate.JsonlMetricsSink{Path: cfg.Out}
	}
	if cfg.CursorFile != "" {
		stateStore = &aggregate.FileStateStore{Path: cfg.CursorFile}
	}

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
	}, sink, logger)

	logger.Info("aggregate start",
		zap.String("input", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
	)

	return agg.Run(ctx, cfg.Input)
}
