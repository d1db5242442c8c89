package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/config"
	"poolLedger/internal/eventlog"
	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

func newEventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Decode committed event logs into typed events",
		RunE:  runEvents,
	}

	eventsCmd.Flags().String("in", "", "input log JSONL (default: the configured backend)")
	eventsCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL, - for stdout")
	eventsCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	eventsCmd.Flags().StringSlice("pool", nil, "only pools (comma-separated)")
	eventsCmd.Flags().StringSlice("name", nil, "only event names (comma-separated)")
	return eventsCmd
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEvents(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logs   []model.LogRecord
		logger *zap.Logger
	)
	if cfg.In != "" {
		if logger, err = newLogger(cfg.LogLevel); err != nil {
			return err
		}
		defer logger.Sync()
		if logs, err = storage.ReadLogs(cfg.In); err != nil {
			return err
		}
	} else {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		logger = s.logger
		if logs, err = s.rt.Logs(ctx); err != nil {
			return err
		}
	}

	decoder, err := eventlog.NewDecoder()
	if err != nil {
		return err
	}

	outWriter, err := newJSONLWriter(cmd.OutOrStdout(), cfg.Out)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cmd.ErrOrStderr(), cfg.Errors)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("events start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("logs", len(logs)),
	)

	filter := newEventFilter(cfg.Pools, cfg.Names)
	var decoded, skipped, failed int
	for _, record := range logs {
		if len(record.Topics) == 0 {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, fmt.Errorf("missing topic0")))
			continue
		}
		if !decoder.CanDecode(record.Topics[0]) {
			skipped++
			continue
		}

		event, err := decoder.Decode(record)
		if err != nil {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, err))
			continue
		}
		if !filter.match(event) {
			skipped++
			continue
		}

		if err := outWriter.Write(event); err != nil {
			return err
		}
		decoded++
	}

	logger.Info("events complete",
		zap.Int("total", len(logs)),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

type eventFilter struct {
	pools map[string]struct{}
	names map[string]struct{}
}

func newEventFilter(pools, names []string) eventFilter {
	f := eventFilter{}
	if len(pools) > 0 {
		f.pools = make(map[string]struct{}, len(pools))
		for _, pool := range pools {
			f.pools[strings.ToLower(pool)] = struct{}{}
		}
	}
	if len(names) > 0 {
		f.names = make(map[string]struct{}, len(names))
		for _, name := range names {
			f.names[strings.ToLower(name)] = struct{}{}
		}
	}
	return f
}

func (f eventFilter) match(event *model.TypedEvent) bool {
	if f.pools != nil {
		if _, ok := f.pools[strings.ToLower(event.Address)]; !ok {
			return false
		}
	}
	if f.names != nil {
		if _, ok := f.names[strings.ToLower(event.EventName)]; !ok {
			return false
		}
	}
	return true
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// newJSONLWriter truncates path, or writes to stdio when path is "-".
func newJSONLWriter(stdio io.Writer, path string) (*jsonlWriter, error) {
	if path == "-" {
		return &jsonlWriter{writer: bufio.NewWriter(stdio)}, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return err
	}
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		Seq:      record.Seq,
		LogIndex: record.LogIndex,
		Address:  record.Address,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func writeDecodeError(writer *jsonlWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
