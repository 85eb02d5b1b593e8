package main

import (
	"context"
	"errors"
	"os"

	"github.com/iamNilotpal/mrecordlog/config"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/recordlog"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
	"github.com/iamNilotpal/mrecordlog/pkg/logger"
)

func main() {
	logger := logger.New("mrecordlog")
	defer logger.Sync()

	cfg := config.DefaultConfig()
	if len(os.Args) > 1 {
		loaded, err := config.LoadConfig(os.Args[1])
		if err != nil {
			logger.Errorw("load config error", "path", os.Args[1], "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	opts, err := cfg.Options()
	if err != nil {
		logger.Errorw("config error", "error", err)
		os.Exit(1)
	}
	opts.Logger = logger

	log, err := recordlog.Open(context.Background(), opts)
	if err != nil {
		if verr := logerrors.AsValidationError(err); verr != nil {
			logger.Errorw("open record log error", "field", verr.Field, "value", verr.Value, "error", verr.Err)
		} else {
			logger.Errorw("open record log error", "error", err)
		}
		os.Exit(1)
	}

	const queue = "events"
	if err := log.CreateQueue(queue); err != nil && !errors.Is(err, domain.ErrQueueAlreadyExists) {
		logger.Errorw("create queue error", "queue", queue, "error", err)
	}

	position, err := log.AppendRecord(queue, []byte(`{"event":"started"}`))
	if err != nil {
		logger.Errorw("append error", "queue", queue, "error", err)
	} else {
		logger.Infow("appended record", "queue", queue, "position", position)
	}

	if records, err := log.Range(queue, domain.RangeAll()); err == nil {
		for position, payload := range records {
			logger.Infow("retained record", "queue", queue, "position", position, "payload", string(payload))
		}
	}

	// Keep only the latest record around for the next run.
	if position > 0 {
		if err := log.Truncate(queue, position-1); err != nil {
			logger.Errorw("truncate error", "queue", queue, "error", err)
		}
	}

	for _, summary := range log.Summary() {
		logger.Infow(
			"queue summary",
			"queue", summary.Name,
			"nextPosition", summary.NextPosition,
			"records", summary.Records,
			"bytes", summary.Bytes,
		)
	}
	logger.Infow("storage", "segments", log.SegmentIDs(), "onDiskBytes", log.OnDiskSize(), "inMemoryBytes", log.InMemorySize())

	if err := log.Close(); err != nil {
		logger.Errorw("error closing record log", "error", err)
		os.Exit(1)
	}
}
