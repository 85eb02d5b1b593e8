// Package recordlog implements the multiplexed record log: many named
// queues sharing a set of append-only segment files, fully held in memory
// and rebuilt from the segments when the log is opened.
package recordlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/mrecordlog/internal/adapters/checksum"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/compression"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/fs"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/metrics"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/ports"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/queue"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/record"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment/manager"
	"github.com/iamNilotpal/mrecordlog/pkg/pool"
	"go.uber.org/zap"
)

// MultiRecordLog stores many independent queues of opaque records in
// shared segment files.
//
// Mutations are serialized: a record is written to the active segment
// before it is applied in memory, so memory always mirrors the order of
// the frames on disk. Reads are served from memory and never wait for disk.
type MultiRecordLog struct {
	options    *domain.LogOptions
	logger     *zap.SugaredLogger
	metrics    ports.MetricsPort
	codec      *record.Codec
	compressor ports.CompressionPort
	buffers    *pool.BufferPool
	sm         *manager.SegmentManager

	// writeMu serializes mutations end to end. The fields below it are
	// only accessed with writeMu held.
	writeMu     sync.Mutex
	writeErr    error     // First failed write; the log rejects mutations afterwards.
	dirty       bool      // Frames written since the last persist.
	lastPersist time.Time // When frames were last persisted.

	// stateMu guards the in-memory queues. Writers hold it exclusively only
	// while applying an already written record.
	stateMu sync.RWMutex
	queues  *queue.Set
	state   domain.LogState

	closed atomic.Bool

	// Lifecycle of the background persist loop.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open opens the log stored in opts.Directory, creating it when missing,
// and replays every segment into memory. A nil opts uses the defaults.
// ctx bounds the replay only.
func Open(ctx context.Context, opts *domain.LogOptions) (*MultiRecordLog, error) {
	if opts == nil {
		opts = &domain.LogOptions{}
	}

	opts = prepareDefaults(opts)
	if err := Validate(opts); err != nil {
		return nil, err
	}

	l := &MultiRecordLog{
		options:     opts,
		logger:      opts.Logger,
		queues:      queue.NewSet(),
		state:       domain.StateInitializing,
		buffers:     pool.NewBufferPool(int(opts.BufferSize)),
		lastPersist: time.Now(),
	}

	if err := l.init(); err != nil {
		return nil, err
	}

	started := time.Now()
	l.setState(domain.StateRecovering)

	checksumID, _ := checksum.AlgorithmID(opts.ChecksumOptions.Algorithm)
	sm, stats, err := manager.Open(ctx, manager.Options{
		Directory:      opts.Directory,
		Prefix:         opts.SegmentOptions.SegmentPrefix,
		MaxSegmentSize: opts.SegmentOptions.MaxSegmentSize,
		BufferSize:     int(opts.BufferSize),
		ChecksumID:     checksumID,
		Codec:          l.codec,
		FS:             fs.NewLocalFileSystem(),
		Metrics:        l.metrics,
		Logger:         l.logger,
	}, l.replay)
	if err != nil {
		l.compressor.Close()
		return nil, err
	}
	l.sm = sm

	l.metrics.RecordsReplayed(stats.Records)
	l.publishQueues()
	l.logger.Infow(
		"opened record log",
		"directory", opts.Directory,
		"logId", sm.LogID(),
		"segments", stats.Segments,
		"records", stats.Records,
		"queues", l.queues.Len(),
		"tornTails", stats.TornTails,
		"duration", time.Since(started),
	)

	// Reclaim what was truncatable before the last shutdown.
	l.writeMu.Lock()
	err = l.collect()
	l.writeMu.Unlock()
	if err != nil {
		sm.Close()
		l.compressor.Close()
		return nil, err
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	if opts.PersistPolicy.Mode == domain.PersistOnDelay {
		l.wg.Add(1)
		go l.syncInBackground(opts.PersistPolicy.Interval)
	}

	l.setState(domain.StateIdle)
	return l, nil
}

// init builds the collaborators that do not touch the directory.
func (l *MultiRecordLog) init() error {
	opts := l.options

	if opts.EnableMetrics {
		prom, err := metrics.NewPrometheus(opts.MetricsRegisterer)
		if err != nil {
			return err
		}
		l.metrics = prom
	} else {
		l.metrics = metrics.NewNoop()
	}

	summer, err := checksum.NewCheckSummer(opts.ChecksumOptions.Algorithm)
	if err != nil {
		return err
	}

	// Always built: segments written with compression enabled stay
	// readable after it is turned off.
	compressor, err := compression.New(opts.CompressionOptions)
	if err != nil {
		return err
	}

	codec, err := record.NewCodec(record.Options{
		Checksum:   summer,
		Compressor: compressor,
		Compress:   opts.CompressionOptions.Enable,
		Threshold:  int(opts.CompressionOptions.Threshold),
	})
	if err != nil {
		compressor.Close()
		return err
	}

	l.compressor = compressor
	l.codec = codec
	return nil
}

// State returns the lifecycle state of the log.
func (l *MultiRecordLog) State() domain.LogState {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state
}

func (l *MultiRecordLog) setState(state domain.LogState) {
	l.stateMu.Lock()
	l.state = state
	l.stateMu.Unlock()
}

// Sync flushes and fsyncs every written record, whatever the persist policy.
func (l *MultiRecordLog) Sync() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}
	return l.flush(true)
}

// Close stops the background persist loop, persists every written record
// and closes the active segment. Every later call fails with domain.ErrClosed.
func (l *MultiRecordLog) Close() error {
	l.writeMu.Lock()
	if l.closed.Load() {
		l.writeMu.Unlock()
		return domain.ErrClosed
	}
	l.closed.Store(true)
	l.setState(domain.StateClosing)
	l.cancel()
	l.writeMu.Unlock()

	l.wg.Wait()

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	err := l.sm.Close()
	err = errors.Join(err, l.compressor.Close())
	l.setState(domain.StateClosed)

	if err != nil {
		l.logger.Errorw("failed to close record log", "error", err)
		return err
	}

	l.logger.Infow("closed record log", "directory", l.options.Directory)
	return nil
}

// checkWritable reports why a mutation can not proceed. Requires writeMu.
func (l *MultiRecordLog) checkWritable() error {
	if l.closed.Load() {
		return domain.ErrClosed
	}
	if l.writeErr != nil {
		return fmt.Errorf("record log failed a previous write: %w", l.writeErr)
	}
	return nil
}

// checkOpen guards read operations.
func (l *MultiRecordLog) checkOpen() error {
	if l.closed.Load() {
		return domain.ErrClosed
	}
	return nil
}

// InMemorySize returns the summed size of every retained payload.
func (l *MultiRecordLog) InMemorySize() int {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.queues.Bytes()
}

// OnDiskSize returns the summed size of every segment file.
func (l *MultiRecordLog) OnDiskSize() int64 {
	return l.sm.OnDiskSize()
}

// SegmentIDs returns the ids of the segment files, oldest first.
func (l *MultiRecordLog) SegmentIDs() []uint64 {
	return l.sm.SegmentIDs()
}

func (l *MultiRecordLog) publishQueues() {
	l.stateMu.RLock()
	count, bytes := l.queues.Len(), l.queues.Bytes()
	l.stateMu.RUnlock()

	l.metrics.SetQueues(count)
	l.metrics.SetInMemoryBytes(bytes)
}
