package recordlog

import (
	"strings"
	"time"

	"github.com/iamNilotpal/mrecordlog/internal/adapters/checksum"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/compression"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain/config"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultDirectory = "mrecordlog-data"

	DefaultBufferSize    = 65536    // 64KB
	DefaultMinBufferSize = 4096     // 4KB
	DefaultMaxBufferSize = 16777216 // 16MB

	DefaultPersistInterval = time.Duration(time.Second * 5) // 5s
	MinPersistInterval     = time.Duration(time.Millisecond * 10)
)

// DefaultPersistPolicy flushes and fsyncs after every mutation.
func DefaultPersistPolicy() *domain.PersistPolicy {
	return &domain.PersistPolicy{
		Mode:     domain.PersistAlways,
		Action:   domain.ActionFlushAndFsync,
		Interval: DefaultPersistInterval,
	}
}

func prepareDefaults(opts *domain.LogOptions) *domain.LogOptions {
	if strings.TrimSpace(opts.Directory) == "" {
		opts.Directory = DefaultDirectory
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = DefaultBufferSize
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	if opts.EnableMetrics && opts.MetricsRegisterer == nil {
		opts.MetricsRegisterer = prometheus.DefaultRegisterer
	}

	if opts.RecordConfig == nil {
		opts.RecordConfig = config.DefaultRecordConfig()
	}

	if opts.PersistPolicy == nil {
		opts.PersistPolicy = DefaultPersistPolicy()
	} else if opts.PersistPolicy.Interval == 0 {
		opts.PersistPolicy.Interval = DefaultPersistInterval
	}

	if opts.SegmentOptions == nil {
		opts.SegmentOptions = segment.DefaultOptions()
	} else {
		if strings.TrimSpace(opts.SegmentOptions.SegmentPrefix) == "" {
			opts.SegmentOptions.SegmentPrefix = segment.DefaultSegmentPrefix
		}

		if opts.SegmentOptions.MaxSegmentSize == 0 {
			opts.SegmentOptions.MaxSegmentSize = segment.DefaultMaxSegmentSize
		}
	}

	if opts.ChecksumOptions == nil {
		opts.ChecksumOptions = checksum.DefaultOptions()
	} else if opts.ChecksumOptions.Algorithm == "" {
		opts.ChecksumOptions.Algorithm = checksum.DefaultOptions().Algorithm
	}

	if opts.CompressionOptions == nil {
		opts.CompressionOptions = compression.DefaultOptions()
	} else {
		if opts.CompressionOptions.Level == 0 {
			opts.CompressionOptions.Level = compression.DefaultLevel
		}

		if opts.CompressionOptions.Threshold == 0 {
			opts.CompressionOptions.Threshold = compression.DefaultThreshold
		}
	}

	return opts
}
