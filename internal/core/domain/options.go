// Package domain defines the core types and configurations for the record log.
package domain

import (
	"github.com/iamNilotpal/mrecordlog/internal/core/domain/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// LogOptions defines the configuration parameters for a multiplexed record log.
// It provides control over storage, durability, record limits and observability.
type LogOptions struct {
	// Directory specifies the path where segment files are stored.
	// It is created if missing. One directory holds exactly one log.
	Directory string

	// BufferSize controls the size of the in-memory write buffer of the
	// active segment. Larger buffers batch more frames per write call but
	// hold more unflushed data. Must be between 4KB and 16MB and a power of 2.
	//
	// Default: 64KB
	BufferSize uint32

	// EnableMetrics toggles the collection of operational metrics.
	// When enabled, prometheus collectors are registered with MetricsRegisterer.
	EnableMetrics bool

	// MetricsRegisterer receives the collectors when EnableMetrics is set.
	//
	// Default: prometheus.DefaultRegisterer
	MetricsRegisterer prometheus.Registerer

	// Logger receives lifecycle events: recovery summaries, rotations,
	// segment deletions and discarded torn writes.
	//
	// Default: a no-op logger
	Logger *zap.SugaredLogger

	// RecordConfig bounds payload, batch and queue name sizes.
	RecordConfig *config.RecordConfig

	// PersistPolicy controls the durability of appends and truncates.
	PersistPolicy *PersistPolicy

	// ChecksumOptions selects the frame checksum algorithm.
	ChecksumOptions *ChecksumOptions

	// CompressionOptions configures frame body compression.
	CompressionOptions *CompressionOptions

	// SegmentOptions defines configurable parameters for segment files.
	SegmentOptions *SegmentOptions
}
