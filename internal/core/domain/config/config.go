package config

import (
	"fmt"
)

const (
	// SmallPayloadSize is the smallest value accepted as a payload limit.
	// Anything lower would reject ordinary small records.
	SmallPayloadSize = 4096 // 4KB (typical page size).

	// DefaultMaxPayloadSize bounds a single payload unless configured otherwise.
	// Every retained payload lives in memory, so the limit also caps the
	// memory a single append can pin.
	DefaultMaxPayloadSize = 4 * 1024 * 1024 // 4MB.

	// MaxPayloadSize defines the absolute maximum size for a single payload.
	MaxPayloadSize = 64 * 1024 * 1024 // 64MB.

	// DefaultMaxBatchSize bounds the summed payload size of one batch append.
	// A batch is written as a single frame.
	DefaultMaxBatchSize = 16 * 1024 * 1024 // 16MB.

	// MaxBatchSize defines the upper limit for batch appends. It stays below
	// the frame size limit of the codec.
	MaxBatchSize = 128 * 1024 * 1024 // 128MB.

	// MaxQueueNameLength is the longest accepted queue name in bytes.
	MaxQueueNameLength = 65535
)

// RecordConfig bounds the size of what callers can append.
type RecordConfig struct {
	// MaxPayloadSize enforces the maximum size of a single payload.
	MaxPayloadSize uint32

	// MaxBatchSize enforces the maximum summed payload size of one append call.
	MaxBatchSize uint32

	// MaxQueueNameLength enforces the maximum queue name length in bytes.
	MaxQueueNameLength uint32
}

// RecordConfigOption defines the signature for configuration options.
type RecordConfigOption func(*RecordConfig)

// WithMaxPayloadSize sets the payload limit. Values above MaxPayloadSize are ignored.
func WithMaxPayloadSize(size uint32) RecordConfigOption {
	return func(c *RecordConfig) {
		if size <= MaxPayloadSize {
			c.MaxPayloadSize = size
		}
	}
}

// WithMaxBatchSize sets the batch limit. Values above MaxBatchSize are ignored.
func WithMaxBatchSize(size uint32) RecordConfigOption {
	return func(c *RecordConfig) {
		if size <= MaxBatchSize {
			c.MaxBatchSize = size
		}
	}
}

// WithMaxQueueNameLength sets the queue name limit.
func WithMaxQueueNameLength(length uint32) RecordConfigOption {
	return func(c *RecordConfig) {
		if length > 0 && length <= MaxQueueNameLength {
			c.MaxQueueNameLength = length
		}
	}
}

// NewRecordConfig initializes a RecordConfig with default values and applies
// any provided configuration options.
func NewRecordConfig(opts ...RecordConfigOption) *RecordConfig {
	cfg := DefaultRecordConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// RecordValidationError represents specific configuration validation errors.
type RecordValidationError struct {
	Field   string
	Value   uint32
	Details string
}

func (e *RecordValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s (%d): %s", e.Field, e.Value, e.Details)
}

// Validate checks all limits against their allowed ranges and returns
// a detailed error for the first violation.
func (c *RecordConfig) Validate() error {
	if c.MaxPayloadSize < SmallPayloadSize {
		return &RecordValidationError{
			Field:   "MaxPayloadSize",
			Value:   c.MaxPayloadSize,
			Details: fmt.Sprintf("below minimum allowed value of %d", SmallPayloadSize),
		}
	}

	if c.MaxPayloadSize > MaxPayloadSize {
		return &RecordValidationError{
			Field:   "MaxPayloadSize",
			Value:   c.MaxPayloadSize,
			Details: fmt.Sprintf("exceeds maximum allowed value of %d", MaxPayloadSize),
		}
	}

	if c.MaxBatchSize > MaxBatchSize {
		return &RecordValidationError{
			Field:   "MaxBatchSize",
			Value:   c.MaxBatchSize,
			Details: fmt.Sprintf("exceeds maximum allowed value of %d", MaxBatchSize),
		}
	}

	if c.MaxBatchSize < c.MaxPayloadSize {
		return &RecordValidationError{
			Field:   "MaxBatchSize",
			Value:   c.MaxBatchSize,
			Details: fmt.Sprintf("smaller than MaxPayloadSize (%d)", c.MaxPayloadSize),
		}
	}

	if c.MaxQueueNameLength == 0 || c.MaxQueueNameLength > MaxQueueNameLength {
		return &RecordValidationError{
			Field:   "MaxQueueNameLength",
			Value:   c.MaxQueueNameLength,
			Details: fmt.Sprintf("must be between 1 and %d", MaxQueueNameLength),
		}
	}

	return nil
}
