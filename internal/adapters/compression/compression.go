package compression

import (
	"fmt"
	"runtime"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// DefaultThreshold is the smallest frame body considered for compression.
const DefaultThreshold = 1024

// Returns CompressionOptions initialized with recommended defaults.
// Compression is off by default: most queues carry small records that
// do not benefit from it.
func DefaultOptions() *domain.CompressionOptions {
	return &domain.CompressionOptions{
		Enable:             false,
		Level:              DefaultLevel,
		Threshold:          DefaultThreshold,
		EncoderConcurrency: uint8(min(runtime.NumCPU(), 255)),
		DecoderConcurrency: uint8(min(runtime.NumCPU(), 255)),
	}
}

// Checks if the compression options are valid and returns an error if any option
// is outside acceptable bounds.
func Validate(input *domain.CompressionOptions) error {
	if input.Level < FastestLevel || input.Level > BestLevel {
		return fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, input.Level)
	}

	if int(input.EncoderConcurrency) > runtime.NumCPU() {
		return fmt.Errorf(
			"encoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.EncoderConcurrency,
		)
	}

	if int(input.DecoderConcurrency) > runtime.NumCPU() {
		return fmt.Errorf(
			"decoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.DecoderConcurrency,
		)
	}

	return nil
}

// New builds the codec described by opts.
func New(opts *domain.CompressionOptions) (*ZstdCompression, error) {
	return NewZstdCompression(Options{
		Level:              opts.Level,
		EncoderConcurrency: opts.EncoderConcurrency,
		DecoderConcurrency: opts.DecoderConcurrency,
	})
}
