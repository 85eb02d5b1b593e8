package recordlog

import (
	"fmt"
	"os"

	"github.com/iamNilotpal/mrecordlog/internal/adapters/checksum"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/compression"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
)

// Validate checks options that already went through prepareDefaults.
func Validate(opts *domain.LogOptions) error {
	// A missing directory is created on open, anything else must be a directory.
	if info, err := os.Stat(opts.Directory); err == nil && !info.IsDir() {
		return logerrors.NewValidationError(
			"directory", opts.Directory, fmt.Errorf("specified path is not a directory"),
		)
	}

	if err := validateBufferSize(opts.BufferSize); err != nil {
		return logerrors.NewValidationError("bufferSize", opts.BufferSize, err)
	}

	if err := opts.RecordConfig.Validate(); err != nil {
		return logerrors.NewValidationError("recordConfig", opts.RecordConfig, err)
	}

	if err := validatePersistPolicy(opts.PersistPolicy); err != nil {
		return logerrors.NewValidationError("persistPolicy", opts.PersistPolicy, err)
	}

	if err := checksum.Validate(opts.ChecksumOptions); err != nil {
		return logerrors.NewValidationError("checksumOptions", opts.ChecksumOptions.Algorithm, err)
	}

	if opts.CompressionOptions.Enable {
		if err := compression.Validate(opts.CompressionOptions); err != nil {
			return logerrors.NewValidationError("compressionOptions", opts.CompressionOptions.Level, err)
		}
	}

	if err := segment.Validate(opts.SegmentOptions); err != nil {
		return logerrors.NewValidationError("segmentOptions", opts.SegmentOptions, err)
	}

	return nil
}

func validateBufferSize(size uint32) error {
	// Check minimum size
	if size < DefaultMinBufferSize {
		return fmt.Errorf("buffer size must be at least 4KB (4096 bytes), got %d bytes", size)
	}

	// Check maximum size
	if size > DefaultMaxBufferSize {
		return fmt.Errorf("buffer size must not exceed 16MB (16777216 bytes), got %d bytes", size)
	}

	if size&(size-1) != 0 {
		return fmt.Errorf("buffer size must be a power of 2, got %d bytes", size)
	}

	return nil
}

func validatePersistPolicy(policy *domain.PersistPolicy) error {
	if policy.Mode > domain.PersistNever {
		return fmt.Errorf("unknown persist mode %d", policy.Mode)
	}

	if policy.Action > domain.ActionFlush {
		return fmt.Errorf("unknown persist action %d", policy.Action)
	}

	if policy.Mode == domain.PersistOnDelay && policy.Interval < MinPersistInterval {
		return fmt.Errorf("persist interval must be at least %s, got %s", MinPersistInterval, policy.Interval)
	}

	return nil
}
