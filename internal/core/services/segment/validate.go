package segment

import (
	"fmt"
	"strings"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// Validate ensures that all options are within acceptable ranges.
// Returns an error with a descriptive message if validation fails.
func Validate(opts *domain.SegmentOptions) error {
	if opts.MaxSegmentSize < MinMaxSegmentSize {
		return fmt.Errorf("maxSegmentSize must be at least %d bytes, got %d", MinMaxSegmentSize, opts.MaxSegmentSize)
	}

	if strings.TrimSpace(opts.SegmentPrefix) == "" {
		return fmt.Errorf("segmentPrefix must not be empty")
	}

	if strings.ContainsAny(opts.SegmentPrefix, `/\*?[`) {
		return fmt.Errorf("segmentPrefix must not contain path separators or glob characters, got %q", opts.SegmentPrefix)
	}

	return nil
}
