package segment

import (
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

const (
	DefaultSegmentPrefix = "segment-"
	SegmentExtension     = ".log"

	DefaultMaxSegmentSize = 1 << 30 // 1GB
	MinMaxSegmentSize     = 512     // Leaves room for the header and a few small frames.
)

// DefaultOptions returns a SegmentOptions struct with recommended defaults.
func DefaultOptions() *domain.SegmentOptions {
	return &domain.SegmentOptions{
		SegmentPrefix:  DefaultSegmentPrefix,
		MaxSegmentSize: DefaultMaxSegmentSize,
	}
}
