package domain

// SegmentOptions defines configurable parameters for segment files.
type SegmentOptions struct {
	// MaxSegmentSize defines the size a segment can grow to before rotation.
	// A frame is never split across segments: the segment is rotated before
	// a frame that would push it past this size. A single frame larger than
	// the limit gets a segment of its own.
	//
	// Default: 1GB
	MaxSegmentSize int64

	// SegmentPrefix defines the filename prefix for segment files.
	// Final filename will be: prefix + zero padded segmentID + ".log"
	//
	// Default: "segment-"
	SegmentPrefix string
}
