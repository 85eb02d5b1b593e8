package ports

// ChecksumPort calculates and verifies frame checksums.
// Implementations narrower than 64 bits are widened, never truncated.
type ChecksumPort interface {
	// Calculate returns the checksum of data.
	Calculate(data []byte) uint64

	// Verify reports whether data matches the expected checksum.
	Verify(data []byte, expected uint64) bool

	// Size returns the size in bytes of the underlying digest.
	Size() uint8

	// Name returns the algorithm name.
	Name() string
}
