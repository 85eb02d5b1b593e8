// Package checksum provides the frame checksum algorithms of the record log.
// Every algorithm has a stable one byte identifier that is written into
// segment headers, so a segment is always verified with the algorithm it
// was written with.
package checksum

import (
	"fmt"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/ports"
)

const (
	// CRC32IEEE uses the IEEE polynomial for CRC32 checksums
	CRC32IEEE domain.ChecksumAlgorithm = "crc32-ieee"

	// CRC32Castagnoli uses the Castagnoli polynomial, hardware accelerated on most CPUs
	CRC32Castagnoli domain.ChecksumAlgorithm = "crc32-castagnoli"

	// CRC64ISO uses the ISO polynomial for CRC64 checksums
	CRC64ISO domain.ChecksumAlgorithm = "crc64-iso"

	// CRC64ECMA uses the ECMA polynomial for CRC64 checksums
	CRC64ECMA domain.ChecksumAlgorithm = "crc64-ecma"

	// SHA256 provides SHA-256 checksums truncated to 64 bits
	SHA256 domain.ChecksumAlgorithm = "sha256"
)

// On-disk identifiers. Never renumber.
var algorithmIDs = map[domain.ChecksumAlgorithm]uint8{
	CRC32IEEE:       1,
	CRC32Castagnoli: 2,
	CRC64ISO:        3,
	CRC64ECMA:       4,
	SHA256:          5,
}

// Returns recommended checksum settings.
func DefaultOptions() *domain.ChecksumOptions {
	return &domain.ChecksumOptions{Algorithm: CRC32Castagnoli}
}

func Validate(input *domain.ChecksumOptions) error {
	if _, ok := algorithmIDs[input.Algorithm]; !ok {
		return fmt.Errorf("unsupported checksum algorithm: %s", input.Algorithm)
	}
	return nil
}

// NewCheckSummer returns the implementation of algorithm.
func NewCheckSummer(algorithm domain.ChecksumAlgorithm) (ports.ChecksumPort, error) {
	switch algorithm {
	case CRC32IEEE:
		return NewCRC32IEEE(), nil
	case CRC32Castagnoli:
		return NewCRC32Castagnoli(), nil
	case CRC64ISO:
		return NewCRC64ISO(), nil
	case CRC64ECMA:
		return NewCRC64ECMA(), nil
	case SHA256:
		return NewSHA256(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", algorithm)
	}
}

// AlgorithmID returns the on-disk identifier of algorithm.
func AlgorithmID(algorithm domain.ChecksumAlgorithm) (uint8, error) {
	id, ok := algorithmIDs[algorithm]
	if !ok {
		return 0, fmt.Errorf("unsupported checksum algorithm: %s", algorithm)
	}
	return id, nil
}

// FromID returns the implementation registered under an on-disk identifier.
func FromID(id uint8) (ports.ChecksumPort, error) {
	for algorithm, known := range algorithmIDs {
		if known == id {
			return NewCheckSummer(algorithm)
		}
	}
	return nil, fmt.Errorf("unknown checksum algorithm id: %d", id)
}
