package domain

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm string

// ChecksumOptions defines how frames are protected against corruption.
type ChecksumOptions struct {
	// Algorithm specifies which checksum algorithm new segments use.
	// The algorithm is recorded in every segment header, so segments written
	// with a different algorithm remain readable after a configuration change.
	//
	// Default: crc32-castagnoli
	Algorithm ChecksumAlgorithm
}
