package checksum

import (
	sha256_lib "crypto/sha256"
	"encoding/binary"
)

type sha256 struct {
	name string
}

func NewSHA256() *sha256 {
	return &sha256{name: string(SHA256)}
}

// Calculate keeps the first 8 bytes of the digest.
func (s *sha256) Calculate(data []byte) uint64 {
	sum := sha256_lib.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}

func (s *sha256) Verify(data []byte, expected uint64) bool {
	return s.Calculate(data) == expected
}

func (s *sha256) Size() uint8 {
	return sha256_lib.Size
}

func (s *sha256) Name() string {
	return s.name
}
