package checksum

import (
	"hash/crc32"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

type crc32Castagnoli struct {
	name string
}

func NewCRC32Castagnoli() *crc32Castagnoli {
	return &crc32Castagnoli{name: string(CRC32Castagnoli)}
}

func (c *crc32Castagnoli) Calculate(data []byte) uint64 {
	return uint64(crc32.Checksum(data, castagnoliTable))
}

func (c *crc32Castagnoli) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc32Castagnoli) Size() uint8 {
	return crc32.Size
}

func (c *crc32Castagnoli) Name() string {
	return c.name
}
