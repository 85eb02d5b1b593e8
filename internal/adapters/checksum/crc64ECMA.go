package checksum

import (
	"hash/crc64"
)

var ecmaTable = crc64.MakeTable(crc64.ECMA)

type crc64ECMA struct {
	name string
}

func NewCRC64ECMA() *crc64ECMA {
	return &crc64ECMA{name: string(CRC64ECMA)}
}

func (c *crc64ECMA) Calculate(data []byte) uint64 {
	return crc64.Checksum(data, ecmaTable)
}

func (c *crc64ECMA) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc64ECMA) Size() uint8 {
	return crc64.Size
}

func (c *crc64ECMA) Name() string {
	return c.name
}
