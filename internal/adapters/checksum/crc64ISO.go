package checksum

import (
	"hash/crc64"
)

var isoTable = crc64.MakeTable(crc64.ISO)

type crc64ISO struct {
	name string
}

func NewCRC64ISO() *crc64ISO {
	return &crc64ISO{name: string(CRC64ISO)}
}

func (c *crc64ISO) Calculate(data []byte) uint64 {
	return crc64.Checksum(data, isoTable)
}

func (c *crc64ISO) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc64ISO) Size() uint8 {
	return crc64.Size
}

func (c *crc64ISO) Name() string {
	return c.name
}
