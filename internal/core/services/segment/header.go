package segment

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/google/uuid"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

const (
	// HeaderSize is the size of the header at the start of every segment.
	HeaderSize = 36

	// FormatVersion is the on-disk format written by this package.
	FormatVersion uint8 = 1
)

var magic = [4]byte{'M', 'R', 'L', 'G'}

// Header identifies a segment file.
//
//	[0:4]   magic "MRLG"
//	[4]     format version
//	[5]     checksum algorithm id of the frames
//	[6:8]   reserved
//	[8:16]  segment id
//	[16:32] log id
//	[32:36] crc32 (IEEE) of bytes [0:32]
type Header struct {
	Version    uint8
	ChecksumID uint8
	SegmentID  uint64

	// LogID is shared by every segment of one directory. It guards against
	// segments copied in from another log.
	LogID uuid.UUID
}

// Marshal returns the encoded header.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic[:])
	buf[4] = h.Version
	buf[5] = h.ChecksumID
	binary.LittleEndian.PutUint64(buf[8:16], h.SegmentID)
	copy(buf[16:32], h.LogID[:])
	binary.LittleEndian.PutUint32(buf[32:36], crc32.ChecksumIEEE(buf[:32]))
	return buf
}

// UnmarshalHeader decodes a header. A short buffer is reported as
// domain.ErrIncompleteFrame, anything else invalid as domain.ErrCorrupted.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, domain.ErrIncompleteFrame
	}

	if [4]byte(buf[0:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad segment magic %q", domain.ErrCorrupted, buf[0:4])
	}

	if binary.LittleEndian.Uint32(buf[32:36]) != crc32.ChecksumIEEE(buf[:32]) {
		return Header{}, fmt.Errorf("%w: segment header checksum mismatch", domain.ErrCorrupted)
	}

	h := Header{
		Version:    buf[4],
		ChecksumID: buf[5],
		SegmentID:  binary.LittleEndian.Uint64(buf[8:16]),
		LogID:      uuid.UUID(buf[16:32]),
	}

	if h.Version != FormatVersion {
		return Header{}, fmt.Errorf("%w: unsupported segment format version %d", domain.ErrCorrupted, h.Version)
	}

	return h, nil
}
