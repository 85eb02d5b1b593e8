package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// Reader decodes consecutive frames from a stream.
type Reader struct {
	codec  *Codec
	r      io.Reader
	header [HeaderSize]byte
	buf    []byte
	offset int64
}

// NewReader returns a Reader decoding frames from r with the codec.
func (c *Codec) NewReader(r io.Reader) *Reader {
	return &Reader{codec: c, r: r}
}

// Next decodes the next frame. It returns io.EOF when the stream ends on a
// frame boundary and domain.ErrIncompleteFrame when it ends inside a frame.
// The returned payloads are only valid until the following call.
func (r *Reader) Next() (domain.Record, error) {
	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		return domain.Record{}, r.readError(err)
	}

	length, sum := parseHeader(r.header[:])
	if length > MaxFrameSize {
		return domain.Record{}, fmt.Errorf(
			"frame at offset %d: %w: frame length %d exceeds %d", r.offset, domain.ErrCorrupted, length, MaxFrameSize,
		)
	}

	need := 1 + int(length)
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	r.buf = r.buf[:need]
	r.buf[0] = r.header[flagsOffset]

	if _, err := io.ReadFull(r.r, r.buf[1:]); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Record{}, domain.ErrIncompleteFrame
		}
		return domain.Record{}, r.readError(err)
	}

	rec, err := r.codec.decodeVerified(r.buf, sum)
	if err != nil {
		return domain.Record{}, fmt.Errorf("frame at offset %d: %w", r.offset, err)
	}

	r.offset += int64(HeaderSize) + int64(length)
	return rec, nil
}

// Offset returns the number of bytes of complete frames decoded so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) readError(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return domain.ErrIncompleteFrame
	default:
		return err
	}
}
