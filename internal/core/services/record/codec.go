// Package record encodes log records into self-describing frames and back.
//
// Frame layout, all integers little endian:
//
//	[0:4]   body length N
//	[4:12]  checksum of bytes [12:13+N]
//	[12]    flags (bit 0: body is zstd compressed)
//	[13:]   body, a protobuf wire encoded record
//
// A buffer that ends before a frame does is reported as
// domain.ErrIncompleteFrame; a complete frame that fails its checksum or
// can not be parsed is reported as domain.ErrCorrupted.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/ports"
	logerrors "github.com/iamNilotpal/mrecordlog/pkg/errors"
)

const (
	// HeaderSize is the fixed size of the frame header.
	HeaderSize = 13

	// MaxFrameSize bounds the body of a single frame. Anything larger
	// is treated as a corrupted length field.
	MaxFrameSize = 256 * 1024 * 1024

	flagCompressed byte = 1 << 0
	knownFlags          = flagCompressed

	flagsOffset = 12
)

// Options configures a Codec.
type Options struct {
	// Checksum protects every frame. Required.
	Checksum ports.ChecksumPort

	// Compressor compresses bodies when Compress is set and decompresses
	// compressed bodies when reading. Without it compressed frames can not be read.
	Compressor ports.CompressionPort
	Compress   bool

	// Threshold is the smallest body size considered for compression.
	Threshold int
}

// Codec encodes and decodes frames. It is safe for concurrent use.
type Codec struct {
	checksum   ports.ChecksumPort
	compressor ports.CompressionPort
	compress   bool
	threshold  int
}

func NewCodec(opts Options) (*Codec, error) {
	if opts.Checksum == nil {
		return nil, logerrors.NewValidationError("checksum", nil, fmt.Errorf("checksum is required"))
	}

	return &Codec{
		checksum:   opts.Checksum,
		compressor: opts.Compressor,
		compress:   opts.Compress && opts.Compressor != nil,
		threshold:  opts.Threshold,
	}, nil
}

// WithChecksum returns a copy of the codec using another checksum algorithm.
// Segments record their algorithm, so each segment is read with its own.
func (c *Codec) WithChecksum(checksum ports.ChecksumPort) *Codec {
	cp := *c
	cp.checksum = checksum
	return &cp
}

// Checksum returns the checksum algorithm of the codec.
func (c *Codec) Checksum() ports.ChecksumPort {
	return c.checksum
}

// FrameSize returns an upper bound of the encoded size of rec.
func FrameSize(rec *domain.Record) int {
	return HeaderSize + bodySize(rec)
}

// EncodeTo appends the frame of rec to w and returns the frame length.
func (c *Codec) EncodeTo(w *bytes.Buffer, rec *domain.Record) (int, error) {
	size := bodySize(rec)
	if size > MaxFrameSize {
		return 0, fmt.Errorf("%w: frame body of %d bytes exceeds %d", domain.ErrRecordTooLarge, size, MaxFrameSize)
	}

	w.Grow(HeaderSize + size)
	frame := w.AvailableBuffer()[:HeaderSize]
	frame = appendBody(frame, rec)

	var flags byte
	if c.compress && size >= c.threshold {
		compressed, err := c.compressor.Compress(frame[HeaderSize:])
		if err != nil {
			return 0, logerrors.NewLogError(logerrors.ErrorCompression, "compress frame", err)
		}
		if len(compressed) < size {
			frame = append(frame[:HeaderSize], compressed...)
			flags |= flagCompressed
		}
	}

	frame[flagsOffset] = flags
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(frame)-HeaderSize))
	binary.LittleEndian.PutUint64(frame[4:12], c.checksum.Calculate(frame[flagsOffset:]))

	w.Write(frame)
	return len(frame), nil
}

// Encode returns the frame of rec.
func (c *Codec) Encode(rec *domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.EncodeTo(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decodes the frame at the start of buf and returns the record with
// the number of bytes consumed. It returns io.EOF for an empty buffer.
// Payloads of the returned record alias buf unless the frame was compressed.
func (c *Codec) Decode(buf []byte) (domain.Record, int, error) {
	if len(buf) == 0 {
		return domain.Record{}, 0, io.EOF
	}
	if len(buf) < HeaderSize {
		return domain.Record{}, 0, domain.ErrIncompleteFrame
	}

	length, sum := parseHeader(buf)
	if length > MaxFrameSize {
		return domain.Record{}, 0, fmt.Errorf("%w: frame length %d exceeds %d", domain.ErrCorrupted, length, MaxFrameSize)
	}

	end := HeaderSize + int(length)
	if len(buf) < end {
		return domain.Record{}, 0, domain.ErrIncompleteFrame
	}

	rec, err := c.decodeVerified(buf[flagsOffset:end], sum)
	if err != nil {
		return domain.Record{}, 0, err
	}

	return rec, end, nil
}

func parseHeader(header []byte) (uint32, uint64) {
	return binary.LittleEndian.Uint32(header[0:4]), binary.LittleEndian.Uint64(header[4:12])
}

// decodeVerified checks the checksum over flags and body, then parses the body.
func (c *Codec) decodeVerified(flagsAndBody []byte, sum uint64) (domain.Record, error) {
	if !c.checksum.Verify(flagsAndBody, sum) {
		return domain.Record{}, fmt.Errorf("%w: checksum mismatch", domain.ErrCorrupted)
	}

	flags, body := flagsAndBody[0], flagsAndBody[1:]
	if flags&^knownFlags != 0 {
		return domain.Record{}, fmt.Errorf("%w: unknown frame flags %#x", domain.ErrCorrupted, flags)
	}

	if flags&flagCompressed != 0 {
		if c.compressor == nil {
			return domain.Record{}, fmt.Errorf("%w: compressed frame without decompressor", domain.ErrCorrupted)
		}

		decompressed, err := c.compressor.Decompress(body)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
		}
		body = decompressed
	}

	rec, err := parseBody(body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
	}

	return rec, nil
}
