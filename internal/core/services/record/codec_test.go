package record_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/iamNilotpal/mrecordlog/internal/adapters/checksum"
	"github.com/iamNilotpal/mrecordlog/internal/adapters/compression"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, compress bool) *record.Codec {
	t.Helper()

	opts := record.Options{Checksum: checksum.NewCRC32Castagnoli()}
	if compress {
		zstd, err := compression.New(compression.DefaultOptions())
		require.NoError(t, err)
		t.Cleanup(func() { _ = zstd.Close() })

		opts.Compressor = zstd
		opts.Compress = true
		opts.Threshold = 128
	}

	codec, err := record.NewCodec(opts)
	require.NoError(t, err)
	return codec
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{Kind: domain.KindCreateQueue, Queue: "orders"},
		{Kind: domain.KindAppend, Queue: "orders", Position: 7, Payloads: [][]byte{[]byte("a"), {}, []byte("ccc")}},
		{Kind: domain.KindTruncate, Queue: "orders", Position: 8},
		{Kind: domain.KindTouch, Queue: "orders", NextPosition: 10, Watermark: 8, HasWatermark: true},
		{Kind: domain.KindTouch, Queue: "empty", NextPosition: 0},
		{Kind: domain.KindDeleteQueue, Queue: "orders"},
	}
}

func assertSameRecord(t *testing.T, want, got domain.Record) {
	t.Helper()
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Queue, got.Queue)
	assert.Equal(t, want.Position, got.Position)
	assert.Equal(t, want.NextPosition, got.NextPosition)
	assert.Equal(t, want.Watermark, got.Watermark)
	assert.Equal(t, want.HasWatermark, got.HasWatermark)
	require.Len(t, got.Payloads, len(want.Payloads))
	for i := range want.Payloads {
		assert.Equal(t, string(want.Payloads[i]), string(got.Payloads[i]))
	}
}

func TestDecodeEveryKind(t *testing.T) {
	codec := newCodec(t, false)

	for _, rec := range sampleRecords() {
		frame, err := codec.Encode(&rec)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(frame), record.FrameSize(&rec))

		got, n, err := codec.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, len(frame), n)
		assertSameRecord(t, rec, got)
	}
}

func TestDecodeClassifiesTornTail(t *testing.T) {
	codec := newCodec(t, false)
	rec := domain.Record{Kind: domain.KindAppend, Queue: "q", Position: 0, Payloads: [][]byte{[]byte("hello world")}}

	frame, err := codec.Encode(&rec)
	require.NoError(t, err)

	_, _, err = codec.Decode(nil)
	assert.ErrorIs(t, err, io.EOF)

	for cut := 1; cut < len(frame); cut++ {
		_, _, err := codec.Decode(frame[:cut])
		assert.ErrorIs(t, err, domain.ErrIncompleteFrame, "cut at %d", cut)
		assert.NotErrorIs(t, err, domain.ErrCorrupted)
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	codec := newCodec(t, false)
	rec := domain.Record{Kind: domain.KindAppend, Queue: "q", Position: 3, Payloads: [][]byte{[]byte("payload")}}

	frame, err := codec.Encode(&rec)
	require.NoError(t, err)

	flipped := bytes.Clone(frame)
	flipped[len(flipped)-1] ^= 0xff
	_, _, err = codec.Decode(flipped)
	assert.ErrorIs(t, err, domain.ErrCorrupted)

	oversized := bytes.Clone(frame)
	binary.LittleEndian.PutUint32(oversized[0:4], record.MaxFrameSize+1)
	_, _, err = codec.Decode(oversized)
	assert.ErrorIs(t, err, domain.ErrCorrupted)
}

func TestChecksumAlgorithmMismatchIsCorruption(t *testing.T) {
	codec := newCodec(t, false)
	rec := domain.Record{Kind: domain.KindCreateQueue, Queue: "q"}

	frame, err := codec.Encode(&rec)
	require.NoError(t, err)

	_, _, err = codec.WithChecksum(checksum.NewCRC64ECMA()).Decode(frame)
	assert.ErrorIs(t, err, domain.ErrCorrupted)
}

func TestCompressedFrames(t *testing.T) {
	codec := newCodec(t, true)
	payload := bytes.Repeat([]byte("compressible "), 200)
	rec := domain.Record{Kind: domain.KindAppend, Queue: "logs", Position: 1, Payloads: [][]byte{payload}}

	frame, err := codec.Encode(&rec)
	require.NoError(t, err)
	assert.Less(t, len(frame), len(payload))

	got, _, err := codec.Decode(frame)
	require.NoError(t, err)
	assertSameRecord(t, rec, got)

	_, _, err = newCodec(t, false).Decode(frame)
	assert.ErrorIs(t, err, domain.ErrCorrupted)
}

func TestReaderStopsAtTornTail(t *testing.T) {
	codec := newCodec(t, false)

	var stream bytes.Buffer
	records := sampleRecords()
	for i := range records {
		_, err := codec.EncodeTo(&stream, &records[i])
		require.NoError(t, err)
	}
	complete := int64(stream.Len())

	extra := domain.Record{Kind: domain.KindAppend, Queue: "orders", Position: 11, Payloads: [][]byte{[]byte("lost")}}
	frame, err := codec.Encode(&extra)
	require.NoError(t, err)
	stream.Write(frame[:len(frame)-2])

	reader := codec.NewReader(bytes.NewReader(stream.Bytes()))
	for _, want := range records {
		got, err := reader.Next()
		require.NoError(t, err)
		assertSameRecord(t, want, got)
	}

	_, err = reader.Next()
	assert.ErrorIs(t, err, domain.ErrIncompleteFrame)
	assert.Equal(t, complete, reader.Offset())
}

func TestReaderCleanEOF(t *testing.T) {
	codec := newCodec(t, false)
	rec := domain.Record{Kind: domain.KindCreateQueue, Queue: "q"}
	frame, err := codec.Encode(&rec)
	require.NoError(t, err)

	reader := codec.NewReader(bytes.NewReader(frame))
	_, err = reader.Next()
	require.NoError(t, err)
	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(len(frame)), reader.Offset())
}
