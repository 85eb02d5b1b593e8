// Package compression provides frame body compression using the zstd algorithm.
// It offers a thread-safe implementation with configurable compression levels
// and skips data that is too small or does not shrink.
package compression

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// minCompressibleSize is the size under which zstd framing overhead
// outweighs any gain.
const minCompressibleSize = 64

type Options struct {
	Level              uint8
	EncoderConcurrency uint8
	DecoderConcurrency uint8
}

// ZstdCompression implements CompressionPort using the zstd compression algorithm.
// Compress returns its input unchanged when compression would not reduce the
// size, so callers detect a compressed result by comparing lengths.
type ZstdCompression struct {
	level   uint8         // Current compression level.
	mu      sync.RWMutex  // Protects the codec against use after Close.
	decoder *zstd.Decoder // Thread-safe decoder instance for decompression
	encoder *zstd.Encoder // Thread-safe encoder instance for compression
}

// Compression levels map one to one onto zstd encoder levels.
const (
	FastestLevel uint8 = uint8(zstd.SpeedFastest)           // Optimized for speed with minimal compression
	DefaultLevel uint8 = uint8(zstd.SpeedDefault)           // Balanced between speed and compression ratio
	BetterLevel  uint8 = uint8(zstd.SpeedBetterCompression) // Better ratio at 2x-3x the CPU cost
	BestLevel    uint8 = uint8(zstd.SpeedBestCompression)   // Maximum compression ratio, highest CPU usage
)

// NewZstdCompression creates a new zstd compression instance with the specified level.
//
// Returns an error if:
// - The compression level is invalid
// - The encoder or decoder initialization fails
func NewZstdCompression(opts Options) (*ZstdCompression, error) {
	if opts.Level < FastestLevel || opts.Level > BestLevel {
		return nil, fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, opts.Level)
	}

	encoderConcurrency := int(opts.EncoderConcurrency)
	if encoderConcurrency == 0 {
		encoderConcurrency = runtime.GOMAXPROCS(0)
	}

	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level)),
		zstd.WithEncoderConcurrency(encoderConcurrency),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(int(opts.DecoderConcurrency)))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &ZstdCompression{encoder: encoder, decoder: decoder, level: opts.Level}, nil
}

// Compress compresses the input data using zstd compression.
// Data shorter than 64 bytes, or data that does not shrink, is returned as is.
func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if len(data) < minCompressibleSize {
		return data, nil
	}

	compressed := z.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) < len(data) {
		return compressed, nil
	}

	return data, nil
}

// Decompress restores the original data from its compressed form.
func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	decompressed, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	return decompressed, nil
}

// Level returns the current compression level.
func (z *ZstdCompression) Level() uint8 {
	return z.level
}

// Close releases the encoder and decoder. The instance can not be used afterwards.
func (z *ZstdCompression) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if err := z.encoder.Close(); err != nil {
		return fmt.Errorf("error closing encoder : %w", err)
	}

	z.decoder.Close()
	return nil
}
