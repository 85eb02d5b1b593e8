package domain

// CompressionOptions configures the compression of frame bodies.
// Compression settings affect both storage efficiency and write latency.
type CompressionOptions struct {
	// Enable toggles zstd compression of frame bodies.
	// Each frame records whether its body is compressed, so toggling this
	// setting never breaks existing segments.
	Enable bool

	// Level defines the compression level for zstd when compression is enabled.
	// Supported levels:
	//   - 1: Fastest compression, equivalent to zstd's fastest mode
	//   - 3: Default balanced compression
	//   - 4: Best compression regardless of CPU cost
	// If not specified, the default level will be used.
	Level uint8

	// Threshold is the smallest body size, in bytes, that is considered
	// for compression. Smaller bodies are always stored as is.
	//
	// Default: 1KB
	Threshold uint32

	// EncoderConcurrency specifies the number of concurrent compression operations.
	// Higher values may improve compression speed but increase memory usage.
	// Default is number of CPU cores if set to 0.
	EncoderConcurrency uint8

	// DecoderConcurrency specifies the number of concurrent decompression operations.
	// Higher values may improve recovery speed but increase memory usage.
	// Default is number of CPU cores if set to 0.
	DecoderConcurrency uint8
}
