package config

import (
	"fmt"
	"os"
	"time"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	recordconfig "github.com/iamNilotpal/mrecordlog/internal/core/domain/config"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log           LogConfig `yaml:"log"`
	StoragePath   string    `yaml:"storage_path"`   // Directory holding the segment files
	EnableMetrics bool      `yaml:"enable_metrics"` // Register prometheus collectors
}

// Holds record log specific configuration
type LogConfig struct {
	MaxSegmentSize int64             `yaml:"max_segment_size"` // Size that triggers rotation
	SegmentPrefix  string            `yaml:"segment_prefix"`   // File name prefix of segments
	BufferSize     uint32            `yaml:"buffer_size"`      // Size of the segment write buffer
	Checksum       string            `yaml:"checksum"`         // Frame checksum algorithm
	MaxPayloadSize uint32            `yaml:"max_payload_size"` // Largest accepted payload
	MaxBatchSize   uint32            `yaml:"max_batch_size"`   // Largest accepted batch
	Persist        PersistConfig     `yaml:"persist"`
	Compression    CompressionConfig `yaml:"compression"`
}

// Controls when appends and truncates reach the disk
type PersistConfig struct {
	Mode     string        `yaml:"mode"`     // always, on-delay or never
	Action   string        `yaml:"action"`   // flush or flush-and-fsync
	Interval time.Duration `yaml:"interval"` // Period of on-delay
}

type CompressionConfig struct {
	Enable    bool   `yaml:"enable"`
	Level     uint8  `yaml:"level"`     // 1 (fastest) to 4 (best)
	Threshold uint32 `yaml:"threshold"` // Smallest body worth compressing
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		EnableMetrics: false,
		StoragePath:   "mrecordlog-data",
		Log: LogConfig{
			MaxSegmentSize: 1024 * 1024 * 1024, // 1GB
			SegmentPrefix:  "segment-",
			BufferSize:     64 * 1024, // 64KB
			Checksum:       "crc32-castagnoli",
			MaxPayloadSize: recordconfig.DefaultMaxPayloadSize,
			MaxBatchSize:   recordconfig.DefaultMaxBatchSize,
			Persist: PersistConfig{
				Mode:     domain.PersistAlways.String(),
				Action:   domain.ActionFlushAndFsync.String(),
				Interval: 5 * time.Second,
			},
			Compression: CompressionConfig{Level: 3, Threshold: 1024},
		},
	}
}

// Loads configuration from a YAML file. Keys missing from the file keep
// their default value.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.StoragePath == "" {
		return fmt.Errorf("storage_path is required")
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if config.MaxSegmentSize <= 0 {
		return fmt.Errorf("max_segment_size must be greater than 0")
	}

	if config.BufferSize == 0 {
		return fmt.Errorf("buffer_size must be greater than 0")
	}

	if config.Compression.Enable && (config.Compression.Level < 1 || config.Compression.Level > 4) {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if _, err := parsePersistMode(config.Persist.Mode); err != nil {
		return err
	}

	if _, err := parsePersistAction(config.Persist.Action); err != nil {
		return err
	}

	return nil
}

func parsePersistMode(mode string) (domain.PersistMode, error) {
	for _, m := range []domain.PersistMode{domain.PersistAlways, domain.PersistOnDelay, domain.PersistNever} {
		if m.String() == mode {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown persist mode %q", mode)
}

func parsePersistAction(action string) (domain.PersistAction, error) {
	for _, a := range []domain.PersistAction{domain.ActionFlush, domain.ActionFlushAndFsync} {
		if a.String() == action {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown persist action %q", action)
}

// Options converts the file configuration into record log options.
// Remaining checks happen when the log is opened.
func (c *Config) Options() (*domain.LogOptions, error) {
	mode, err := parsePersistMode(c.Log.Persist.Mode)
	if err != nil {
		return nil, err
	}

	action, err := parsePersistAction(c.Log.Persist.Action)
	if err != nil {
		return nil, err
	}

	return &domain.LogOptions{
		Directory:     c.StoragePath,
		BufferSize:    c.Log.BufferSize,
		EnableMetrics: c.EnableMetrics,
		RecordConfig: recordconfig.NewRecordConfig(
			recordconfig.WithMaxPayloadSize(c.Log.MaxPayloadSize),
			recordconfig.WithMaxBatchSize(c.Log.MaxBatchSize),
		),
		PersistPolicy: &domain.PersistPolicy{
			Mode:     mode,
			Action:   action,
			Interval: c.Log.Persist.Interval,
		},
		ChecksumOptions: &domain.ChecksumOptions{
			Algorithm: domain.ChecksumAlgorithm(c.Log.Checksum),
		},
		CompressionOptions: &domain.CompressionOptions{
			Enable:    c.Log.Compression.Enable,
			Level:     c.Log.Compression.Level,
			Threshold: c.Log.Compression.Threshold,
		},
		SegmentOptions: &domain.SegmentOptions{
			MaxSegmentSize: c.Log.MaxSegmentSize,
			SegmentPrefix:  c.Log.SegmentPrefix,
		},
	}, nil
}
