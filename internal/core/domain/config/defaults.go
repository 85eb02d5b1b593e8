package config

// Returns a RecordConfig with recommended defaults.
func DefaultRecordConfig() *RecordConfig {
	return &RecordConfig{
		MaxBatchSize:       DefaultMaxBatchSize,
		MaxPayloadSize:     DefaultMaxPayloadSize,
		MaxQueueNameLength: MaxQueueNameLength,
	}
}

// Returns config for small records, such as change events or offsets.
func DefaultSmallRecordConfig() *RecordConfig {
	return &RecordConfig{
		MaxPayloadSize:     SmallPayloadSize * 16,
		MaxBatchSize:       DefaultMaxBatchSize,
		MaxQueueNameLength: MaxQueueNameLength,
	}
}

// Returns config for bulk ingestion of large documents.
func DefaultLargeRecordConfig() *RecordConfig {
	return &RecordConfig{
		MaxPayloadSize:     MaxPayloadSize,
		MaxBatchSize:       MaxBatchSize,
		MaxQueueNameLength: MaxQueueNameLength,
	}
}
