package ports

// MetricsPort receives operational measurements from the record log.
type MetricsPort interface {
	RecordsAppended(records int, bytes int)
	QueueTruncated()
	RecordsReplayed(records int)

	SetQueues(count int)
	SetSegments(count int)
	SetInMemoryBytes(bytes int)
	SetOnDiskBytes(bytes int64)

	SegmentRotated()
	SegmentsDeleted(count int)
	Flushed(fsync bool)
}
