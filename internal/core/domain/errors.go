package domain

import "errors"

var (
	// ErrQueueNotFound is returned when an operation names a queue that does not exist.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrQueueAlreadyExists is returned when creating a queue whose name is taken.
	ErrQueueAlreadyExists = errors.New("queue already exists")

	// ErrPositionInPast is returned when an append names a position below the
	// queue's next position.
	ErrPositionInPast = errors.New("position is lower than the queue's next position")

	// ErrPositionInFuture is returned when a truncate names a position that
	// was never assigned.
	ErrPositionInFuture = errors.New("position has not been assigned yet")

	// ErrRecordTooLarge is returned when a payload or a batch exceeds the configured limits.
	ErrRecordTooLarge = errors.New("record too large")

	// ErrInvalidQueueName is returned for empty or oversized queue names.
	ErrInvalidQueueName = errors.New("invalid queue name")

	// ErrEmptyBatch is returned when an append carries no payload.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrCorrupted indicates data on disk that can not be trusted: a checksum
	// mismatch, an undecodable frame or an inconsistent sequence of records.
	ErrCorrupted = errors.New("corrupted log")

	// ErrIncompleteFrame indicates a frame cut short by the end of the data.
	// At the tail of the last segment this is the trace of an interrupted
	// write and is discarded during recovery.
	ErrIncompleteFrame = errors.New("incomplete frame")

	// ErrClosed is returned by every operation on a closed log.
	ErrClosed = errors.New("record log is closed")
)
