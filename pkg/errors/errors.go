package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies failures of the record log by the subsystem
// they come from. It helps callers decide whether a failure is transient.
type ErrorCategory int

const (
	// ErrorStorage indicates errors related to underlying storage operations
	// such as file I/O, disk space, permissions, or filesystem issues.
	ErrorStorage ErrorCategory = iota + 1

	// ErrorCompression indicates a frame body that could not be compressed
	// or decompressed.
	ErrorCompression

	// ErrorRecovery indicates errors while replaying segments at open,
	// such as corrupt frames or inconsistent record sequences.
	ErrorRecovery

	// ErrorRetention indicates errors while deleting segments that no
	// queue needs anymore.
	ErrorRetention
)

// String returns the string representation of the error category.
// This is useful for logging, metrics, and error reporting.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorStorage:
		return "storage"
	case ErrorCompression:
		return "compression"
	case ErrorRecovery:
		return "recovery"
	case ErrorRetention:
		return "retention"
	default:
		return "unknown"
	}
}

// LogError wraps a failure with the operation and subsystem that produced it.
type LogError struct {
	Err       error
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// NewLogError wraps err. It returns nil when err is nil.
func NewLogError(category ErrorCategory, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &LogError{Err: err, Operation: operation, Category: category, Timestamp: time.Now()}
}

func (e *LogError) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// IsRetryAble returns whether errors of this category can be retried.
func (e *LogError) IsRetryAble() bool {
	switch e.Category {
	case ErrorStorage:
		// Storage errors might be temporary (e.g., disk full).
		return true
	case ErrorRetention:
		// Segments are deleted again on the next truncate.
		return true
	case ErrorCompression, ErrorRecovery:
		// Corrupted data does not heal.
		return false
	default:
		return false
	}
}

// AsLogError attempts to extract a LogError from a given error.
func AsLogError(err error) *LogError {
	var le *LogError
	if errors.As(err, &le) {
		return le
	}
	return nil
}
