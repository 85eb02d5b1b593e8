package domain

// LogState describes the lifecycle of a record log.
type LogState string

const (
	StateInitializing LogState = "INITIALIZING" // Log is being opened.
	StateRecovering   LogState = "RECOVERING"   // Segments are being replayed.
	StateIdle         LogState = "IDLE"         // Log is open and accepts operations.
	StateWriteError   LogState = "WRITE_ERROR"  // A write failed; mutations are rejected until reopened.
	StateClosing      LogState = "CLOSING"      // Log is gracefully shutting down.
	StateClosed       LogState = "CLOSED"       // Log has been closed and is no longer operational.
)

// QueueSummary describes the in-memory state of one queue.
type QueueSummary struct {
	Name string

	// NextPosition is the position the next auto-positioned append receives.
	NextPosition uint64

	// Watermark is the highest truncated position, if any truncate happened.
	Watermark    uint64
	HasWatermark bool

	// Records is the number of retained records and Bytes their payload size.
	Records int
	Bytes   int
}
