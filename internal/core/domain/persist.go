package domain

import "time"

// PersistMode selects when buffered frames are pushed towards the disk.
type PersistMode uint8

const (
	// PersistAlways persists after every mutation.
	PersistAlways PersistMode = iota

	// PersistOnDelay persists at most once per Interval: on the first
	// mutation after the interval elapsed, and from a background loop.
	PersistOnDelay

	// PersistNever leaves persistence to buffer pressure, rotation, Sync and Close.
	PersistNever
)

// String returns the string representation of the PersistMode.
func (m PersistMode) String() string {
	switch m {
	case PersistAlways:
		return "always"
	case PersistOnDelay:
		return "on-delay"
	case PersistNever:
		return "never"
	default:
		return "unknown"
	}
}

// PersistAction is what "persisting" means for a policy. The zero value
// is ActionFlushAndFsync.
type PersistAction uint8

const (
	// ActionFlushAndFsync flushes and then waits for the data to reach the device.
	ActionFlushAndFsync PersistAction = iota

	// ActionFlush hands buffered bytes to the operating system. Survives a
	// process crash but not a power loss.
	ActionFlush
)

// String returns the string representation of the PersistAction.
func (a PersistAction) String() string {
	switch a {
	case ActionFlush:
		return "flush"
	case ActionFlushAndFsync:
		return "flush-and-fsync"
	default:
		return "unknown"
	}
}

// Fsync reports whether the action waits for the device.
func (a PersistAction) Fsync() bool {
	return a == ActionFlushAndFsync
}

// PersistPolicy controls the durability of appends and truncates.
// Queue creation and deletion are always flushed and fsynced.
type PersistPolicy struct {
	// Mode selects when persistence happens.
	//
	// Default: PersistAlways
	Mode PersistMode

	// Action selects what persistence does.
	//
	// Default: ActionFlushAndFsync
	Action PersistAction

	// Interval is the persistence period of PersistOnDelay.
	//
	// Default: 5 seconds
	Interval time.Duration
}
