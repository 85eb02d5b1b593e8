package domain

// RecordKind defines the different kinds of records that can appear in a segment.
// Each kind describes one mutation of the multiplexed log and is replayed
// in file order during recovery.
type RecordKind uint8

const (
	// KindCreateQueue registers a new, empty queue under a name.
	KindCreateQueue RecordKind = iota + 1

	// KindDeleteQueue removes a queue and every record it retains.
	KindDeleteQueue

	// KindAppend adds one or more payloads to a queue. Payload i is stored
	// at Position+i, so a batch always occupies consecutive positions and
	// is written as a single frame.
	KindAppend

	// KindTruncate discards every record of a queue at or below Position.
	KindTruncate

	// KindTouch restates the full position state of a queue (next position
	// and watermark). It is written before segments are deleted so that
	// replay does not depend on the files that are going away.
	KindTouch
)

// String returns the string representation of the RecordKind.
func (k RecordKind) String() string {
	switch k {
	case KindCreateQueue:
		return "create-queue"
	case KindDeleteQueue:
		return "delete-queue"
	case KindAppend:
		return "append"
	case KindTruncate:
		return "truncate"
	case KindTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// IsValid checks if the RecordKind is a known kind.
func (k RecordKind) IsValid() bool {
	return k >= KindCreateQueue && k <= KindTouch
}

// RequiresSync returns true for records that are always flushed and fsynced
// regardless of the configured persist policy.
func (k RecordKind) RequiresSync() bool {
	return k == KindCreateQueue || k == KindDeleteQueue || k == KindTouch
}

// Record is the logical content of one frame. Only the fields relevant
// to Kind are meaningful.
type Record struct {
	// Kind selects the mutation this record describes.
	Kind RecordKind

	// Queue is the name of the queue the record applies to.
	Queue string

	// Position is the first position of an append batch, or the inclusive
	// truncation point of a truncate.
	Position uint64

	// Payloads holds the opaque bytes of an append, in position order.
	Payloads [][]byte

	// NextPosition is the queue cursor restated by a touch record.
	NextPosition uint64

	// Watermark is the highest truncated position restated by a touch record.
	// Only meaningful when HasWatermark is set.
	Watermark    uint64
	HasWatermark bool
}

// LastPosition returns the position of the last payload of an append record.
func (r *Record) LastPosition() uint64 {
	if len(r.Payloads) == 0 {
		return r.Position
	}
	return r.Position + uint64(len(r.Payloads)) - 1
}

// PayloadBytes returns the total size of the payloads carried by the record.
func (r *Record) PayloadBytes() int {
	total := 0
	for _, p := range r.Payloads {
		total += len(p)
	}
	return total
}
