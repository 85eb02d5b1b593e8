package segment

import "github.com/iamNilotpal/mrecordlog/internal/core/domain"

// QueueKey identifies one incarnation of a queue. A name that is deleted
// and created again gets a new incarnation, so records of the deleted
// queue never pin segments on behalf of the new one.
type QueueKey struct {
	Name        string
	Incarnation uint64
}

// Usage is what a segment holds, per queue. It is built while records
// are written and rebuilt by replay; it is never persisted.
type Usage struct {
	// MaxPositions is the highest appended position per queue incarnation.
	MaxPositions map[QueueKey]uint64

	// Names holds every queue name referenced by any record of the segment.
	Names map[string]struct{}

	// Deletes holds the names of queues deleted in the segment.
	Deletes map[string]struct{}
}

func NewUsage() *Usage {
	return &Usage{
		MaxPositions: make(map[QueueKey]uint64),
		Names:        make(map[string]struct{}),
		Deletes:      make(map[string]struct{}),
	}
}

// Observe accounts for rec, written on behalf of the given queue incarnation.
func (u *Usage) Observe(rec *domain.Record, incarnation uint64) {
	u.Names[rec.Queue] = struct{}{}

	switch rec.Kind {
	case domain.KindAppend:
		key := QueueKey{Name: rec.Queue, Incarnation: incarnation}
		last := rec.LastPosition()
		if current, ok := u.MaxPositions[key]; !ok || last > current {
			u.MaxPositions[key] = last
		}
	case domain.KindDeleteQueue:
		u.Deletes[rec.Queue] = struct{}{}
	}
}
