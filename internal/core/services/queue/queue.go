// Package queue holds the in-memory state of the queues of a record log:
// the cursor, the truncation watermark and the retained payloads.
//
// Nothing in this package is safe for concurrent use; the record log
// serializes mutations and guards readers with its own lock.
package queue

import (
	"fmt"
	"iter"
	"slices"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// entry is a retained record. Entries are never modified once stored, so
// snapshots handed to readers stay valid after later mutations.
type entry struct {
	position uint64
	payload  []byte
}

// Queue is one named stream of records.
type Queue struct {
	name        string
	incarnation uint64

	next         uint64
	watermark    uint64
	hasWatermark bool

	records []entry // Ascending positions, all above the watermark.
	bytes   int     // Summed payload size of records.

	// Payload bytes of evicted entries still reachable through the
	// backing array of records.
	evicted int
}

func newQueue(name string, incarnation uint64) *Queue {
	return &Queue{name: name, incarnation: incarnation}
}

func (q *Queue) Name() string {
	return q.name
}

// Incarnation distinguishes this queue from earlier queues of the same name.
func (q *Queue) Incarnation() uint64 {
	return q.incarnation
}

// NextPosition returns the position the next auto-positioned append gets.
func (q *Queue) NextPosition() uint64 {
	return q.next
}

// LastPosition returns the position of the last appended record, retained
// or not, and false when nothing was ever appended.
func (q *Queue) LastPosition() (uint64, bool) {
	if q.next == 0 {
		return 0, false
	}
	return q.next - 1, true
}

// Watermark returns the highest truncated position.
func (q *Queue) Watermark() (uint64, bool) {
	return q.watermark, q.hasWatermark
}

// Len returns the number of retained records.
func (q *Queue) Len() int {
	return len(q.records)
}

// Bytes returns the summed size of the retained payloads.
func (q *Queue) Bytes() int {
	return q.bytes
}

// CheckAppend reports whether a batch may start at position.
func (q *Queue) CheckAppend(position uint64) error {
	if position < q.next {
		return fmt.Errorf("%w: queue %q expects position %d or above, got %d",
			domain.ErrPositionInPast, q.name, q.next, position)
	}
	return nil
}

// Append stores payloads at consecutive positions starting at position and
// moves the cursor past them. The payloads are copied into a single
// allocation owned by the queue.
func (q *Queue) Append(position uint64, payloads [][]byte) error {
	if err := q.CheckAppend(position); err != nil {
		return err
	}
	if len(payloads) == 0 {
		return domain.ErrEmptyBatch
	}

	total := 0
	for _, p := range payloads {
		total += len(p)
	}

	arena := make([]byte, 0, total)
	if cap(q.records)-len(q.records) < len(payloads) {
		// Grow moves the records to a new array and drops the evicted prefix.
		q.evicted = 0
	}
	q.records = slices.Grow(q.records, len(payloads))
	for i, p := range payloads {
		start := len(arena)
		arena = append(arena, p...)
		q.records = append(q.records, entry{
			position: position + uint64(i),
			payload:  arena[start:len(arena):len(arena)],
		})
	}

	q.bytes += total
	q.next = position + uint64(len(payloads))
	return nil
}

// CheckTruncate reports whether position can be truncated and whether
// doing so would change anything.
func (q *Queue) CheckTruncate(position uint64) (bool, error) {
	if position >= q.next {
		return false, fmt.Errorf("%w: queue %q has next position %d, got %d",
			domain.ErrPositionInFuture, q.name, q.next, position)
	}
	return !q.hasWatermark || position > q.watermark, nil
}

// Truncate drops every record at or below position. It returns whether the
// watermark moved; truncating at or below the watermark is a no-op.
func (q *Queue) Truncate(position uint64) (bool, error) {
	advanced, err := q.CheckTruncate(position)
	if err != nil || !advanced {
		return false, err
	}

	q.watermark, q.hasWatermark = position, true
	q.evictUpTo(position)
	return true, nil
}

func (q *Queue) evictUpTo(position uint64) {
	idx, found := q.search(position)
	if found {
		idx++
	}

	freed := 0
	for _, e := range q.records[:idx] {
		freed += len(e.payload)
	}
	q.bytes -= freed
	q.evicted += freed

	// The evicted prefix is never cleared in place: snapshots handed out by
	// Range may still cover it. Moving the retained tail to a new array lets
	// the old one go once those snapshots are gone.
	switch {
	case idx == len(q.records):
		q.records, q.evicted = nil, 0
	case q.evicted > q.bytes:
		q.records, q.evicted = slices.Clone(q.records[idx:]), 0
	default:
		q.records = q.records[idx:]
	}
}

// Reset forces the position state restated by a touch record: the cursor
// becomes next and the watermark, when set, is applied. Records at or above
// next or at or below the watermark are dropped.
func (q *Queue) Reset(next, watermark uint64, hasWatermark bool) {
	if idx, _ := q.search(next); idx < len(q.records) {
		for _, e := range q.records[idx:] {
			q.bytes -= len(e.payload)
		}
		if idx == 0 {
			q.records = nil
		} else {
			q.records = slices.Clone(q.records[:idx])
		}
		q.evicted = 0
	}

	q.next = next
	q.watermark, q.hasWatermark = watermark, hasWatermark
	if hasWatermark {
		q.evictUpTo(watermark)
	}
}

// search returns the index of the first record at or above position.
func (q *Queue) search(position uint64) (int, bool) {
	return slices.BinarySearchFunc(q.records, position, func(e entry, p uint64) int {
		switch {
		case e.position < p:
			return -1
		case e.position > p:
			return 1
		default:
			return 0
		}
	})
}

// Range returns the retained records inside r in position order. The set of
// records is fixed when Range is called; the iterator can be run any number
// of times. Yielded payloads belong to the queue and must not be modified.
func (q *Queue) Range(r domain.Range) iter.Seq2[uint64, []byte] {
	var snapshot []entry
	if !r.Empty() {
		lo, _ := q.search(r.Start)
		hi := len(q.records)
		if !r.Unbounded {
			hi, _ = q.search(r.End)
		}
		if lo < hi {
			snapshot = q.records[lo:hi:hi]
		}
	}

	return func(yield func(uint64, []byte) bool) {
		for _, e := range snapshot {
			if !yield(e.position, e.payload) {
				return
			}
		}
	}
}

// Summary describes the queue.
func (q *Queue) Summary() domain.QueueSummary {
	return domain.QueueSummary{
		Name:         q.name,
		NextPosition: q.next,
		Watermark:    q.watermark,
		HasWatermark: q.hasWatermark,
		Records:      len(q.records),
		Bytes:        q.bytes,
	}
}
