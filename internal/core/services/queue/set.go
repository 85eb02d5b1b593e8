package queue

import (
	"fmt"
	"slices"

	"github.com/dolthub/swiss"
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

const initialCapacity = 64

// Set indexes the live queues by name.
type Set struct {
	queues          *swiss.Map[string, *Queue]
	lastIncarnation uint64
	bytes           int
}

func NewSet() *Set {
	return &Set{queues: swiss.NewMap[string, *Queue](initialCapacity)}
}

// Get returns the live queue with the given name.
func (s *Set) Get(name string) (*Queue, error) {
	q, ok := s.queues.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrQueueNotFound, name)
	}
	return q, nil
}

// Lookup returns the live queue with the given name, if any.
func (s *Set) Lookup(name string) (*Queue, bool) {
	return s.queues.Get(name)
}

func (s *Set) Exists(name string) bool {
	return s.queues.Has(name)
}

// Create registers an empty queue with a fresh incarnation.
func (s *Set) Create(name string) (*Queue, error) {
	if s.queues.Has(name) {
		return nil, fmt.Errorf("%w: %q", domain.ErrQueueAlreadyExists, name)
	}

	s.lastIncarnation++
	q := newQueue(name, s.lastIncarnation)
	s.queues.Put(name, q)
	return q, nil
}

// GetOrCreate returns the live queue with the given name, creating it when
// missing. Replay relies on it for records whose create record was in a
// deleted segment.
func (s *Set) GetOrCreate(name string) *Queue {
	if q, ok := s.queues.Get(name); ok {
		return q
	}
	q, _ := s.Create(name)
	return q
}

// Delete removes a queue and releases its records.
func (s *Set) Delete(name string) error {
	q, ok := s.queues.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrQueueNotFound, name)
	}

	s.bytes -= q.bytes
	s.queues.Delete(name)
	return nil
}

// Len returns the number of live queues.
func (s *Set) Len() int {
	return s.queues.Count()
}

// Names returns the sorted names of the live queues.
func (s *Set) Names() []string {
	names := make([]string, 0, s.queues.Count())
	s.queues.Iter(func(name string, _ *Queue) bool {
		names = append(names, name)
		return false
	})
	slices.Sort(names)
	return names
}

// Each calls fn for every live queue in name order.
func (s *Set) Each(fn func(q *Queue)) {
	for _, name := range s.Names() {
		q, _ := s.queues.Get(name)
		fn(q)
	}
}

// Bytes returns the summed payload size retained by every live queue.
func (s *Set) Bytes() int {
	return s.bytes
}

// Append appends to q and keeps the byte total current.
func (s *Set) Append(q *Queue, position uint64, payloads [][]byte) error {
	before := q.bytes
	err := q.Append(position, payloads)
	s.bytes += q.bytes - before
	return err
}

// Truncate truncates q and keeps the byte total current.
func (s *Set) Truncate(q *Queue, position uint64) (bool, error) {
	before := q.bytes
	advanced, err := q.Truncate(position)
	s.bytes += q.bytes - before
	return advanced, err
}

// Reset applies a touch to q and keeps the byte total current.
func (s *Set) Reset(q *Queue, next, watermark uint64, hasWatermark bool) {
	before := q.bytes
	q.Reset(next, watermark, hasWatermark)
	s.bytes += q.bytes - before
}

// Incarnation returns the incarnation of the live queue with the given name.
func (s *Set) Incarnation(name string) (uint64, bool) {
	q, ok := s.queues.Get(name)
	if !ok {
		return 0, false
	}
	return q.incarnation, true
}
