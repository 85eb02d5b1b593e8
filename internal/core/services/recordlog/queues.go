package recordlog

import (
	"fmt"
	"iter"
	"slices"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/queue"
)

// CreateQueue registers an empty queue. The name of a deleted queue can be
// used again; the new queue starts at position 0.
func (l *MultiRecordLog) CreateQueue(name string) error {
	if err := l.validateName(name); err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}
	if l.queues.Exists(name) {
		return fmt.Errorf("%w: %q", domain.ErrQueueAlreadyExists, name)
	}

	rec := domain.Record{Kind: domain.KindCreateQueue, Queue: name}
	if err := l.write(&rec, 0); err != nil {
		return err
	}

	l.stateMu.Lock()
	_, err := l.queues.Create(name)
	l.stateMu.Unlock()

	l.publishQueues()
	l.logger.Debugw("created queue", "queue", name)
	return err
}

// DeleteQueue removes a queue and every record it retains, then reclaims
// the segments it was the last user of.
func (l *MultiRecordLog) DeleteQueue(name string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}

	q, err := l.queues.Get(name)
	if err != nil {
		return err
	}

	rec := domain.Record{Kind: domain.KindDeleteQueue, Queue: name}
	if err := l.write(&rec, q.Incarnation()); err != nil {
		return err
	}

	l.stateMu.Lock()
	err = l.queues.Delete(name)
	l.stateMu.Unlock()
	if err != nil {
		return err
	}

	l.publishQueues()
	l.logger.Debugw("deleted queue", "queue", name)
	return l.collect()
}

// QueueExists reports whether a queue with the given name exists.
func (l *MultiRecordLog) QueueExists(name string) bool {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.queues.Exists(name)
}

// ListQueues returns the names of the existing queues, sorted. The set of
// names is fixed when ListQueues is called.
func (l *MultiRecordLog) ListQueues() iter.Seq[string] {
	l.stateMu.RLock()
	names := l.queues.Names()
	l.stateMu.RUnlock()
	return slices.Values(names)
}

// AppendRecord appends payload at the queue's next position and returns
// that position.
//
// When persisting fails the log rejects further mutations, but the record
// is not necessarily lost: if its frame reached the operating system before
// the failure, for instance when only the fsync failed, it is replayed when
// the log is reopened. The same holds for every mutation.
func (l *MultiRecordLog) AppendRecord(name string, payload []byte) (uint64, error) {
	return l.appendRecords(name, 0, false, [][]byte{payload})
}

// AppendRecordAt appends payload at position, which must not be below the
// queue's next position. Positions between the two are skipped for good.
func (l *MultiRecordLog) AppendRecordAt(name string, position uint64, payload []byte) (uint64, error) {
	return l.appendRecords(name, position, true, [][]byte{payload})
}

// AppendRecords appends payloads at consecutive positions, atomically, and
// returns the position of the last one.
func (l *MultiRecordLog) AppendRecords(name string, payloads ...[]byte) (uint64, error) {
	return l.appendRecords(name, 0, false, payloads)
}

// AppendRecordsAt is AppendRecords starting at an explicit position.
func (l *MultiRecordLog) AppendRecordsAt(name string, position uint64, payloads ...[]byte) (uint64, error) {
	return l.appendRecords(name, position, true, payloads)
}

func (l *MultiRecordLog) appendRecords(name string, position uint64, explicit bool, payloads [][]byte) (uint64, error) {
	if len(payloads) == 0 {
		return 0, domain.ErrEmptyBatch
	}
	total, err := l.validatePayloads(payloads)
	if err != nil {
		return 0, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.checkWritable(); err != nil {
		return 0, err
	}

	q, err := l.queues.Get(name)
	if err != nil {
		return 0, err
	}

	if !explicit {
		position = q.NextPosition()
	} else if err := q.CheckAppend(position); err != nil {
		return 0, err
	}

	rec := domain.Record{Kind: domain.KindAppend, Queue: name, Position: position, Payloads: payloads}
	if err := l.write(&rec, q.Incarnation()); err != nil {
		return 0, err
	}

	l.stateMu.Lock()
	err = l.queues.Append(q, position, payloads)
	bytes := l.queues.Bytes()
	l.stateMu.Unlock()
	if err != nil {
		return 0, err
	}

	l.metrics.RecordsAppended(len(payloads), total)
	l.metrics.SetInMemoryBytes(bytes)
	return rec.LastPosition(), nil
}

// Truncate drops every record of the queue at or below position and
// reclaims the segments nothing needs anymore. Truncating at or below an
// earlier truncation is a no-op; position must have been assigned already.
func (l *MultiRecordLog) Truncate(name string, position uint64) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}

	q, err := l.queues.Get(name)
	if err != nil {
		return err
	}

	advanced, err := q.CheckTruncate(position)
	if err != nil || !advanced {
		return err
	}

	rec := domain.Record{Kind: domain.KindTruncate, Queue: name, Position: position}
	if err := l.write(&rec, q.Incarnation()); err != nil {
		return err
	}

	l.stateMu.Lock()
	_, err = l.queues.Truncate(q, position)
	bytes := l.queues.Bytes()
	l.stateMu.Unlock()
	if err != nil {
		return err
	}

	l.metrics.QueueTruncated()
	l.metrics.SetInMemoryBytes(bytes)
	return l.collect()
}

// Range returns the retained records of the queue within r, in position
// order. The records are fixed when Range is called. Yielded payloads must
// not be modified.
func (l *MultiRecordLog) Range(name string, r domain.Range) (iter.Seq2[uint64, []byte], error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}

	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	q, err := l.queues.Get(name)
	if err != nil {
		return nil, err
	}
	return q.Range(r), nil
}

// LastPosition returns the position of the last record appended to the
// queue, truncated or not, and false when nothing was appended yet.
func (l *MultiRecordLog) LastPosition(name string) (uint64, bool, error) {
	if err := l.checkOpen(); err != nil {
		return 0, false, err
	}

	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	q, err := l.queues.Get(name)
	if err != nil {
		return 0, false, err
	}
	position, ok := q.LastPosition()
	return position, ok, nil
}

// NextPosition returns the position the next AppendRecord on the queue gets.
func (l *MultiRecordLog) NextPosition(name string) (uint64, error) {
	if err := l.checkOpen(); err != nil {
		return 0, err
	}

	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	q, err := l.queues.Get(name)
	if err != nil {
		return 0, err
	}
	return q.NextPosition(), nil
}

// Summary describes every queue, sorted by name.
func (l *MultiRecordLog) Summary() []domain.QueueSummary {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	summaries := make([]domain.QueueSummary, 0, l.queues.Len())
	l.queues.Each(func(q *queue.Queue) {
		summaries = append(summaries, q.Summary())
	})
	return summaries
}

func (l *MultiRecordLog) validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", domain.ErrInvalidQueueName)
	}
	if limit := l.options.RecordConfig.MaxQueueNameLength; len(name) > int(limit) {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrInvalidQueueName, len(name), limit)
	}
	return nil
}

func (l *MultiRecordLog) validatePayloads(payloads [][]byte) (int, error) {
	limits := l.options.RecordConfig

	total := 0
	for i, p := range payloads {
		if len(p) > int(limits.MaxPayloadSize) {
			return 0, fmt.Errorf("%w: payload %d is %d bytes, limit is %d",
				domain.ErrRecordTooLarge, i, len(p), limits.MaxPayloadSize)
		}
		total += len(p)
	}

	if total > int(limits.MaxBatchSize) {
		return 0, fmt.Errorf("%w: batch is %d bytes, limit is %d",
			domain.ErrRecordTooLarge, total, limits.MaxBatchSize)
	}
	return total, nil
}
