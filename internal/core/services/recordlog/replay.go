package recordlog

import (
	"fmt"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// replay applies a record read back from a segment and returns the
// incarnation of the queue it concerns.
//
// Segments that held the beginning of a queue's history may have been
// deleted, so replay accepts records for queues it has not seen created:
// they create the queue. A touch record then restates the exact state.
func (l *MultiRecordLog) replay(rec *domain.Record) (uint64, error) {
	switch rec.Kind {
	case domain.KindCreateQueue:
		q, err := l.queues.Create(rec.Queue)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
		}
		return q.Incarnation(), nil

	case domain.KindDeleteQueue:
		incarnation, ok := l.queues.Incarnation(rec.Queue)
		if !ok {
			return 0, nil
		}
		return incarnation, l.queues.Delete(rec.Queue)

	case domain.KindAppend:
		q := l.queues.GetOrCreate(rec.Queue)
		if err := l.queues.Append(q, rec.Position, rec.Payloads); err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
		}
		return q.Incarnation(), nil

	case domain.KindTruncate:
		q := l.queues.GetOrCreate(rec.Queue)
		if rec.Position >= q.NextPosition() {
			// The appends it covers were in deleted segments.
			l.queues.Reset(q, rec.Position+1, rec.Position, true)
			return q.Incarnation(), nil
		}
		if _, err := l.queues.Truncate(q, rec.Position); err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrCorrupted, err)
		}
		return q.Incarnation(), nil

	case domain.KindTouch:
		q := l.queues.GetOrCreate(rec.Queue)
		l.queues.Reset(q, rec.NextPosition, rec.Watermark, rec.HasWatermark)
		return q.Incarnation(), nil

	default:
		return 0, fmt.Errorf("%w: unknown record kind %d", domain.ErrCorrupted, rec.Kind)
	}
}
