package recordlog

import (
	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/queue"
	"github.com/iamNilotpal/mrecordlog/internal/core/services/segment"
)

// collect deletes the sealed segments no live queue needs. Requires writeMu.
//
// Before anything is deleted, every live queue referenced by a victim gets
// a touch record in the active segment, fsynced, so that replay restores
// its cursor and watermark without the deleted files.
func (l *MultiRecordLog) collect() error {
	l.stateMu.RLock()
	victims := l.sm.Collectable(l.covered)
	l.stateMu.RUnlock()

	if len(victims) == 0 {
		return nil
	}

	names := make(map[string]struct{})
	for _, v := range victims {
		for name := range v.Usage.Names {
			names[name] = struct{}{}
		}
	}

	touched := 0
	var err error
	l.queues.Each(func(q *queue.Queue) {
		if _, ok := names[q.Name()]; !ok || err != nil {
			return
		}
		watermark, hasWatermark := q.Watermark()
		rec := domain.Record{
			Kind:         domain.KindTouch,
			Queue:        q.Name(),
			NextPosition: q.NextPosition(),
			Watermark:    watermark,
			HasWatermark: hasWatermark,
		}
		err = l.write(&rec, q.Incarnation())
		touched++
	})
	if err != nil {
		return err
	}

	// Everything written so far must be durable before the files go away.
	if l.dirty {
		if err := l.flush(true); err != nil {
			return l.fail(err)
		}
	}

	if err := l.sm.Delete(victims); err != nil {
		l.logger.Errorw("failed to delete segments", "error", err)
		return err
	}

	l.logger.Infow("reclaimed segments", "segments", len(victims), "touchedQueues", touched)
	return nil
}

// covered reports whether a queue incarnation no longer needs the records
// at or below maxPosition. Requires stateMu.
func (l *MultiRecordLog) covered(key segment.QueueKey, maxPosition uint64) bool {
	q, ok := l.queues.Lookup(key.Name)
	if !ok || q.Incarnation() != key.Incarnation {
		return true
	}

	watermark, truncated := q.Watermark()
	return truncated && watermark >= maxPosition
}
