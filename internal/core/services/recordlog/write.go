package recordlog

import (
	"time"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
)

// write encodes rec, appends it to the active segment and applies the
// persist policy. Requires writeMu. A failure after the frame reached the
// segment leaves the log in StateWriteError; the caller then skips the
// in-memory apply even though the frame may already be in the file.
func (l *MultiRecordLog) write(rec *domain.Record, incarnation uint64) error {
	buf := l.buffers.Get()
	defer l.buffers.Put(buf)

	if _, err := l.codec.EncodeTo(buf, rec); err != nil {
		return err
	}

	if err := l.sm.Write(buf.Bytes()); err != nil {
		return l.fail(err)
	}
	l.sm.Observe(rec, incarnation)
	l.dirty = true

	if err := l.persist(rec.Kind.RequiresSync()); err != nil {
		return l.fail(err)
	}
	return nil
}

// fail remembers the first write failure. Part of a frame may already be
// in the segment buffer, so nothing is written after it.
func (l *MultiRecordLog) fail(err error) error {
	if l.writeErr == nil {
		l.writeErr = err
		l.setState(domain.StateWriteError)
		l.logger.Errorw("write failed, rejecting further mutations", "error", err)
	}
	return err
}

// persist applies the persist policy after a write. force flushes and
// fsyncs regardless of the policy.
func (l *MultiRecordLog) persist(force bool) error {
	policy := l.options.PersistPolicy

	switch {
	case force:
		return l.flush(true)
	case policy.Mode == domain.PersistAlways:
		return l.flush(policy.Action.Fsync())
	case policy.Mode == domain.PersistOnDelay && time.Since(l.lastPersist) >= policy.Interval:
		return l.flush(policy.Action.Fsync())
	default:
		return nil
	}
}

func (l *MultiRecordLog) flush(fsync bool) error {
	if err := l.sm.Flush(fsync); err != nil {
		return err
	}
	l.dirty = false
	l.lastPersist = time.Now()
	return nil
}

// syncInBackground persists pending frames every interval so that an idle
// log does not keep them buffered indefinitely.
func (l *MultiRecordLog) syncInBackground(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.writeMu.Lock()
			var err error
			if l.dirty && l.checkWritable() == nil {
				if err = l.flush(l.options.PersistPolicy.Action.Fsync()); err != nil {
					l.fail(err)
				}
			}
			l.writeMu.Unlock()

			if err != nil {
				l.logger.Errorw("background persist failed", "error", err)
			}
		case <-l.ctx.Done():
			return
		}
	}
}
