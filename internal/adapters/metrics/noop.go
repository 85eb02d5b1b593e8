package metrics

// Noop discards every measurement.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) RecordsAppended(int, int) {}
func (Noop) QueueTruncated()          {}
func (Noop) RecordsReplayed(int)      {}
func (Noop) SetQueues(int)            {}
func (Noop) SetSegments(int)          {}
func (Noop) SetInMemoryBytes(int)     {}
func (Noop) SetOnDiskBytes(int64)     {}
func (Noop) SegmentRotated()          {}
func (Noop) SegmentsDeleted(int)      {}
func (Noop) Flushed(bool)             {}
