package domain

import "fmt"

// Range is a half-open interval of queue positions [Start, End).
// When Unbounded is set End is ignored and the range extends to the
// last retained record.
type Range struct {
	Start     uint64
	End       uint64
	Unbounded bool
}

// RangeAll covers every retained record.
func RangeAll() Range {
	return Range{Unbounded: true}
}

// RangeFrom covers every retained record at or above start.
func RangeFrom(start uint64) Range {
	return Range{Start: start, Unbounded: true}
}

// RangeBetween covers retained records in [start, end).
func RangeBetween(start, end uint64) Range {
	return Range{Start: start, End: end}
}

// Contains reports whether position falls inside the range.
func (r Range) Contains(position uint64) bool {
	if position < r.Start {
		return false
	}
	return r.Unbounded || position < r.End
}

// Empty reports whether the range can not contain any position.
func (r Range) Empty() bool {
	return !r.Unbounded && r.End <= r.Start
}

func (r Range) String() string {
	if r.Unbounded {
		return fmt.Sprintf("[%d..)", r.Start)
	}
	return fmt.Sprintf("[%d..%d)", r.Start, r.End)
}
