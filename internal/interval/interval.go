// Package interval answers whether two time ranges intersect.
package interval

import "time"

// Range is a time range starting at Start. A nil End means the range is
// still open and extends to +∞.
type Range struct {
	Start time.Time
	End   *time.Time
}

// Closed returns a bounded range [start, end].
func Closed(start, end time.Time) Range {
	return Range{Start: start, End: &end}
}

// Open returns a range that has no end yet.
func Open(start time.Time) Range {
	return Range{Start: start}
}

// IsOpen reports whether the range has no end.
func (r Range) IsOpen() bool {
	return r.End == nil
}

// Overlaps reports whether a and b intersect.
// Two ranges [A, B) and [C, D) overlap if A < D && C < B; a missing end is +∞.
// Ranges that only touch at a boundary (C == B) do not overlap, which also
// holds for zero-length ranges.
func Overlaps(a, b Range) bool {
	return before(a.Start, b.End) && before(b.Start, a.End)
}

// Contains reports whether t falls within r, both boundaries inclusive.
func Contains(r Range, t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	return r.End == nil || !t.After(*r.End)
}

// before reports t < end, treating a nil end as +∞.
func before(t time.Time, end *time.Time) bool {
	if end == nil {
		return true
	}
	return t.Before(*end)
}
