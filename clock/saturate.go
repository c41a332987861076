package clock

import "time"

// SaturatingAddDuration adds a non-negative duration to a time value without
// overflowing. If the result would overflow time.Time's internal
// representation, it saturates to the maximum representable time, which
// callers should treat as "never expires".
//
// This mirrors the deadline arithmetic used throughout the lock manager and
// request queue: a deadline of now+timeout must never wrap around to a time
// in the past, which would turn a long timeout into an immediate one.
func SaturatingAddDuration(t time.Time, d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	if d > maxDuration-1 {
		return maxTime()
	}
	result := t.Add(d)
	if result.Before(t) {
		return maxTime()
	}
	return result
}

var maxTimeValue = time.Unix(1<<62, 0).UTC()

// maxTime returns a sentinel time far enough in the future to be treated as
// "never" by every caller in this module, without risking overflow in
// further arithmetic performed on it.
func maxTime() time.Time {
	return maxTimeValue
}

// SaturatingAddInt64 adds two non-negative int64 values, returning
// math.MaxInt64 if the sum would overflow. Used for millisecond-denominated
// deadline arithmetic ported directly from the lock manager's timeout
// computations.
func SaturatingAddInt64(x, y int64) int64 {
	if x < 0 || y < 0 {
		panic("clock: SaturatingAddInt64 requires non-negative operands")
	}
	result := x + y
	if result < 0 {
		return 1<<63 - 1
	}
	return result
}
