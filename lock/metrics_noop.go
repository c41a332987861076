package lock

import "time"

// noopMetrics discards everything; it is the default so unit tests and
// library consumers that don't care about observability pay nothing.
type noopMetrics struct{}

// NewNoOpMetrics returns a Metrics implementation that discards all calls.
func NewNoOpMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) IncrLockAttempt(forWrite, granted, queued bool) {}
func (noopMetrics) IncrConflict(c ConflictType)                    {}
func (noopMetrics) IncrRelease()                                   {}
func (noopMetrics) ObserveWaitLatency(d time.Duration)              {}
func (noopMetrics) SetActiveLocks(count int)                        {}
func (noopMetrics) SetWaiters(count int)                            {}
