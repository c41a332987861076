package cache

import "time"

type noopMetrics struct{}

// NewNoOpMetrics returns a Metrics implementation that discards everything.
func NewNoOpMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) IncrLookup(hit, miss, blocked bool)         {}
func (noopMetrics) IncrEviction()                              {}
func (noopMetrics) ObservePendingPreviousWait(d time.Duration) {}
func (noopMetrics) SetEntries(count int)                       {}
