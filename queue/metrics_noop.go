package queue

import "time"

type noopMetrics struct{}

// NewNoOpMetrics returns a Metrics implementation that discards everything.
func NewNoOpMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) IncrSend()                               {}
func (noopMetrics) IncrAck(success, failed, duplicate bool) {}
func (noopMetrics) IncrReconnect()                          {}
func (noopMetrics) IncrPeerDown()                           {}
func (noopMetrics) ObserveRequestLatency(d time.Duration)   {}
func (noopMetrics) SetPendingDepth(n int)                   {}
func (noopMetrics) SetSentDepth(n int)                      {}
