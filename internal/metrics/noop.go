package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) TickStarted()                                               {}
func (n *NoopSink) TickCompleted(duration time.Duration, err error)            {}
func (n *NoopSink) RunStarted(source string)                                   {}
func (n *NoopSink) RunCompleted(source string, duration time.Duration)         {}
func (n *NoopSink) FetchCompleted(outcome string, duration time.Duration)      {}
func (n *NoopSink) NotifyAttemptCompleted(statusClass string, d time.Duration) {}
func (n *NoopSink) NotifyOutcome(outcome string)                               {}
