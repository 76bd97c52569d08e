// Package metrics records merge run outcomes.
package metrics

import "time"

// Recorder defines the interface for recording merge run metrics.
type Recorder interface {
	// ObserveChange records the final status assigned to one change.
	ObserveChange(branch, status string)

	// ObserveRun records a finished run. result is "merged", "noop" or "error".
	ObserveRun(branch, result string, duration time.Duration)

	// IncStatusRetry counts a status write that lost an optimistic concurrency race.
	IncStatusRetry()
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveChange does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveChange(_, _ string) {}

// ObserveRun does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRun(_, _ string, _ time.Duration) {}

// IncStatusRetry does nothing in the no-op recorder.
func (n *NoopRecorder) IncStatusRetry() {}
