// Package metrics provides observability hooks for the build pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional: the pipeline never nil-checks, it
// just records. Swapping in PrometheusRecorder activates real collection.
package metrics

import "time"

// Recorder defines observability hooks for build pipeline metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|failed
	IncPackerExit(exitCode int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) IncPackerExit(int)                  {}
