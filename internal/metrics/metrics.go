// Package metrics defines the recording seam for operational counters.
// Callers inject a Recorder; everything defaults to the no-op implementation
// so instrumentation never becomes a hard dependency.
package metrics

import "context"

// Recorder receives counter increments and histogram observations emitted
// around authorization flows and outbound provider calls.
type Recorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopRecorder struct{}

func (NopRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ Recorder = NopRecorder{}
