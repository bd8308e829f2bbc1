// Package metrics records build observability data.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check. The gateway swaps in a
// PrometheusRecorder and exposes it with HTTPHandler.
package metrics
