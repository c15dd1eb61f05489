// Package tracer provides OpenTelemetry tracing for staffdesk.
//
// Spans are exported synchronously through the stdout exporter to a
// writer chosen by the caller (stderr or a file given with --trace). When
// tracing is off a no-op tracer is used and spans cost nothing.
package tracer
