// Package otel exports engine metrics as OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter,
// except the PIN outcome counters, which share pinauth_pin_validations_total
// under an outcome attribute. The login latency histogram is published as a
// cumulative bucket gauge keyed by le plus a count gauge. A single callback
// reads [pinauth.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
