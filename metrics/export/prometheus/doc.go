// Package prometheus renders engine metrics in Prometheus text exposition
// format.
//
// Counter names are prefixed pinauth_ and suffixed _total; the single
// histogram is pinauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
