// Package stores provides the Redis-backed PIN record store used by the
// secondary authentication factor.
//
// # Design
//
// One versioned, binary-encoded record lives under <prefix>:<operatorID> with
// a TTL. Save replaces any prior record. Check reads, compares and mutates the
// attempt counter inside a WATCH/MULTI optimistic transaction with retry on
// contention, so concurrent validations for the same operator cannot
// under-count attempts.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for PIN records. It
// does NOT generate or hash PINs and makes no authentication decisions; the
// caller supplies the comparison function.
//
// # What this package must NOT do
//
//   - Import pinauth or any sibling internal package.
//   - Store or log plaintext PINs.
package stores
