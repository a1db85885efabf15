// Package session persists issued operator sessions.
//
// A session row correlates a signed token (by jti) with the operator, the
// caller origin and an expiry. Logout revokes every live session of an
// operator with a single bulk flag update; rows are never deleted except by
// the external expiry sweep ([Registry.DeleteExpired]).
//
// Two [Registry] implementations are provided:
//
//   - [GormRegistry] stores rows in the operator_sessions table.
//   - [RedisRegistry] stores versioned binary blobs with a per-operator index
//     and a jti lookup key, expiring with the token.
//
// # What this package must NOT do
//
//   - Import pinauth or jwt (no upward imports).
//   - Interpret token contents.
package session
