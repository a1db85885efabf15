// Package pinauth provides PIN-based two-factor authentication for store
// operators: an external primary-credential check, a six digit PIN issued to
// a TTL store and delivered over message and email channels, signed session
// tokens correlated to revocable session records, and an append-only audit
// trail.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. All cross-call state lives in Redis
// (PIN records, rate-limit counters, default session registry) or in the
// configured relational stores.
//
// # Architecture boundaries
//
// pinauth is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([LoginResult], [ValidatePinResult], [Claims], [MetricsSnapshot]).
// Flow orchestration, the PIN record codec, the login limiter and audit
// dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Store or log plaintext PINs or passwords. PINs are hashed before they
//     reach Redis; the plaintext exists only in the Login result.
//   - Let notification or audit failures change the outcome of an operation.
//   - Import any sub-package that re-imports pinauth (no import cycles).
//
// # PIN outcomes
//
// ValidatePin reports VALID, INVALID, EXPIRED or MAX_ATTEMPTS_EXCEEDED in its
// result, never as an error. EXPIRED covers expired, never issued and already
// consumed records alike. Whether a validated PIN can be replayed is
// controlled by PinConfig.ConsumeOnValid.
package pinauth
