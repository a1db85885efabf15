// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunValidatePin, RunLogout, RunCheckSession,
// RunVerifyToken) accepts a typed dependency struct and returns results
// without side-effects beyond those dependencies.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential gate, PIN store,
// notifier, token manager, session registry, audit dispatcher, and metrics.
// They do NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import pinauth (to avoid import cycles).
//   - Log or return the plaintext PIN anywhere except LoginResult.
package flows
