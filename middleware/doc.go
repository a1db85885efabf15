// Package middleware exposes HTTP middleware adapters that authenticate
// operator requests with a bearer session token.
//
// # Guards
//
//   - [Guard] verifies the Authorization header through Engine.VerifyToken and
//     injects the verified claims into the request context.
//   - [RequireRole] admits only the listed operator roles.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Engine.VerifyToken.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
package middleware
