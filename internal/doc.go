// Package internal contains helper utilities that are private to pinauth,
// mainly secure PIN generation.
//
// # Sub-packages
//
//   - app/bootstrap: service configuration loading and runtime wiring
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - events: Kafka publishing of audit events
//   - flows: pure-function flow orchestrators for every Engine operation
//   - httpapi: chi router, handlers and error mapping for the /auth surface
//   - postgres: gorm connection, migrations, operator repository and audit sink
//   - rate: Redis-backed fixed-window login limiter
//   - stores: Redis PIN record store
//
// # What this package must NOT do
//
//   - Export types that appear in the public pinauth API.
//   - Be imported by any package outside the pinauth module.
package internal
