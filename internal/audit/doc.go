// Package audit implements the best-effort audit trail for authentication
// events.
//
// # Components
//
//   - [Sink]: interface for event persistence (channel, JSON writer, multi, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: append-only entry: action, operator, entity, origin, outcome.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; that belongs to the Engine and flow functions. Sink failures
// are logged and counted and never reach the emitter.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import pinauth or any sibling internal package.
package audit
