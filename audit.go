package pinauth

import (
	"io"

	"github.com/MrEthical07/pinauth/internal/audit"
)

// AuditEvent is one append-only audit entry.
type AuditEvent = audit.Event

// AuditAction enumerates audit entry actions.
type AuditAction = audit.Action

// AuditSink receives audit events from the engine's asynchronous dispatcher.
// Write errors are logged and counted, never returned to callers of the
// engine.
type AuditSink = audit.Sink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = audit.SinkFunc

const (
	AuditLogin               = audit.ActionLogin
	AuditLoginFailed         = audit.ActionLoginFailed
	AuditPinValidated        = audit.ActionPinValidated
	AuditPinFailed           = audit.ActionPinFailed
	AuditPinExpired          = audit.ActionPinExpired
	AuditMaxAttemptsExceeded = audit.ActionMaxAttemptsExceeded
	AuditLogout              = audit.ActionLogout
)

// NewChannelSink returns a sink that forwards events to a buffered channel.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewMultiSink fans events out to every sink; errors are joined.
func NewMultiSink(sinks ...AuditSink) AuditSink {
	return audit.MultiSink(sinks)
}
