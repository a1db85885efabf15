package internaldefs

import (
	"github.com/MrEthical07/pinauth"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   pinauth.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   pinauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: pinauth.MetricLoginSuccess, Name: "pinauth_login_success_total", Help: "Logins that issued a PIN and a session token."},
	{ID: pinauth.MetricLoginFailure, Name: "pinauth_login_failure_total", Help: "Failed login attempts."},
	{ID: pinauth.MetricLoginRateLimited, Name: "pinauth_login_rate_limited_total", Help: "Login attempts rejected by the rate limiter."},
	{ID: pinauth.MetricPinIssued, Name: "pinauth_pin_issued_total", Help: "PINs generated and stored."},
	{ID: pinauth.MetricPinValid, Name: "pinauth_pin_valid_total", Help: "PIN validations with outcome VALID."},
	{ID: pinauth.MetricPinInvalid, Name: "pinauth_pin_invalid_total", Help: "PIN validations with outcome INVALID."},
	{ID: pinauth.MetricPinExpired, Name: "pinauth_pin_expired_total", Help: "PIN validations with outcome EXPIRED."},
	{ID: pinauth.MetricPinAttemptsExceeded, Name: "pinauth_pin_attempts_exceeded_total", Help: "PIN validations with outcome MAX_ATTEMPTS_EXCEEDED."},
	{ID: pinauth.MetricNotificationSent, Name: "pinauth_notification_sent_total", Help: "PIN notifications delivered by a channel."},
	{ID: pinauth.MetricNotificationFailed, Name: "pinauth_notification_failed_total", Help: "PIN notifications that failed or timed out."},
	{ID: pinauth.MetricSessionCreated, Name: "pinauth_session_created_total", Help: "Created sessions."},
	{ID: pinauth.MetricSessionRevoked, Name: "pinauth_session_revoked_total", Help: "Revoked sessions."},
	{ID: pinauth.MetricLogout, Name: "pinauth_logout_total", Help: "Logout operations."},
	{ID: pinauth.MetricTokenRejected, Name: "pinauth_token_rejected_total", Help: "Session tokens rejected during verification."},
	{ID: pinauth.MetricAuditFailed, Name: "pinauth_audit_failed_total", Help: "Audit events the sink failed to persist."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: pinauth.MetricLoginLatency, Name: "pinauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds of the login latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
