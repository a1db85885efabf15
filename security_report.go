package pinauth

import (
	"time"

	"github.com/MrEthical07/pinauth/internal/security"
)

// SecurityReport is a read-only summary of the engine's security posture.
type SecurityReport struct {
	ProductionMode            bool
	SigningAlgorithm          string
	TokenTTL                  time.Duration
	Pin                       PinPolicyReport
	CredentialCheckEnabled    bool
	CredentialFailOpen        bool
	SessionRevocationEnforced bool
	RateLimitingActive        bool
	AuditActive               bool
	AuditLossy                bool
}

type PinPolicyReport struct {
	TTL           time.Duration
	MaxAttempts   int
	HashAlgorithm string
	SingleUse     bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	r := security.BuildReport(security.ReportInput{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: e.config.Token.SigningMethod,
		TokenTTL:         e.config.Token.TTL,
		Pin: security.PinReport{
			TTL:           e.config.Pin.TTL,
			MaxAttempts:   e.config.Pin.MaxAttempts,
			HashAlgorithm: e.config.Pin.HashAlgorithm,
			SingleUse:     e.config.Pin.ConsumeOnValid,
		},
		CredentialEnabled:    e.config.Credential.Enabled,
		CredentialPolicy:     string(e.config.Credential.FailurePolicy),
		RequireActiveSession: e.config.Session.RequireActiveSession,
		RateLimitEnabled:     e.config.RateLimit.Enabled,
		MaxLoginAttempts:     e.config.RateLimit.MaxLoginAttempts,
		RateLimitWindow:      e.config.RateLimit.Window,
		AuditEnabled:         e.config.Audit.Enabled,
		AuditDropIfFull:      e.config.Audit.DropIfFull,
	})

	return SecurityReport{
		ProductionMode:   r.ProductionMode,
		SigningAlgorithm: r.SigningAlgorithm,
		TokenTTL:         r.TokenTTL,
		Pin: PinPolicyReport{
			TTL:           r.Pin.TTL,
			MaxAttempts:   r.Pin.MaxAttempts,
			HashAlgorithm: r.Pin.HashAlgorithm,
			SingleUse:     r.Pin.SingleUse,
		},
		CredentialCheckEnabled:    r.CredentialCheckEnabled,
		CredentialFailOpen:        r.CredentialFailOpen,
		SessionRevocationEnforced: r.SessionRevocationEnforced,
		RateLimitingActive:        r.RateLimitingActive,
		AuditActive:               r.AuditActive,
		AuditLossy:                r.AuditLossy,
	}
}
