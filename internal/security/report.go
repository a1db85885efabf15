package security

import "time"

// PinReport summarizes the secondary-factor policy.
type PinReport struct {
	TTL           time.Duration
	MaxAttempts   int
	HashAlgorithm string
	SingleUse     bool
}

type Report struct {
	ProductionMode            bool
	SigningAlgorithm          string
	TokenTTL                  time.Duration
	Pin                       PinReport
	CredentialCheckEnabled    bool
	CredentialFailOpen        bool
	SessionRevocationEnforced bool
	RateLimitingActive        bool
	AuditActive               bool
	AuditLossy                bool
}

type ReportInput struct {
	ProductionMode       bool
	SigningAlgorithm     string
	TokenTTL             time.Duration
	Pin                  PinReport
	CredentialEnabled    bool
	CredentialPolicy     string
	RequireActiveSession bool
	RateLimitEnabled     bool
	MaxLoginAttempts     int
	RateLimitWindow      time.Duration
	AuditEnabled         bool
	AuditDropIfFull      bool
}

func BuildReport(input ReportInput) Report {
	rateLimiting := input.RateLimitEnabled &&
		input.MaxLoginAttempts > 0 &&
		input.RateLimitWindow > 0

	hashAlgorithm := input.Pin.HashAlgorithm
	if hashAlgorithm == "" {
		hashAlgorithm = "bcrypt"
	}
	pin := input.Pin
	pin.HashAlgorithm = hashAlgorithm

	return Report{
		ProductionMode:            input.ProductionMode,
		SigningAlgorithm:          input.SigningAlgorithm,
		TokenTTL:                  input.TokenTTL,
		Pin:                       pin,
		CredentialCheckEnabled:    input.CredentialEnabled,
		CredentialFailOpen:        input.CredentialEnabled && input.CredentialPolicy == "open",
		SessionRevocationEnforced: input.RequireActiveSession,
		RateLimitingActive:        rateLimiting,
		AuditActive:               input.AuditEnabled,
		AuditLossy:                input.AuditEnabled && input.AuditDropIfFull,
	}
}
