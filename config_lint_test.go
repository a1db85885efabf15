package pinauth

import (
	"testing"
	"time"
)

func TestLint_DefaultConfigNoWarnings(t *testing.T) {
	cfg := defaultConfig()
	codes := cfg.Lint().Codes()

	unwanted := []string{
		"credential_check_disabled",
		"credential_fail_open",
		"rate_limits_disabled",
		"revocation_not_enforced",
		"audit_disabled",
	}
	for _, code := range unwanted {
		if containsCode(codes, code) {
			t.Errorf("default config should not produce %q", code)
		}
	}
}

func TestLint_HighSecurityConfigMinimalWarnings(t *testing.T) {
	cfg := HighSecurityConfig()
	if ws := cfg.Lint().BySeverity(LintWarn); len(ws) != 0 {
		t.Fatalf("HighSecurityConfig should not warn, got %v", ws.Codes())
	}
}

func TestLint_CredentialCheckDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Credential.Enabled = false
	if !containsCode(cfg.Lint().Codes(), "credential_check_disabled") {
		t.Error("expected credential_check_disabled warning")
	}
}

func TestLint_CredentialFailOpen(t *testing.T) {
	cfg := defaultConfig()
	cfg.Credential.FailurePolicy = "open"
	if !containsCode(cfg.Lint().Codes(), "credential_fail_open") {
		t.Error("expected credential_fail_open warning")
	}
}

func TestLint_AllRateLimitsDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimit.Enabled = false
	if !containsCode(cfg.Lint().Codes(), "rate_limits_disabled") {
		t.Error("expected rate_limits_disabled warning")
	}
}

func TestLint_LargeLeeway(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Leeway = 90 * time.Second
	if !containsCode(cfg.Lint().Codes(), "leeway_large") {
		t.Error("expected leeway_large warning")
	}
}

func TestLint_PinPolicy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pin.TTL = 48 * time.Hour
	cfg.Pin.MaxAttempts = 10
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "pin_ttl_long") || !containsCode(codes, "pin_attempts_high") {
		t.Errorf("expected pin policy warnings, got %v", codes)
	}
}

func TestLint_TokenOutlivesPin(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.TTL = 12 * time.Hour
	if !containsCode(cfg.Lint().Codes(), "token_outlives_pin") {
		t.Error("expected token_outlives_pin warning")
	}
}

func TestLint_AuditDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.Enabled = false
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "audit_disabled") {
		t.Error("expected audit_disabled warning")
	}
	if containsCode(codes, "audit_drop_if_full") {
		t.Error("drop policy is irrelevant when audit is disabled")
	}
}

func TestLint_SeverityAssignment(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.RequireActiveSession = false
	for _, w := range cfg.Lint() {
		if w.Code == "revocation_not_enforced" && w.Severity != LintHigh {
			t.Errorf("revocation_not_enforced should be HIGH, got %s", w.Severity)
		}
	}
}

func TestLint_AsError(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("default config should not fail AsError(LintHigh): %v", err)
	}

	cfg.Credential.Enabled = false
	if err := cfg.Lint().AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to return error with credential check disabled")
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := defaultConfig()
	cfg.Credential.Enabled = false
	cfg.Audit.Enabled = false
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) == 0 {
		t.Error("expected at least one HIGH severity warning")
	}
	for _, w := range high {
		if w.Severity < LintHigh {
			t.Errorf("BySeverity(LintHigh) returned warning with severity %s", w.Severity)
		}
	}
	if len(ws.BySeverity(LintInfo)) != len(ws) {
		t.Error("BySeverity(LintInfo) must return every finding")
	}
}

// helpers

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
