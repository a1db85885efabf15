package pinauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/pinauth/credential"
	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/pinhash"
)

// Config is the engine configuration. Build it from [DefaultConfig] and
// override fields; [Builder.Build] validates it.
type Config struct {
	Pin          PinConfig
	Token        TokenConfig
	Credential   CredentialConfig
	Notification NotificationConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Security     SecurityConfig
}

/*
====================================
PIN CONFIG
====================================
*/

// PinConfig controls issuance and validation of the secondary factor.
type PinConfig struct {
	TTL           time.Duration
	MaxAttempts   int
	KeyPrefix     string
	HashAlgorithm string // "bcrypt" (default) or "argon2id"
	BcryptCost    int
	Argon2        pinhash.Argon2Config

	// ConsumeOnValid deletes the record on a successful validation so a
	// replayed PIN reports PinExpired. When false the record stays until
	// Logout or exhaustion and the same PIN validates again.
	ConsumeOnValid bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the session token issuer.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig mirrors [credential.Config]. FailurePolicy has no
// default and must be chosen when Enabled is true.
type CredentialConfig struct {
	Enabled       bool
	FailurePolicy credential.FailurePolicy
}

// NotificationConfig bounds how long Login waits on PIN delivery.
type NotificationConfig struct {
	Timeout time.Duration
}

// SessionConfig controls token-to-session correlation.
type SessionConfig struct {
	// RequireActiveSession makes VerifyToken reject tokens whose jti has no
	// active, non-revoked session.
	RequireActiveSession bool
	RedisPrefix          string
}

// RateLimitConfig configures the fixed-window Login limiter.
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	Window           time.Duration
}

// AuditConfig configures asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds production guard rails checked by Validate.
type SecurityConfig struct {
	ProductionMode bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the development defaults. Signing keys are empty and
// must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Pin: PinConfig{
			TTL:           8 * time.Hour,
			MaxAttempts:   3,
			KeyPrefix:     "pin:operator",
			HashAlgorithm: pinhash.AlgorithmBcrypt,
			BcryptCost:    10,
			Argon2:        pinhash.DefaultArgon2Config(),
		},
		Token: TokenConfig{
			TTL:           8 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Credential: CredentialConfig{
			Enabled:       true,
			FailurePolicy: credential.FailClosed,
		},
		Notification: NotificationConfig{
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			RequireActiveSession: true,
			RedisPrefix:          "sess",
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			EnableIPThrottle: true,
			MaxLoginAttempts: 5,
			Window:           time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// HighSecurityConfig returns defaults tightened for production: shorter PIN
// and token lifetimes, single-use PINs and ProductionMode validation.
// Signing keys must still be supplied.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Pin.TTL = 4 * time.Hour
	cfg.Pin.BcryptCost = 12
	cfg.Pin.ConsumeOnValid = true
	cfg.Token.TTL = 4 * time.Hour
	cfg.Token.SigningMethod = string(jwt.MethodEd25519)
	cfg.RateLimit.MaxLoginAttempts = 3
	cfg.Audit.DropIfFull = false
	cfg.Security.ProductionMode = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	// PIN
	if c.Pin.TTL <= 0 {
		return errors.New("Pin TTL must be > 0")
	}
	if c.Pin.MaxAttempts <= 0 {
		return errors.New("Pin MaxAttempts must be > 0")
	}
	if c.Pin.MaxAttempts > 65535 {
		return errors.New("Pin MaxAttempts must fit the stored counter")
	}
	switch c.Pin.HashAlgorithm {
	case "", pinhash.AlgorithmBcrypt, pinhash.AlgorithmArgon2ID:
	default:
		return fmt.Errorf("unsupported Pin HashAlgorithm %q", c.Pin.HashAlgorithm)
	}

	// Token
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}
	switch jwt.SigningMethod(c.Token.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case jwt.MethodEd25519:
		if len(c.Token.PrivateKey) == 0 || len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return errors.New("unsupported Token signing method")
	}

	// Credential
	if c.Credential.Enabled {
		switch c.Credential.FailurePolicy {
		case credential.FailClosed, credential.FailOpen:
		case "":
			return errors.New("Credential FailurePolicy must be set when Enabled")
		default:
			return fmt.Errorf("unknown Credential FailurePolicy %q", c.Credential.FailurePolicy)
		}
	}

	if c.Notification.Timeout < 0 {
		return errors.New("Notification Timeout must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	if c.Security.ProductionMode {
		if err := c.validateProduction(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateProduction() error {
	if jwt.SigningMethod(c.Token.SigningMethod) == jwt.MethodHS256 && jwt.WeakHMACKey(c.Token.PrivateKey) {
		return errors.New("ProductionMode requires an hs256 key of at least 32 bytes")
	}
	if !c.Credential.Enabled {
		return errors.New("ProductionMode requires Credential.Enabled")
	}
	if c.Credential.FailurePolicy != credential.FailClosed {
		return errors.New("ProductionMode requires Credential FailurePolicy closed")
	}
	if c.Pin.MaxAttempts > 5 {
		return errors.New("ProductionMode requires Pin MaxAttempts <= 5")
	}
	if !c.Session.RequireActiveSession {
		return errors.New("ProductionMode requires Session.RequireActiveSession")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintSeverity grades a lint finding. Higher values are more severe.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a non-fatal configuration finding.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the finding codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns findings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins findings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	var errs []error
	for _, w := range r.BySeverity(min) {
		errs = append(errs, fmt.Errorf("%s [%s]: %s", w.Code, w.Severity, w.Message))
	}
	return errors.Join(errs...)
}

// Lint reports settings that are valid but risky. It never fails.
func (c *Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, msg string) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Credential.Enabled {
		add("credential_check_disabled", LintHigh, "credential check disabled: every login is accepted")
	}
	if c.Credential.Enabled && c.Credential.FailurePolicy == credential.FailOpen {
		add("credential_fail_open", LintWarn, "credential validator outages will allow logins")
	}
	if !c.RateLimit.Enabled {
		add("rate_limits_disabled", LintWarn, "login rate limiting disabled")
	}
	if c.Pin.TTL > 24*time.Hour {
		add("pin_ttl_long", LintInfo, "PIN TTL longer than 24h")
	}
	if c.Pin.MaxAttempts > 5 {
		add("pin_attempts_high", LintWarn, "more than 5 PIN attempts allowed per issuance")
	}
	if c.Token.TTL > c.Pin.TTL {
		add("token_outlives_pin", LintInfo, "token lifetime exceeds PIN lifetime")
	}
	if c.Token.Leeway > time.Minute {
		add("leeway_large", LintWarn, "token leeway above 1m")
	}
	if !c.Session.RequireActiveSession {
		add("revocation_not_enforced", LintHigh, "logout does not invalidate outstanding tokens")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintWarn, "audit log disabled")
	}
	return out
}
