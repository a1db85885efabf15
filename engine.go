package pinauth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/pinauth/credential"
	"github.com/MrEthical07/pinauth/internal/audit"
	internalflows "github.com/MrEthical07/pinauth/internal/flows"
	"github.com/MrEthical07/pinauth/internal/rate"
	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/notify"
	"github.com/MrEthical07/pinauth/session"
)

// Engine composes the credential gate, PIN store, notifier, token issuer,
// session registry and audit log into the Login, ValidatePin, Logout and
// CheckSession operations. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	config      Config
	logger      *slog.Logger
	pins        *pinStore
	gate        *credential.Gate
	notifier    *notify.Dispatcher
	tokens      *jwt.Manager
	sessions    session.Registry
	operators   OperatorProvider
	rateLimiter *rate.Limiter
	audit       *audit.Dispatcher
	metrics     *Metrics
	flow        internalflows.Service
}

// Close drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports events dropped because the audit buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditFailed reports events the sink failed to write.
func (e *Engine) AuditFailed() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Failed()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	snap := e.metrics.Snapshot()
	if e.metrics.Enabled() && e.audit != nil {
		snap.Counters[MetricAuditFailed] = e.audit.Failed()
	}
	return snap
}

// Config returns a copy of the engine configuration with key material removed.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	cfg := cloneConfig(e.config)
	cfg.Token.PrivateKey = nil
	cfg.Token.PublicKey = nil
	return cfg
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies primary credentials, issues a PIN, dispatches it on both
// channels, mints a token and records the session. Origin metadata is read
// from ctx ([WithClientIP], [WithUserAgent]).
//
// Notification failures never fail Login; they are reported per channel in
// the result. Credential, operator and rate-limit failures return
// [ErrInvalidCredentials], [ErrOperatorNotFound], [ErrOperatorInactive] or
// [ErrLoginRateLimited]. A PIN store outage returns [ErrPinStoreUnavailable].
func (e *Engine) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}

	res, err := e.flow.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Success:   true,
		Token:     res.Token,
		ExpiresIn: int64(e.config.Token.TTL / time.Second),
		Operator: OperatorSummary{
			ID:               res.Operator.ID,
			Username:         res.Operator.Username,
			Name:             res.Operator.FullName,
			Role:             Role(res.Operator.Role),
			VerificationCode: res.Pin,
		},
		Pin:          res.Pin,
		PinExpiresAt: res.PinExpiresAt.UTC(),
		Notifications: Notifications{
			WhatsApp: MessageNotice{
				Sent:        res.Delivery.Message.Sent,
				MaskedPhone: res.Delivery.Message.Destination,
			},
			Email: EmailNotice{
				Sent:        res.Delivery.Email.Sent,
				MaskedEmail: res.Delivery.Email.Destination,
			},
		},
	}, nil
}

// ValidatePin checks pin for operatorID. Every PIN outcome is reported in
// the result; errors are reserved for an unknown operator
// ([ErrOperatorNotFound]) and store outages ([ErrPinStoreUnavailable]).
func (e *Engine) ValidatePin(ctx context.Context, operatorID int64, pin string) (*ValidatePinResult, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}

	res, err := e.flow.ValidatePin(ctx, operatorID, pin)
	if err != nil {
		return nil, err
	}

	outcome := pinOutcomeFromStore(res.Outcome)
	out := &ValidatePinResult{Outcome: outcome}
	switch outcome {
	case PinValid:
		out.Success = true
		out.Valid = true
		out.Operator = &OperatorProfile{
			ID:       res.Operator.ID,
			Username: res.Operator.Username,
			FullName: res.Operator.FullName,
			Email:    res.Operator.Email,
			Phone:    res.Operator.Phone,
			Role:     Role(res.Operator.Role),
		}
	case PinInvalid:
		remaining := res.AttemptsRemaining
		out.AttemptsRemaining = &remaining
		out.Message = "Invalid PIN. " + strconv.Itoa(remaining) + " attempts remaining."
	case PinAttemptsExceeded:
		out.RequiresLogin = true
		out.Message = "Maximum PIN attempts exceeded. Please login again."
	default:
		out.RequiresLogin = true
		out.Message = "PIN has expired. Please login again."
	}
	return out, nil
}

// Logout deletes the operator's PIN record and revokes all of their
// sessions. It is idempotent.
func (e *Engine) Logout(ctx context.Context, operatorID int64) error {
	if e == nil || !e.flow.Initialized() {
		return ErrEngineNotReady
	}
	return e.flow.Logout(ctx, operatorID)
}

// CheckSession reports whether the operator is active and holds a PIN record
// that is unexpired and below the attempt ceiling. It does not verify tokens;
// see [Engine.VerifyToken].
func (e *Engine) CheckSession(ctx context.Context, operatorID int64) (bool, error) {
	if e == nil || !e.flow.Initialized() {
		return false, ErrEngineNotReady
	}
	return e.flow.CheckSession(ctx, operatorID)
}

// VerifyToken verifies a bearer token at the transport boundary. With
// Session.RequireActiveSession the token's jti must also resolve to a
// non-revoked session, so Logout invalidates outstanding tokens.
func (e *Engine) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if e == nil || !e.flow.Initialized() {
		return nil, ErrEngineNotReady
	}

	res, err := e.flow.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	claims := &Claims{
		OperatorID: res.OperatorID,
		Username:   res.Claims.Username,
		Role:       Role(res.Claims.Role),
		Email:      res.Claims.Email,
		JTI:        res.Claims.ID,
	}
	if res.Claims.IssuedAt != nil {
		claims.IssuedAt = res.Claims.IssuedAt.Time
	}
	if res.Claims.ExpiresAt != nil {
		claims.ExpiresAt = res.Claims.ExpiresAt.Time
	}
	return claims, nil
}

// PurgeExpiredSessions deletes sessions whose expiry is before cutoff. It is
// meant for an external scheduled sweep.
func (e *Engine) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessions.DeleteExpired(ctx, cutoff)
}

func toOperatorRecord(op Operator) internalflows.OperatorRecord {
	return internalflows.OperatorRecord{
		ID:       op.ID,
		Username: op.Username,
		FullName: op.FullName,
		Email:    op.Email,
		Phone:    op.Phone,
		Role:     string(op.Role),
		Active:   op.Active,
	}
}

func isOperatorNotFound(err error) bool {
	return errors.Is(err, ErrOperatorNotFound)
}
