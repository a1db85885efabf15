package flows

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/notify"
	"github.com/MrEthical07/pinauth/session"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Token          string
	TokenExpiresAt time.Time
	SessionID      string
	Operator       OperatorRecord
	Pin            string
	PinExpiresAt   time.Time
	Delivery       notify.Report
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess       int
	LoginFailure       int
	LoginRateLimited   int
	PinIssued          int
	SessionCreated     int
	NotificationSent   int
	NotificationFailed int
}

// LoginEvents carries audit action names used by the login flow.
type LoginEvents struct {
	Login       string
	LoginFailed string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	InvalidCredentials    error
	OperatorNotFound      error
	OperatorInactive      error
	LoginRateLimited      error
	SessionCreationFailed error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Common

	TokenTTL   time.Duration
	EntityType string

	ClientIPFromContext  func(context.Context) string
	UserAgentFromContext func(context.Context) string

	// CheckLoginRate returns a non-nil error only when the caller is limited.
	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string)
	ResetLoginRate     func(context.Context, string, string)

	VerifyCredentials     func(context.Context, string, string) bool
	GetOperatorByUsername func(context.Context, string) (OperatorRecord, error)
	IsOperatorNotFound    func(error) bool
	UpdateLastLogin       func(context.Context, int64, time.Time) error

	// IssuePin generates and stores a fresh PIN, replacing any prior record.
	IssuePin          func(context.Context, int64) (string, time.Time, error)
	DeletePin         func(context.Context, int64) error
	StartNotification func(context.Context, OperatorRecord, string) *notify.Pending

	MintToken func(OperatorRecord) (jwt.Issued, error)
	Sessions  session.Registry

	ObserveLatency func(time.Duration)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes CREDENTIAL_CHECK then PIN_ISSUED. Notification delivery
// starts once the session row is written, so a PIN discarded by a failed login
// is never sent, and is joined last, bounded by the notifier timeout.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*LoginResult, error) {
	deps.Common.fill()
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.UserAgentFromContext == nil {
		deps.UserAgentFromContext = func(context.Context) string { return "" }
	}
	if deps.IsOperatorNotFound == nil {
		deps.IsOperatorNotFound = func(error) bool { return false }
	}
	if deps.VerifyCredentials == nil ||
		deps.GetOperatorByUsername == nil ||
		deps.IssuePin == nil ||
		deps.StartNotification == nil ||
		deps.MintToken == nil ||
		deps.Sessions == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := deps.Now()
	ip := deps.ClientIPFromContext(ctx)
	userAgent := deps.UserAgentFromContext(ctx)

	failed := func(operatorID int64, reason string, err error) {
		entry := AuditEntry{
			Action:     deps.Events.LoginFailed,
			OperatorID: operatorID,
			Username:   username,
			Err:        err,
			Metadata:   map[string]string{"reason": reason},
		}
		if operatorID != 0 {
			entry.EntityType = deps.EntityType
			entry.EntityID = strconv.FormatInt(operatorID, 10)
		}
		deps.EmitAudit(ctx, entry)
	}
	countFailure := func() {
		deps.MetricInc(deps.Metrics.LoginFailure)
		if deps.IncrementLoginRate != nil {
			deps.IncrementLoginRate(ctx, username, ip)
		}
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, username, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			failed(0, "rate_limited", deps.Errors.LoginRateLimited)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	if username == "" || password == "" || !deps.VerifyCredentials(ctx, username, password) {
		countFailure()
		failed(0, "invalid_credentials", deps.Errors.InvalidCredentials)
		return nil, deps.Errors.InvalidCredentials
	}
	password = ""

	operator, err := deps.GetOperatorByUsername(ctx, username)
	if err != nil {
		if deps.IsOperatorNotFound(err) {
			countFailure()
			failed(0, "operator_not_found", deps.Errors.OperatorNotFound)
			return nil, deps.Errors.OperatorNotFound
		}
		return nil, err
	}

	if !operator.Active {
		countFailure()
		failed(operator.ID, "operator_inactive", deps.Errors.OperatorInactive)
		return nil, deps.Errors.OperatorInactive
	}

	pin, pinExpiresAt, err := deps.IssuePin(ctx, operator.ID)
	if err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.PinIssued)

	issued, err := deps.MintToken(operator)
	if err != nil {
		discardPin(ctx, deps, operator.ID)
		return nil, err
	}

	origin := session.Origin{IPAddress: ip, UserAgent: userAgent}
	record, err := deps.Sessions.Create(ctx, operator.ID, issued.JTI, origin, deps.TokenTTL)
	if err != nil {
		discardPin(ctx, deps, operator.ID)
		failed(operator.ID, "session_creation_failed", deps.Errors.SessionCreationFailed)
		return nil, errors.Join(deps.Errors.SessionCreationFailed, err)
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	pending := deps.StartNotification(ctx, operator, pin)

	if deps.UpdateLastLogin != nil {
		if err := deps.UpdateLastLogin(ctx, operator.ID, deps.Now()); err != nil {
			deps.Warn(ctx, "last login update failed", "operator_id", operator.ID, "error", err)
		}
	}

	deps.EmitAudit(ctx, AuditEntry{
		Action:     deps.Events.Login,
		Success:    true,
		OperatorID: operator.ID,
		Username:   operator.Username,
		EntityType: deps.EntityType,
		EntityID:   strconv.FormatInt(operator.ID, 10),
		Metadata: map[string]string{
			"session_id": record.ID,
		},
	})

	if deps.ResetLoginRate != nil {
		deps.ResetLoginRate(ctx, username, ip)
	}

	report := pending.Wait()
	for _, sent := range []bool{report.Message.Sent, report.Email.Sent} {
		if sent {
			deps.MetricInc(deps.Metrics.NotificationSent)
		} else {
			deps.MetricInc(deps.Metrics.NotificationFailed)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	if deps.ObserveLatency != nil {
		deps.ObserveLatency(deps.Now().Sub(start))
	}

	return &LoginResult{
		Token:          issued.Token,
		TokenExpiresAt: issued.ExpiresAt,
		SessionID:      record.ID,
		Operator:       operator,
		Pin:            pin,
		PinExpiresAt:   pinExpiresAt,
		Delivery:       report,
	}, nil
}

func discardPin(ctx context.Context, deps LoginDeps, operatorID int64) {
	if deps.DeletePin == nil {
		return
	}
	if err := deps.DeletePin(ctx, operatorID); err != nil {
		deps.Warn(ctx, "pin cleanup after failed login", "operator_id", operatorID, "error", err)
	}
}
