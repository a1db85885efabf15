package pinauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/pinauth/internal/audit"
	internalflows "github.com/MrEthical07/pinauth/internal/flows"
	"github.com/MrEthical07/pinauth/internal/rate"
	"github.com/MrEthical07/pinauth/internal/stores"
	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/notify"
)

func (e *Engine) newFlowService() internalflows.Service {
	common := internalflows.Common{
		Now: time.Now,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		MetricAdd: func(id int, n uint64) {
			e.metrics.Add(MetricID(id), n)
		},
		EmitAudit: e.emitAudit,
		Warn: func(ctx context.Context, msg string, args ...any) {
			e.logger.WarnContext(ctx, msg, args...)
		},
	}

	return internalflows.New(internalflows.Deps{
		Login:   e.loginFlowDeps(common),
		Pin:     e.pinFlowDeps(common),
		Logout:  e.logoutFlowDeps(common),
		Session: e.sessionCheckFlowDeps(),
		Token:   e.tokenFlowDeps(),
	})
}

func (e *Engine) getOperatorByUsername(ctx context.Context, username string) (internalflows.OperatorRecord, error) {
	op, err := e.operators.GetOperatorByUsername(ctx, username)
	if err != nil {
		return internalflows.OperatorRecord{}, err
	}
	return toOperatorRecord(op), nil
}

func (e *Engine) getOperatorByID(ctx context.Context, operatorID int64) (internalflows.OperatorRecord, error) {
	op, err := e.operators.GetOperatorByID(ctx, operatorID)
	if err != nil {
		return internalflows.OperatorRecord{}, err
	}
	return toOperatorRecord(op), nil
}

func (e *Engine) loginFlowDeps(common internalflows.Common) internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		Common:               common,
		TokenTTL:             e.config.Token.TTL,
		EntityType:           audit.EntityOperator,
		ClientIPFromContext:  ClientIPFromContext,
		UserAgentFromContext: UserAgentFromContext,

		VerifyCredentials:     e.gate.Verify,
		GetOperatorByUsername: e.getOperatorByUsername,
		IsOperatorNotFound:    isOperatorNotFound,
		UpdateLastLogin:       e.operators.UpdateLastLogin,

		IssuePin:  e.pins.Issue,
		DeletePin: e.pins.Delete,
		StartNotification: func(ctx context.Context, op internalflows.OperatorRecord, pin string) *notify.Pending {
			to := notify.Recipient{Name: op.FullName, Phone: op.Phone, Email: op.Email}
			return e.notifier.Start(ctx, to, notify.RenderPin(op.FullName, pin, e.config.Pin.TTL))
		},

		MintToken: func(op internalflows.OperatorRecord) (jwt.Issued, error) {
			return e.tokens.Mint(jwt.Subject{
				OperatorID: strconv.FormatInt(op.ID, 10),
				Username:   op.Username,
				Role:       op.Role,
				Email:      op.Email,
			})
		},
		Sessions: e.sessions,

		ObserveLatency: func(d time.Duration) {
			e.metrics.Observe(MetricLoginLatency, d)
		},

		Metrics: internalflows.LoginMetrics{
			LoginSuccess:       int(MetricLoginSuccess),
			LoginFailure:       int(MetricLoginFailure),
			LoginRateLimited:   int(MetricLoginRateLimited),
			PinIssued:          int(MetricPinIssued),
			SessionCreated:     int(MetricSessionCreated),
			NotificationSent:   int(MetricNotificationSent),
			NotificationFailed: int(MetricNotificationFailed),
		},
		Events: internalflows.LoginEvents{
			Login:       string(audit.ActionLogin),
			LoginFailed: string(audit.ActionLoginFailed),
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:        ErrEngineNotReady,
			InvalidCredentials:    ErrInvalidCredentials,
			OperatorNotFound:      ErrOperatorNotFound,
			OperatorInactive:      ErrOperatorInactive,
			LoginRateLimited:      ErrLoginRateLimited,
			SessionCreationFailed: ErrSessionCreationFailed,
		},
	}

	if e.rateLimiter != nil {
		deps.CheckLoginRate = e.checkLoginRate
		deps.IncrementLoginRate = func(ctx context.Context, username, ip string) {
			if err := e.rateLimiter.IncrementLogin(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
				e.logger.WarnContext(ctx, "login limiter increment failed", "error", err)
			}
		}
		deps.ResetLoginRate = func(ctx context.Context, username, ip string) {
			if err := e.rateLimiter.ResetLogin(ctx, username, ip); err != nil {
				e.logger.WarnContext(ctx, "login limiter reset failed", "error", err)
			}
		}
	}
	return deps
}

// checkLoginRate only reports a limit hit. A limiter outage lets the
// attempt through; the credential check still applies.
func (e *Engine) checkLoginRate(ctx context.Context, username, ip string) error {
	err := e.rateLimiter.CheckLogin(ctx, username, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrLoginRateLimited
	}
	e.logger.WarnContext(ctx, "login limiter unavailable", "error", err)
	return nil
}

func (e *Engine) pinFlowDeps(common internalflows.Common) internalflows.PinDeps {
	return internalflows.PinDeps{
		Common:             common,
		MaxAttempts:        e.config.Pin.MaxAttempts,
		EntityType:         audit.EntityPin,
		GetOperatorByID:    e.getOperatorByID,
		IsOperatorNotFound: isOperatorNotFound,
		CheckPin: func(ctx context.Context, operatorID int64, candidate string) (stores.PinCheck, error) {
			return e.pins.Check(ctx, operatorID, candidate)
		},
		Metrics: internalflows.PinMetrics{
			PinValid:            int(MetricPinValid),
			PinInvalid:          int(MetricPinInvalid),
			PinExpired:          int(MetricPinExpired),
			PinAttemptsExceeded: int(MetricPinAttemptsExceeded),
		},
		Events: internalflows.PinEvents{
			PinValidated:        string(audit.ActionPinValidated),
			PinFailed:           string(audit.ActionPinFailed),
			PinExpired:          string(audit.ActionPinExpired),
			MaxAttemptsExceeded: string(audit.ActionMaxAttemptsExceeded),
		},
		Errors: internalflows.PinErrors{
			EngineNotReady:      ErrEngineNotReady,
			OperatorNotFound:    ErrOperatorNotFound,
			PinMismatch:         ErrPinMismatch,
			PinExpiredOrAbsent:  ErrPinExpiredOrAbsent,
			PinAttemptsExceeded: ErrPinAttemptsExceeded,
		},
	}
}

func (e *Engine) logoutFlowDeps(common internalflows.Common) internalflows.LogoutDeps {
	return internalflows.LogoutDeps{
		Common:      common,
		EntityType:  audit.EntitySession,
		LogoutEvent: string(audit.ActionLogout),
		DeletePin:   e.pins.Delete,
		Sessions:    e.sessions,
		Metrics: internalflows.LogoutMetrics{
			Logout:         int(MetricLogout),
			SessionRevoked: int(MetricSessionRevoked),
		},
		Errors: internalflows.LogoutErrors{
			EngineNotReady:            ErrEngineNotReady,
			SessionInvalidationFailed: ErrSessionInvalidationFailed,
		},
	}
}

func (e *Engine) sessionCheckFlowDeps() internalflows.SessionCheckDeps {
	return internalflows.SessionCheckDeps{
		GetOperatorByID:    e.getOperatorByID,
		IsOperatorNotFound: isOperatorNotFound,
		PinActive:          e.pins.Active,
		EngineNotReady:     ErrEngineNotReady,
	}
}

func (e *Engine) tokenFlowDeps() internalflows.TokenDeps {
	return internalflows.TokenDeps{
		RequireActiveSession: e.config.Session.RequireActiveSession,
		Verify:               e.tokens.Verify,
		Sessions:             e.sessions,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		TokenRejected:  int(MetricTokenRejected),
		InvalidToken:   ErrInvalidToken,
		EngineNotReady: ErrEngineNotReady,
	}
}
