package flows

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/pinauth/session"
)

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout         int
	SessionRevoked int
}

// LogoutErrors carries host-level sentinel errors used by the logout flow.
type LogoutErrors struct {
	EngineNotReady            error
	SessionInvalidationFailed error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Common

	EntityType  string
	LogoutEvent string

	DeletePin func(context.Context, int64) error
	Sessions  session.Registry

	Metrics LogoutMetrics
	Errors  LogoutErrors
}

// RunLogout deletes the PIN record and revokes every active session of the
// operator. Both steps are idempotent, so repeated calls succeed.
func RunLogout(ctx context.Context, operatorID int64, deps LogoutDeps) error {
	deps.Common.fill()
	if deps.DeletePin == nil || deps.Sessions == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.DeletePin(ctx, operatorID); err != nil {
		return err
	}

	revoked, err := deps.Sessions.RevokeAll(ctx, operatorID)
	if err != nil {
		return errors.Join(deps.Errors.SessionInvalidationFailed, err)
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.MetricAdd(deps.Metrics.SessionRevoked, uint64(revoked))
	deps.EmitAudit(ctx, AuditEntry{
		Action:     deps.LogoutEvent,
		Success:    true,
		OperatorID: operatorID,
		EntityType: deps.EntityType,
		Metadata: map[string]string{
			"revoked_sessions": strconv.Itoa(revoked),
		},
	})
	return nil
}
