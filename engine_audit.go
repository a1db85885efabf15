package pinauth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/pinauth/internal/audit"
	internalflows "github.com/MrEthical07/pinauth/internal/flows"
)

// AuditErrorCode is the stable failure reason recorded on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrOperatorInactive      AuditErrorCode = "operator_inactive"
	auditErrOperatorNotFound      AuditErrorCode = "operator_not_found"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrPinMismatch           AuditErrorCode = "pin_mismatch"
	auditErrPinExpired            AuditErrorCode = "pin_expired"
	auditErrAttemptsExceeded      AuditErrorCode = "attempts_exceeded"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(ctx context.Context, entry internalflows.AuditEntry) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.Event{
		Timestamp:  time.Now().UTC(),
		Action:     audit.Action(entry.Action),
		OperatorID: entry.OperatorID,
		Username:   entry.Username,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		IP:         ClientIPFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		Success:    entry.Success,
		Metadata:   entry.Metadata,
	}
	if code := auditErrorCode(entry.Err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrOperatorInactive):
		return auditErrOperatorInactive
	case errors.Is(err, ErrOperatorNotFound):
		return auditErrOperatorNotFound
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPinMismatch):
		return auditErrPinMismatch
	case errors.Is(err, ErrPinExpiredOrAbsent):
		return auditErrPinExpired
	case errors.Is(err, ErrPinAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrPinStoreUnavailable),
		errors.Is(err, ErrTransportFailure):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
