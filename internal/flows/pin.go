package flows

import (
	"context"
	"strconv"

	"github.com/MrEthical07/pinauth/internal/stores"
)

// PinResult is the flow-local ValidatePin outcome.
type PinResult struct {
	Outcome           stores.PinOutcome
	AttemptsRemaining int
	Operator          OperatorRecord
}

// PinMetrics carries metric IDs needed by the PIN flow.
type PinMetrics struct {
	PinValid            int
	PinInvalid          int
	PinExpired          int
	PinAttemptsExceeded int
}

// PinEvents carries audit action names used by the PIN flow.
type PinEvents struct {
	PinValidated        string
	PinFailed           string
	PinExpired          string
	MaxAttemptsExceeded string
}

// PinErrors carries host-level sentinel errors used by the PIN flow.
type PinErrors struct {
	EngineNotReady      error
	OperatorNotFound    error
	PinMismatch         error
	PinExpiredOrAbsent  error
	PinAttemptsExceeded error
}

// PinDeps captures ValidatePin dependencies.
type PinDeps struct {
	Common

	MaxAttempts int
	EntityType  string

	GetOperatorByID    func(context.Context, int64) (OperatorRecord, error)
	IsOperatorNotFound func(error) bool

	// CheckPin compares candidate against the stored hash and applies the
	// attempt mutation atomically.
	CheckPin func(context.Context, int64, string) (stores.PinCheck, error)

	Metrics PinMetrics
	Events  PinEvents
	Errors  PinErrors
}

// RunValidatePin classifies one PIN submission. PIN outcomes are returned
// in PinResult; only lookup and store failures are errors.
func RunValidatePin(ctx context.Context, operatorID int64, candidate string, deps PinDeps) (*PinResult, error) {
	deps.Common.fill()
	if deps.IsOperatorNotFound == nil {
		deps.IsOperatorNotFound = func(error) bool { return false }
	}
	if deps.GetOperatorByID == nil || deps.CheckPin == nil || deps.MaxAttempts <= 0 {
		return nil, deps.Errors.EngineNotReady
	}

	operator, err := deps.GetOperatorByID(ctx, operatorID)
	if err != nil {
		if deps.IsOperatorNotFound(err) {
			return nil, deps.Errors.OperatorNotFound
		}
		return nil, err
	}

	check, err := deps.CheckPin(ctx, operator.ID, candidate)
	if err != nil {
		return nil, err
	}

	result := &PinResult{Outcome: check.Outcome, Operator: operator}
	entry := AuditEntry{
		OperatorID: operator.ID,
		Username:   operator.Username,
		EntityType: deps.EntityType,
	}

	switch check.Outcome {
	case stores.PinOutcomeValid:
		deps.MetricInc(deps.Metrics.PinValid)
		entry.Action = deps.Events.PinValidated
		entry.Success = true

	case stores.PinOutcomeInvalid:
		remaining := deps.MaxAttempts - check.Attempts
		if remaining < 0 {
			remaining = 0
		}
		result.AttemptsRemaining = remaining
		deps.MetricInc(deps.Metrics.PinInvalid)
		entry.Action = deps.Events.PinFailed
		entry.Err = deps.Errors.PinMismatch
		entry.Metadata = map[string]string{
			"attempts":           strconv.Itoa(check.Attempts),
			"attempts_remaining": strconv.Itoa(remaining),
		}

	case stores.PinOutcomeExceeded:
		deps.MetricInc(deps.Metrics.PinAttemptsExceeded)
		entry.Action = deps.Events.MaxAttemptsExceeded
		entry.Err = deps.Errors.PinAttemptsExceeded

	default:
		result.Outcome = stores.PinOutcomeExpired
		deps.MetricInc(deps.Metrics.PinExpired)
		entry.Action = deps.Events.PinExpired
		entry.Err = deps.Errors.PinExpiredOrAbsent
	}

	deps.EmitAudit(ctx, entry)
	return result, nil
}
