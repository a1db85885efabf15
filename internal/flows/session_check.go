package flows

import "context"

// SessionCheckDeps captures CheckSession dependencies.
type SessionCheckDeps struct {
	GetOperatorByID    func(context.Context, int64) (OperatorRecord, error)
	IsOperatorNotFound func(error) bool
	PinActive          func(context.Context, int64) (bool, error)
	EngineNotReady     error
}

// RunCheckSession reports whether the operator is active and still holds a
// PIN record with attempts left. An unknown operator is a plain false.
func RunCheckSession(ctx context.Context, operatorID int64, deps SessionCheckDeps) (bool, error) {
	if deps.GetOperatorByID == nil || deps.PinActive == nil {
		return false, deps.EngineNotReady
	}

	operator, err := deps.GetOperatorByID(ctx, operatorID)
	if err != nil {
		if deps.IsOperatorNotFound != nil && deps.IsOperatorNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !operator.Active {
		return false, nil
	}

	return deps.PinActive(ctx, operator.ID)
}
