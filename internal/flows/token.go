package flows

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/session"
)

// TokenResult is a verified token with its parsed operator id.
type TokenResult struct {
	OperatorID int64
	Claims     *jwt.OperatorClaims
}

// TokenDeps captures VerifyToken dependencies.
type TokenDeps struct {
	RequireActiveSession bool

	Verify   func(string) (*jwt.OperatorClaims, error)
	Sessions session.Registry

	MetricInc     func(int)
	TokenRejected int

	InvalidToken   error
	EngineNotReady error
}

// RunVerifyToken checks signature and expiry and, when required, that the
// token's jti still maps to a non-revoked session of the same operator.
func RunVerifyToken(ctx context.Context, token string, deps TokenDeps) (*TokenResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Verify == nil || (deps.RequireActiveSession && deps.Sessions == nil) {
		return nil, deps.EngineNotReady
	}

	reject := func() (*TokenResult, error) {
		deps.MetricInc(deps.TokenRejected)
		return nil, deps.InvalidToken
	}

	claims, err := deps.Verify(token)
	if err != nil {
		return reject()
	}
	operatorID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || operatorID <= 0 {
		return reject()
	}

	if deps.RequireActiveSession {
		record, err := deps.Sessions.FindActiveByJTI(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return reject()
			}
			return nil, err
		}
		if record.OperatorID != operatorID {
			return reject()
		}
	}

	return &TokenResult{OperatorID: operatorID, Claims: claims}, nil
}
