package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by FindActiveByJTI when no live session matches.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("session backend unavailable")
)

// Registry persists issued sessions.
type Registry interface {
	// Create stores a session expiring lifetime after now.
	Create(ctx context.Context, operatorID int64, jti string, origin Origin, lifetime time.Duration) (*Record, error)
	// FindActiveByJTI returns the non-revoked session for jti or ErrNotFound.
	FindActiveByJTI(ctx context.Context, jti string) (*Record, error)
	// RevokeAll flags every non-revoked session of operatorID and returns how
	// many were revoked.
	RevokeAll(ctx context.Context, operatorID int64) (int, error)
	// DeleteExpired removes sessions that expired before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

func newRecord(operatorID int64, jti string, origin Origin, now time.Time, lifetime time.Duration) (*Record, error) {
	if operatorID <= 0 {
		return nil, errors.New("operator id is required")
	}
	if jti == "" {
		return nil, errors.New("token jti is required")
	}
	if lifetime <= 0 {
		return nil, errors.New("session lifetime must be > 0")
	}
	return &Record{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		TokenJTI:   jti,
		IPAddress:  origin.IPAddress,
		UserAgent:  origin.UserAgent,
		CreatedAt:  now.UTC(),
		ExpiresAt:  now.Add(lifetime).UTC(),
	}, nil
}
