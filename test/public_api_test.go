package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/MrEthical07/pinauth/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = pinauth.New
	_ = pinauth.DefaultConfig
	_ = pinauth.HighSecurityConfig

	var _ *pinauth.Engine
	var _ pinauth.Config
	var _ pinauth.LoginResult
	var _ pinauth.ValidatePinResult
	var _ pinauth.Claims
	var _ pinauth.OperatorProvider
	var _ pinauth.AuditSink
	var _ pinauth.MetricsSnapshot

	var _ error = pinauth.ErrInvalidCredentials
	var _ error = pinauth.ErrOperatorInactive
	var _ error = pinauth.ErrInvalidToken
	var _ error = pinauth.ErrPinStoreUnavailable
	var _ error = pinauth.ErrSessionCreationFailed
	var _ error = pinauth.ErrSessionInvalidationFailed
	var _ error = pinauth.ErrLoginRateLimited

	var _ func(middleware.TokenVerifier, middleware.RejectFunc) func(http.Handler) http.Handler = middleware.Guard

	var _ func(*pinauth.Engine, context.Context, string, string) (*pinauth.LoginResult, error) = (*pinauth.Engine).Login
	var _ func(*pinauth.Engine, context.Context, int64, string) (*pinauth.ValidatePinResult, error) = (*pinauth.Engine).ValidatePin
	var _ func(*pinauth.Engine, context.Context, int64) error = (*pinauth.Engine).Logout
	var _ func(*pinauth.Engine, context.Context, int64) (bool, error) = (*pinauth.Engine).CheckSession
	var _ func(*pinauth.Engine, context.Context, string) (*pinauth.Claims, error) = (*pinauth.Engine).VerifyToken
	var _ func(*pinauth.Engine, context.Context, time.Time) (int, error) = (*pinauth.Engine).PurgeExpiredSessions
}
