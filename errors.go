package pinauth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the credential gate rejects the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOperatorInactive is returned by Login for a deactivated operator.
	ErrOperatorInactive = errors.New("operator inactive")
	// ErrOperatorNotFound is returned when no operator row matches.
	ErrOperatorNotFound = errors.New("operator not found")
	// ErrInvalidToken covers malformed, tampered, expired and revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrPinExpiredOrAbsent maps PinExpired.
	ErrPinExpiredOrAbsent = errors.New("pin expired or absent")
	// ErrPinAttemptsExceeded maps PinAttemptsExceeded.
	ErrPinAttemptsExceeded = errors.New("pin attempts exceeded")
	// ErrPinMismatch maps PinInvalid.
	ErrPinMismatch = errors.New("pin mismatch")
	// ErrTransportFailure marks an unreachable external collaborator.
	ErrTransportFailure = errors.New("transport failure")
	// ErrPinStoreUnavailable is a hard failure of Login and ValidatePin.
	ErrPinStoreUnavailable = errors.New("pin store unavailable")
	// ErrSessionCreationFailed is returned by Login when the session row cannot be written.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed is returned by Logout when revocation fails.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrLoginRateLimited is returned by Login when the attempt window is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned when the engine is nil or missing dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
