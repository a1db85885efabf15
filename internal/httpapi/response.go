package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrEthical07/pinauth"
)

const maxBodyBytes = 1 << 16

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Error: code, Message: message})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// mapError converts engine errors into a status, a stable code and a client
// message. Unknown operators are reported as bad credentials.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, pinauth.ErrInvalidCredentials), errors.Is(err, pinauth.ErrOperatorNotFound):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password"
	case errors.Is(err, pinauth.ErrOperatorInactive):
		return http.StatusUnauthorized, "OPERATOR_INACTIVE", "operator is inactive"
	case errors.Is(err, pinauth.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token"
	case errors.Is(err, pinauth.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts"
	case errors.Is(err, pinauth.ErrPinStoreUnavailable), errors.Is(err, pinauth.ErrTransportFailure):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "authentication backend unavailable"
	case errors.Is(err, pinauth.ErrSessionCreationFailed):
		return http.StatusInternalServerError, "SESSION_CREATION_FAILED", "could not create session"
	case errors.Is(err, pinauth.ErrSessionInvalidationFailed):
		return http.StatusInternalServerError, "SESSION_INVALIDATION_FAILED", "could not revoke sessions"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
