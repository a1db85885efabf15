package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/pinauth"
	authmw "github.com/MrEthical07/pinauth/middleware"
)

const pinLength = 6

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type validatePinRequest struct {
	Pin string `json:"pin"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeValidationError(w, r, "login", err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.writeValidationError(w, r, "login", "username and password are required")
		return
	}

	res, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeMappedError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) validatePin(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.ClaimsFromContext(r.Context())
	if !ok {
		h.writeMappedError(w, r, "validate_pin", pinauth.ErrInvalidToken)
		return
	}

	var req validatePinRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeValidationError(w, r, "validate_pin", err.Error())
		return
	}
	if !isPinShaped(req.Pin) {
		h.writeValidationError(w, r, "validate_pin", "pin must be exactly 6 digits")
		return
	}

	res, err := h.service.ValidatePin(r.Context(), claims.OperatorID, req.Pin)
	if err != nil {
		h.writeMappedError(w, r, "validate_pin", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.ClaimsFromContext(r.Context())
	if !ok {
		h.writeMappedError(w, r, "logout", pinauth.ErrInvalidToken)
		return
	}
	if err := h.service.Logout(r.Context(), claims.OperatorID); err != nil {
		h.writeMappedError(w, r, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, logoutResponse{Success: true})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, false)
		return
	}
	active, err := h.service.CheckSession(r.Context(), claims.OperatorID)
	if err != nil {
		status, code, _ := mapError(err)
		h.logOperationError(r, "check_session", status, code, err)
		writeJSON(w, status, false)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				h.logOperationError(r, "readyz", http.StatusServiceUnavailable, "NOT_READY", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (h *Handler) rejectJSON(w http.ResponseWriter, r *http.Request, err error) {
	h.writeMappedError(w, r, "authenticate", err)
}

func rejectSession(w http.ResponseWriter, _ *http.Request, _ error) {
	writeJSON(w, http.StatusUnauthorized, false)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, r *http.Request, operation, message string) {
	h.logger.WarnContext(r.Context(), "http operation failed",
		"operation", operation,
		"outcome", "failure",
		"status_code", http.StatusBadRequest,
		"error_code", "VALIDATION_ERROR",
		"request_id", requestIDFromContext(r.Context()),
	)
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func (h *Handler) writeMappedError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, code, message := mapError(err)
	h.logOperationError(r, operation, status, code, err)
	writeError(w, status, code, message)
}

func (h *Handler) logOperationError(r *http.Request, operation string, status int, code string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", status,
		"error_code", code,
		"request_id", requestIDFromContext(r.Context()),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if status >= 500 {
		h.logger.ErrorContext(r.Context(), "http operation failed", fields...)
		return
	}
	h.logger.WarnContext(r.Context(), "http operation failed", fields...)
}

func isPinShaped(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
