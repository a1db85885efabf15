package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/pinauth"
)

// TokenVerifier is satisfied by *pinauth.Engine.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*pinauth.Claims, error)
}

// RejectFunc writes the response for a request that failed authentication.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims injected by [Guard].
func ClaimsFromContext(ctx context.Context) (*pinauth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*pinauth.Claims)
	return claims, ok
}

// WithClaims stores claims in ctx the way Guard does.
func WithClaims(ctx context.Context, claims *pinauth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// Guard verifies the bearer token on every request. A nil reject writes a
// plain 401.
func Guard(verifier TokenVerifier, reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = defaultReject
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				reject(w, r, pinauth.ErrEngineNotReady)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, pinauth.ErrInvalidToken)
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				reject(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func defaultReject(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
