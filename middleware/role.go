package middleware

import (
	"net/http"

	"github.com/MrEthical07/pinauth"
)

// RequireRole admits requests whose verified claims carry one of roles. It
// must run after [Guard].
func RequireRole(roles ...pinauth.Role) func(http.Handler) http.Handler {
	allowed := make(map[pinauth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
