package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdminToken guards operator endpoints with a static token (ADMIN_TOKEN).
// It is separate from staff JWTs. An empty token disables the endpoints: every
// request gets 403.
func RequireAdminToken(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Admin access not configured")
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Authorization header required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
