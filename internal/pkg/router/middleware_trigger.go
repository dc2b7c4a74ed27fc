package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TriggerAuth guards manual pipeline trigger endpoints with a shared token.
// The token is compared against the Authorization bearer value. An empty
// configured token rejects every request.
func TriggerAuth(token string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSON(w, errorResponse{Message: "trigger endpoints are disabled"}, http.StatusUnauthorized)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(p[1]), []byte(token)) != 1 {
				writeJSON(w, errorResponse{Message: "Invalid trigger token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
