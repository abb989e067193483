package middleware

import (
	"net/http"

	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
)

// APIKeyHeader is the request header carrying the static shared secret.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey returns an HTTP middleware enforcing the static API key as a
// second authorization factor, independent of and composed before the token
// check. Missing and mismatched keys get distinct machine codes but the same
// generic message.
func RequireAPIKey(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized", model.CodeMissingAPIKey)
				return
			}
			if !authSvc.CheckAPIKey(key) {
				writeError(w, http.StatusUnauthorized, "Unauthorized", model.CodeInvalidAPIKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
