package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
)

type contextKeyAuth string

// ClaimsKey is the context key for the verified session claims.
const ClaimsKey contextKeyAuth = "session_claims"

// RequireToken returns an HTTP middleware that validates the session token on
// protected routes. The header must be exactly `Bearer <token>`: two
// space-separated parts, the first literally "Bearer". Any deviation is a
// format error, not a verification attempt.
//
// Rejections carry distinct machine codes (missing header, bad format,
// expired, invalid) but the same generic human message. On accept, the
// decoded claims are attached to the request context.
func RequireToken(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized", model.CodeMissingAuthHeader)
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Unauthorized", model.CodeInvalidAuthFormat)
				return
			}

			claims, err := authSvc.VerifyToken(parts[1])
			if err != nil {
				code := model.CodeInvalidToken
				if errors.Is(err, service.ErrTokenExpired) {
					code = model.CodeTokenExpired
				}
				writeError(w, http.StatusUnauthorized, "Unauthorized", code)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the verified session claims from the context. Returns
// nil for an unauthenticated request.
func GetClaims(ctx context.Context) *service.Claims {
	if c, ok := ctx.Value(ClaimsKey).(*service.Claims); ok {
		return c
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message, Code: code})
}
