package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/schooldesk/auth-server/auth"
	"github.com/schooldesk/auth-server/roles"
	"github.com/schooldesk/auth-server/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified session token claims
const ContextKeyClaims ContextKey = "claims"

// ClaimsFromContext returns the claims placed in the context by
// RequireAuth or RequirePermission.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

// RequireAuth is middleware that validates the Bearer session token and
// injects its claims into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return s.RequirePermission("")
}

// RequirePermission validates the Bearer session token and additionally
// checks the caller's role for the given permission. A missing or
// invalid token is 401, a valid token without the permission is 403.
func (s *Server) RequirePermission(permission roles.PermissionName) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}

			claims, err := s.auth.Authorize(r.Context(), rawToken, permission)
			if err != nil {
				if errors.Is(err, auth.ErrForbidden) {
					writeError(w, http.StatusForbidden, "forbidden")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
