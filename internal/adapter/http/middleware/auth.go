package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// PrincipalContextKey is the context key for the authenticated caller
	PrincipalContextKey ContextKey = "principal"

	// Headers trusted only when authentication is disabled.
	DevUserHeader = "X-User-ID"
	DevRoleHeader = "X-User-Role"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid bearer token and stores its principal in the context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, domain.KindUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeAuthError(w, http.StatusUnauthorized, domain.KindUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, domain.KindUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// DevAuthMiddleware trusts the X-User-ID and X-User-Role headers. It is only
// mounted when authentication is disabled.
func DevAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(DevUserHeader))
		if userID == "" {
			writeAuthError(w, http.StatusUnauthorized, domain.KindUnauthorized, "missing "+DevUserHeader+" header")
			return
		}

		role := domain.Role(strings.ToUpper(r.Header.Get(DevRoleHeader)))
		if !role.IsValid() {
			role = domain.RoleUser
		}

		principal := domain.Principal{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, domain.KindUnauthorized, "unauthorized")
			return
		}
		if !principal.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, domain.KindForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal returns a context carrying principal.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated caller from context
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(domain.Principal)
	return principal, ok
}

func writeAuthError(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message, Kind: string(kind)})
}
