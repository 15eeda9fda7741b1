package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

func principalEcho(t *testing.T, want domain.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := PrincipalFromContext(r.Context())
		if !ok || got != want {
			t.Fatalf("principal = %+v (%v), want %+v", got, ok, want)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager(auth.NewSigner("secret"), time.Minute)
	token, err := manager.Generate(&domain.User{ID: "user-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	handler := AuthMiddleware(manager)(principalEcho(t, domain.Principal{UserID: "user-1", Role: domain.RoleUser}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "admin-1")
	req.Header.Set(DevRoleHeader, "admin")
	rr := httptest.NewRecorder()

	DevAuthMiddleware(principalEcho(t, domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin})).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "user-2")
	req.Header.Set(DevRoleHeader, "superuser")
	rr = httptest.NewRecorder()

	DevAuthMiddleware(principalEcho(t, domain.Principal{UserID: "user-2", Role: domain.RoleUser})).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unknown roles should fall back to USER, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	DevAuthMiddleware(principalEcho(t, domain.Principal{})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user header, got %d", rr.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name      string
		principal *domain.Principal
		want      int
	}{
		{"admin", &domain.Principal{UserID: "a", Role: domain.RoleAdmin}, http.StatusOK},
		{"user", &domain.Principal{UserID: "u", Role: domain.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/loan-types", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			rr := httptest.NewRecorder()

			RequireAdmin(next).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}
