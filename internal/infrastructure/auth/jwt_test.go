package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager(auth.NewSigner("super-secret"), time.Minute)

	user := &domain.User{
		ID:    "user-123",
		Email: "user@example.com",
		Role:  domain.RoleAdmin,
	}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.UserID != user.ID || claims.Email != user.Email || claims.Role != user.Role {
		t.Fatalf("expected claims to match user, got %+v", claims)
	}

	if p := claims.Principal(); !p.IsAdmin() || p.UserID != user.ID {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := auth.NewSigner("secret")
	past := auth.NewJWTManager(signer.WithClock(func() time.Time { return issued }), time.Minute)
	manager := auth.NewJWTManager(signer, time.Minute)

	user := &domain.User{ID: "expired", Email: "expired@example.com", Role: domain.RoleUser}

	expiredToken, err := past.Generate(user)
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); err != domain.ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	other := auth.NewJWTManager(auth.NewSigner("another-secret"), time.Minute)
	foreign, err := other.Generate(user)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := manager.Verify(foreign); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestJWTManagerRejectsUnsignedAlgorithm(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager(auth.NewSigner("secret"), time.Minute)

	claims := auth.Claims{UserID: "u", Role: domain.RoleAdmin}
	claims.Purpose = auth.PurposeAccess
	claims.Issuer = auth.Issuer
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	if _, err := manager.Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestJWTManagerRejectsRefreshTokens(t *testing.T) {
	t.Parallel()

	signer := auth.NewSigner("secret")
	manager := auth.NewJWTManager(signer, time.Minute)
	codec := auth.NewQRCodec(signer, time.Minute)

	// shaped like the identity service's refresh tokens: same key, same claims
	claims := auth.Claims{UserID: "user-1", Email: "user@example.com", Role: domain.RoleUser}
	claims.Purpose = auth.PurposeRefresh
	claims.Issuer = auth.Issuer
	claims.Subject = "user-1"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign refresh token: %v", err)
	}

	if _, err := manager.Verify(refresh); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for a refresh token, got %v", err)
	}
	if _, err := codec.Decode(refresh); !errors.Is(err, domain.ErrInvalidOrExpiredQR) {
		t.Fatalf("expected ErrInvalidOrExpiredQR for a refresh token, got %v", err)
	}

	// the same claims under the access purpose verify, so the purpose alone decides
	claims.Purpose = auth.PurposeAccess
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign access token: %v", err)
	}
	if _, err := manager.Verify(access); err != nil {
		t.Fatalf("expected access token to verify, got %v", err)
	}
}
