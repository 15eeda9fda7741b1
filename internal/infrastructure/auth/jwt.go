package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gobank/internal/domain"
)

// Issuer is the iss claim of every token this service signs.
const Issuer = "gobank"

// Purpose separates token namespaces that share one signing key. A token
// minted for one purpose never verifies as another.
type Purpose string

const (
	PurposeAccess Purpose = "access"
	// PurposeRefresh tokens are minted by the identity service with the shared
	// key and must never be accepted as session tokens here.
	PurposeRefresh Purpose = "refresh"
	PurposeQR      Purpose = "qr"
)

// Envelope carries the claims common to every token.
type Envelope struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

func (e *Envelope) envelope() *Envelope {
	return e
}

type purposed interface {
	jwt.Claims
	envelope() *Envelope
}

var errPurposeMismatch = errors.New("token purpose mismatch")

// Signer signs and verifies HS256 tokens bound to a purpose.
type Signer struct {
	secretKey []byte
	now       func() time.Time
}

// NewSigner creates a new Signer.
func NewSigner(secretKey string) *Signer {
	return &Signer{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

// WithClock returns a copy of the signer that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

func (s *Signer) sign(purpose Purpose, ttl time.Duration, claims purposed) (string, error) {
	now := s.now()
	env := claims.envelope()
	env.Purpose = purpose
	env.Issuer = Issuer
	env.IssuedAt = jwt.NewNumericDate(now)
	env.NotBefore = jwt.NewNumericDate(now)
	env.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *Signer) parse(tokenString string, purpose Purpose, claims purposed) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	if claims.envelope().Purpose != purpose {
		return errPurposeMismatch
	}
	return nil
}

// Claims represents the session token claims
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Envelope
}

// Principal returns the caller identity carried by the token.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{UserID: c.UserID, Role: c.Role}
}

// JWTManager mints and verifies session tokens. Password checks and refresh
// flows live in the external identity service; this service only verifies.
type JWTManager struct {
	signer        *Signer
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(signer *Signer, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		signer:        signer,
		tokenDuration: tokenDuration,
	}
}

// Generate generates a new access token for a user
func (m *JWTManager) Generate(user *domain.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	claims.Subject = user.ID
	return m.signer.sign(PurposeAccess, m.tokenDuration, claims)
}

// Verify verifies an access token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := m.signer.parse(tokenString, PurposeAccess, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	if !claims.Role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
