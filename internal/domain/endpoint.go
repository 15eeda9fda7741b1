package domain

import (
	"fmt"
	"strings"
)

// EndpointKind identifies which balance holder an endpoint number refers to.
type EndpointKind string

const (
	EndpointAccount EndpointKind = "ACCOUNT"
	EndpointCard    EndpointKind = "CARD"
)

// Endpoint is a resolved transfer participant. It is a value type and is never persisted on its own.
type Endpoint struct {
	Number string       `json:"number"`
	Kind   EndpointKind `json:"type"`
}

// AccountEndpoint returns the endpoint of an account number.
func AccountEndpoint(number string) Endpoint {
	return Endpoint{Number: number, Kind: EndpointAccount}
}

// CardEndpoint returns the endpoint of a card number.
func CardEndpoint(number string) Endpoint {
	return Endpoint{Number: number, Kind: EndpointCard}
}

// Key returns a stable identifier used for lock ordering and map lookups.
func (e Endpoint) Key() string {
	return string(e.Kind) + ":" + e.Number
}

func (e Endpoint) String() string {
	return e.Key()
}

// IsZero reports whether the endpoint is unset.
func (e Endpoint) IsZero() bool {
	return e.Number == "" && e.Kind == ""
}

// Validate checks the endpoint shape.
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Number) == "" {
		return fmt.Errorf("%w: empty number", ErrInvalidEndpointKind)
	}
	switch e.Kind {
	case EndpointAccount, EndpointCard:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEndpointKind, e.Kind)
	}
}

// ParseEndpointKind parses ACCOUNT or CARD, case-insensitively.
func ParseEndpointKind(s string) (EndpointKind, error) {
	switch EndpointKind(strings.ToUpper(strings.TrimSpace(s))) {
	case EndpointAccount:
		return EndpointAccount, nil
	case EndpointCard:
		return EndpointCard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpointKind, s)
	}
}

// TokenType is the declared type of a raw transfer token at the boundary.
type TokenType string

const (
	TokenAccount   TokenType = "ACCOUNT"
	TokenCard      TokenType = "CARD"
	TokenPhone     TokenType = "PHONE"
	TokenQRAccount TokenType = "QR_ACCOUNT"
	TokenQRCard    TokenType = "QR_CARD"
)

// ParseTokenType parses a boundary token type. An empty string yields an empty type,
// meaning the kind is inferred from the token itself.
func ParseTokenType(s string) (TokenType, error) {
	t := TokenType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case "", TokenAccount, TokenCard, TokenPhone, TokenQRAccount, TokenQRCard:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpointKind, s)
	}
}

// IsQR reports whether the token is a signed QR token.
func (t TokenType) IsQR() bool {
	return t == TokenQRAccount || t == TokenQRCard
}

// EndpointKind returns the endpoint kind a token type resolves to, if fixed.
func (t TokenType) EndpointKind() (EndpointKind, bool) {
	switch t {
	case TokenAccount, TokenQRAccount:
		return EndpointAccount, true
	case TokenCard, TokenQRCard:
		return EndpointCard, true
	default:
		return "", false
	}
}
