package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CardType is the payment network of a card; it determines the number prefix.
type CardType string

const (
	CardTypeVisa       CardType = "VISA"
	CardTypeMasterCard CardType = "MASTERCARD"
	CardTypeArca       CardType = "ARCA"
)

// CardValidity is how long an issued card stays usable.
const CardValidity = 4 * 365 * 24 * time.Hour

// Prefix returns the leading digit of card numbers for the type.
func (t CardType) Prefix() string {
	switch t {
	case CardTypeVisa:
		return "4"
	case CardTypeMasterCard:
		return "5"
	case CardTypeArca:
		return "9"
	default:
		return ""
	}
}

// ParseCardType parses a card type name.
func ParseCardType(s string) (CardType, error) {
	t := CardType(strings.ToUpper(strings.TrimSpace(s)))
	if t.Prefix() == "" {
		return "", fmt.Errorf("%w: unknown card type %q", ErrInvalidEndpointKind, s)
	}
	return t, nil
}

// Card carries its own balance and currency. AccountNumber optionally records the
// account it was issued against; it does not share that account's balance.
type Card struct {
	ID            string
	UserID        string
	Number        string
	Type          CardType
	AccountNumber string
	HolderName    string
	Currency      string
	Balance       decimal.Decimal
	ExpiresAt     time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Endpoint returns the card's transfer endpoint.
func (c *Card) Endpoint() Endpoint {
	return CardEndpoint(c.Number)
}

// Expired reports whether the card is past its expiration at now.
func (c *Card) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Holder returns a balance snapshot of the card.
func (c *Card) Holder() *Holder {
	expires := c.ExpiresAt
	return &Holder{
		Endpoint:  c.Endpoint(),
		UserID:    c.UserID,
		Currency:  c.Currency,
		Balance:   c.Balance,
		Version:   c.Version,
		ExpiresAt: &expires,
	}
}
