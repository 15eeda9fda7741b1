package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies customer accounts.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSaving  AccountType = "SAVING"
	AccountTypeSystem  AccountType = "SYSTEM"
)

// Account is a customer or bank-owned balance holder identified by its account number.
type Account struct {
	ID        string
	UserID    string
	Number    string
	Name      string
	Currency  string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	// System accounts are the bank's source/sink per currency. Their balance may
	// go negative, which represents the bank's outstanding liability.
	System    bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Endpoint returns the account's transfer endpoint.
func (a *Account) Endpoint() Endpoint {
	return AccountEndpoint(a.Number)
}

// Holder returns a balance snapshot of the account.
func (a *Account) Holder() *Holder {
	return &Holder{
		Endpoint: a.Endpoint(),
		UserID:   a.UserID,
		Currency: a.Currency,
		Balance:  a.Balance,
		Version:  a.Version,
		System:   a.System,
	}
}

// CanDelete reports whether the account may be removed.
func (a *Account) CanDelete() error {
	if a.System || !a.Balance.IsZero() {
		return ErrAccountInUse
	}
	return nil
}

// Holder is the balance-carrying side of an endpoint, as read under lock by the transfer executor.
type Holder struct {
	Endpoint  Endpoint
	UserID    string
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	System    bool
	ExpiresAt *time.Time
}

// ValidateDebit checks if the holder can be debited by amount.
func (h *Holder) ValidateDebit(amount decimal.Decimal) error {
	if h.System {
		return nil
	}
	if h.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateUsable rejects expired cards.
func (h *Holder) ValidateUsable(now time.Time) error {
	if h.ExpiresAt != nil && !now.Before(*h.ExpiresAt) {
		return ErrCardExpired
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (h *Holder) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return h.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (h *Holder) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return h.Balance.Add(amount)
}
