package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable record of one committed transfer.
type Transaction struct {
	ID          string
	From        Endpoint
	To          Endpoint
	FromUserID  string
	ToUserID    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Done        bool
	CreatedAt   time.Time
}

// Validate validates the transfer request shape.
func (t *Transaction) Validate() error {
	if t.From == t.To {
		return ErrSameEndpoint
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// Pagination defaults for transaction queries.
const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// TransactionFilter narrows the transaction log. Exactly one of AccountNumber,
// CardNumber and UserID scopes the query.
type TransactionFilter struct {
	DateFrom            *time.Time
	DateTo              *time.Time
	AccountNumber       string
	CardNumber          string
	UserID              string
	AmountMin           decimal.Decimal
	AmountMax           *decimal.Decimal
	IsCredit            *bool
	IsDone              *bool
	DescriptionContains string
	Page                int
	Size                int
}

// Normalize applies defaults: page is 1-based, size defaults to 15, amountMin to 0.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	if f.AmountMin.IsNegative() {
		f.AmountMin = decimal.Zero
	}
}

// Validate rejects unscoped or ambiguously scoped queries.
func (f *TransactionFilter) Validate() error {
	scopes := 0
	for _, s := range []string{f.AccountNumber, f.CardNumber, f.UserID} {
		if s != "" {
			scopes++
		}
	}
	if scopes != 1 {
		return ErrUnscopedQuery
	}
	return nil
}

// Offset returns the zero-based row offset of the page.
func (f *TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Size
}

// ScopeEndpoint returns the endpoint the filter is scoped to, if any.
func (f *TransactionFilter) ScopeEndpoint() (Endpoint, bool) {
	switch {
	case f.AccountNumber != "":
		return AccountEndpoint(f.AccountNumber), true
	case f.CardNumber != "":
		return CardEndpoint(f.CardNumber), true
	default:
		return Endpoint{}, false
	}
}

// Matches reports whether t satisfies the filter. A transaction is a credit for the
// scope when money arrives at the scoped endpoint or user.
func (f *TransactionFilter) Matches(t *Transaction) bool {
	var incoming, outgoing bool
	if ep, ok := f.ScopeEndpoint(); ok {
		incoming, outgoing = t.To == ep, t.From == ep
	} else {
		incoming, outgoing = t.ToUserID == f.UserID, t.FromUserID == f.UserID
	}
	if !incoming && !outgoing {
		return false
	}
	if f.IsCredit != nil {
		if *f.IsCredit && !incoming {
			return false
		}
		if !*f.IsCredit && !outgoing {
			return false
		}
	}
	if f.DateFrom != nil && t.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.CreatedAt.After(*f.DateTo) {
		return false
	}
	if t.Amount.LessThan(f.AmountMin) {
		return false
	}
	if f.AmountMax != nil && t.Amount.GreaterThan(*f.AmountMax) {
		return false
	}
	if f.IsDone != nil && t.Done != *f.IsDone {
		return false
	}
	if f.DescriptionContains != "" &&
		!strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.DescriptionContains)) {
		return false
	}
	return true
}

// TransactionPage is one page of a filtered transaction query.
type TransactionPage struct {
	Items []*Transaction
	Page  int
	Size  int
	Total int64
}
