package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Number:    a.Number,
		Name:      a.Name,
		Currency:  a.Currency,
		Type:      string(a.Type),
		Balance:   a.Balance,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Number        string          `json:"number"`
	Type          string          `json:"type"`
	AccountNumber string          `json:"account_number,omitempty"`
	HolderName    string          `json:"holder_name"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	ExpiresAt     time.Time       `json:"expires_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CardFromDomain converts domain card to response.
func CardFromDomain(c *domain.Card) *CardResponse {
	return &CardResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		Number:        c.Number,
		Type:          string(c.Type),
		AccountNumber: c.AccountNumber,
		HolderName:    c.HolderName,
		Currency:      c.Currency,
		Balance:       c.Balance,
		ExpiresAt:     c.ExpiresAt,
		CreatedAt:     c.CreatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []*domain.Card) []*CardResponse {
	result := make([]*CardResponse, len(cards))
	for i, c := range cards {
		result[i] = CardFromDomain(c)
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string          `json:"id"`
	From        domain.Endpoint `json:"from"`
	To          domain.Endpoint `json:"to"`
	FromUserID  string          `json:"from_user_id"`
	ToUserID    string          `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Done        bool            `json:"done"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		From:        t.From,
		To:          t.To,
		FromUserID:  t.FromUserID,
		ToUserID:    t.ToUserID,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Description: t.Description,
		Done:        t.Done,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionPageResponse is one page of filtered transactions.
type TransactionPageResponse struct {
	Items []*TransactionResponse `json:"items"`
	Page  int                    `json:"page"`
	Size  int                    `json:"size"`
	Total int64                  `json:"total"`
}

// TransactionPageFromDomain converts a domain page to response.
func TransactionPageFromDomain(p *domain.TransactionPage) *TransactionPageResponse {
	items := make([]*TransactionResponse, len(p.Items))
	for i, t := range p.Items {
		items[i] = TransactionFromDomain(t)
	}
	return &TransactionPageResponse{Items: items, Page: p.Page, Size: p.Size, Total: p.Total}
}

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	To           domain.Endpoint `json:"to"`
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	StayedAmount decimal.Decimal `json:"stayed_amount"`
	Percent      decimal.Decimal `json:"percent"`
	Duration     int             `json:"duration"`
	LoanName     string          `json:"loan_name"`
	Status       string          `json:"status"`
	Payment      decimal.Decimal `json:"payment"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
}

// LoanFromDomain converts domain loan to response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		To:           l.To,
		Currency:     l.Currency,
		Amount:       l.Amount,
		StayedAmount: l.StayedAmount,
		Percent:      l.Percent,
		Duration:     l.Duration,
		LoanName:     l.LoanName,
		Status:       string(l.Status),
		Payment:      l.Payment,
		StartDate:    l.StartDate,
		EndDate:      l.EndDate,
	}
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// DepositResponse represents a deposit in API responses. Payout is the amount
// takeAll would pay right now and is only set for open deposits.
type DepositResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	From        domain.Endpoint  `json:"from"`
	Currency    string           `json:"currency"`
	Amount      decimal.Decimal  `json:"amount"`
	Percent     decimal.Decimal  `json:"percent"`
	Duration    int              `json:"duration"`
	DepositName string           `json:"deposit_name"`
	Status      string           `json:"status"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Payout      *decimal.Decimal `json:"payout,omitempty"`
}

// DepositFromDomain converts domain deposit to response.
func DepositFromDomain(d *domain.Deposit) *DepositResponse {
	return &DepositResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		From:        d.From,
		Currency:    d.Currency,
		Amount:      d.Amount,
		Percent:     d.Percent,
		Duration:    d.Duration,
		DepositName: d.DepositName,
		Status:      string(d.Status),
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
	}
}

// DepositsFromDomain converts domain deposits to responses.
func DepositsFromDomain(deposits []*domain.Deposit) []*DepositResponse {
	result := make([]*DepositResponse, len(deposits))
	for i, d := range deposits {
		result[i] = DepositFromDomain(d)
	}
	return result
}

// InstrumentTypeResponse represents a loan or deposit type in API responses.
type InstrumentTypeResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Options   []domain.Option `json:"options"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// InstrumentTypeFromDomain converts a domain type to response.
func InstrumentTypeFromDomain(t *domain.InstrumentType) *InstrumentTypeResponse {
	options := t.Options
	if options == nil {
		options = []domain.Option{}
	}
	return &InstrumentTypeResponse{
		ID:        t.ID,
		Kind:      string(t.Kind),
		Name:      t.Name,
		Options:   options,
		Available: t.Available,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// InstrumentTypesFromDomain converts domain types to responses.
func InstrumentTypesFromDomain(types []*domain.InstrumentType) []*InstrumentTypeResponse {
	result := make([]*InstrumentTypeResponse, len(types))
	for i, t := range types {
		result[i] = InstrumentTypeFromDomain(t)
	}
	return result
}

// QRResponse carries a minted QR token.
type QRResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// ListCardsResponse represents a list of cards.
type ListCardsResponse struct {
	Cards []*CardResponse `json:"cards"`
	Total int64           `json:"total"`
}

// ListLoansResponse represents a list of loans.
type ListLoansResponse struct {
	Loans []*LoanResponse `json:"loans"`
	Total int64           `json:"total"`
}

// ListDepositsResponse represents a list of deposits.
type ListDepositsResponse struct {
	Deposits []*DepositResponse `json:"deposits"`
	Total    int64              `json:"total"`
}

// ListTypesResponse represents a catalog listing.
type ListTypesResponse struct {
	Types []*InstrumentTypeResponse `json:"types"`
	Total int64                     `json:"total"`
}
