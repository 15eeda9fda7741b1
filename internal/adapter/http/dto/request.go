package dto

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ErrInvalidQuery is returned for malformed query parameters.
var ErrInvalidQuery = errors.New("invalid query parameter")

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Type     string `json:"type,omitempty"`
}

// ToUseCaseInput converts to use case input for userID.
func (r *CreateAccountRequest) ToUseCaseInput(userID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		UserID:   userID,
		Name:     r.Name,
		Currency: r.Currency,
		Type:     domain.AccountType(strings.ToUpper(r.Type)),
	}
}

// RenameAccountRequest represents a request to rename an account.
type RenameAccountRequest struct {
	Name string `json:"name"`
}

// IssueCardRequest represents a request to issue a card.
type IssueCardRequest struct {
	Type          string `json:"type"`
	Currency      string `json:"currency"`
	HolderName    string `json:"holder_name"`
	AccountNumber string `json:"account_number,omitempty"`
}

// ToUseCaseInput converts to use case input for userID.
func (r *IssueCardRequest) ToUseCaseInput(userID string) usecase.IssueCardInput {
	return usecase.IssueCardInput{
		UserID:        userID,
		Type:          domain.CardType(strings.ToUpper(r.Type)),
		Currency:      r.Currency,
		HolderName:    r.HolderName,
		AccountNumber: r.AccountNumber,
	}
}

// CreateTransferRequest represents a transaction creation request. FromType is
// optional; Type describes To and is inferred when empty.
type CreateTransferRequest struct {
	From        string          `json:"from"`
	FromType    string          `json:"fromType,omitempty"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        string          `json:"type,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.CreateTransferInput, error) {
	toType, err := optionalTokenType(r.Type)
	if err != nil {
		return usecase.CreateTransferInput{}, err
	}
	fromType, err := optionalTokenType(r.FromType)
	if err != nil {
		return usecase.CreateTransferInput{}, err
	}
	if err := domain.ValidateAmountScale(r.Amount); err != nil {
		return usecase.CreateTransferInput{}, err
	}

	return usecase.CreateTransferInput{
		From:        strings.TrimSpace(r.From),
		FromType:    fromType,
		To:          strings.TrimSpace(r.To),
		Type:        toType,
		Amount:      r.Amount,
		Description: r.Description,
	}, nil
}

func optionalTokenType(s string) (domain.TokenType, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseTokenType(s)
}

// EndpointRef is a raw endpoint token with an optional declared type.
type EndpointRef struct {
	Number string
	Type   domain.TokenType
}

// OptionRequest selects a (duration, percent) pair.
type OptionRequest struct {
	Duration int             `json:"duration"`
	Percent  decimal.Decimal `json:"percent"`
}

// ToDomain converts to a domain option.
func (o OptionRequest) ToDomain() domain.Option {
	return domain.Option{Duration: o.Duration, Percent: o.Percent}
}

// CreateLoanRequest represents a loan application disbursed to To.
type CreateLoanRequest struct {
	LoanName string          `json:"loan_name"`
	Option   OptionRequest   `json:"option"`
	Amount   decimal.Decimal `json:"amount"`
	To       string          `json:"to"`
	Type     string          `json:"type,omitempty"`
}

// Destination returns the raw disbursement endpoint.
func (r *CreateLoanRequest) Destination() (EndpointRef, error) {
	t, err := optionalTokenType(r.Type)
	return EndpointRef{Number: strings.TrimSpace(r.To), Type: t}, err
}

// CreateDepositRequest represents a deposit funded from From.
type CreateDepositRequest struct {
	DepositName string          `json:"deposit_name"`
	Option      OptionRequest   `json:"option"`
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from"`
	Type        string          `json:"type,omitempty"`
}

// Source returns the raw funding endpoint.
func (r *CreateDepositRequest) Source() (EndpointRef, error) {
	t, err := optionalTokenType(r.Type)
	return EndpointRef{Number: strings.TrimSpace(r.From), Type: t}, err
}

// Update types for loan and deposit payment updates.
const (
	UpdateAddAmount = "addAmount"
	UpdateTakeAll   = "takeAll"
)

// InstrumentUpdateRequest is the body of a loan payment or deposit top-up/withdrawal.
// Amount is ignored for takeAll.
type InstrumentUpdateRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	Type   string          `json:"type,omitempty"`
}

// Source returns the raw paying endpoint.
func (r *InstrumentUpdateRequest) Source() (EndpointRef, error) {
	t, err := optionalTokenType(r.Type)
	return EndpointRef{Number: strings.TrimSpace(r.From), Type: t}, err
}

// ParseUpdateType validates the updateType query parameter.
func ParseUpdateType(s string) (string, error) {
	switch s {
	case UpdateAddAmount, UpdateTakeAll:
		return s, nil
	default:
		return "", fmt.Errorf("%w: updateType must be %s or %s", ErrInvalidQuery, UpdateAddAmount, UpdateTakeAll)
	}
}

// CreateTypeRequest represents a new loan or deposit type.
type CreateTypeRequest struct {
	Name      string          `json:"name"`
	Options   []OptionRequest `json:"options"`
	Available *bool           `json:"available,omitempty"`
}

// ToUseCaseInput converts to use case input for kind. Types are available unless stated.
func (r *CreateTypeRequest) ToUseCaseInput(kind domain.InstrumentKind) usecase.CreateTypeInput {
	options := make([]domain.Option, len(r.Options))
	for i, o := range r.Options {
		options[i] = o.ToDomain()
	}

	available := true
	if r.Available != nil {
		available = *r.Available
	}

	return usecase.CreateTypeInput{
		Kind:      kind,
		Name:      r.Name,
		Options:   options,
		Available: available,
	}
}

// AvailabilityRequest toggles a type's availability.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// ParseTransactionFilter reads the transaction filter query parameters. Dates are
// RFC 3339 timestamps or plain dates; a plain dateTo covers the whole day.
func ParseTransactionFilter(q url.Values) (domain.TransactionFilter, error) {
	f := domain.TransactionFilter{
		AccountNumber:       strings.TrimSpace(q.Get("accountNumber")),
		CardNumber:          strings.TrimSpace(q.Get("cardNumber")),
		UserID:              strings.TrimSpace(q.Get("userId")),
		DescriptionContains: q.Get("description"),
	}

	var err error
	if f.DateFrom, err = parseDate(q.Get("dateFrom"), false); err != nil {
		return f, fmt.Errorf("%w: dateFrom: %v", ErrInvalidQuery, err)
	}
	if f.DateTo, err = parseDate(q.Get("dateTo"), true); err != nil {
		return f, fmt.Errorf("%w: dateTo: %v", ErrInvalidQuery, err)
	}

	if s := q.Get("amountMin"); s != "" {
		if f.AmountMin, err = decimal.NewFromString(s); err != nil {
			return f, fmt.Errorf("%w: amountMin: %v", ErrInvalidQuery, err)
		}
	}
	if s := q.Get("amountMax"); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return f, fmt.Errorf("%w: amountMax: %v", ErrInvalidQuery, err)
		}
		f.AmountMax = &v
	}

	if f.IsCredit, err = parseBool(q.Get("isCredit")); err != nil {
		return f, fmt.Errorf("%w: isCredit: %v", ErrInvalidQuery, err)
	}
	if f.IsDone, err = parseBool(q.Get("isDone")); err != nil {
		return f, fmt.Errorf("%w: isDone: %v", ErrInvalidQuery, err)
	}

	if f.Page, err = parseInt(q.Get("page")); err != nil {
		return f, fmt.Errorf("%w: page: %v", ErrInvalidQuery, err)
	}
	if f.Size, err = parseInt(q.Get("size")); err != nil {
		return f, fmt.Errorf("%w: size: %v", ErrInvalidQuery, err)
	}

	f.Normalize()
	return f, nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
