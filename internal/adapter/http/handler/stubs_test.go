package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type authorizerStub struct {
	endpointFn func(ctx context.Context, p domain.Principal, ep domain.Endpoint) error
	loanFn     func(ctx context.Context, p domain.Principal, id string) (*domain.Loan, error)
	depositFn  func(ctx context.Context, p domain.Principal, id string) (*domain.Deposit, error)
	scopeFn    func(ctx context.Context, p domain.Principal, f *domain.TransactionFilter) error
}

func (s *authorizerStub) AuthorizeEndpoint(ctx context.Context, p domain.Principal, ep domain.Endpoint) error {
	if s.endpointFn == nil {
		return nil
	}
	return s.endpointFn(ctx, p, ep)
}

func (s *authorizerStub) AuthorizeUser(p domain.Principal, userID string) error {
	if !p.CanAccess(userID) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *authorizerStub) AuthorizeLoan(ctx context.Context, p domain.Principal, id string) (*domain.Loan, error) {
	return s.loanFn(ctx, p, id)
}

func (s *authorizerStub) AuthorizeDeposit(ctx context.Context, p domain.Principal, id string) (*domain.Deposit, error) {
	return s.depositFn(ctx, p, id)
}

func (s *authorizerStub) ScopeFilter(ctx context.Context, p domain.Principal, f *domain.TransactionFilter) error {
	if s.scopeFn == nil {
		return nil
	}
	return s.scopeFn(ctx, p, f)
}

// resolverStub resolves every token to an account with the same number.
type resolverStub struct {
	err error
}

func (s *resolverStub) Resolve(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error) {
	if s.err != nil {
		return domain.Endpoint{}, s.err
	}
	if tokenType == domain.TokenCard {
		return domain.CardEndpoint(raw), nil
	}
	return domain.AccountEndpoint(raw), nil
}

func (s *resolverStub) ResolveSource(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error) {
	if tokenType == domain.TokenPhone {
		return domain.Endpoint{}, domain.ErrPhoneAsSource
	}
	return s.Resolve(ctx, raw, tokenType)
}

type loanServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateLoanInput) (*domain.Loan, error)
	payFn    func(ctx context.Context, input usecase.PayLoanInput) (*domain.Loan, error)
	closeFn  func(ctx context.Context, id string, from domain.Endpoint) (*domain.Loan, error)
	listFn   func(ctx context.Context, userID string) ([]*domain.Loan, error)
}

func (s *loanServiceStub) CreateLoan(ctx context.Context, input usecase.CreateLoanInput) (*domain.Loan, error) {
	return s.createFn(ctx, input)
}

func (s *loanServiceStub) PayLoan(ctx context.Context, input usecase.PayLoanInput) (*domain.Loan, error) {
	return s.payFn(ctx, input)
}

func (s *loanServiceStub) CloseLoan(ctx context.Context, id string, from domain.Endpoint) (*domain.Loan, error) {
	return s.closeFn(ctx, id, from)
}

func (s *loanServiceStub) ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error) {
	return s.listFn(ctx, userID)
}

type depositServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateDepositInput) (*domain.Deposit, error)
	addFn     func(ctx context.Context, input usecase.AddAmountInput) (*domain.Deposit, error)
	takeAllFn func(ctx context.Context, id string) (*domain.Deposit, error)
	previewFn func(ctx context.Context, id string) (decimal.Decimal, error)
	listFn    func(ctx context.Context, userID string) ([]*domain.Deposit, error)
}

func (s *depositServiceStub) CreateDeposit(ctx context.Context, input usecase.CreateDepositInput) (*domain.Deposit, error) {
	return s.createFn(ctx, input)
}

func (s *depositServiceStub) AddAmount(ctx context.Context, input usecase.AddAmountInput) (*domain.Deposit, error) {
	return s.addFn(ctx, input)
}

func (s *depositServiceStub) TakeAll(ctx context.Context, id string) (*domain.Deposit, error) {
	return s.takeAllFn(ctx, id)
}

func (s *depositServiceStub) PreviewPayout(ctx context.Context, id string) (decimal.Decimal, error) {
	return s.previewFn(ctx, id)
}

func (s *depositServiceStub) ListDeposits(ctx context.Context, userID string) ([]*domain.Deposit, error) {
	return s.listFn(ctx, userID)
}
