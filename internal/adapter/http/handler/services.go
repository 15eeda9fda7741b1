package handler

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// Authorizer checks ownership before a handler invokes the core.
type Authorizer interface {
	AuthorizeEndpoint(ctx context.Context, principal domain.Principal, endpoint domain.Endpoint) error
	AuthorizeUser(principal domain.Principal, userID string) error
	AuthorizeLoan(ctx context.Context, principal domain.Principal, loanID string) (*domain.Loan, error)
	AuthorizeDeposit(ctx context.Context, principal domain.Principal, depositID string) (*domain.Deposit, error)
	ScopeFilter(ctx context.Context, principal domain.Principal, filter *domain.TransactionFilter) error
}

// EndpointResolver turns raw tokens into endpoints.
type EndpointResolver interface {
	Resolve(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error)
	ResolveSource(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error)
}
