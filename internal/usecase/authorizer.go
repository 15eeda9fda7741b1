package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// Authorizer is the ownership check the boundary runs before invoking the core.
// It never authenticates; the principal is already trusted.
type Authorizer struct {
	resolver    *EndpointResolver
	loanRepo    LoanRepository
	depositRepo DepositRepository
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(resolver *EndpointResolver, loanRepo LoanRepository, depositRepo DepositRepository) *Authorizer {
	return &Authorizer{
		resolver:    resolver,
		loanRepo:    loanRepo,
		depositRepo: depositRepo,
	}
}

// AuthorizeEndpoint fails with ErrForbidden unless principal may debit endpoint.
func (a *Authorizer) AuthorizeEndpoint(ctx context.Context, principal domain.Principal, endpoint domain.Endpoint) error {
	holder, err := a.resolver.Lookup(ctx, endpoint)
	if err != nil {
		return err
	}
	if !principal.CanAccess(holder.UserID) {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeUser fails with ErrForbidden unless principal may act as userID.
func (a *Authorizer) AuthorizeUser(principal domain.Principal, userID string) error {
	if !principal.CanAccess(userID) {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeLoan returns the loan if principal owns it.
func (a *Authorizer) AuthorizeLoan(ctx context.Context, principal domain.Principal, loanID string) (*domain.Loan, error) {
	loan, err := a.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccess(loan.UserID) {
		return nil, domain.ErrForbidden
	}
	return loan, nil
}

// AuthorizeDeposit returns the deposit if principal owns it.
func (a *Authorizer) AuthorizeDeposit(ctx context.Context, principal domain.Principal, depositID string) (*domain.Deposit, error) {
	deposit, err := a.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccess(deposit.UserID) {
		return nil, domain.ErrForbidden
	}
	return deposit, nil
}

// AuthorizeAdmin fails unless principal is an admin.
func (a *Authorizer) AuthorizeAdmin(principal domain.Principal) error {
	if !principal.IsAdmin() {
		return domain.ErrInsufficientRole
	}
	return nil
}

// ScopeFilter restricts a transaction query to what principal may see. Users
// without an explicit scope are scoped to themselves.
func (a *Authorizer) ScopeFilter(ctx context.Context, principal domain.Principal, filter *domain.TransactionFilter) error {
	if !principal.IsAdmin() && filter.AccountNumber == "" && filter.CardNumber == "" && filter.UserID == "" {
		filter.UserID = principal.UserID
	}

	if ep, ok := filter.ScopeEndpoint(); ok {
		return a.AuthorizeEndpoint(ctx, principal, ep)
	}
	if filter.UserID != "" {
		return a.AuthorizeUser(principal, filter.UserID)
	}
	return nil
}
