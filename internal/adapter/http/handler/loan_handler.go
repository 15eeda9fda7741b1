package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	CreateLoan(ctx context.Context, input usecase.CreateLoanInput) (*domain.Loan, error)
	PayLoan(ctx context.Context, input usecase.PayLoanInput) (*domain.Loan, error)
	CloseLoan(ctx context.Context, loanID string, from domain.Endpoint) (*domain.Loan, error)
	ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error)
}

// LoanHandler handles loan requests.
type LoanHandler struct {
	loanUC   LoanService
	resolver EndpointResolver
	authz    Authorizer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService, resolver EndpointResolver, authz Authorizer) *LoanHandler {
	return &LoanHandler{
		loanUC:   loanUC,
		resolver: resolver,
		authz:    authz,
	}
}

// Create issues a loan disbursed to an endpoint the borrower owns.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateLoanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := req.Destination()
	if err != nil {
		writeDomainError(w, r, "invalid loan request", err)
		return
	}

	to, ok := ownedEndpoint(w, r, h.resolver.Resolve, h.authz, p, ref)
	if !ok {
		return
	}

	loan, err := h.loanUC.CreateLoan(r.Context(), usecase.CreateLoanInput{
		UserID:   targetUser(r, p),
		LoanName: req.LoanName,
		Option:   req.Option.ToDomain(),
		Amount:   req.Amount,
		To:       to,
	})
	if err != nil {
		writeDomainError(w, r, "failed to create loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves one of the caller's loans.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	loan, err := h.authz.AuthorizeLoan(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// List lists the caller's loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	loans, err := h.loanUC.ListLoans(r.Context(), targetUser(r, p))
	if err != nil {
		writeDomainError(w, r, "failed to list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLoansResponse{
		Loans: dto.LoansFromDomain(loans),
		Total: int64(len(loans)),
	})
}

// Update pays an installment (updateType=addAmount) or the whole remainder
// (updateType=takeAll) from the endpoint in the body.
func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	updateType, err := dto.ParseUpdateType(r.URL.Query().Get("updateType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid update type", err.Error())
		return
	}

	loan, err := h.authz.AuthorizeLoan(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get loan", err)
		return
	}

	var req dto.InstrumentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := req.Source()
	if err != nil {
		writeDomainError(w, r, "invalid payment request", err)
		return
	}

	from, ok := ownedEndpoint(w, r, h.resolver.ResolveSource, h.authz, p, ref)
	if !ok {
		return
	}

	if updateType == dto.UpdateTakeAll {
		loan, err = h.loanUC.CloseLoan(r.Context(), loan.ID, from)
	} else {
		loan, err = h.loanUC.PayLoan(r.Context(), usecase.PayLoanInput{LoanID: loan.ID, Amount: req.Amount, From: from})
	}
	if err != nil {
		writeDomainError(w, r, "failed to pay loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

type resolveFunc func(ctx context.Context, raw string, tokenType domain.TokenType) (domain.Endpoint, error)

// ownedEndpoint resolves ref and checks the caller may move money through it.
func ownedEndpoint(
	w http.ResponseWriter,
	r *http.Request,
	resolve resolveFunc,
	authz Authorizer,
	p domain.Principal,
	ref dto.EndpointRef,
) (domain.Endpoint, bool) {
	endpoint, err := resolve(r.Context(), ref.Number, ref.Type)
	if err != nil {
		writeDomainError(w, r, "failed to resolve endpoint", err)
		return domain.Endpoint{}, false
	}

	if err := authz.AuthorizeEndpoint(r.Context(), p, endpoint); err != nil {
		writeDomainError(w, r, "endpoint not accessible", err)
		return domain.Endpoint{}, false
	}

	return endpoint, true
}
