package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, number string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	RenameAccount(ctx context.Context, number, name string) (*domain.Account, error)
	SetDefaultAccount(ctx context.Context, number string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, number string) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens an account for the caller, or for ?userId when the caller is an admin.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(targetUser(r, p)))
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by number.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := h.owned(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), targetUser(r, p))
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Rename changes an account's display name.
func (h *AccountHandler) Rename(w http.ResponseWriter, r *http.Request) {
	account, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req dto.RenameAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.RenameAccount(r.Context(), account.Number, req.Name)
	if err != nil {
		writeDomainError(w, r, "failed to rename account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// SetDefault makes an account its owner's default.
func (h *AccountHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	account, ok := h.owned(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.SetDefaultAccount(r.Context(), account.Number)
	if err != nil {
		writeDomainError(w, r, "failed to set default account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete closes an empty account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.accountUC.DeleteAccount(r.Context(), account.Number); err != nil {
		writeDomainError(w, r, "failed to delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// owned loads the account named in the path and checks the caller may use it.
func (h *AccountHandler) owned(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, false
	}

	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "missing account number", "")
		return nil, false
	}

	account, err := h.accountUC.GetAccount(r.Context(), number)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return nil, false
	}

	if !p.CanAccess(account.UserID) {
		writeDomainError(w, r, "account not accessible", domain.ErrForbidden)
		return nil, false
	}

	return account, true
}
