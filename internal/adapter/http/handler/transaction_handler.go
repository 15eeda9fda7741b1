package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferService defines the money movement behavior needed by TransactionHandler.
type TransferService interface {
	ResolveTransfer(ctx context.Context, input usecase.CreateTransferInput) (usecase.ExecuteInput, error)
	Execute(ctx context.Context, input usecase.ExecuteInput) (*domain.Transaction, error)
}

// TransactionQueryService defines the read behavior needed by TransactionHandler.
type TransactionQueryService interface {
	Filter(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// TransactionHandler handles transfer and transaction query requests.
type TransactionHandler struct {
	transferUC TransferService
	queryUC    TransactionQueryService
	authz      Authorizer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transferUC TransferService, queryUC TransactionQueryService, authz Authorizer) *TransactionHandler {
	return &TransactionHandler{
		transferUC: transferUC,
		queryUC:    queryUC,
		authz:      authz,
	}
}

// Create moves money between two endpoints. The caller must own the source.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid transfer request", err)
		return
	}

	resolved, err := h.transferUC.ResolveTransfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to resolve transfer", err)
		return
	}

	if err := h.authz.AuthorizeEndpoint(r.Context(), p, resolved.From); err != nil {
		writeDomainError(w, r, "transfer not allowed", err)
		return
	}

	transaction, err := h.transferUC.Execute(r.Context(), resolved)
	if err != nil {
		writeDomainError(w, r, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(transaction))
}

// List returns one page of transactions matching the query filters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	filter, err := dto.ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	if err := h.authz.ScopeFilter(r.Context(), p, &filter); err != nil {
		writeDomainError(w, r, "query not allowed", err)
		return
	}

	page, err := h.queryUC.Filter(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to query transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionPageFromDomain(page))
}

// Get returns a transaction the caller sent or received.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	transaction, err := h.queryUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get transaction", err)
		return
	}

	// Strangers get the same answer as for a missing id.
	if !p.CanAccess(transaction.FromUserID) && !p.CanAccess(transaction.ToUserID) {
		writeDomainError(w, r, "failed to get transaction", domain.ErrTransactionNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}
