package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// DepositService defines the behavior needed by DepositHandler.
type DepositService interface {
	CreateDeposit(ctx context.Context, input usecase.CreateDepositInput) (*domain.Deposit, error)
	AddAmount(ctx context.Context, input usecase.AddAmountInput) (*domain.Deposit, error)
	TakeAll(ctx context.Context, depositID string) (*domain.Deposit, error)
	PreviewPayout(ctx context.Context, depositID string) (decimal.Decimal, error)
	ListDeposits(ctx context.Context, userID string) ([]*domain.Deposit, error)
}

// DepositHandler handles deposit requests.
type DepositHandler struct {
	depositUC DepositService
	resolver  EndpointResolver
	authz     Authorizer
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositUC DepositService, resolver EndpointResolver, authz Authorizer) *DepositHandler {
	return &DepositHandler{
		depositUC: depositUC,
		resolver:  resolver,
		authz:     authz,
	}
}

// Create opens a deposit funded from an endpoint the caller owns.
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateDepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := req.Source()
	if err != nil {
		writeDomainError(w, r, "invalid deposit request", err)
		return
	}

	from, ok := ownedEndpoint(w, r, h.resolver.ResolveSource, h.authz, p, ref)
	if !ok {
		return
	}

	deposit, err := h.depositUC.CreateDeposit(r.Context(), usecase.CreateDepositInput{
		UserID:      targetUser(r, p),
		DepositName: req.DepositName,
		Option:      req.Option.ToDomain(),
		Amount:      req.Amount,
		From:        from,
	})
	if err != nil {
		writeDomainError(w, r, "failed to create deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositFromDomain(deposit))
}

// Get retrieves one of the caller's deposits with the payout takeAll would return now.
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	deposit, err := h.authz.AuthorizeDeposit(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get deposit", err)
		return
	}

	resp := dto.DepositFromDomain(deposit)
	if !deposit.IsClosed() {
		payout, err := h.depositUC.PreviewPayout(r.Context(), deposit.ID)
		if err != nil {
			writeDomainError(w, r, "failed to preview payout", err)
			return
		}
		resp.Payout = &payout
	}

	writeJSON(w, http.StatusOK, resp)
}

// List lists the caller's deposits.
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	deposits, err := h.depositUC.ListDeposits(r.Context(), targetUser(r, p))
	if err != nil {
		writeDomainError(w, r, "failed to list deposits", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListDepositsResponse{
		Deposits: dto.DepositsFromDomain(deposits),
		Total:    int64(len(deposits)),
	})
}

// Update tops up a deposit (updateType=addAmount) or withdraws it with interest
// back to its funding endpoint (updateType=takeAll, no body required).
func (h *DepositHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	updateType, err := dto.ParseUpdateType(r.URL.Query().Get("updateType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid update type", err.Error())
		return
	}

	deposit, err := h.authz.AuthorizeDeposit(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get deposit", err)
		return
	}

	if updateType == dto.UpdateTakeAll {
		deposit, err = h.depositUC.TakeAll(r.Context(), deposit.ID)
		if err != nil {
			writeDomainError(w, r, "failed to withdraw deposit", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.DepositFromDomain(deposit))
		return
	}

	var req dto.InstrumentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := req.Source()
	if err != nil {
		writeDomainError(w, r, "invalid top-up request", err)
		return
	}

	from, ok := ownedEndpoint(w, r, h.resolver.ResolveSource, h.authz, p, ref)
	if !ok {
		return
	}

	deposit, err = h.depositUC.AddAmount(r.Context(), usecase.AddAmountInput{DepositID: deposit.ID, Amount: req.Amount, From: from})
	if err != nil {
		writeDomainError(w, r, "failed to top up deposit", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DepositFromDomain(deposit))
}
