package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	IssueCard(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error)
	GetCard(ctx context.Context, number string) (*domain.Card, error)
	ListCards(ctx context.Context, userID string) ([]*domain.Card, error)
}

// CardHandler handles card requests.
type CardHandler struct {
	cardUC CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardUC CardService) *CardHandler {
	return &CardHandler{cardUC: cardUC}
}

// Issue issues a card to the caller, or to ?userId when the caller is an admin.
func (h *CardHandler) Issue(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.IssueCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.cardUC.IssueCard(r.Context(), req.ToUseCaseInput(targetUser(r, p)))
	if err != nil {
		writeDomainError(w, r, "failed to issue card", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CardFromDomain(card))
}

// Get retrieves a card by number.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	card, err := h.cardUC.GetCard(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeDomainError(w, r, "failed to get card", err)
		return
	}

	if !p.CanAccess(card.UserID) {
		writeDomainError(w, r, "card not accessible", domain.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// List lists the caller's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	cards, err := h.cardUC.ListCards(r.Context(), targetUser(r, p))
	if err != nil {
		writeDomainError(w, r, "failed to list cards", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCardsResponse{
		Cards: dto.CardsFromDomain(cards),
		Total: int64(len(cards)),
	})
}
