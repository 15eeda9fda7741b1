package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// CardUseCase handles card issuance and reads.
type CardUseCase struct {
	txManager   TxManager
	cardRepo    CardRepository
	accountRepo AccountRepository
	idGen       IDGenerator
	clock       Clock
	metrics     *metrics.Metrics
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(
	txManager TxManager,
	cardRepo CardRepository,
	accountRepo AccountRepository,
	idGen IDGenerator,
	clock Clock,
	m *metrics.Metrics,
) *CardUseCase {
	return &CardUseCase{
		txManager:   txManager,
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		idGen:       idGen,
		clock:       clock,
		metrics:     m,
	}
}

// IssueCardInput represents input for issuing a card. When AccountNumber is set the
// card is issued against that account and inherits its currency.
type IssueCardInput struct {
	UserID        string
	Type          domain.CardType
	Currency      string
	HolderName    string
	AccountNumber string
}

// IssueCard issues a card with a Luhn-valid number for its network.
func (uc *CardUseCase) IssueCard(ctx context.Context, input IssueCardInput) (*domain.Card, error) {
	if input.Type.Prefix() == "" {
		return nil, fmt.Errorf("%w: card type %q", domain.ErrInvalidEndpointKind, input.Type)
	}

	holderName := strings.ToUpper(strings.TrimSpace(input.HolderName))
	if err := domain.ValidateAccountName(holderName); err != nil {
		return nil, err
	}

	currency := input.Currency
	if input.AccountNumber != "" {
		account, err := uc.accountRepo.GetByNumber(ctx, input.AccountNumber)
		if err != nil {
			return nil, err
		}
		if account.System || account.UserID != input.UserID {
			return nil, domain.ErrForbidden
		}
		if currency != "" && !strings.EqualFold(currency, account.Currency) {
			return nil, domain.ErrCurrencyMismatch
		}
		currency = account.Currency
	}

	currency, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := domain.GenerateCardNumber(input.Type)
		if err != nil {
			return nil, err
		}

		now := uc.clock.Now()
		card := &domain.Card{
			ID:            uc.idGen.Generate(),
			UserID:        input.UserID,
			Number:        number,
			Type:          input.Type,
			AccountNumber: input.AccountNumber,
			HolderName:    holderName,
			Currency:      currency,
			Balance:       decimal.Zero,
			ExpiresAt:     now.Add(domain.CardValidity),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
			return uc.cardRepo.Create(ctx, tx, card)
		})
		if errors.Is(err, domain.ErrNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		uc.metrics.CardIssued(string(card.Type))
		return card, nil
	}

	return nil, fmt.Errorf("card number: %w", domain.ErrNumberTaken)
}

// GetCard retrieves a card by number.
func (uc *CardUseCase) GetCard(ctx context.Context, number string) (*domain.Card, error) {
	return uc.cardRepo.GetByNumber(ctx, number)
}

// ListCards lists a user's cards.
func (uc *CardUseCase) ListCards(ctx context.Context, userID string) ([]*domain.Card, error) {
	return uc.cardRepo.ListByUser(ctx, userID)
}
