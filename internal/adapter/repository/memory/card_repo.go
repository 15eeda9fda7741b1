package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	store *Store
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(store *Store) *CardRepository {
	return &CardRepository{store: store}
}

func cardKey(number string) string { return "card:" + number }

func committedCard(number string) func(s *Store) *domain.Card {
	return func(s *Store) *domain.Card { return s.cards[number] }
}

// Create creates a new card.
func (r *CardRepository) Create(ctx context.Context, tx usecase.Tx, card *domain.Card) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	key := cardKey(card.Number)
	if err := t.lock(ctx, key); err != nil {
		return err
	}
	if get(t, key, committedCard(card.Number)) != nil {
		return fmt.Errorf("%w: %s", domain.ErrNumberTaken, card.Number)
	}

	put(t, key, card, func(s *Store, c *domain.Card) { s.cards[c.Number] = c })
	return nil
}

// GetByNumber retrieves a card by number.
func (r *CardRepository) GetByNumber(_ context.Context, number string) (*domain.Card, error) {
	var card *domain.Card
	r.store.read(func() { card = copyOf(r.store.cards[number]) })
	if card == nil {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}

// ListByUser lists a user's cards, oldest first.
func (r *CardRepository) ListByUser(_ context.Context, userID string) ([]*domain.Card, error) {
	var cards []*domain.Card
	r.store.read(func() {
		for _, c := range r.store.cards {
			if c.UserID == userID {
				cards = append(cards, copyOf(c))
			}
		}
	})
	slices.SortFunc(cards, func(a, b *domain.Card) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return cards, nil
}

// GetByNumbersForUpdate locks the rows in ascending number order.
func (r *CardRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Tx, numbers []string) ([]*domain.Card, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	var cards []*domain.Card
	for _, number := range sortedUnique(numbers) {
		if err := t.lock(ctx, cardKey(number)); err != nil {
			return nil, err
		}
		if c := get(t, cardKey(number), committedCard(number)); c != nil {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// UpdateBalance updates the balance of a locked card.
func (r *CardRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, number string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if balance.IsNegative() {
		return fmt.Errorf("%w: card %s", domain.ErrInsufficientFunds, number)
	}

	key := cardKey(number)
	if err := t.lock(ctx, key); err != nil {
		return err
	}
	card := get(t, key, committedCard(number))
	if card == nil {
		return domain.ErrCardNotFound
	}

	card.Balance = balance
	card.Version++
	card.UpdatedAt = updatedAt
	put(t, key, card, func(s *Store, c *domain.Card) { s.cards[c.Number] = c })
	return nil
}
