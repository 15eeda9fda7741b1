package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const cardColumns = `id, user_id, number, type, account_number, holder_name, currency, balance, expires_at, version, created_at, updated_at`

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	db querier
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return newCardRepository(pool)
}

func newCardRepository(db querier) *CardRepository {
	return &CardRepository{db: db}
}

// Create creates a new card.
func (r *CardRepository) Create(ctx context.Context, tx usecase.Tx, card *domain.Card) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		card.ID,
		card.UserID,
		card.Number,
		string(card.Type),
		textOrNull(card.AccountNumber),
		card.HolderName,
		card.Currency,
		decimalToNumeric(card.Balance),
		timeToPgTimestamptz(card.ExpiresAt),
		card.Version,
		timeToPgTimestamptz(card.CreatedAt),
		timeToPgTimestamptz(card.UpdatedAt),
	)
	if pgCode(err) == pgErrUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrNumberTaken, card.Number)
	}

	return err
}

// GetByNumber retrieves a card by number.
func (r *CardRepository) GetByNumber(ctx context.Context, number string) (*domain.Card, error) {
	card, err := scanCard(r.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE number = $1`, number))
	if err != nil {
		return nil, notFound(err, domain.ErrCardNotFound)
	}

	return card, nil
}

// ListByUser lists a user's cards, oldest first.
func (r *CardRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Card, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY created_at, number`, userID)
	if err != nil {
		return nil, err
	}

	return collectCards(rows)
}

// GetByNumbersForUpdate locks the rows in ascending number order.
func (r *CardRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Tx, numbers []string) ([]*domain.Card, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE number = ANY($1)
		ORDER BY number
		FOR UPDATE`, numbers)
	if err != nil {
		return nil, err
	}

	return collectCards(rows)
}

// UpdateBalance updates the balance of a card.
func (r *CardRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, number string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE cards SET balance = $2, version = version + 1, updated_at = $3
		WHERE number = $1`,
		number, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if pgCode(err) == pgErrCheckViolation {
		return fmt.Errorf("%w: card %s", domain.ErrInsufficientFunds, number)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var (
		card          domain.Card
		cardType      string
		accountNumber pgtype.Text
		balance       pgtype.Numeric
	)

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.Number,
		&cardType,
		&accountNumber,
		&card.HolderName,
		&card.Currency,
		&balance,
		&card.ExpiresAt,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Type = domain.CardType(cardType)
	card.AccountNumber = accountNumber.String
	card.Balance = numericToDecimal(balance)

	return &card, nil
}

func collectCards(rows pgx.Rows) ([]*domain.Card, error) {
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}
