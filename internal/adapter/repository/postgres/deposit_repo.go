package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const depositColumns = `id, user_id, from_number, from_kind, currency, amount, percent, duration, deposit_name, status, start_date, end_date, version, created_at, updated_at`

// DepositRepository implements usecase.DepositRepository.
type DepositRepository struct {
	db querier
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return newDepositRepository(pool)
}

func newDepositRepository(db querier) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create creates a new deposit.
func (r *DepositRepository) Create(ctx context.Context, tx usecase.Tx, deposit *domain.Deposit) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO deposits (`+depositColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		deposit.ID,
		deposit.UserID,
		deposit.From.Number,
		string(deposit.From.Kind),
		deposit.Currency,
		decimalToNumeric(deposit.Amount),
		decimalToNumeric(deposit.Percent),
		deposit.Duration,
		deposit.DepositName,
		string(deposit.Status),
		timeToPgTimestamptz(deposit.StartDate),
		timeToPgTimestamptz(deposit.EndDate),
		deposit.Version,
		timeToPgTimestamptz(deposit.CreatedAt),
		timeToPgTimestamptz(deposit.UpdatedAt),
	)

	return err
}

// GetByID retrieves a deposit by ID.
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*domain.Deposit, error) {
	deposit, err := scanDeposit(r.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrDepositNotFound)
	}

	return deposit, nil
}

// GetByIDForUpdate retrieves a deposit by ID with a FOR UPDATE lock.
func (r *DepositRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Deposit, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	deposit, err := scanDeposit(q.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrDepositNotFound)
	}

	return deposit, nil
}

// Update persists the principal and status of a deposit.
func (r *DepositRepository) Update(ctx context.Context, tx usecase.Tx, deposit *domain.Deposit) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE deposits SET amount = $2, status = $3, version = $4, updated_at = $5
		WHERE id = $1`,
		deposit.ID,
		decimalToNumeric(deposit.Amount),
		string(deposit.Status),
		deposit.Version,
		timeToPgTimestamptz(deposit.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDepositNotFound
	}

	return nil
}

// ListByUser lists a user's deposits, newest first.
func (r *DepositRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Deposit, error) {
	rows, err := r.db.Query(ctx, `SELECT `+depositColumns+` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*domain.Deposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, deposit)
	}

	return deposits, rows.Err()
}

// CountActiveByName counts open deposits opened under a deposit type.
func (r *DepositRepository) CountActiveByName(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deposits WHERE deposit_name = $1 AND status = $2`,
		name, string(domain.StatusInProgress)).Scan(&n)

	return n, err
}

// CountActiveByEndpoint counts open deposits funded from endpoint.
func (r *DepositRepository) CountActiveByEndpoint(ctx context.Context, endpoint domain.Endpoint) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deposits WHERE from_kind = $1 AND from_number = $2 AND status = $3`,
		string(endpoint.Kind), endpoint.Number, string(domain.StatusInProgress)).Scan(&n)

	return n, err
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var (
		deposit          domain.Deposit
		fromKind, status string
		amount, percent  pgtype.Numeric
	)

	err := row.Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.From.Number,
		&fromKind,
		&deposit.Currency,
		&amount,
		&percent,
		&deposit.Duration,
		&deposit.DepositName,
		&status,
		&deposit.StartDate,
		&deposit.EndDate,
		&deposit.Version,
		&deposit.CreatedAt,
		&deposit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	deposit.From.Kind = domain.EndpointKind(fromKind)
	deposit.Status = domain.InstrumentStatus(status)
	deposit.Amount = numericToDecimal(amount)
	deposit.Percent = numericToDecimal(percent)

	return &deposit, nil
}
