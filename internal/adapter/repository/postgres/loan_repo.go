package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const loanColumns = `id, user_id, to_number, to_kind, currency, amount, stayed_amount, percent, duration, loan_name, status, payment, start_date, end_date, version, created_at, updated_at`

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	db querier
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return newLoanRepository(pool)
}

func newLoanRepository(db querier) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create creates a new loan.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Tx, loan *domain.Loan) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		loan.ID,
		loan.UserID,
		loan.To.Number,
		string(loan.To.Kind),
		loan.Currency,
		decimalToNumeric(loan.Amount),
		decimalToNumeric(loan.StayedAmount),
		decimalToNumeric(loan.Percent),
		loan.Duration,
		loan.LoanName,
		string(loan.Status),
		decimalToNumeric(loan.Payment),
		timeToPgTimestamptz(loan.StartDate),
		timeToPgTimestamptz(loan.EndDate),
		loan.Version,
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}

	return loan, nil
}

// GetByIDForUpdate retrieves a loan by ID with a FOR UPDATE lock.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Loan, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	loan, err := scanLoan(q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}

	return loan, nil
}

// Update persists the repayment state of a loan.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Tx, loan *domain.Loan) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE loans SET stayed_amount = $2, status = $3, version = $4, updated_at = $5
		WHERE id = $1`,
		loan.ID,
		decimalToNumeric(loan.StayedAmount),
		string(loan.Status),
		loan.Version,
		timeToPgTimestamptz(loan.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}

	return nil
}

// ListByUser lists a user's loans, newest first.
func (r *LoanRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

// CountActiveByName counts open loans issued under a loan type.
func (r *LoanRepository) CountActiveByName(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE loan_name = $1 AND status = $2`,
		name, string(domain.StatusInProgress)).Scan(&n)

	return n, err
}

// CountActiveByEndpoint counts open loans paying out to endpoint.
func (r *LoanRepository) CountActiveByEndpoint(ctx context.Context, endpoint domain.Endpoint) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE to_kind = $1 AND to_number = $2 AND status = $3`,
		string(endpoint.Kind), endpoint.Number, string(domain.StatusInProgress)).Scan(&n)

	return n, err
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan                             domain.Loan
		toKind, status                   string
		amount, stayed, percent, payment pgtype.Numeric
	)

	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.To.Number,
		&toKind,
		&loan.Currency,
		&amount,
		&stayed,
		&percent,
		&loan.Duration,
		&loan.LoanName,
		&status,
		&payment,
		&loan.StartDate,
		&loan.EndDate,
		&loan.Version,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.To.Kind = domain.EndpointKind(toKind)
	loan.Status = domain.InstrumentStatus(status)
	loan.Amount = numericToDecimal(amount)
	loan.StayedAmount = numericToDecimal(stayed)
	loan.Percent = numericToDecimal(percent)
	loan.Payment = numericToDecimal(payment)

	return &loan, nil
}
