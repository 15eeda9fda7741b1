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

const accountColumns = `id, user_id, number, name, currency, type, balance, is_default, system, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		account.ID,
		textOrNull(account.UserID),
		account.Number,
		account.Name,
		account.Currency,
		string(account.Type),
		decimalToNumeric(account.Balance),
		account.IsDefault,
		account.System,
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if pgCode(err) == pgErrUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrNumberTaken, account.Number)
	}

	return err
}

// GetByNumber retrieves an account by number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)

	account, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// GetDefaultByUser retrieves the user's default account.
func (r *AccountRepository) GetDefaultByUser(ctx context.Context, userID string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND is_default AND NOT system`, userID)

	account, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// GetSystem retrieves the bank account for a currency.
func (r *AccountRepository) GetSystem(ctx context.Context, currency string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE system AND currency = $1`, currency)

	account, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, domain.ErrSystemAccountNotFound)
	}

	return account, nil
}

// ListByUser lists a user's accounts, oldest first.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND NOT system
		ORDER BY created_at, number`, userID)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// GetByNumberForUpdate retrieves an account by number with a FOR UPDATE lock.
func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, tx usecase.Tx, number string) (*domain.Account, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	account, err := scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1 FOR UPDATE`, number))
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// GetByNumbersForUpdate locks the rows in ascending number order. Missing numbers are
// simply absent from the result.
func (r *AccountRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Tx, numbers []string) ([]*domain.Account, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE number = ANY($1)
		ORDER BY number
		FOR UPDATE`, numbers)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, number string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3
		WHERE number = $1`,
		number, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if pgCode(err) == pgErrCheckViolation {
		return fmt.Errorf("%w: account %s", domain.ErrInsufficientFunds, number)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateDetails persists the name and default flag.
func (r *AccountRepository) UpdateDetails(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE accounts SET name = $2, is_default = $3, updated_at = $4
		WHERE number = $1`,
		account.Number, account.Name, account.IsDefault, timeToPgTimestamptz(account.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ClearDefault unsets the default flag on all of the user's accounts.
func (r *AccountRepository) ClearDefault(ctx context.Context, tx usecase.Tx, userID string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `UPDATE accounts SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)

	return err
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Tx, number string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM accounts WHERE number = $1 AND NOT system`, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account     domain.Account
		userID      pgtype.Text
		accountType string
		balance     pgtype.Numeric
	)

	err := row.Scan(
		&account.ID,
		&userID,
		&account.Number,
		&account.Name,
		&account.Currency,
		&accountType,
		&balance,
		&account.IsDefault,
		&account.System,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.UserID = userID.String
	account.Type = domain.AccountType(accountType)
	account.Balance = numericToDecimal(balance)

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
