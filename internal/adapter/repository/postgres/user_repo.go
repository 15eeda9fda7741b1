package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
)

const userColumns = `id, email, name, phone, role, creditworthiness_id, active, created_at, updated_at`

// UserRepository reads users owned by the identity service.
type UserRepository struct {
	db querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}

	return user, nil
}

// GetByPhone retrieves an active user by normalized phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1 AND active`, phone))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user              domain.User
		phone, worthiness pgtype.Text
		role              string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&phone,
		&role,
		&worthiness,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.Role = domain.Role(role)
	user.CreditworthinessID = worthiness.String

	return &user, nil
}

// CreditworthinessRepository reads the creditworthiness catalog.
type CreditworthinessRepository struct {
	db querier
}

// NewCreditworthinessRepository creates a new CreditworthinessRepository.
func NewCreditworthinessRepository(pool *pgxpool.Pool) *CreditworthinessRepository {
	return &CreditworthinessRepository{db: pool}
}

// GetByID retrieves a creditworthiness state by ID.
func (r *CreditworthinessRepository) GetByID(ctx context.Context, id string) (*domain.Creditworthiness, error) {
	var c domain.Creditworthiness
	err := r.db.QueryRow(ctx, `
		SELECT id, ord, unblock_duration, name, can_get_loan
		FROM creditworthiness
		WHERE id = $1`, id).Scan(&c.ID, &c.Order, &c.UnblockDuration, &c.Name, &c.CanGetLoan)
	if err != nil {
		return nil, notFound(err, domain.ErrCreditworthinessMissing)
	}

	return &c, nil
}
