package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetDefaultByUser(ctx context.Context, userID string) (*domain.Account, error)
	GetSystem(ctx context.Context, currency string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx Tx, number string) (*domain.Account, error)
	// GetByNumbersForUpdate locks the rows in ascending number order.
	GetByNumbersForUpdate(ctx context.Context, tx Tx, numbers []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Tx, number string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateDetails(ctx context.Context, tx Tx, account *domain.Account) error
	ClearDefault(ctx context.Context, tx Tx, userID string) error
	Delete(ctx context.Context, tx Tx, number string) error
}

// CardRepository defines data access for cards.
type CardRepository interface {
	Create(ctx context.Context, tx Tx, card *domain.Card) error
	GetByNumber(ctx context.Context, number string) (*domain.Card, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Card, error)
	// GetByNumbersForUpdate locks the rows in ascending number order.
	GetByNumbersForUpdate(ctx context.Context, tx Tx, numbers []string) ([]*domain.Card, error)
	UpdateBalance(ctx context.Context, tx Tx, number string, balance decimal.Decimal, updatedAt time.Time) error
}

// TransactionRepository defines data access for the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Filter(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error)
}

// LoanRepository defines data access for loans.
type LoanRepository interface {
	Create(ctx context.Context, tx Tx, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Loan, error)
	Update(ctx context.Context, tx Tx, loan *domain.Loan) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error)
	CountActiveByName(ctx context.Context, name string) (int, error)
	CountActiveByEndpoint(ctx context.Context, endpoint domain.Endpoint) (int, error)
}

// DepositRepository defines data access for deposits.
type DepositRepository interface {
	Create(ctx context.Context, tx Tx, deposit *domain.Deposit) error
	GetByID(ctx context.Context, id string) (*domain.Deposit, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Deposit, error)
	Update(ctx context.Context, tx Tx, deposit *domain.Deposit) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Deposit, error)
	CountActiveByName(ctx context.Context, name string) (int, error)
	CountActiveByEndpoint(ctx context.Context, endpoint domain.Endpoint) (int, error)
}

// InstrumentTypeRepository defines data access for the loan and deposit catalogs.
type InstrumentTypeRepository interface {
	Create(ctx context.Context, tx Tx, t *domain.InstrumentType) error
	GetByID(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error)
	GetByName(ctx context.Context, kind domain.InstrumentKind, name string) (*domain.InstrumentType, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error)
	List(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error)
	Update(ctx context.Context, tx Tx, t *domain.InstrumentType) error
	Delete(ctx context.Context, tx Tx, kind domain.InstrumentKind, id string) error
}

// UserRepository is the read-only view of the external user store.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// CreditworthinessRepository reads the creditworthiness catalog.
type CreditworthinessRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Creditworthiness, error)
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retrier re-runs an atomic unit on retryable storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// QRCodec mints and verifies signed endpoint tokens.
type QRCodec interface {
	Encode(endpoint domain.Endpoint, ownerID string) (string, error)
	Decode(token string) (domain.Endpoint, error)
}

// Notifier delivers notifications after a mutation commits.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
