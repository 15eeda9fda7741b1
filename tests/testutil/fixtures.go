package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/usecase"
)

// Currencies that get a bank account in every test database.
var Currencies = []string{"USD", "EUR"}

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to TEST_DATABASE_URL (or DATABASE_URL) and migrates it.
// The test is skipped when neither is set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	migrationsPath := "migrations"
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: dbURL,
		MaxConns:    20,
		MinConns:    2,
		LockTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE transactions, loans, deposits, cards, accounts,
			instrument_types, users, creditworthiness CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// SeedCreditworthiness inserts a creditworthiness state.
func (db *TestDB) SeedCreditworthiness(ctx context.Context, id string, canGetLoan bool) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO creditworthiness (id, ord, unblock_duration, name, can_get_loan)
		VALUES ($1, 0, 0, $1, $2)`, id, canGetLoan)
	if err != nil {
		db.t.Fatalf("failed to seed creditworthiness %s: %v", id, err)
	}
}

// SeedUser inserts an active user. An empty phone is stored as NULL.
func (db *TestDB) SeedUser(ctx context.Context, id, phone, creditworthinessID string) {
	db.t.Helper()

	var phoneArg any
	if phone != "" {
		phoneArg = phone
	}

	now := time.Now().UTC()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, email, name, phone, role, creditworthiness_id, active, created_at, updated_at)
		VALUES ($1, $2, $1, $3, $4, $5, true, $6, $6)`,
		id, id+"@example.com", phoneArg, string(domain.RoleUser), creditworthinessID, now)
	if err != nil {
		db.t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// Bank is every use case wired over the PostgreSQL repositories.
type Bank struct {
	Accounts  *usecase.AccountUseCase
	Cards     *usecase.CardUseCase
	Transfers *usecase.TransferUseCase
	Queries   *usecase.TransactionQueryUseCase
	QR        *usecase.QRUseCase
	Loans     *usecase.LoanUseCase
	Deposits  *usecase.DepositUseCase
	Catalog   *usecase.CatalogUseCase

	AccountRepo *postgresRepo.AccountRepository
}

// NewBank wires the use cases over db and creates the bank accounts for
// Currencies. Call it after TruncateAll.
func (db *TestDB) NewBank(ctx context.Context, clock usecase.Clock, period time.Duration) *Bank {
	db.t.Helper()

	pool := db.Pool
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier()
	accounts := postgresRepo.NewAccountRepository(pool)
	cards := postgresRepo.NewCardRepository(pool)
	transactions := postgresRepo.NewTransactionRepository(pool)
	loans := postgresRepo.NewLoanRepository(pool)
	deposits := postgresRepo.NewDepositRepository(pool)
	types := postgresRepo.NewInstrumentTypeRepository(pool)
	users := postgresRepo.NewUserRepository(pool)
	states := postgresRepo.NewCreditworthinessRepository(pool)

	ids := idgen.NewULIDGenerator()
	policy := domain.NewInterestPolicy(period)
	codec := auth.NewQRCodec(auth.NewSigner("integration-secret"), time.Minute)
	resolver := usecase.NewEndpointResolver(accounts, cards, users, codec)
	gate := usecase.NewCreditworthinessGate(users, states)
	transfers := usecase.NewTransferUseCase(txManager, accounts, cards, transactions, resolver, ids, retrier, nil, clock, nil)

	b := &Bank{
		Accounts:    usecase.NewAccountUseCase(txManager, accounts, loans, deposits, ids, clock, nil),
		Cards:       usecase.NewCardUseCase(txManager, cards, accounts, ids, clock, nil),
		Transfers:   transfers,
		Queries:     usecase.NewTransactionQueryUseCase(transactions),
		QR:          usecase.NewQRUseCase(resolver, codec, nil),
		Loans:       usecase.NewLoanUseCase(txManager, loans, types, gate, resolver, transfers, ids, retrier, nil, clock, policy, nil),
		Deposits:    usecase.NewDepositUseCase(txManager, deposits, types, resolver, transfers, ids, retrier, nil, clock, policy, nil),
		Catalog:     usecase.NewCatalogUseCase(txManager, types, loans, deposits, ids, nil, time.Minute, clock, nil),
		AccountRepo: accounts,
	}

	if err := b.Accounts.EnsureSystemAccounts(ctx, Currencies); err != nil {
		db.t.Fatalf("failed to create bank accounts: %v", err)
	}

	return b
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
