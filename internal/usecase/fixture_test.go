package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/repository/memory"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/usecase"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

const period = 24 * time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []*domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recordingNotifier) ofType(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notes {
		if n.Type == kind {
			count++
		}
	}
	return count
}

// bank wires every use case over one in-memory store.
type bank struct {
	store    *memory.Store
	clock    *fakeClock
	notifier *recordingNotifier
	accounts usecase.AccountRepository

	resolver  *usecase.EndpointResolver
	authz     *usecase.Authorizer
	accountUC *usecase.AccountUseCase
	cardUC    *usecase.CardUseCase
	transfers *usecase.TransferUseCase
	queries   *usecase.TransactionQueryUseCase
	qr        *usecase.QRUseCase
	loans     *usecase.LoanUseCase
	deposits  *usecase.DepositUseCase
	catalog   *usecase.CatalogUseCase
}

func newBank(t *testing.T) *bank {
	t.Helper()

	store := memory.NewStore(5 * time.Second)
	clock := &fakeClock{now: epoch}
	notifier := &recordingNotifier{}
	ids := &seqIDs{}
	policy := domain.NewInterestPolicy(period)

	txManager := memory.NewTxManager(store)
	accounts := memory.NewAccountRepository(store)
	cards := memory.NewCardRepository(store)
	transactions := memory.NewTransactionRepository(store)
	loans := memory.NewLoanRepository(store)
	deposits := memory.NewDepositRepository(store)
	types := memory.NewInstrumentTypeRepository(store)
	users := memory.NewUserRepository(store)
	states := memory.NewCreditworthinessRepository(store)

	codec := auth.NewQRCodec(auth.NewSigner("test-secret"), time.Minute)
	resolver := usecase.NewEndpointResolver(accounts, cards, users, codec)
	transfers := usecase.NewTransferUseCase(txManager, accounts, cards, transactions, resolver, ids, nil, notifier, clock, nil)
	gate := usecase.NewCreditworthinessGate(users, states)

	b := &bank{
		store:     store,
		clock:     clock,
		notifier:  notifier,
		accounts:  accounts,
		resolver:  resolver,
		authz:     usecase.NewAuthorizer(resolver, loans, deposits),
		accountUC: usecase.NewAccountUseCase(txManager, accounts, loans, deposits, ids, clock, nil),
		cardUC:    usecase.NewCardUseCase(txManager, cards, accounts, ids, clock, nil),
		transfers: transfers,
		queries:   usecase.NewTransactionQueryUseCase(transactions),
		qr:        usecase.NewQRUseCase(resolver, codec, nil),
		loans:     usecase.NewLoanUseCase(txManager, loans, types, gate, resolver, transfers, ids, nil, notifier, clock, policy, nil),
		deposits:  usecase.NewDepositUseCase(txManager, deposits, types, resolver, transfers, ids, nil, notifier, clock, policy, nil),
		catalog:   usecase.NewCatalogUseCase(txManager, types, loans, deposits, ids, nil, time.Minute, clock, nil),
	}

	store.PutCreditworthiness(&domain.Creditworthiness{ID: "good", Name: "Good", CanGetLoan: true})
	store.PutCreditworthiness(&domain.Creditworthiness{ID: "blocked", Name: "Blocked", Order: 3, CanGetLoan: false})

	if err := b.accountUC.EnsureSystemAccounts(context.Background(), []string{"USD", "EUR"}); err != nil {
		t.Fatalf("failed to create bank accounts: %v", err)
	}

	return b
}

func (b *bank) user(id, phone, state string) {
	b.store.PutUser(&domain.User{ID: id, Phone: phone, Role: domain.RoleUser, CreditworthinessID: state, Active: true})
}

func (b *bank) openAccount(t *testing.T, userID, currency string) *domain.Account {
	t.Helper()

	acc, err := b.accountUC.CreateAccount(context.Background(), usecase.CreateAccountInput{
		UserID:   userID,
		Name:     "Main",
		Currency: currency,
	})
	if err != nil {
		t.Fatalf("failed to open account: %v", err)
	}
	return acc
}

// fund credits endpoint from the bank account of its currency.
func (b *bank) fund(t *testing.T, to domain.Endpoint, currency string, amount int64) {
	t.Helper()

	ctx := context.Background()
	from, err := b.transfers.SystemEndpoint(ctx, currency)
	if err != nil {
		t.Fatalf("no bank account: %v", err)
	}
	if _, err := b.transfers.Execute(ctx, usecase.ExecuteInput{From: from, To: to, Amount: decimal.NewFromInt(amount)}); err != nil {
		t.Fatalf("failed to fund %s: %v", to, err)
	}
}

func (b *bank) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()

	acc, err := b.accounts.GetByNumber(context.Background(), number)
	if err != nil {
		t.Fatalf("failed to load account %s: %v", number, err)
	}
	return acc.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireBalance(t *testing.T, b *bank, number, want string) {
	t.Helper()

	if got := b.balance(t, number); !got.Equal(dec(want)) {
		t.Fatalf("account %s: expected balance %s, got %s", number, want, got)
	}
}
