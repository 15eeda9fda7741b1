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

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func accountKey(number string) string { return "account:" + number }

func committedAccount(number string) func(s *Store) *domain.Account {
	return func(s *Store) *domain.Account { return s.accounts[number] }
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	key := accountKey(account.Number)
	if err := t.lock(ctx, key); err != nil {
		return err
	}
	if get(t, key, committedAccount(account.Number)) != nil {
		return fmt.Errorf("%w: %s", domain.ErrNumberTaken, account.Number)
	}

	if account.System {
		if err := t.lock(ctx, "account-system:"+account.Currency); err != nil {
			return err
		}
		if _, err := r.GetSystem(ctx, account.Currency); err == nil {
			return fmt.Errorf("%w: bank account for %s", domain.ErrNumberTaken, account.Currency)
		}
	}

	put(t, key, account, func(s *Store, a *domain.Account) { s.accounts[a.Number] = a })
	return nil
}

// GetByNumber retrieves an account by number.
func (r *AccountRepository) GetByNumber(_ context.Context, number string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func() { account = copyOf(r.store.accounts[number]) })
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// GetDefaultByUser retrieves the user's default account.
func (r *AccountRepository) GetDefaultByUser(_ context.Context, userID string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func() {
		for _, a := range r.store.accounts {
			if a.UserID == userID && a.IsDefault && !a.System {
				account = copyOf(a)
				return
			}
		}
	})
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// GetSystem retrieves the bank account for a currency.
func (r *AccountRepository) GetSystem(_ context.Context, currency string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func() {
		for _, a := range r.store.accounts {
			if a.System && a.Currency == currency {
				account = copyOf(a)
				return
			}
		}
	})
	if account == nil {
		return nil, domain.ErrSystemAccountNotFound
	}
	return account, nil
}

// ListByUser lists a user's accounts, oldest first.
func (r *AccountRepository) ListByUser(_ context.Context, userID string) ([]*domain.Account, error) {
	var accounts []*domain.Account
	r.store.read(func() {
		for _, a := range r.store.accounts {
			if a.UserID == userID && !a.System {
				accounts = append(accounts, copyOf(a))
			}
		}
	})
	slices.SortFunc(accounts, func(a, b *domain.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return accounts, nil
}

// GetByNumberForUpdate locks and retrieves an account.
func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, tx usecase.Tx, number string) (*domain.Account, error) {
	accounts, err := r.GetByNumbersForUpdate(ctx, tx, []string{number})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return accounts[0], nil
}

// GetByNumbersForUpdate locks the rows in ascending number order. Missing numbers are
// absent from the result.
func (r *AccountRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Tx, numbers []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	var accounts []*domain.Account
	for _, number := range sortedUnique(numbers) {
		if err := t.lock(ctx, accountKey(number)); err != nil {
			return nil, err
		}
		if a := get(t, accountKey(number), committedAccount(number)); a != nil {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

// UpdateBalance updates the balance of a locked account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, number string, balance decimal.Decimal, updatedAt time.Time) error {
	return r.update(ctx, tx, number, func(a *domain.Account) error {
		if balance.IsNegative() && !a.System {
			return fmt.Errorf("%w: account %s", domain.ErrInsufficientFunds, number)
		}
		a.Balance = balance
		a.Version++
		a.UpdatedAt = updatedAt
		return nil
	})
}

// UpdateDetails persists the name and default flag.
func (r *AccountRepository) UpdateDetails(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	name, isDefault, updatedAt := account.Name, account.IsDefault, account.UpdatedAt
	return r.update(ctx, tx, account.Number, func(a *domain.Account) error {
		a.Name = name
		a.IsDefault = isDefault
		a.UpdatedAt = updatedAt
		return nil
	})
}

func (r *AccountRepository) update(ctx context.Context, tx usecase.Tx, number string, mutate func(a *domain.Account) error) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	key := accountKey(number)
	if err := t.lock(ctx, key); err != nil {
		return err
	}
	account := get(t, key, committedAccount(number))
	if account == nil {
		return domain.ErrAccountNotFound
	}
	if err := mutate(account); err != nil {
		return err
	}

	// Replay the mutation on the committed row so fields written by other
	// transactions, such as the default flag, survive.
	t.staged[key] = account
	t.write(func(s *Store) {
		if committed, ok := s.accounts[number]; ok {
			_ = mutate(committed)
		}
	})
	return nil
}

// ClearDefault unsets the default flag on all of the user's accounts.
func (r *AccountRepository) ClearDefault(ctx context.Context, tx usecase.Tx, userID string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	accounts, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		key := accountKey(a.Number)
		if current := get(t, key, committedAccount(a.Number)); current != nil && current.IsDefault {
			current.IsDefault = false
			put(t, key, current, func(s *Store, row *domain.Account) {
				if committed, ok := s.accounts[row.Number]; ok {
					committed.IsDefault = false
				}
			})
		}
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Tx, number string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	key := accountKey(number)
	if err := t.lock(ctx, key); err != nil {
		return err
	}
	if a := get(t, key, committedAccount(number)); a == nil || a.System {
		return domain.ErrAccountNotFound
	}

	drop[domain.Account](t, key, func(s *Store) { delete(s.accounts, number) })
	return nil
}
