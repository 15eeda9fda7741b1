package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	store *Store
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(store *Store) *LoanRepository {
	return &LoanRepository{store: store}
}

func loanKey(id string) string { return "loan:" + id }

func committedLoan(id string) func(s *Store) *domain.Loan {
	return func(s *Store) *domain.Loan { return s.loans[id] }
}

// Create creates a new loan.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Tx, loan *domain.Loan) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, loanKey(loan.ID)); err != nil {
		return err
	}

	put(t, loanKey(loan.ID), loan, func(s *Store, l *domain.Loan) { s.loans[l.ID] = l })
	return nil
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	var loan *domain.Loan
	r.store.read(func() { loan = copyOf(r.store.loans[id]) })
	if loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// GetByIDForUpdate locks and retrieves a loan.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Loan, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, loanKey(id)); err != nil {
		return nil, err
	}

	loan := get(t, loanKey(id), committedLoan(id))
	if loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// Update persists the repayment state of a loan.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Tx, loan *domain.Loan) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, loanKey(loan.ID)); err != nil {
		return err
	}
	if get(t, loanKey(loan.ID), committedLoan(loan.ID)) == nil {
		return domain.ErrLoanNotFound
	}

	put(t, loanKey(loan.ID), loan, func(s *Store, l *domain.Loan) { s.loans[l.ID] = l })
	return nil
}

// ListByUser lists a user's loans, newest first.
func (r *LoanRepository) ListByUser(_ context.Context, userID string) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	r.store.read(func() {
		for _, l := range r.store.loans {
			if l.UserID == userID {
				loans = append(loans, copyOf(l))
			}
		}
	})
	slices.SortFunc(loans, func(a, b *domain.Loan) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return loans, nil
}

// CountActiveByName counts open loans issued under a loan type.
func (r *LoanRepository) CountActiveByName(_ context.Context, name string) (int, error) {
	return r.count(func(l *domain.Loan) bool { return l.LoanName == name }), nil
}

// CountActiveByEndpoint counts open loans paying out to endpoint.
func (r *LoanRepository) CountActiveByEndpoint(_ context.Context, endpoint domain.Endpoint) (int, error) {
	return r.count(func(l *domain.Loan) bool { return l.To == endpoint }), nil
}

func (r *LoanRepository) count(match func(l *domain.Loan) bool) int {
	n := 0
	r.store.read(func() {
		for _, l := range r.store.loans {
			if l.Status == domain.StatusInProgress && match(l) {
				n++
			}
		}
	})
	return n
}

// DepositRepository implements usecase.DepositRepository.
type DepositRepository struct {
	store *Store
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(store *Store) *DepositRepository {
	return &DepositRepository{store: store}
}

func depositKey(id string) string { return "deposit:" + id }

func committedDeposit(id string) func(s *Store) *domain.Deposit {
	return func(s *Store) *domain.Deposit { return s.deposits[id] }
}

// Create creates a new deposit.
func (r *DepositRepository) Create(ctx context.Context, tx usecase.Tx, deposit *domain.Deposit) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, depositKey(deposit.ID)); err != nil {
		return err
	}

	put(t, depositKey(deposit.ID), deposit, func(s *Store, d *domain.Deposit) { s.deposits[d.ID] = d })
	return nil
}

// GetByID retrieves a deposit by ID.
func (r *DepositRepository) GetByID(_ context.Context, id string) (*domain.Deposit, error) {
	var deposit *domain.Deposit
	r.store.read(func() { deposit = copyOf(r.store.deposits[id]) })
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	return deposit, nil
}

// GetByIDForUpdate locks and retrieves a deposit.
func (r *DepositRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Deposit, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, depositKey(id)); err != nil {
		return nil, err
	}

	deposit := get(t, depositKey(id), committedDeposit(id))
	if deposit == nil {
		return nil, domain.ErrDepositNotFound
	}
	return deposit, nil
}

// Update persists the principal and status of a deposit.
func (r *DepositRepository) Update(ctx context.Context, tx usecase.Tx, deposit *domain.Deposit) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, depositKey(deposit.ID)); err != nil {
		return err
	}
	if get(t, depositKey(deposit.ID), committedDeposit(deposit.ID)) == nil {
		return domain.ErrDepositNotFound
	}

	put(t, depositKey(deposit.ID), deposit, func(s *Store, d *domain.Deposit) { s.deposits[d.ID] = d })
	return nil
}

// ListByUser lists a user's deposits, newest first.
func (r *DepositRepository) ListByUser(_ context.Context, userID string) ([]*domain.Deposit, error) {
	var deposits []*domain.Deposit
	r.store.read(func() {
		for _, d := range r.store.deposits {
			if d.UserID == userID {
				deposits = append(deposits, copyOf(d))
			}
		}
	})
	slices.SortFunc(deposits, func(a, b *domain.Deposit) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return deposits, nil
}

// CountActiveByName counts open deposits opened under a deposit type.
func (r *DepositRepository) CountActiveByName(_ context.Context, name string) (int, error) {
	return r.count(func(d *domain.Deposit) bool { return d.DepositName == name }), nil
}

// CountActiveByEndpoint counts open deposits funded from endpoint.
func (r *DepositRepository) CountActiveByEndpoint(_ context.Context, endpoint domain.Endpoint) (int, error) {
	return r.count(func(d *domain.Deposit) bool { return d.From == endpoint }), nil
}

func (r *DepositRepository) count(match func(d *domain.Deposit) bool) int {
	n := 0
	r.store.read(func() {
		for _, d := range r.store.deposits {
			if d.Status == domain.StatusInProgress && match(d) {
				n++
			}
		}
	})
	return n
}
