package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create appends a transaction to the log when tx commits.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Tx, t *domain.Transaction) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	row := *t
	mtx.write(func(s *Store) { s.transactions = append(s.transactions, &row) })
	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	var found *domain.Transaction
	r.store.read(func() {
		for _, t := range r.store.transactions {
			if t.ID == id {
				found = copyOf(t)
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return found, nil
}

// Filter returns one page of the scoped log, newest first, and the total match count.
func (r *TransactionRepository) Filter(_ context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var matched []*domain.Transaction
	r.store.read(func() {
		for _, t := range r.store.transactions {
			if filter.Matches(t) {
				matched = append(matched, copyOf(t))
			}
		}
	})
	slices.SortFunc(matched, func(a, b *domain.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	page := &domain.TransactionPage{
		Items: []*domain.Transaction{},
		Page:  filter.Page,
		Size:  filter.Size,
		Total: int64(len(matched)),
	}
	if start := filter.Offset(); start < len(matched) {
		page.Items = matched[start:min(start+filter.Size, len(matched))]
	}
	return page, nil
}
