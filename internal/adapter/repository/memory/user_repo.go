package memory

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// UserRepository is the read-only view of users seeded with Store.PutUser.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var user *domain.User
	r.store.read(func() { user = copyOf(r.store.users[id]) })
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByPhone retrieves an active user by normalized phone number.
func (r *UserRepository) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	var user *domain.User
	r.store.read(func() {
		for _, u := range r.store.users {
			if u.Active && u.Phone == phone {
				user = copyOf(u)
				return
			}
		}
	})
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// CreditworthinessRepository reads states seeded with Store.PutCreditworthiness.
type CreditworthinessRepository struct {
	store *Store
}

// NewCreditworthinessRepository creates a new CreditworthinessRepository.
func NewCreditworthinessRepository(store *Store) *CreditworthinessRepository {
	return &CreditworthinessRepository{store: store}
}

// GetByID retrieves a creditworthiness state by ID.
func (r *CreditworthinessRepository) GetByID(_ context.Context, id string) (*domain.Creditworthiness, error) {
	var state *domain.Creditworthiness
	r.store.read(func() { state = copyOf(r.store.states[id]) })
	if state == nil {
		return nil, domain.ErrCreditworthinessMissing
	}
	return state, nil
}
