// Package memory is a process-local implementation of the repositories with
// row-level locking, used for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// DefaultLockTimeout bounds how long a transaction waits for a row lock.
const DefaultLockTimeout = 2 * time.Second

// Store holds committed state. Writes become visible only when their transaction commits.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*domain.Account
	cards        map[string]*domain.Card
	transactions []*domain.Transaction
	loans        map[string]*domain.Loan
	deposits     map[string]*domain.Deposit
	types        map[string]*domain.InstrumentType
	users        map[string]*domain.User
	states       map[string]*domain.Creditworthiness

	locks       *lockTable
	lockTimeout time.Duration
}

// NewStore creates an empty store. A non-positive lockTimeout uses DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		accounts:    make(map[string]*domain.Account),
		cards:       make(map[string]*domain.Card),
		loans:       make(map[string]*domain.Loan),
		deposits:    make(map[string]*domain.Deposit),
		types:       make(map[string]*domain.InstrumentType),
		users:       make(map[string]*domain.User),
		states:      make(map[string]*domain.Creditworthiness),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

// PutUser inserts or replaces a user. Users are owned by an external service.
func (s *Store) PutUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

// PutCreditworthiness inserts or replaces a creditworthiness state.
func (s *Store) PutCreditworthiness(c *domain.Creditworthiness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *c
	s.states[c.ID] = &v
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// lockTable hands out one exclusive lock per key.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (l *lockTable) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.slot(key) <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrConflict
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lockTable) release(key string) {
	<-l.slot(key)
}

func cloneType(t *domain.InstrumentType) *domain.InstrumentType {
	c := *t
	c.Options = slices.Clone(t.Options)
	return &c
}

func copyOf[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func sortedUnique(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
