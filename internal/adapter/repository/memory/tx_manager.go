package memory

import (
	"context"
	"errors"

	"github.com/iho/gobank/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("memory: transaction already finished")

	errForeignTx = errors.New("memory: transaction was not started by this store")
)

// TxManager implements usecase.TxManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, held: make(map[string]bool), staged: make(map[string]any)}, nil
}

// Tx buffers writes and holds row locks until it finishes. Reads through the
// transaction see its own staged rows.
type Tx struct {
	store  *Store
	held   map[string]bool
	order  []string
	ops    []func(s *Store)
	staged map[string]any
	done   bool
}

// Commit applies buffered writes atomically and releases locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.releaseAll()

	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	for _, op := range t.ops {
		op(t.store)
	}
	t.store.mu.Unlock()

	return nil
}

// Rollback discards buffered writes and releases locks. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.releaseAll()
	return nil
}

func (t *Tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key, t.store.lockTimeout); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *Tx) write(op func(s *Store)) {
	t.ops = append(t.ops, op)
}

func (t *Tx) releaseAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
	t.held = map[string]bool{}
}

// get returns a private copy of the row under key as t sees it, or nil.
func get[T any](t *Tx, key string, committed func(s *Store) *T) *T {
	if v, ok := t.staged[key]; ok {
		p := v.(*T)
		if p == nil {
			return nil
		}
		c := *p
		return &c
	}

	var p *T
	t.store.read(func() {
		if row := committed(t.store); row != nil {
			c := *row
			p = &c
		}
	})
	return p
}

// put stages row under key and schedules apply with its own copy at commit.
func put[T any](t *Tx, key string, row *T, apply func(s *Store, row *T)) {
	staged, final := *row, *row
	t.staged[key] = &staged
	t.write(func(s *Store) { apply(s, &final) })
}

// drop stages the removal of key.
func drop[T any](t *Tx, key string, apply func(s *Store)) {
	t.staged[key] = (*T)(nil)
	t.write(apply)
}

func asTx(tx usecase.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errForeignTx
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}
