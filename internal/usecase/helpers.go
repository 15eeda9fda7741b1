package usecase

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// withinTx runs fn in a transaction bounded by DefaultTransactionTimeout, retried by r
// on conflicts. fn's changes are committed only if it returns nil.
func withinTx(ctx context.Context, txManager TxManager, r Retrier, fn func(ctx context.Context, tx Tx) error) error {
	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if r == nil {
		return op()
	}
	return r.Retry(ctx, op)
}

// publish hands committed notifications to n. Delivery failures never undo the mutation.
func publish(ctx context.Context, n Notifier, notes ...*domain.Notification) {
	if n == nil {
		return
	}
	for _, note := range notes {
		_ = n.Notify(ctx, note)
	}
}
