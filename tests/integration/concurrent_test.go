package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/tests/testutil"
)

func TestConcurrentTransfers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	setup := func(t *testing.T) *testutil.Bank {
		t.Helper()

		testDB.TruncateAll(ctx)
		testDB.SeedCreditworthiness(ctx, "good", true)
		testDB.SeedUser(ctx, "alice", "", "good")
		testDB.SeedUser(ctx, "bob", "", "good")
		return testDB.NewBank(ctx, usecase.SystemClock{}, 0)
	}

	t.Run("50 concurrent transfers from same account no overdraft", func(t *testing.T) {
		bank := setup(t)
		source := openAccount(t, bank, "alice", "USD")
		dest := openAccount(t, bank, "bob", "USD")
		fund(t, bank, source.Endpoint(), "USD", 300)

		numTransfers := 50

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			mu           sync.Mutex
			unexpected   error
		)

		wg.Add(numTransfers)

		for range numTransfers {
			go func() {
				defer wg.Done()

				_, err := bank.Transfers.Execute(ctx, usecase.ExecuteInput{
					From:   source.Endpoint(),
					To:     dest.Endpoint(),
					Amount: decimal.NewFromInt(10),
				})
				switch {
				case err == nil:
					successCount.Add(1)
				case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrConflict):
				default:
					mu.Lock()
					unexpected = err
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		if unexpected != nil {
			t.Fatalf("unexpected transfer error: %v", unexpected)
		}

		acc, err := bank.AccountRepo.GetByNumber(ctx, source.Number)
		if err != nil {
			t.Fatalf("failed to load source: %v", err)
		}
		if acc.Balance.IsNegative() {
			t.Fatalf("source overdrawn: %s", acc.Balance)
		}

		want := decimal.NewFromInt(int64(successCount.Load()) * 10)
		if got := decimal.NewFromInt(300).Sub(acc.Balance); !got.Equal(want) {
			t.Fatalf("expected %s debited for %d transfers, got %s", want, successCount.Load(), got)
		}
		requireBalance(t, bank, dest.Number, want.String())
	})

	t.Run("opposing transfers do not deadlock", func(t *testing.T) {
		bank := setup(t)
		a := openAccount(t, bank, "alice", "USD")
		b := openAccount(t, bank, "bob", "USD")
		fund(t, bank, a.Endpoint(), "USD", 1000)
		fund(t, bank, b.Endpoint(), "USD", 1000)

		var (
			wg     sync.WaitGroup
			failed atomic.Int32
		)

		for i := range 20 {
			from, to := a.Endpoint(), b.Endpoint()
			if i%2 == 1 {
				from, to = to, from
			}

			wg.Add(1)
			go func() {
				defer wg.Done()

				if _, err := bank.Transfers.Execute(ctx, usecase.ExecuteInput{
					From:   from,
					To:     to,
					Amount: decimal.NewFromInt(5),
				}); err != nil {
					failed.Add(1)
				}
			}()
		}

		wg.Wait()

		if failed.Load() != 0 {
			t.Fatalf("expected every opposing transfer to succeed, %d failed", failed.Load())
		}
		requireBalance(t, bank, a.Number, "1000")
		requireBalance(t, bank, b.Number, "1000")
	})
}
