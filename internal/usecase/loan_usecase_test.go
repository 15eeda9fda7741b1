package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

var standardLoan = domain.Option{Duration: 12, Percent: dec("0.4")}

func newLoanBank(t *testing.T) (*bank, *domain.Account) {
	t.Helper()

	b := newBank(t)
	b.user("alice", "+37491000001", "good")
	if _, err := b.catalog.CreateType(context.Background(), usecase.CreateTypeInput{
		Kind:      domain.InstrumentLoan,
		Name:      "Standard",
		Options:   []domain.Option{standardLoan},
		Available: true,
	}); err != nil {
		t.Fatalf("failed to create loan type: %v", err)
	}
	return b, b.openAccount(t, "alice", "USD")
}

func TestLoanUseCase_Lifecycle(t *testing.T) {
	b, acc := newLoanBank(t)
	ctx := context.Background()

	loan, err := b.loans.CreateLoan(ctx, usecase.CreateLoanInput{
		UserID:   "alice",
		LoanName: "Standard",
		Option:   standardLoan,
		Amount:   dec("6000"),
		To:       acc.Endpoint(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (6000 + 6000*0.4) / 12
	if !loan.Payment.Equal(dec("700")) {
		t.Fatalf("expected minimum payment 700, got %s", loan.Payment)
	}
	if loan.Currency != "USD" || loan.Status != domain.StatusInProgress || !loan.EndDate.Equal(epoch.Add(12*period)) {
		t.Fatalf("unexpected loan %+v", loan)
	}
	requireBalance(t, b, acc.Number, "6000")
	requireBalance(t, b, usecase.SystemAccountNumber("USD"), "-6000")

	pay := func(amount string) (*domain.Loan, error) {
		return b.loans.PayLoan(ctx, usecase.PayLoanInput{LoanID: loan.ID, Amount: dec(amount), From: acc.Endpoint()})
	}

	if _, err := pay("699"); !errors.Is(err, domain.ErrBelowMinimumPayment) {
		t.Fatalf("expected ErrBelowMinimumPayment, got %v", err)
	}
	requireBalance(t, b, acc.Number, "6000")

	if _, err := pay("6000.01"); !errors.Is(err, domain.ErrPaymentExceedsRemained) {
		t.Fatalf("expected ErrPaymentExceedsRemained, got %v", err)
	}

	paid, err := pay("700")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !paid.StayedAmount.Equal(dec("5300")) || paid.IsClosed() {
		t.Fatalf("expected 5300 remaining on an open loan, got %+v", paid)
	}
	requireBalance(t, b, acc.Number, "5300")

	closed, err := b.loans.CloseLoan(ctx, loan.ID, acc.Endpoint())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closed.IsClosed() || !closed.StayedAmount.IsZero() {
		t.Fatalf("expected closed loan, got %+v", closed)
	}
	requireBalance(t, b, acc.Number, "0")
	requireBalance(t, b, usecase.SystemAccountNumber("USD"), "0")

	if _, err := pay("700"); !errors.Is(err, domain.ErrLoanAlreadyClosed) {
		t.Fatalf("expected ErrLoanAlreadyClosed, got %v", err)
	}
	if _, err := b.loans.CloseLoan(ctx, loan.ID, acc.Endpoint()); domain.KindOf(err) != domain.KindAlreadyClosed {
		t.Fatalf("expected ALREADY_CLOSED, got %v", err)
	}

	if b.notifier.ofType(domain.NotificationLoanIssued) != 1 ||
		b.notifier.ofType(domain.NotificationLoanPaid) != 1 ||
		b.notifier.ofType(domain.NotificationLoanClosed) != 1 {
		t.Fatalf("unexpected loan notifications %+v", b.notifier.notes)
	}
}

func TestLoanUseCase_PaymentRollsBackOnInsufficientFunds(t *testing.T) {
	b, acc := newLoanBank(t)
	ctx := context.Background()
	other := b.openAccount(t, "alice", "USD")

	loan, err := b.loans.CreateLoan(ctx, usecase.CreateLoanInput{UserID: "alice", LoanName: "Standard", Option: standardLoan, Amount: dec("6000"), To: acc.Endpoint()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := b.loans.PayLoan(ctx, usecase.PayLoanInput{LoanID: loan.ID, Amount: dec("700"), From: other.Endpoint()}); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got, err := b.loans.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.StayedAmount.Equal(dec("6000")) {
		t.Fatalf("failed payment must not change the loan, got %s", got.StayedAmount)
	}
}

func TestLoanUseCase_CreateLoanRejections(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		loan    string
		option  domain.Option
		wantErr error
	}{
		{name: "blocked user", userID: "blocked", loan: "Standard", option: standardLoan, wantErr: domain.ErrIneligibleForLoan},
		{name: "unknown user", userID: "ghost", loan: "Standard", option: standardLoan, wantErr: domain.ErrIneligibleForLoan},
		{name: "unknown type", userID: "alice", loan: "Gold", option: standardLoan, wantErr: domain.ErrLoanTypeNotFound},
		{name: "option not offered", userID: "alice", loan: "Standard", option: domain.Option{Duration: 12, Percent: dec("0.3")}, wantErr: domain.ErrOptionNotFound},
		{name: "unavailable type", userID: "alice", loan: "Retired", option: standardLoan, wantErr: domain.ErrTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, acc := newLoanBank(t)
			ctx := context.Background()
			b.user("blocked", "+37491000009", "blocked")
			if _, err := b.catalog.CreateType(ctx, usecase.CreateTypeInput{Kind: domain.InstrumentLoan, Name: "Retired", Options: []domain.Option{standardLoan}}); err != nil {
				t.Fatalf("failed to create type: %v", err)
			}

			_, err := b.loans.CreateLoan(ctx, usecase.CreateLoanInput{UserID: tt.userID, LoanName: tt.loan, Option: tt.option, Amount: dec("1000"), To: acc.Endpoint()})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			requireBalance(t, b, acc.Number, "0")
		})
	}
}

func TestLoanUseCase_ConcurrentCloseDebitsOnce(t *testing.T) {
	b, acc := newLoanBank(t)
	ctx := context.Background()

	loan, err := b.loans.CreateLoan(ctx, usecase.CreateLoanInput{UserID: "alice", LoanName: "Standard", Option: standardLoan, Amount: dec("6000"), To: acc.Endpoint()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.fund(t, acc.Endpoint(), "USD", 6000)

	const workers = 10
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.loans.CloseLoan(context.Background(), loan.ID, acc.Endpoint())
			if err == nil {
				succeeded.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrLoanAlreadyClosed) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != 1 {
		t.Fatalf("expected exactly one close, got %d", got)
	}
	requireBalance(t, b, acc.Number, "6000")
}

func TestLoanUseCase_ConcurrentPaymentsAreNotLost(t *testing.T) {
	b, acc := newLoanBank(t)
	ctx := context.Background()

	loan, err := b.loans.CreateLoan(ctx, usecase.CreateLoanInput{UserID: "alice", LoanName: "Standard", Option: standardLoan, Amount: dec("6000"), To: acc.Endpoint()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := b.loans.PayLoan(ctx, usecase.PayLoanInput{LoanID: loan.ID, Amount: dec("700.005"), From: acc.Endpoint()}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.loans.PayLoan(context.Background(), usecase.PayLoanInput{LoanID: loan.ID, Amount: dec("700"), From: acc.Endpoint()}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := b.loans.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.StayedAmount.Equal(dec("2500")) {
		t.Fatalf("expected 2500 remaining, got %s", got.StayedAmount)
	}
	requireBalance(t, b, acc.Number, "2500")
}

func TestLoanUseCase_CreateRacesDeleteType(t *testing.T) {
	b, acc := newLoanBank(t)
	ctx := context.Background()

	types, err := b.catalog.ListTypes(ctx, domain.InstrumentLoan, false)
	if err != nil || len(types) != 1 {
		t.Fatalf("expected the Standard type, got %d (%v)", len(types), err)
	}

	const workers = 10
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		deleteErr error
	)
	wg.Add(workers + 1)
	go func() {
		defer wg.Done()
		deleteErr = b.catalog.DeleteType(context.Background(), domain.InstrumentLoan, types[0].ID)
	}()
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := b.loans.CreateLoan(context.Background(), usecase.CreateLoanInput{UserID: "alice", LoanName: "Standard", Option: standardLoan, Amount: dec("100"), To: acc.Endpoint()})
			if err == nil {
				created.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrLoanTypeNotFound) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	loans, err := b.loans.ListLoans(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int(created.Load()) != len(loans) {
		t.Fatalf("expected %d stored loans, got %d", created.Load(), len(loans))
	}

	if deleteErr == nil {
		if len(loans) != 0 {
			t.Fatalf("type was deleted while %d loans reference it", len(loans))
		}
		return
	}
	if !errors.Is(deleteErr, domain.ErrTypeInUse) {
		t.Fatalf("expected ErrTypeInUse, got %v", deleteErr)
	}
	if len(loans) == 0 {
		t.Fatalf("delete was refused with no open loans")
	}
}
