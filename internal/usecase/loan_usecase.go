package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// LoanUseCase handles the loan lifecycle. Every state change commits in the same
// transaction as the money it moves.
type LoanUseCase struct {
	txManager TxManager
	loanRepo  LoanRepository
	typeRepo  InstrumentTypeRepository
	gate      *CreditworthinessGate
	resolver  *EndpointResolver
	transfers *TransferUseCase
	idGen     IDGenerator
	retrier   Retrier
	notifier  Notifier
	clock     Clock
	policy    domain.InterestPolicy
	metrics   *metrics.Metrics
}

// NewLoanUseCase creates a new LoanUseCase.
func NewLoanUseCase(
	txManager TxManager,
	loanRepo LoanRepository,
	typeRepo InstrumentTypeRepository,
	gate *CreditworthinessGate,
	resolver *EndpointResolver,
	transfers *TransferUseCase,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	clock Clock,
	policy domain.InterestPolicy,
	m *metrics.Metrics,
) *LoanUseCase {
	return &LoanUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		typeRepo:  typeRepo,
		gate:      gate,
		resolver:  resolver,
		transfers: transfers,
		idGen:     idGen,
		retrier:   retrier,
		notifier:  notifier,
		clock:     clock,
		policy:    policy,
		metrics:   m,
	}
}

// CreateLoanInput represents input for taking a loan.
type CreateLoanInput struct {
	UserID   string
	LoanName string
	Option   domain.Option
	Amount   decimal.Decimal
	To       domain.Endpoint
}

// PayLoanInput represents an installment paid from an endpoint.
type PayLoanInput struct {
	LoanID string
	Amount decimal.Decimal
	From   domain.Endpoint
}

// CreateLoan checks eligibility and the offer, then disburses amount from the bank to To.
func (uc *LoanUseCase) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	loan, err := uc.createLoan(ctx, input)
	if err != nil {
		uc.metrics.InstrumentFailed("loan", string(domain.KindOf(err)))
		return nil, err
	}
	return loan, nil
}

func (uc *LoanUseCase) createLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if !uc.gate.CanGiveLoan(ctx, input.UserID) {
		uc.metrics.LoanDenied()
		return nil, domain.ErrIneligibleForLoan
	}

	loanType, err := uc.typeRepo.GetByName(ctx, domain.InstrumentLoan, input.LoanName)
	if err != nil {
		return nil, err
	}

	option, err := loanType.Offer(input.Option)
	if err != nil {
		return nil, err
	}

	holder, err := uc.resolver.Lookup(ctx, input.To)
	if err != nil {
		return nil, err
	}

	bank, err := uc.transfers.SystemEndpoint(ctx, holder.Currency)
	if err != nil {
		return nil, err
	}

	var (
		loan        *domain.Loan
		transaction *domain.Transaction
	)
	err = withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		// Holding the type row keeps DeleteType from counting zero open
		// instruments while this one is being created.
		locked, err := uc.typeRepo.GetByIDForUpdate(ctx, tx, domain.InstrumentLoan, loanType.ID)
		if err != nil {
			return err
		}
		if option, err = locked.Offer(input.Option); err != nil {
			return err
		}

		now := uc.clock.Now()
		loan = &domain.Loan{
			ID:           uc.idGen.Generate(),
			UserID:       input.UserID,
			To:           input.To,
			Currency:     holder.Currency,
			Amount:       input.Amount,
			StayedAmount: input.Amount,
			Percent:      option.Percent,
			Duration:     option.Duration,
			LoanName:     loanType.Name,
			Status:       domain.StatusInProgress,
			Payment:      uc.policy.LoanPayment(input.Amount, option.Percent, option.Duration),
			StartDate:    now,
			EndDate:      uc.policy.Maturity(now, option.Duration),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := uc.loanRepo.Create(ctx, tx, loan); err != nil {
			return err
		}

		transaction, err = uc.transfers.ExecuteTx(ctx, tx, ExecuteInput{
			From:        bank,
			To:          input.To,
			Amount:      input.Amount,
			Description: fmt.Sprintf("Loan %s disbursement", loanType.Name),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.LoanIssued()
	uc.transfers.Notify(ctx, transaction)
	publish(ctx, uc.notifier, domain.LoanNotification(uc.idGen.Generate(), domain.NotificationLoanIssued, loan, loan.CreatedAt))

	return loan, nil
}

// PayLoan pays an installment. The amount must be at least the minimum payment
// unless it settles the loan exactly.
func (uc *LoanUseCase) PayLoan(ctx context.Context, input PayLoanInput) (*domain.Loan, error) {
	return uc.pay(ctx, input.LoanID, input.From, func(*domain.Loan) decimal.Decimal {
		return input.Amount
	})
}

// CloseLoan pays the whole remaining amount from the given endpoint.
func (uc *LoanUseCase) CloseLoan(ctx context.Context, loanID string, from domain.Endpoint) (*domain.Loan, error) {
	return uc.pay(ctx, loanID, from, func(l *domain.Loan) decimal.Decimal {
		return l.StayedAmount
	})
}

func (uc *LoanUseCase) pay(
	ctx context.Context,
	loanID string,
	from domain.Endpoint,
	amountOf func(*domain.Loan) decimal.Decimal,
) (*domain.Loan, error) {
	var (
		loan        *domain.Loan
		transaction *domain.Transaction
	)
	err := withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		// Instrument row first, then endpoints
		var err error
		loan, err = uc.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}

		amount := amountOf(loan)
		if err := loan.ValidatePayment(amount); err != nil {
			return err
		}

		bank, err := uc.transfers.SystemEndpoint(ctx, loan.Currency)
		if err != nil {
			return err
		}

		transaction, err = uc.transfers.ExecuteTx(ctx, tx, ExecuteInput{
			From:        from,
			To:          bank,
			Amount:      amount,
			Description: fmt.Sprintf("Loan %s payment", loan.LoanName),
		})
		if err != nil {
			return err
		}

		loan.ApplyPayment(amount, transaction.CreatedAt)
		loan.Version++

		return uc.loanRepo.Update(ctx, tx, loan)
	})
	if err != nil {
		uc.metrics.InstrumentFailed("loan", string(domain.KindOf(err)))
		return nil, err
	}

	uc.metrics.LoanPaid()
	kind := domain.NotificationLoanPaid
	if loan.IsClosed() {
		uc.metrics.LoanClosed()
		kind = domain.NotificationLoanClosed
	}

	uc.transfers.Notify(ctx, transaction)
	publish(ctx, uc.notifier, domain.LoanNotification(uc.idGen.Generate(), kind, loan, transaction.CreatedAt))

	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// ListLoans lists a user's loans.
func (uc *LoanUseCase) ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error) {
	return uc.loanRepo.ListByUser(ctx, userID)
}
