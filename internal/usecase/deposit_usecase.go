package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// DepositUseCase handles the deposit lifecycle.
type DepositUseCase struct {
	txManager   TxManager
	depositRepo DepositRepository
	typeRepo    InstrumentTypeRepository
	resolver    *EndpointResolver
	transfers   *TransferUseCase
	idGen       IDGenerator
	retrier     Retrier
	notifier    Notifier
	clock       Clock
	policy      domain.InterestPolicy
	metrics     *metrics.Metrics
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(
	txManager TxManager,
	depositRepo DepositRepository,
	typeRepo InstrumentTypeRepository,
	resolver *EndpointResolver,
	transfers *TransferUseCase,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	clock Clock,
	policy domain.InterestPolicy,
	m *metrics.Metrics,
) *DepositUseCase {
	return &DepositUseCase{
		txManager:   txManager,
		depositRepo: depositRepo,
		typeRepo:    typeRepo,
		resolver:    resolver,
		transfers:   transfers,
		idGen:       idGen,
		retrier:     retrier,
		notifier:    notifier,
		clock:       clock,
		policy:      policy,
		metrics:     m,
	}
}

// CreateDepositInput represents input for opening a deposit.
type CreateDepositInput struct {
	UserID      string
	DepositName string
	Option      domain.Option
	Amount      decimal.Decimal
	From        domain.Endpoint
}

// AddAmountInput represents a top-up of an open deposit.
type AddAmountInput struct {
	DepositID string
	Amount    decimal.Decimal
	From      domain.Endpoint
}

// CreateDeposit moves amount from From to the bank and opens the deposit.
func (uc *DepositUseCase) CreateDeposit(ctx context.Context, input CreateDepositInput) (*domain.Deposit, error) {
	deposit, err := uc.createDeposit(ctx, input)
	if err != nil {
		uc.metrics.InstrumentFailed("deposit", string(domain.KindOf(err)))
		return nil, err
	}
	return deposit, nil
}

func (uc *DepositUseCase) createDeposit(ctx context.Context, input CreateDepositInput) (*domain.Deposit, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	depositType, err := uc.typeRepo.GetByName(ctx, domain.InstrumentDeposit, input.DepositName)
	if err != nil {
		return nil, err
	}

	option, err := depositType.Offer(input.Option)
	if err != nil {
		return nil, err
	}

	holder, err := uc.resolver.Lookup(ctx, input.From)
	if err != nil {
		return nil, err
	}

	bank, err := uc.transfers.SystemEndpoint(ctx, holder.Currency)
	if err != nil {
		return nil, err
	}

	var (
		deposit     *domain.Deposit
		transaction *domain.Transaction
	)
	err = withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		// Holding the type row keeps DeleteType from counting zero open
		// instruments while this one is being created.
		locked, err := uc.typeRepo.GetByIDForUpdate(ctx, tx, domain.InstrumentDeposit, depositType.ID)
		if err != nil {
			return err
		}
		if option, err = locked.Offer(input.Option); err != nil {
			return err
		}

		now := uc.clock.Now()
		deposit = &domain.Deposit{
			ID:          uc.idGen.Generate(),
			UserID:      input.UserID,
			From:        input.From,
			Currency:    holder.Currency,
			Amount:      input.Amount,
			Percent:     option.Percent,
			Duration:    option.Duration,
			DepositName: depositType.Name,
			Status:      domain.StatusInProgress,
			StartDate:   now,
			EndDate:     uc.policy.Maturity(now, option.Duration),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := uc.depositRepo.Create(ctx, tx, deposit); err != nil {
			return err
		}

		transaction, err = uc.transfers.ExecuteTx(ctx, tx, ExecuteInput{
			From:        input.From,
			To:          bank,
			Amount:      input.Amount,
			Description: fmt.Sprintf("Deposit %s opening", depositType.Name),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.DepositOpened()
	uc.transfers.Notify(ctx, transaction)
	publish(ctx, uc.notifier, domain.DepositNotification(uc.idGen.Generate(), domain.NotificationDepositOpened, deposit, deposit.CreatedAt))

	return deposit, nil
}

// AddAmount tops up an open deposit from an endpoint.
func (uc *DepositUseCase) AddAmount(ctx context.Context, input AddAmountInput) (*domain.Deposit, error) {
	var (
		deposit     *domain.Deposit
		transaction *domain.Transaction
	)
	err := withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		var err error
		deposit, err = uc.depositRepo.GetByIDForUpdate(ctx, tx, input.DepositID)
		if err != nil {
			return err
		}

		if err := deposit.ValidateTopUp(input.Amount); err != nil {
			return err
		}

		bank, err := uc.transfers.SystemEndpoint(ctx, deposit.Currency)
		if err != nil {
			return err
		}

		transaction, err = uc.transfers.ExecuteTx(ctx, tx, ExecuteInput{
			From:        input.From,
			To:          bank,
			Amount:      input.Amount,
			Description: fmt.Sprintf("Deposit %s top-up", deposit.DepositName),
		})
		if err != nil {
			return err
		}

		deposit.Amount = deposit.Amount.Add(input.Amount)
		deposit.UpdatedAt = transaction.CreatedAt
		deposit.Version++

		return uc.depositRepo.Update(ctx, tx, deposit)
	})
	if err != nil {
		uc.metrics.InstrumentFailed("deposit", string(domain.KindOf(err)))
		return nil, err
	}

	uc.metrics.DepositToppedUp()
	uc.transfers.Notify(ctx, transaction)
	publish(ctx, uc.notifier, domain.DepositNotification(uc.idGen.Generate(), domain.NotificationDepositToppedUp, deposit, transaction.CreatedAt))

	return deposit, nil
}

// TakeAll closes the deposit and credits principal plus accrued interest back to
// the endpoint it was funded from.
func (uc *DepositUseCase) TakeAll(ctx context.Context, depositID string) (*domain.Deposit, error) {
	var (
		deposit     *domain.Deposit
		transaction *domain.Transaction
	)
	err := withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		var err error
		deposit, err = uc.depositRepo.GetByIDForUpdate(ctx, tx, depositID)
		if err != nil {
			return err
		}

		if deposit.IsClosed() {
			return domain.ErrDepositAlreadyClosed
		}

		bank, err := uc.transfers.SystemEndpoint(ctx, deposit.Currency)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		transaction, err = uc.transfers.ExecuteTx(ctx, tx, ExecuteInput{
			From:        bank,
			To:          deposit.From,
			Amount:      deposit.Payout(uc.policy, now),
			Description: fmt.Sprintf("Deposit %s payout", deposit.DepositName),
		})
		if err != nil {
			return err
		}

		deposit.Close(transaction.CreatedAt)
		deposit.Version++

		return uc.depositRepo.Update(ctx, tx, deposit)
	})
	if err != nil {
		uc.metrics.InstrumentFailed("deposit", string(domain.KindOf(err)))
		return nil, err
	}

	uc.metrics.DepositClosed()
	uc.transfers.Notify(ctx, transaction)
	publish(ctx, uc.notifier, domain.DepositNotification(uc.idGen.Generate(), domain.NotificationDepositClosed, deposit, transaction.CreatedAt))

	return deposit, nil
}

// PreviewPayout returns what TakeAll would pay out now.
func (uc *DepositUseCase) PreviewPayout(ctx context.Context, depositID string) (decimal.Decimal, error) {
	deposit, err := uc.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return decimal.Zero, err
	}
	if deposit.IsClosed() {
		return decimal.Zero, domain.ErrDepositAlreadyClosed
	}
	return deposit.Payout(uc.policy, uc.clock.Now()), nil
}

// GetDeposit retrieves a deposit by ID.
func (uc *DepositUseCase) GetDeposit(ctx context.Context, id string) (*domain.Deposit, error) {
	return uc.depositRepo.GetByID(ctx, id)
}

// ListDeposits lists a user's deposits.
func (uc *DepositUseCase) ListDeposits(ctx context.Context, userID string) ([]*domain.Deposit, error) {
	return uc.depositRepo.ListByUser(ctx, userID)
}
