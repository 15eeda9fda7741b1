package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransferUseCase is the single point through which money moves between endpoints.
type TransferUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	cardRepo        CardRepository
	transactionRepo TransactionRepository
	resolver        *EndpointResolver
	idGen           IDGenerator
	retrier         Retrier
	notifier        Notifier
	clock           Clock
	metrics         *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	cardRepo CardRepository,
	transactionRepo TransactionRepository,
	resolver *EndpointResolver,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	clock Clock,
	m *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		cardRepo:        cardRepo,
		transactionRepo: transactionRepo,
		resolver:        resolver,
		idGen:           idGen,
		retrier:         retrier,
		notifier:        notifier,
		clock:           clock,
		metrics:         m,
	}
}

// CreateTransferInput represents a transfer request as received at the boundary.
// Type describes the To token; FromType is optional and may only be ACCOUNT, CARD
// or a QR type.
type CreateTransferInput struct {
	From        string
	FromType    domain.TokenType
	To          string
	Type        domain.TokenType
	Amount      decimal.Decimal
	Description string
}

// ExecuteInput represents a transfer between resolved endpoints.
type ExecuteInput struct {
	From        domain.Endpoint
	To          domain.Endpoint
	Amount      decimal.Decimal
	Description string
}

// ResolveTransfer resolves both tokens of a request without moving money.
func (uc *TransferUseCase) ResolveTransfer(ctx context.Context, input CreateTransferInput) (ExecuteInput, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return ExecuteInput{}, err
	}

	from, err := uc.resolver.ResolveSource(ctx, input.From, input.FromType)
	if err != nil {
		return ExecuteInput{}, fmt.Errorf("from: %w", err)
	}

	to, err := uc.resolver.Resolve(ctx, input.To, input.Type)
	if err != nil {
		return ExecuteInput{}, fmt.Errorf("to: %w", err)
	}

	return ExecuteInput{
		From:        from,
		To:          to,
		Amount:      input.Amount,
		Description: input.Description,
	}, nil
}

// CreateTransfer resolves and executes a transfer request.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transaction, error) {
	execInput, err := uc.ResolveTransfer(ctx, input)
	if err != nil {
		uc.metrics.TransferFailed(string(domain.KindOf(err)))
		return nil, err
	}
	return uc.Execute(ctx, execInput)
}

// Execute moves money in its own atomic unit. Either both balances change and the
// transaction record is committed, or nothing is.
func (uc *TransferUseCase) Execute(ctx context.Context, input ExecuteInput) (*domain.Transaction, error) {
	start := time.Now()

	var transaction *domain.Transaction
	err := withinTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Tx) error {
		var err error
		transaction, err = uc.ExecuteTx(ctx, tx, input)
		return err
	})
	if err != nil {
		uc.metrics.TransferFailed(string(domain.KindOf(err)))
		return nil, err
	}

	uc.metrics.ObserveTransfer(transaction.Currency, transaction.Amount, time.Since(start))
	uc.Notify(ctx, transaction)

	return transaction, nil
}

// ExecuteTx moves money inside the caller's transaction so that lifecycle changes
// commit together with the transfer. The caller must lock its own instrument row
// before calling, and must call Notify after commit.
func (uc *TransferUseCase) ExecuteTx(ctx context.Context, tx Tx, input ExecuteInput) (*domain.Transaction, error) {
	// 0. Validate inputs before taking any lock
	if err := input.From.Validate(); err != nil {
		return nil, err
	}
	if err := input.To.Validate(); err != nil {
		return nil, err
	}
	if input.From == input.To {
		return nil, domain.ErrSameEndpoint
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	// 1. Lock both sides: accounts then cards, each in ascending number order (DEADLOCK PREVENTION)
	holders, err := uc.lockHolders(ctx, tx, input.From, input.To)
	if err != nil {
		return nil, err
	}

	from := holders[input.From.Key()]
	to := holders[input.To.Key()]

	// 2. Validate under lock
	if from.Currency != to.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	now := uc.clock.Now()
	if err := from.ValidateUsable(now); err != nil {
		return nil, err
	}
	// Bank payouts still reach an expired card so money is never stranded on it.
	if !from.System {
		if err := to.ValidateUsable(now); err != nil {
			return nil, err
		}
	}

	if err := from.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	// 3. Record and apply
	transaction := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		From:        input.From,
		To:          input.To,
		FromUserID:  from.UserID,
		ToUserID:    to.UserID,
		Amount:      input.Amount,
		Currency:    from.Currency,
		Description: domain.TruncateDescription(input.Description),
		Done:        true,
		CreatedAt:   now,
	}

	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if err := uc.updateBalance(ctx, tx, from, from.ApplyDebit(input.Amount), now); err != nil {
		return nil, err
	}

	if err := uc.updateBalance(ctx, tx, to, to.ApplyCredit(input.Amount), now); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
		return nil, err
	}

	return transaction, nil
}

// Notify emits transaction notifications for both parties of a committed transfer.
func (uc *TransferUseCase) Notify(ctx context.Context, transaction *domain.Transaction) {
	notes := make([]*domain.Notification, 0, 2)
	for _, userID := range []string{transaction.FromUserID, transaction.ToUserID} {
		if userID == "" {
			continue
		}
		if len(notes) == 1 && notes[0].UserID == userID {
			continue
		}
		notes = append(notes, domain.TransactionNotification(uc.idGen.Generate(), userID, transaction))
	}
	publish(ctx, uc.notifier, notes...)
}

// SystemEndpoint returns the bank's source/sink account for currency.
func (uc *TransferUseCase) SystemEndpoint(ctx context.Context, currency string) (domain.Endpoint, error) {
	account, err := uc.accountRepo.GetSystem(ctx, currency)
	if err != nil {
		return domain.Endpoint{}, fmt.Errorf("%s: %w", currency, err)
	}
	return account.Endpoint(), nil
}

func (uc *TransferUseCase) lockHolders(ctx context.Context, tx Tx, endpoints ...domain.Endpoint) (map[string]*domain.Holder, error) {
	var accountNumbers, cardNumbers []string
	for _, ep := range endpoints {
		switch ep.Kind {
		case domain.EndpointAccount:
			accountNumbers = append(accountNumbers, ep.Number)
		case domain.EndpointCard:
			cardNumbers = append(cardNumbers, ep.Number)
		}
	}
	sort.Strings(accountNumbers)
	sort.Strings(cardNumbers)

	holders := make(map[string]*domain.Holder, len(endpoints))

	if len(accountNumbers) > 0 {
		accounts, err := uc.accountRepo.GetByNumbersForUpdate(ctx, tx, accountNumbers)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			holders[a.Endpoint().Key()] = a.Holder()
		}
	}

	if len(cardNumbers) > 0 {
		cards, err := uc.cardRepo.GetByNumbersForUpdate(ctx, tx, cardNumbers)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			holders[c.Endpoint().Key()] = c.Holder()
		}
	}

	for _, ep := range endpoints {
		if _, ok := holders[ep.Key()]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrEndpointNotFound, ep)
		}
	}

	return holders, nil
}

func (uc *TransferUseCase) updateBalance(ctx context.Context, tx Tx, h *domain.Holder, balance decimal.Decimal, now time.Time) error {
	if h.Endpoint.Kind == domain.EndpointCard {
		return uc.cardRepo.UpdateBalance(ctx, tx, h.Endpoint.Number, balance, now)
	}
	return uc.accountRepo.UpdateBalance(ctx, tx, h.Endpoint.Number, balance, now)
}
