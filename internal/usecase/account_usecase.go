package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	loanRepo    LoanRepository
	depositRepo DepositRepository
	idGen       IDGenerator
	clock       Clock
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	loanRepo LoanRepository,
	depositRepo DepositRepository,
	idGen IDGenerator,
	clock Clock,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		loanRepo:    loanRepo,
		depositRepo: depositRepo,
		idGen:       idGen,
		clock:       clock,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	UserID   string
	Name     string
	Currency string
	Type     domain.AccountType
}

// CreateAccount opens an account with a fresh 16-digit number. A user's first
// account becomes their default.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	currency, err := domain.NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	accountType := input.Type
	if accountType == "" {
		accountType = domain.AccountTypeCurrent
	}
	if accountType != domain.AccountTypeCurrent && accountType != domain.AccountTypeSaving {
		return nil, fmt.Errorf("%w: account type %q", domain.ErrInvalidEndpointKind, accountType)
	}

	existing, err := uc.accountRepo.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := domain.GenerateAccountNumber()
		if err != nil {
			return nil, err
		}

		now := uc.clock.Now()
		account := &domain.Account{
			ID:        uc.idGen.Generate(),
			UserID:    input.UserID,
			Number:    number,
			Name:      input.Name,
			Currency:  currency,
			Type:      accountType,
			Balance:   decimal.Zero,
			IsDefault: len(existing) == 0,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
			return uc.accountRepo.Create(ctx, tx, account)
		})
		if errors.Is(err, domain.ErrNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		uc.metrics.AccountCreated()
		return account, nil
	}

	return nil, fmt.Errorf("account number: %w", domain.ErrNumberTaken)
}

// EnsureSystemAccounts creates the bank's source/sink account for every currency
// that does not have one yet.
func (uc *AccountUseCase) EnsureSystemAccounts(ctx context.Context, currencies []string) error {
	for _, c := range currencies {
		currency, err := domain.NormalizeCurrency(c)
		if err != nil {
			return err
		}

		_, err = uc.accountRepo.GetSystem(ctx, currency)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrSystemAccountNotFound) {
			return err
		}

		now := uc.clock.Now()
		account := &domain.Account{
			ID:        uc.idGen.Generate(),
			Number:    SystemAccountNumber(currency),
			Name:      "Bank " + currency,
			Currency:  currency,
			Type:      domain.AccountTypeSystem,
			Balance:   decimal.Zero,
			System:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
			return uc.accountRepo.Create(ctx, tx, account)
		})
		if err != nil && !errors.Is(err, domain.ErrNumberTaken) {
			return fmt.Errorf("create bank account %s: %w", currency, err)
		}
	}
	return nil
}

// SystemAccountNumber returns the account number of the bank account for currency.
func SystemAccountNumber(currency string) string {
	return "BANK-" + currency
}

// GetAccount retrieves an account by number.
func (uc *AccountUseCase) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if account.System {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts lists a user's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByUser(ctx, userID)
}

// RenameAccount changes an account's display name.
func (uc *AccountUseCase) RenameAccount(ctx context.Context, number, name string) (*domain.Account, error) {
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		var err error
		account, err = uc.lockCustomerAccount(ctx, tx, number)
		if err != nil {
			return err
		}

		account.Name = name
		account.UpdatedAt = uc.clock.Now()
		return uc.accountRepo.UpdateDetails(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetDefaultAccount makes the account the owner's phone-transfer destination.
func (uc *AccountUseCase) SetDefaultAccount(ctx context.Context, number string) (*domain.Account, error) {
	var account *domain.Account
	err := withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		var err error
		account, err = uc.lockCustomerAccount(ctx, tx, number)
		if err != nil {
			return err
		}

		if err := uc.accountRepo.ClearDefault(ctx, tx, account.UserID); err != nil {
			return err
		}

		account.IsDefault = true
		account.UpdatedAt = uc.clock.Now()
		return uc.accountRepo.UpdateDetails(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an empty account that no open loan or deposit references.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, number string) error {
	return withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		account, err := uc.lockCustomerAccount(ctx, tx, number)
		if err != nil {
			return err
		}

		if err := account.CanDelete(); err != nil {
			return err
		}

		loans, err := uc.loanRepo.CountActiveByEndpoint(ctx, account.Endpoint())
		if err != nil {
			return err
		}
		deposits, err := uc.depositRepo.CountActiveByEndpoint(ctx, account.Endpoint())
		if err != nil {
			return err
		}
		if loans+deposits > 0 {
			return fmt.Errorf("%w: %d open instruments", domain.ErrAccountInUse, loans+deposits)
		}

		return uc.accountRepo.Delete(ctx, tx, number)
	})
}

func (uc *AccountUseCase) lockCustomerAccount(ctx context.Context, tx Tx, number string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByNumberForUpdate(ctx, tx, number)
	if err != nil {
		return nil, err
	}
	if account.System {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}
