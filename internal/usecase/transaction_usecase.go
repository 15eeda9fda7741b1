package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// TransactionQueryUseCase serves reads of the transaction log.
type TransactionQueryUseCase struct {
	transactionRepo TransactionRepository
}

// NewTransactionQueryUseCase creates a new TransactionQueryUseCase.
func NewTransactionQueryUseCase(transactionRepo TransactionRepository) *TransactionQueryUseCase {
	return &TransactionQueryUseCase{transactionRepo: transactionRepo}
}

// Filter returns one page of the transactions matching filter, newest first.
// Exactly one of account number, card number or user id must scope the query.
func (uc *TransactionQueryUseCase) Filter(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return uc.transactionRepo.Filter(ctx, filter)
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionQueryUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}
