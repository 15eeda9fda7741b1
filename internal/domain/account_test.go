package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestHolder_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		system      bool
		expectError error
	}{
		{
			name:        "system - debit more than balance",
			balance:     decimal.NewFromInt(100),
			system:      true,
			debitAmount: decimal.NewFromInt(150),
		},
		{
			name:        "customer - debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "customer - debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
		},
		{
			name:        "customer - debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Holder{Balance: tt.balance, System: tt.system}

			err := h.ValidateDebit(tt.debitAmount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestHolder_ApplyDebitCredit(t *testing.T) {
	h := &Holder{Balance: decimal.NewFromInt(100)}

	if got := h.ApplyDebit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected balance 70, got %s", got)
	}
	if got := h.ApplyCredit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(130)) {
		t.Errorf("expected balance 130, got %s", got)
	}
}

func TestHolder_ValidateUsable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	card := &Card{Number: "4000000000000002", ExpiresAt: now}

	if err := card.Holder().ValidateUsable(now); !errors.Is(err, ErrCardExpired) {
		t.Errorf("expected ErrCardExpired, got %v", err)
	}
	if err := card.Holder().ValidateUsable(now.Add(-time.Hour)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	account := &Account{Number: "1345436382311342"}
	if err := account.Holder().ValidateUsable(now); err != nil {
		t.Errorf("accounts never expire, got %v", err)
	}
}

func TestAccount_CanDelete(t *testing.T) {
	if err := (&Account{Balance: decimal.Zero}).CanDelete(); err != nil {
		t.Errorf("expected empty account to be deletable, got %v", err)
	}
	if err := (&Account{Balance: decimal.NewFromInt(1)}).CanDelete(); !errors.Is(err, ErrAccountInUse) {
		t.Errorf("expected ErrAccountInUse, got %v", err)
	}
	if err := (&Account{System: true}).CanDelete(); !errors.Is(err, ErrAccountInUse) {
		t.Errorf("expected system account to be protected, got %v", err)
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name        string
		from        Endpoint
		to          Endpoint
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:   "valid transfer",
			from:   AccountEndpoint("1345436382311342"),
			to:     AccountEndpoint("7257646312413652"),
			amount: decimal.NewFromInt(100),
		},
		{
			name:   "account to card with same number",
			from:   AccountEndpoint("1345436382311342"),
			to:     CardEndpoint("1345436382311342"),
			amount: decimal.NewFromInt(100),
		},
		{
			name:        "same endpoint",
			from:        AccountEndpoint("1345436382311342"),
			to:          AccountEndpoint("1345436382311342"),
			amount:      decimal.NewFromInt(100),
			expectError: ErrSameEndpoint,
		},
		{
			name:        "zero amount",
			from:        AccountEndpoint("1345436382311342"),
			to:          AccountEndpoint("7257646312413652"),
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{From: tt.from, To: tt.to, Amount: tt.amount}

			err := tx.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && err != tt.expectError {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}
