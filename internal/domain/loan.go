package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a credit instrument disbursed to an endpoint. StayedAmount is the
// remaining principal: it starts at Amount and only decreases.
type Loan struct {
	ID           string
	UserID       string
	To           Endpoint
	Currency     string
	Amount       decimal.Decimal
	StayedAmount decimal.Decimal
	Percent      decimal.Decimal
	Duration     int
	LoanName     string
	Status       InstrumentStatus
	Payment      decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsClosed reports whether the loan is fully repaid.
func (l *Loan) IsClosed() bool {
	return l.Status == StatusClosed
}

// ValidatePayment checks amount against the loan state. Paying exactly the
// remaining amount is always accepted as the final payment.
func (l *Loan) ValidatePayment(amount decimal.Decimal) error {
	if l.IsClosed() {
		return ErrLoanAlreadyClosed
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.Equal(l.StayedAmount) {
		return nil
	}
	if amount.GreaterThan(l.StayedAmount) {
		return ErrPaymentExceedsRemained
	}
	if amount.LessThan(l.Payment) {
		return ErrBelowMinimumPayment
	}
	return nil
}

// ApplyPayment decrements the remaining amount and closes the loan at zero.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time) {
	l.StayedAmount = l.StayedAmount.Sub(amount)
	if l.StayedAmount.LessThanOrEqual(decimal.Zero) {
		l.StayedAmount = decimal.Zero
		l.Status = StatusClosed
		l.EndDate = now
	}
	l.UpdatedAt = now
}
